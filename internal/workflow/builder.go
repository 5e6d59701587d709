package workflow

import (
	"path/filepath"
	"strings"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
)

// Fixed node ids of the InfiniteTalk graph.
const (
	NodeVAE          NodeID = "1"
	NodeText         NodeID = "2"
	NodeClipVision   NodeID = "3"
	NodeWav2Vec      NodeID = "4"
	NodeMultiTalk    NodeID = "5"
	NodeAudio        NodeID = "6"
	NodeFrame        NodeID = "7"
	NodeEmbeds       NodeID = "8"
	NodeClipEncode   NodeID = "9"
	NodeImageToVideo NodeID = "10"
	NodeLoRA         NodeID = "11"
	NodeBlockSwap    NodeID = "12"
	NodeModel        NodeID = "13"
	NodeSampler      NodeID = "14"
	NodeDecode       NodeID = "15"
	NodeCombine      NodeID = "16"
	NodeFace         NodeID = "17"
)

// Builder produces job graphs from a fixed Settings template.
type Builder struct {
	settings Settings
}

func NewBuilder(s Settings) *Builder {
	return &Builder{settings: s}
}

// Settings returns the template the builder was created with.
func (b *Builder) Settings() Settings { return b.settings }

// Build returns the graph for one subject/audio job. It is pure: equal
// arguments produce graphs that encode to identical bytes.
func (b *Builder) Build(subject models.Subject, audio string, frames int) Graph {
	s := b.settings
	out := func(id NodeID) Ref { return Ref{Node: id} }

	return Graph{
		NodeVAE:        vaeLoader(s.VAE),
		NodeText:       textEncodeCached(s.TextEncoder, s.Prompt),
		NodeClipVision: clipVisionLoader(s.ClipVision),
		NodeWav2Vec:    wav2vecLoader(s.Wav2Vec),
		NodeMultiTalk:  multiTalkLoader(s.MultiTalk),
		NodeAudio:      loadAudio(audio),
		NodeFrame:      loadImage(subject.Frame),
		NodeFace:       loadImage(subject.Face),
		NodeEmbeds:     wav2vecEmbeds(out(NodeWav2Vec), out(NodeAudio), frames, s.FPS, s.Embeds),
		NodeClipEncode: clipVisionEncode(out(NodeClipVision), out(NodeFrame), out(NodeFace), s.Embeds),
		NodeImageToVideo: imageToVideo(out(NodeVAE), out(NodeFrame), out(NodeClipEncode),
			subject.Width, subject.Height, s.ImageToVideo),
		NodeLoRA:      loraSelect(s.LoRA),
		NodeBlockSwap: blockSwap(s.BlockSwap),
		NodeModel:     modelLoader(s.Diffusion, out(NodeLoRA), out(NodeBlockSwap), out(NodeMultiTalk)),
		NodeSampler: sampler(out(NodeModel), out(NodeText), out(NodeImageToVideo), out(NodeEmbeds),
			s.Sampler),
		NodeDecode:  decode(out(NodeVAE), out(NodeSampler), s.Decode),
		NodeCombine: videoCombine(out(NodeDecode), out(NodeAudio), s.FPS, OutputPrefix(subject.Name, audio), s.OutputFormat),
	}
}

// OutputPrefix is the filename prefix of a job's rendered video:
// IT_<subject>_<audio without extension>.
func OutputPrefix(subject, audio string) string {
	return "IT_" + subject + "_" + strings.TrimSuffix(audio, filepath.Ext(audio))
}
