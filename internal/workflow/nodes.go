package workflow

// Node class types understood by ComfyUI-WanVideoWrapper, ComfyUI core and
// VideoHelperSuite.
const (
	ClassVAELoader        = "WanVideoVAELoader"
	ClassTextEncodeCached = "WanVideoTextEncodeCached"
	ClassCLIPVisionLoader = "CLIPVisionLoader"
	ClassWav2VecLoader    = "Wav2VecModelLoader"
	ClassMultiTalkLoader  = "MultiTalkModelLoader"
	ClassLoadAudio        = "LoadAudio"
	ClassLoadImage        = "LoadImage"
	ClassWav2VecEmbeds    = "MultiTalkWav2VecEmbeds"
	ClassClipVisionEncode = "WanVideoClipVisionEncode"
	ClassImageToVideo     = "WanVideoImageToVideoMultiTalk"
	ClassLoraSelect       = "WanVideoLoraSelect"
	ClassBlockSwap        = "WanVideoBlockSwap"
	ClassModelLoader      = "WanVideoModelLoader"
	ClassSampler          = "WanVideoSampler"
	ClassDecode           = "WanVideoDecode"
	ClassVideoCombine     = "VHS_VideoCombine"
)

func vaeLoader(m ModelSpec) Node {
	return Node{ClassType: ClassVAELoader, Inputs: map[string]any{
		"model_name": m.Name,
		"precision":  m.Precision,
	}}
}

func textEncodeCached(m ModelSpec, p Prompt) Node {
	return Node{ClassType: ClassTextEncodeCached, Inputs: map[string]any{
		"model_name":      m.Name,
		"precision":       m.Precision,
		"positive_prompt": p.Positive,
		"negative_prompt": p.Negative,
		"quantization":    "disabled",
		"use_disk_cache":  true,
		"device":          "gpu",
	}}
}

func clipVisionLoader(name string) Node {
	return Node{ClassType: ClassCLIPVisionLoader, Inputs: map[string]any{
		"clip_name": name,
	}}
}

func wav2vecLoader(m ModelSpec) Node {
	return Node{ClassType: ClassWav2VecLoader, Inputs: map[string]any{
		"model":          m.Name,
		"base_precision": m.Precision,
		"load_device":    "main_device",
	}}
}

func multiTalkLoader(model string) Node {
	return Node{ClassType: ClassMultiTalkLoader, Inputs: map[string]any{
		"model": model,
	}}
}

func loadAudio(name string) Node {
	return Node{ClassType: ClassLoadAudio, Inputs: map[string]any{
		"audio": name,
	}}
}

func loadImage(name string) Node {
	return Node{ClassType: ClassLoadImage, Inputs: map[string]any{
		"image": name,
	}}
}

func wav2vecEmbeds(model, audio Ref, frames int, fps float64, e EmbedSpec) Node {
	return Node{ClassType: ClassWav2VecEmbeds, Inputs: map[string]any{
		"wav2vec_model":      model,
		"audio_1":            audio,
		"normalize_loudness": true,
		"num_frames":         frames,
		"fps":                fps,
		"audio_scale":        e.AudioScale,
		"audio_cfg_scale":    e.AudioCFGScale,
		"multi_audio_type":   "para",
	}}
}

func clipVisionEncode(clip, frame, face Ref, e EmbedSpec) Node {
	return Node{ClassType: ClassClipVisionEncode, Inputs: map[string]any{
		"clip_vision":    clip,
		"image_1":        frame,
		"image_2":        face,
		"strength_1":     1.0,
		"strength_2":     1.0,
		"crop":           "center",
		"combine_embeds": "concat",
		"force_offload":  true,
		"tiles":          e.ClipTiles,
		"ratio":          e.ClipRatio,
	}}
}

func imageToVideo(vae, start, clipEmbeds Ref, width, height int, s ImageToVideoSpec) Node {
	return Node{ClassType: ClassImageToVideo, Inputs: map[string]any{
		"vae":               vae,
		"start_image":       start,
		"width":             width,
		"height":            height,
		"frame_window_size": s.FrameWindow,
		"motion_frame":      s.MotionFrame,
		"force_offload":     false,
		"colormatch":        "disabled",
		"tiled_vae":         false,
		"clip_embeds":       clipEmbeds,
		"mode":              "infinitetalk",
	}}
}

func loraSelect(l LoRASpec) Node {
	return Node{ClassType: ClassLoraSelect, Inputs: map[string]any{
		"lora":        l.Name,
		"strength":    l.Strength,
		"merge_loras": false,
	}}
}

func blockSwap(b BlockSwapSpec) Node {
	return Node{ClassType: ClassBlockSwap, Inputs: map[string]any{
		"blocks_to_swap":      b.Blocks,
		"offload_img_emb":     false,
		"offload_txt_emb":     false,
		"use_non_blocking":    b.NonBlocking,
		"vace_blocks_to_swap": 0,
		"prefetch_blocks":     b.PrefetchBlocks,
		"block_swap_debug":    false,
	}}
}

func modelLoader(d DiffusionSpec, lora, swap, multitalk Ref) Node {
	return Node{ClassType: ClassModelLoader, Inputs: map[string]any{
		"model":           d.Model,
		"base_precision":  d.Precision,
		"quantization":    "disabled",
		"load_device":     d.LoadDevice,
		"attention_mode":  d.Attention,
		"lora":            lora,
		"block_swap_args": swap,
		"multitalk_model": multitalk,
	}}
}

func sampler(model, text, image, multitalk Ref, s SamplerSpec) Node {
	return Node{ClassType: ClassSampler, Inputs: map[string]any{
		"model":             model,
		"text_embeds":       text,
		"image_embeds":      image,
		"multitalk_embeds":  multitalk,
		"steps":             s.Steps,
		"cfg":               s.CFG,
		"shift":             s.Shift,
		"seed":              s.Seed,
		"scheduler":         s.Scheduler,
		"force_offload":     true,
		"riflex_freq_index": 0,
	}}
}

func decode(vae, samples Ref, d DecodeSpec) Node {
	return Node{ClassType: ClassDecode, Inputs: map[string]any{
		"vae":               vae,
		"samples":           samples,
		"enable_vae_tiling": d.Tiling,
		"tile_x":            d.TileX,
		"tile_y":            d.TileY,
		"tile_stride_x":     d.StrideX,
		"tile_stride_y":     d.StrideY,
		"normalization":     "default",
	}}
}

func videoCombine(images, audio Ref, frameRate float64, prefix, format string) Node {
	return Node{ClassType: ClassVideoCombine, Inputs: map[string]any{
		"images":          images,
		"audio":           audio,
		"frame_rate":      frameRate,
		"loop_count":      0,
		"filename_prefix": prefix,
		"format":          format,
		"pingpong":        false,
		"save_output":     true,
	}}
}
