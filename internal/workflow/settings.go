package workflow

// Settings holds every value of the graph that does not vary per job:
// model selections, prompts, sampler and memory tuning.
type Settings struct {
	VAE          ModelSpec
	TextEncoder  ModelSpec
	Prompt       Prompt
	ClipVision   string
	Wav2Vec      ModelSpec
	MultiTalk    string
	Diffusion    DiffusionSpec
	LoRA         LoRASpec
	BlockSwap    BlockSwapSpec
	Embeds       EmbedSpec
	ImageToVideo ImageToVideoSpec
	Sampler      SamplerSpec
	Decode       DecodeSpec

	// FPS drives both the audio embedding and the muxed video frame rate.
	FPS          float64
	OutputFormat string
}

// ModelSpec names a model file and its load precision.
type ModelSpec struct {
	Name      string
	Precision string
}

type Prompt struct {
	Positive string
	Negative string
}

type DiffusionSpec struct {
	Model      string
	Precision  string
	LoadDevice string
	Attention  string
}

type LoRASpec struct {
	Name     string
	Strength float64
}

type BlockSwapSpec struct {
	Blocks         int
	PrefetchBlocks int
	NonBlocking    bool
}

type EmbedSpec struct {
	AudioScale    float64
	AudioCFGScale float64
	ClipTiles     int
	ClipRatio     float64
}

type ImageToVideoSpec struct {
	FrameWindow int
	MotionFrame int
}

type SamplerSpec struct {
	Steps     int
	CFG       float64
	Shift     float64
	Seed      int64
	Scheduler string
}

// DecodeSpec is the VAE tiling configuration.
type DecodeSpec struct {
	Tiling       bool
	TileX, TileY int
	StrideX      int
	StrideY      int
}

// DefaultSettings returns the InfiniteTalk single-speaker template: Wan 2.1
// I2V 14B 480p (Q8 GGUF) with the lightx2v 4-step distill LoRA.
func DefaultSettings() Settings {
	return Settings{
		VAE:         ModelSpec{Name: "Wan2_1_VAE_bf16.safetensors", Precision: "bf16"},
		TextEncoder: ModelSpec{Name: "umt5-xxl-enc-bf16.safetensors", Precision: "bf16"},
		Prompt: Prompt{
			Positive: "a person is talking naturally",
			Negative: "bad quality, blurry, distorted face, static, subtitles, worst quality",
		},
		ClipVision: "clip_vision_h.safetensors",
		Wav2Vec:    ModelSpec{Name: "wav2vec2-chinese-base_fp16.safetensors", Precision: "fp16"},
		MultiTalk:  "WanVideo/InfiniteTalk/Wan2_1-InfiniteTalk_Single_Q8.gguf",
		Diffusion: DiffusionSpec{
			Model:      "WanVideo/I2V/wan2.1-i2v-14b-480p-Q8_0.gguf",
			Precision:  "bf16",
			LoadDevice: "offload_device",
			Attention:  "sageattn",
		},
		LoRA: LoRASpec{
			Name:     "lightx2v_I2V_14B_480p_cfg_step_distill_rank64_bf16.safetensors",
			Strength: 1.0,
		},
		BlockSwap: BlockSwapSpec{Blocks: 20, PrefetchBlocks: 1, NonBlocking: true},
		Embeds: EmbedSpec{
			AudioScale:    1.5,
			AudioCFGScale: 1.0,
			ClipTiles:     4,
			ClipRatio:     0.5,
		},
		ImageToVideo: ImageToVideoSpec{FrameWindow: 81, MotionFrame: 9},
		Sampler: SamplerSpec{
			Steps:     4,
			CFG:       1.0,
			Shift:     11.0,
			Seed:      2,
			Scheduler: "unipc",
		},
		Decode: DecodeSpec{
			Tiling:  false,
			TileX:   272,
			TileY:   272,
			StrideX: 144,
			StrideY: 128,
		},
		FPS:          25.0,
		OutputFormat: "video/h264-mp4",
	}
}
