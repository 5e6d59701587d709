package audio

import (
	"math"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
)

// DefaultFPS is the video frame rate used when none is configured.
const DefaultFPS = 25.0

// FrameCount converts an audio duration to a video frame count:
// floor(seconds*fps) + 1. The extra frame is the closing boundary frame
// and is always added, so the result is at least 1.
func FrameCount(seconds, fps float64) (int, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, errors.Validationf("invalid audio duration %v", seconds).WithField("duration", seconds)
	}
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0, errors.Validationf("invalid frame rate %v", fps).WithField("fps", fps)
	}
	return int(math.Floor(seconds*fps)) + 1, nil
}
