package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
)

func TestFrameCount(t *testing.T) {
	tests := []struct {
		seconds float64
		fps     float64
		want    int
	}{
		{10.0, 25.0, 251},
		{0, 25.0, 1},
		{0.039, 25.0, 1},
		{0.04, 25.0, 2},
		{3.999, 25.0, 100},
		{1.5, 30.0, 46},
	}

	for _, tt := range tests {
		got, err := FrameCount(tt.seconds, tt.fps)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "FrameCount(%v, %v)", tt.seconds, tt.fps)
	}
}

func TestFrameCountMatchesFloorPlusOne(t *testing.T) {
	for i := 0; i < 2000; i++ {
		seconds := float64(i) * 0.0137
		got, err := FrameCount(seconds, DefaultFPS)
		require.NoError(t, err)
		assert.Equal(t, int(math.Floor(seconds*DefaultFPS))+1, got)
		assert.GreaterOrEqual(t, got, 1)
	}
}

func TestFrameCountRejects(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		fps     float64
	}{
		{"negative duration", -0.5, 25},
		{"nan duration", math.NaN(), 25},
		{"inf duration", math.Inf(1), 25},
		{"zero fps", 1, 0},
		{"nan fps", 1, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FrameCount(tt.seconds, tt.fps)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}
