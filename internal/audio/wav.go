// Package audio probes WAV inputs for their playback length and turns that
// length into the frame count the video pipeline renders.
package audio

import (
	"context"
	"io"

	"github.com/go-audio/wav"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ports"
)

// Info describes a WAV stream as declared by its header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// Frames is the number of sample frames (one sample per channel).
	Frames int64
}

// Duration returns the playback length in seconds.
func (i Info) Duration() float64 {
	return float64(i.Frames) / float64(i.SampleRate)
}

// Probe reads the RIFF/WAVE header from r. Sample data is not decoded.
func Probe(r io.ReadSeeker) (Info, error) {
	d := wav.NewDecoder(r)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return Info{}, errors.WrapWithCode(err, errors.CodeInvalidAudio, "audio.probe", "unreadable wav header")
	}
	// Err hides io.EOF, so a truncated header shows up as zero fields.
	if d.SampleRate == 0 || d.NumChans == 0 || d.BitDepth == 0 {
		return Info{}, errors.New(errors.CodeInvalidAudio, "missing or corrupt wav fmt chunk")
	}

	if err := d.FwdToPCM(); err != nil {
		return Info{}, errors.WrapWithCode(err, errors.CodeInvalidAudio, "audio.probe", "wav data chunk not found")
	}

	frameSize := int64(d.NumChans) * int64((d.BitDepth+7)/8)
	return Info{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Frames:     int64(d.PCMSize) / frameSize,
	}, nil
}

// DurationOf opens name from store and returns its duration in seconds.
// Open failures are reported as invalid audio, the same as a bad header.
func DurationOf(ctx context.Context, store ports.InputStore, name string) (float64, error) {
	f, err := store.Open(ctx, name)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.CodeInvalidAudio, "audio.open", "cannot open audio file").
			WithField("audio", name)
	}
	defer f.Close()

	info, err := Probe(f)
	if err != nil {
		return 0, errors.Wrapf(err, "audio.duration", "probe %s", name).WithField("audio", name)
	}
	return info.Duration(), nil
}
