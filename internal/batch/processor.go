package batch

import (
	"context"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/audio"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/comfy"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ports"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/workflow"
)

// Processor runs the steps of one item: derive the frame count, build and
// submit the graph, wait for the result.
type Processor struct {
	inputs  ports.InputStore
	builder *workflow.Builder
	client  comfy.Client
	waiter  Waiter
	fps     float64
}

func NewProcessor(inputs ports.InputStore, builder *workflow.Builder, client comfy.Client, waiter Waiter, fps float64) *Processor {
	if fps == 0 {
		fps = audio.DefaultFPS
	}
	return &Processor{
		inputs:  inputs,
		builder: builder,
		client:  client,
		waiter:  waiter,
		fps:     fps,
	}
}

// Frames returns the video frame count for the item's audio.
func (p *Processor) Frames(ctx context.Context, item models.Item) (int, error) {
	seconds, err := audio.DurationOf(ctx, p.inputs, item.Audio)
	if err != nil {
		return 0, err
	}
	frames, err := audio.FrameCount(seconds, p.fps)
	if err != nil {
		return 0, errors.Wrap(err, "batch.frames", "derive frame count").WithField("audio", item.Audio)
	}
	return frames, nil
}

// Graph builds the job graph for item.
func (p *Processor) Graph(item models.Item, frames int) workflow.Graph {
	return p.builder.Build(item.Subject, item.Audio, frames)
}

// Submit builds and enqueues the item's graph.
func (p *Processor) Submit(ctx context.Context, item models.Item, frames int) (string, error) {
	return p.client.Submit(ctx, p.Graph(item, frames))
}

func (p *Processor) Wait(ctx context.Context, promptID string) (*comfy.Result, error) {
	return p.waiter.Wait(ctx, promptID)
}
