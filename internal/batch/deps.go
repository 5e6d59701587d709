package batch

import (
	"context"
	"io"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/comfy"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/config"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ledger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/logger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ports"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/workflow"
)

// Waiter blocks until a submitted prompt reaches a terminal state.
type Waiter interface {
	Wait(ctx context.Context, id string) (*comfy.Result, error)
}

// Lease is a held server lock that must be kept alive between items.
type Lease interface {
	Refresh(ctx context.Context) error
}

type Deps struct {
	RunID   string
	Batch   config.Batch
	Inputs  ports.InputStore
	Client  comfy.Client
	Waiter  Waiter
	Builder *workflow.Builder

	// Optional.
	Recorder ledger.Recorder
	Lease    Lease
	Progress *Progress
	Out      io.Writer
	Log      *logger.Logger
}
