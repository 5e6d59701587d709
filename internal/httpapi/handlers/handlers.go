package handlers

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/batch"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/logger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/workflow"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Workflows derives what an item submits. *batch.Processor satisfies it.
type Workflows interface {
	Frames(ctx context.Context, item models.Item) (int, error)
	Graph(item models.Item, frames int) workflow.Graph
}

type Deps struct {
	Progress  *batch.Progress
	Workflows Workflows
	ComfyUI   Pinger

	// Optional; deep health reports them as disabled when nil.
	Ledger Pinger
	RDB    *redis.Client

	ServiceName string
	Log         *logger.Logger
}

type Handler struct {
	progress    *batch.Progress
	workflows   Workflows
	comfy       Pinger
	ledger      Pinger
	rdb         *redis.Client
	serviceName string
	log         *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	name := d.ServiceName
	if name == "" {
		name = "infinitetalk-batch"
	}
	return &Handler{
		progress:    d.Progress,
		workflows:   d.Workflows,
		comfy:       d.ComfyUI,
		ledger:      d.Ledger,
		rdb:         d.RDB,
		serviceName: name,
		log:         log.WithComponent("status"),
	}
}
