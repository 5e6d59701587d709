package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/batch"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/comfy"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/config"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/httpapi"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/httpapi/handlers"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ledger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/lock"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/logger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/shutdown"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/storage"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/util"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewDefault()
	if err := newRootCmd(log).Execute(); err != nil {
		log.Error("batch failed", "error", err.Error())
		os.Exit(1)
	}
}

func newRootCmd(log *logger.Logger) *cobra.Command {
	var inputDir string

	cmd := &cobra.Command{
		Use:   "infinitetalk-batch",
		Short: "Render every subject with every audio clip on a ComfyUI server",
		Long: `Submit one InfiniteTalk job per subject and audio pair to ComfyUI,
one at a time, and wait for each to finish before the next.

The subjects, audio files and server address are compiled in from
internal/config/batch.yaml. Audio is read from the server's input
directory to size each video.

Optional environment:
  DATABASE_URL      record runs and outputs in Postgres
  REDIS_ADDR        hold an exclusive lock on the server while running
  LOCK_TTL          lock lease (default 3h)
  STATUS_HTTP_ADDR  serve read-only progress, e.g. :8090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(log, inputDir)
		},
	}
	cmd.Flags().StringVar(&inputDir, "comfyui-input", "input", "Path to ComfyUI input directory (for audio duration calc)")
	return cmd
}

func run(log *logger.Logger, inputDir string) error {
	cfg, err := config.Default()
	if err != nil {
		return err
	}
	rt := config.LoadRuntime()

	mgr := shutdown.NewManager(log, 30*time.Second)
	mgr.WatchSignals()
	defer mgr.Shutdown()
	ctx := mgr.Context()

	inputs, err := storage.NewInputStore(inputDir)
	if err != nil {
		return err
	}

	runID := util.NewRunID()
	log = log.WithRunID(runID)

	client := comfy.NewHTTPClient(cfg.ComfyUI.BaseURL, runID, cfg.ComfyUI.RequestTimeout)
	poller := comfy.NewPoller(client, cfg.ComfyUI.PollInterval, cfg.ComfyUI.Timeout, log)

	settings := workflow.DefaultSettings()
	settings.FPS = cfg.FPS

	deps := batch.Deps{
		RunID:    runID,
		Batch:    cfg,
		Inputs:   inputs,
		Client:   client,
		Waiter:   poller,
		Builder:  workflow.NewBuilder(settings),
		Recorder: ledger.Nop{},
		Out:      os.Stdout,
		Log:      log,
	}

	var pg *ledger.Postgres
	if rt.DatabaseURL != "" {
		pg = openLedger(ctx, mgr, log, rt.DatabaseURL)
		if pg != nil {
			deps.Recorder = pg
		}
	}

	var rdb *redis.Client
	if rt.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: rt.RedisAddr})
		mgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})

		l, err := lock.Acquire(ctx, rdb, lock.Key(cfg.ComfyUI.BaseURL), rt.LockTTL)
		if err != nil {
			return err
		}
		log.Info("server lock acquired", "key", l.Key(), "ttl", rt.LockTTL.String())
		mgr.Register("server-lock", l.Release)
		deps.Lease = l
	}

	driver := batch.New(deps)

	if rt.StatusAddr != "" {
		hd := handlers.Deps{
			Progress:  driver.Progress(),
			Workflows: driver.Processor(),
			ComfyUI:   client,
			RDB:       rdb,
			Log:       log,
		}
		if pg != nil {
			hd.Ledger = pg
		}
		startStatusServer(mgr, log, rt.StatusAddr, hd)
	}

	sum, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s stopped after %d of %d items: %w", runID, sum.Processed, sum.Total, err)
	}
	return nil
}

// openLedger connects the optional run ledger. Failures are logged and the
// run continues without it.
func openLedger(ctx context.Context, mgr *shutdown.Manager, log *logger.Logger, url string) *ledger.Postgres {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := ledger.Open(openCtx, url)
	if err != nil {
		log.Warn("run ledger disabled", "error", err.Error())
		return nil
	}
	mgr.RegisterSimple("postgres", pool.Close)

	pg := ledger.NewPostgres(pool)
	if err := pg.EnsureSchema(openCtx); err != nil {
		log.Warn("run ledger schema check failed", "error", err.Error())
	}
	log.Info("run ledger connected")
	return pg
}

func startStatusServer(mgr *shutdown.Manager, log *logger.Logger, addr string, d handlers.Deps) {
	srv := httpapi.NewServer(addr, httpapi.NewRouter(d))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := httpapi.Serve(ctx, srv, log); err != nil {
			log.Error("status server failed", "error", err.Error())
		}
	}()

	mgr.Register("status-server", func(shutdownCtx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
}
