// Package batch drives a full InfiniteTalk run: every subject paired with
// every audio file, submitted one at a time.
package batch

import (
	"context"
	"time"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/comfy"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/config"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/ledger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/logger"
)

// Summary counts item outcomes. Failed excludes timeouts.
type Summary struct {
	RunID     string
	Total     int
	Processed int
	Succeeded int
	Failed    int
	TimedOut  int
	Elapsed   time.Duration
}

type Driver struct {
	runID     string
	batch     config.Batch
	items     []models.Item
	processor *Processor
	reporter  *Reporter
	progress  *Progress
	recorder  ledger.Recorder
	lease     Lease
	log       *logger.Logger
}

func New(d Deps) *Driver {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("batch").WithRunID(d.RunID)

	items := d.Batch.Items()
	progress := d.Progress
	if progress == nil {
		progress = NewProgress(d.RunID, items)
	}
	recorder := d.Recorder
	if recorder == nil {
		recorder = ledger.Nop{}
	}

	return &Driver{
		runID:     d.RunID,
		batch:     d.Batch,
		items:     items,
		processor: NewProcessor(d.Inputs, d.Builder, d.Client, d.Waiter, d.Batch.FPS),
		reporter:  NewReporter(d.Out),
		progress:  progress,
		recorder:  recorder,
		lease:     d.Lease,
		log:       log,
	}
}

func (d *Driver) Progress() *Progress { return d.progress }

// Processor exposes the per-item steps, for previews outside the run.
func (d *Driver) Processor() *Processor { return d.processor }

// Run processes every item in order. A server-reported failure or timeout
// marks the item failed and moves on. Anything else (unreadable audio, a
// rejected or unanswered submission, a lost lock, cancellation) stops the
// run and is returned along with the partial summary.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: d.runID, Total: len(d.items)}

	d.log.Info("batch started", "items", sum.Total, "base_url", d.batch.ComfyUI.BaseURL)
	d.record("start run", d.recorder.StartRun(ctx, ledger.Run{
		ID:        d.runID,
		BaseURL:   d.batch.ComfyUI.BaseURL,
		Total:     sum.Total,
		StartedAt: start.UTC(),
	}))

	for _, item := range d.items {
		if err := d.step(ctx, item, &sum); err != nil {
			sum.Elapsed = time.Since(start)
			d.progress.finish(item.Index, ItemHalted, nil, err.Error())
			d.progress.end(RunHalted, err.Error())
			d.reporter.Stopped(sum, err)
			d.log.LogError(ctx, "batch halted", err, "index", item.Index, "processed", sum.Processed)
			d.finishRun(ledger.RunHalted, sum, err.Error())
			return sum, err
		}
	}

	sum.Elapsed = time.Since(start)
	d.progress.end(RunFinished, "")
	d.reporter.Finished(sum)
	d.log.Info("batch finished",
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"timed_out", sum.TimedOut,
		"duration_ms", sum.Elapsed.Milliseconds(),
	)
	d.finishRun(ledger.RunFinished, sum, "")
	return sum, nil
}

func (d *Driver) step(ctx context.Context, item models.Item, sum *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.lease != nil {
		if err := d.lease.Refresh(ctx); err != nil {
			return err
		}
	}

	log := d.log.With("index", item.Index, "subject", item.Subject.Name, "audio", item.Audio)
	d.progress.begin(item.Index)

	frames, err := d.processor.Frames(ctx, item)
	if err != nil {
		return err
	}
	d.progress.setFrames(item.Index, frames)
	d.reporter.Begin(item, sum.Total, frames)

	promptID, err := d.processor.Submit(ctx, item, frames)
	if err != nil {
		return errors.Wrap(err, "batch.submit", "submit job").
			WithField("index", item.Index)
	}
	d.reporter.Submitted(promptID)
	d.progress.submitted(item.Index, promptID)
	log.Info("job submitted", "prompt_id", promptID, "frames", frames)

	rec := ledger.Item{
		RunID:    d.runID,
		Index:    item.Index,
		Subject:  item.Subject.Name,
		Audio:    item.Audio,
		Frames:   frames,
		PromptID: promptID,
		State:    ledger.StateSubmitted,
	}
	d.record("record item", d.recorder.RecordItem(ctx, rec))

	res, err := d.processor.Wait(ctx, promptID)
	if err != nil {
		return errors.Wrap(err, "batch.wait", "wait for job").
			WithField("index", item.Index).
			WithField("prompt_id", promptID)
	}
	sum.Processed++
	rec.Elapsed = res.Elapsed

	switch res.Outcome {
	case comfy.OutcomeCompleted:
		outputs := res.Entry.Filenames(d.batch.ComfyUI.MediaKeys...)
		for _, name := range outputs {
			d.reporter.Output(name)
		}
		d.reporter.Done()
		sum.Succeeded++
		d.progress.finish(item.Index, ItemCompleted, outputs, "")
		rec.State, rec.Outputs = ledger.StateCompleted, outputs
		log.Info("job completed", "prompt_id", promptID, "outputs", len(outputs), "duration_ms", res.Elapsed.Milliseconds())

	case comfy.OutcomeFailed:
		status := res.Status()
		d.reporter.ServerError(status)
		d.reporter.Failed()
		sum.Failed++
		d.progress.finish(item.Index, ItemFailed, nil, status.String())
		rec.State, rec.Error = ledger.StateFailed, status.String()
		log.Warn("job failed on server", "prompt_id", promptID, "status", status.String())

	default:
		d.reporter.Timeout()
		d.reporter.Failed()
		sum.TimedOut++
		d.progress.finish(item.Index, ItemTimedOut, nil, "timed out")
		rec.State, rec.Error = ledger.StateTimedOut, "timed out"
		log.Warn("job timed out", "prompt_id", promptID, "attempts", res.Attempts)
	}

	d.record("record item", d.recorder.RecordItem(ctx, rec))
	return nil
}

// finishRun closes the ledger row even when ctx is already canceled.
func (d *Driver) finishRun(status string, sum Summary, errText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	d.record("finish run", d.recorder.FinishRun(ctx, d.runID, ledger.RunResult{
		Status:    status,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed + sum.TimedOut,
		Error:     errText,
	}))
}

// record logs ledger failures. They never affect the run.
func (d *Driver) record(what string, err error) {
	if err != nil {
		d.log.Warn("ledger write failed", "op", what, "error", err.Error())
	}
}
