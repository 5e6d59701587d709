package comfy

import (
	"context"
	"time"

	v1 "github.com/boat2moon/infinitetalk-comfyui-workflow/internal/contracts/comfy/v1"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/logger"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
)

// Result is the terminal state of one wait.
type Result struct {
	Outcome Outcome
	// Entry is the last history record seen; nil on timeout if the server
	// never reported the prompt.
	Entry    *v1.HistoryEntry
	Elapsed  time.Duration
	Attempts int
}

// Status returns the server status block, if any was seen.
func (r *Result) Status() v1.Status {
	if r.Entry == nil {
		return v1.Status{}
	}
	return r.Entry.Status
}

type Poller struct {
	client   Client
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger
}

func NewPoller(client Client, interval, timeout time.Duration, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Hour
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Poller{
		client:   client,
		interval: interval,
		timeout:  timeout,
		log:      log.WithComponent("poller"),
	}
}

// Wait polls the history of id until it completes, fails, or the timeout
// elapses. The first check is immediate. Unavailable and malformed
// responses are retried on the next tick; any other error, and
// cancellation of ctx, end the wait with that error.
func (p *Poller) Wait(ctx context.Context, id string) (*Result, error) {
	log := p.log.WithPromptID(id)
	start := time.Now()
	res := &Result{}

	for {
		res.Attempts++
		entry, err := p.client.History(ctx, id)
		switch {
		case err != nil && !errors.IsTransient(err):
			return nil, err
		case err != nil:
			log.Debug("history check failed, retrying", "attempt", res.Attempts, "error", err.Error())
		case entry != nil:
			res.Entry = entry
			if entry.Finished() {
				res.Outcome = OutcomeCompleted
				res.Elapsed = time.Since(start)
				return res, nil
			}
			if entry.Failed() {
				res.Outcome = OutcomeFailed
				res.Elapsed = time.Since(start)
				return res, nil
			}
		}

		remaining := p.timeout - time.Since(start)
		if remaining <= 0 {
			break
		}
		wait := p.interval
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if time.Since(start) >= p.timeout {
			break
		}
	}

	res.Outcome = OutcomeTimedOut
	res.Elapsed = time.Since(start)
	log.Warn("gave up waiting for prompt", "attempts", res.Attempts, "timeout", p.timeout.String())
	return res, nil
}
