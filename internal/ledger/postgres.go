package ledger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS batch_runs (
	id          TEXT PRIMARY KEY,
	base_url    TEXT NOT NULL,
	total       INT NOT NULL,
	status      TEXT NOT NULL,
	succeeded   INT NOT NULL DEFAULT 0,
	failed      INT NOT NULL DEFAULT 0,
	error_text  TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS batch_items (
	run_id      TEXT NOT NULL REFERENCES batch_runs(id),
	item_index  INT NOT NULL,
	subject     TEXT NOT NULL,
	audio       TEXT NOT NULL,
	frames      INT NOT NULL,
	prompt_id   TEXT,
	state       TEXT NOT NULL,
	outputs     TEXT[] NOT NULL DEFAULT '{}',
	error_text  TEXT,
	elapsed_ms  BIGINT NOT NULL DEFAULT 0,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, item_index)
);
`

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "ledger.open", "invalid DATABASE_URL")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "ledger.open", "postgres unreachable")
	}
	return pool, nil
}

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the ledger tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "ledger.schema", "create ledger tables")
	}
	return nil
}

func (p *Postgres) StartRun(ctx context.Context, run Run) error {
	err := p.startRun(ctx, run)
	if IsUndefinedTable(err) {
		if err := p.EnsureSchema(ctx); err != nil {
			return err
		}
		err = p.startRun(ctx, run)
	}
	if err != nil {
		if IsUniqueViolation(err) {
			return errors.Conflict("run already recorded").WithField("run_id", run.ID)
		}
		return errors.Wrap(err, "ledger.start_run", "insert run")
	}
	return nil
}

func (p *Postgres) startRun(ctx context.Context, run Run) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO batch_runs (id, base_url, total, status, started_at)
		VALUES ($1,$2,$3,$4,$5)
	`, run.ID, run.BaseURL, run.Total, RunRunning, run.StartedAt)
	return err
}

func (p *Postgres) RecordItem(ctx context.Context, item Item) error {
	outputs := item.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	_, err := p.db.Exec(ctx, `
		INSERT INTO batch_items
			(run_id, item_index, subject, audio, frames, prompt_id, state, outputs, error_text, elapsed_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (run_id, item_index) DO UPDATE SET
			prompt_id  = EXCLUDED.prompt_id,
			state      = EXCLUDED.state,
			outputs    = EXCLUDED.outputs,
			error_text = EXCLUDED.error_text,
			elapsed_ms = EXCLUDED.elapsed_ms,
			updated_at = now()
	`,
		item.RunID, item.Index, item.Subject, item.Audio, item.Frames,
		nullIfEmpty(item.PromptID), item.State, outputs, nullIfEmpty(item.Error),
		item.Elapsed.Milliseconds(),
	)
	if err != nil {
		return errors.Wrap(err, "ledger.record_item", "upsert item").
			WithField("run_id", item.RunID).
			WithField("index", item.Index)
	}
	return nil
}

func (p *Postgres) FinishRun(ctx context.Context, runID string, res RunResult) error {
	cmd, err := p.db.Exec(ctx, `
		UPDATE batch_runs
		SET status=$2, succeeded=$3, failed=$4, error_text=$5, finished_at=now()
		WHERE id=$1
	`, runID, res.Status, res.Succeeded, res.Failed, nullIfEmpty(res.Error))
	if err != nil {
		return errors.Wrap(err, "ledger.finish_run", "update run")
	}
	if cmd.RowsAffected() == 0 {
		return errors.NotFound("run", runID)
	}
	return nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
