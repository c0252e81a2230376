package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/tgflow/internal/host"
	"github.com/flemzord/tgflow/pkg/workflow"
)

const selectColumns = `id, workflow_id, status, error, items, started_at, finished_at`

// Record implements host.Recorder. Attachment bytes are not stored.
func (s *Store) Record(ctx context.Context, e host.Execution) error {
	e = e.WithoutBinaryData()
	items := e.Items
	if items == nil {
		items = []workflow.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("sqlite: marshal items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO executions
			(id, workflow_id, status, error, items, item_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.WorkflowID, string(e.Status), e.Error,
		string(itemsJSON), len(e.Items),
		formatTime(e.StartedAt), formatTime(e.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record execution: %w", err)
	}
	return nil
}

// Recent returns up to limit executions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]host.Execution, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM executions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent executions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanExecutions(rows)
}

// ByWorkflow returns up to limit executions of one workflow, newest first.
func (s *Store) ByWorkflow(ctx context.Context, workflowID string, limit int) ([]host.Execution, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM executions
		WHERE workflow_id = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`,
		workflowID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: workflow executions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanExecutions(rows)
}

// Get returns one execution by ID.
func (s *Store) Get(ctx context.Context, id string) (host.Execution, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM executions WHERE id = ?`, id)
	e, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return host.Execution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Count returns the number of stored executions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM executions").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count executions: %w", err)
	}
	return n, nil
}

// Prune deletes all but the keep most recent executions and returns how
// many rows were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM executions
		WHERE rowid NOT IN (
			SELECT rowid FROM executions
			ORDER BY started_at DESC, rowid DESC
			LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune executions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune rows affected: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (host.Execution, error) {
	var (
		e                   host.Execution
		status, itemsJSON   string
		startedAt, finished string
	)
	if err := row.Scan(&e.ID, &e.WorkflowID, &status, &e.Error, &itemsJSON, &startedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("sqlite: scan execution: %w", err)
	}
	e.Status = host.Status(status)

	if err := json.Unmarshal([]byte(itemsJSON), &e.Items); err != nil {
		return e, fmt.Errorf("sqlite: unmarshal items of %s: %w", e.ID, err)
	}
	if len(e.Items) == 0 {
		e.Items = nil
	}

	var err error
	if e.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return e, fmt.Errorf("sqlite: parse started_at of %s: %w", e.ID, err)
	}
	if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return e, fmt.Errorf("sqlite: parse finished_at of %s: %w", e.ID, err)
	}
	return e, nil
}

func scanExecutions(rows *sql.Rows) ([]host.Execution, error) {
	var out []host.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: execution rows: %w", err)
	}
	return out, nil
}

// formatTime stores UTC with fixed-width nanoseconds so that lexical order
// matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
