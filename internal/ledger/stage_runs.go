package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StageRecord is the input to RecordStage.
type StageRecord struct {
	Stage       string
	CommandLine string
	ExitCode    int
	Duration    time.Duration
	Stderr      []byte
	Err         error
}

// RecordStage appends the outcome of one stage to run id. The stderr tail is
// kept only for failures.
func (s *Store) RecordStage(ctx context.Context, runID string, rec StageRecord) (StageRun, error) {
	if strings.TrimSpace(runID) == "" {
		return StageRun{}, errors.New("run id required")
	}
	if strings.TrimSpace(rec.Stage) == "" {
		return StageRun{}, errors.New("stage name required")
	}

	entry := StageRun{
		RunID:       runID,
		Stage:       rec.Stage,
		CommandLine: rec.CommandLine,
		ExitCode:    rec.ExitCode,
		Status:      StageSucceeded,
		Duration:    rec.Duration,
		RecordedAt:  time.Now().UTC(),
	}
	if rec.Err != nil || rec.ExitCode != 0 {
		entry.Status = StageFailed
		entry.StderrTail = tail(rec.Stderr, stderrTailLimit)
		if rec.Err != nil {
			entry.ErrorMessage = rec.Err.Error()
		}
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO stage_runs (
            run_id, stage, command_line, exit_code, status, duration_ms, stderr_tail, error_message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Stage,
		entry.CommandLine,
		entry.ExitCode,
		entry.Status,
		entry.Duration.Milliseconds(),
		nullableString(entry.StderrTail),
		nullableString(entry.ErrorMessage),
		formatTime(entry.RecordedAt),
	)
	if err != nil {
		return StageRun{}, fmt.Errorf("insert stage run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return StageRun{}, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// StageRuns returns the stages recorded for run id in execution order.
func (s *Store) StageRuns(ctx context.Context, runID string) ([]StageRun, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, run_id, stage, command_line, exit_code, status, duration_ms, stderr_tail, error_message, recorded_at
         FROM stage_runs WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stage runs: %w", err)
	}
	defer rows.Close()

	var out []StageRun
	for rows.Next() {
		var (
			entry       StageRun
			status      string
			durationMS  int64
			stderrTail  sql.NullString
			errorMsg    sql.NullString
			recordedRaw string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Stage,
			&entry.CommandLine,
			&entry.ExitCode,
			&status,
			&durationMS,
			&stderrTail,
			&errorMsg,
			&recordedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan stage run: %w", err)
		}
		entry.Status = StageStatus(status)
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entry.StderrTail = stderrTail.String
		entry.ErrorMessage = errorMsg.String
		if recorded, err := parseTimeString(recordedRaw); err == nil {
			entry.RecordedAt = recorded
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage runs: %w", err)
	}
	return out, nil
}
