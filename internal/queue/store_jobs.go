package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const jobColumns = "id, batch_id, source_path, dest_path, status, engine, genre, nominal_bitrate, effective_bitrate, vbr, progress_percent, error_kind, error_message, created_at, updated_at, started_at, finished_at"

// NewJob enqueues one pending conversion in a batch.
func (s *Store) NewJob(ctx context.Context, batchID, sourcePath, destPath string) (*Job, error) {
	now := timestamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (batch_id, source_path, dest_path, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		batchID, sourcePath, destPath, StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches one job by ID.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// ListJobs returns a batch's jobs in insertion order.
func (s *Store) ListJobs(ctx context.Context, batchID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ListJobsByStatus returns a batch's jobs in one state, in insertion order.
func (s *Store) ListJobsByStatus(ctx context.Context, batchID string, status Status) ([]*Job, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE batch_id = ? AND status = ? ORDER BY id`,
		batchID, status)
	if err != nil {
		return nil, fmt.Errorf("list jobs by status: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkRunning transitions a pending job to running and records its encode
// parameters.
func (s *Store) MarkRunning(ctx context.Context, id int64, engine, genre string, nominal, effective int, vbr bool) error {
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, engine = ?, genre = ?, nominal_bitrate = ?, effective_bitrate = ?,
             vbr = ?, progress_percent = 0, started_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusRunning, engine, nullableString(genre), nominal, effective,
		boolToInt(vbr), now, now, id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	return requireAffected(res, id)
}

// UpdateProgress records percent complete for a running job.
func (s *Store) UpdateProgress(ctx context.Context, id int64, percent float64) error {
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE jobs SET progress_percent = ?, updated_at = ? WHERE id = ? AND status = ?`,
		percent, timestamp(), id, StatusRunning); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// MarkCompleted finishes a running job successfully.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, progress_percent = 100, error_kind = NULL, error_message = NULL,
             finished_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted, now, now, id, StatusRunning)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return requireAffected(res, id)
}

// MarkFailed finishes a running job with a classified error.
func (s *Store) MarkFailed(ctx context.Context, id int64, kind, message string) error {
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_kind = ?, error_message = ?, finished_at = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusFailed, kind, message, now, now, id, StatusRunning, StatusPending)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return requireAffected(res, id)
}

// MarkSkipped marks a pending job as skipped with a reason.
func (s *Store) MarkSkipped(ctx context.Context, id int64, reason string) error {
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, finished_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusSkipped, nullableString(reason), now, now, id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}
	return requireAffected(res, id)
}

// MarkCancelled marks one job cancelled from either queued or running state.
func (s *Store) MarkCancelled(ctx context.Context, id int64) error {
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, finished_at = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusCancelled, now, now, id, StatusPending, StatusRunning)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	return requireAffected(res, id)
}

// CancelPending marks every pending job in a batch cancelled and returns the
// count.
func (s *Store) CancelPending(ctx context.Context, batchID string) (int64, error) {
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, finished_at = ?, updated_at = ?
         WHERE batch_id = ? AND status = ?`,
		StatusCancelled, now, now, batchID, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("cancel pending jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckRunning returns jobs left running by a crashed run to pending.
func (s *Store) ResetStuckRunning(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, progress_percent = 0, started_at = NULL, updated_at = ?
         WHERE status = ?`,
		StatusPending, timestamp(), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// BatchCounts aggregates job states for a batch.
func (s *Store) BatchCounts(ctx context.Context, batchID string) (Counts, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM jobs WHERE batch_id = ? GROUP BY status`, batchID)
	if err != nil {
		return Counts{}, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	var counts Counts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, fmt.Errorf("scan count: %w", err)
		}
		counts.Total += n
		switch Status(status) {
		case StatusPending:
			counts.Pending = n
		case StatusRunning:
			counts.Running = n
		case StatusCompleted:
			counts.Completed = n
		case StatusFailed:
			counts.Failed = n
		case StatusSkipped:
			counts.Skipped = n
		case StatusCancelled:
			counts.Cancelled = n
		}
	}
	return counts, rows.Err()
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job         Job
		status      string
		engine      sql.NullString
		genre       sql.NullString
		vbr         int
		errorKind   sql.NullString
		errorMsg    sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	err := scanner.Scan(
		&job.ID, &job.BatchID, &job.SourcePath, &job.DestPath, &status,
		&engine, &genre, &job.NominalBitrate, &job.EffectiveBitrate, &vbr,
		&job.ProgressPercent, &errorKind, &errorMsg,
		&createdRaw, &updatedRaw, &startedRaw, &finishedRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	job.Status = Status(status)
	job.Engine = engine.String
	job.Genre = genre.String
	job.VBR = vbr != 0
	job.ErrorKind = errorKind.String
	job.ErrorMessage = errorMsg.String
	job.CreatedAt = parseTime(createdRaw)
	job.UpdatedAt = parseTime(updatedRaw)
	job.StartedAt = parseTimePtr(startedRaw)
	job.FinishedAt = parseTimePtr(finishedRaw)
	return &job, nil
}
