package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a batch or job does not exist.
var ErrNotFound = errors.New("not found")

// NewBatch records a new batch and returns it.
func (s *Store) NewBatch(ctx context.Context, id, sourceRoot, destRoot string) (*Batch, error) {
	now := timestamp()
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO batches (id, source_root, dest_root, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceRoot, destRoot, BatchRunning, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}
	return s.GetBatch(ctx, id)
}

// GetBatch fetches one batch by ID.
func (s *Store) GetBatch(ctx context.Context, id string) (*Batch, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, source_root, dest_root, status, created_at, updated_at
         FROM batches WHERE id = ?`, id)
	return scanBatch(row)
}

// LatestBatch returns the most recently created batch, or ErrNotFound.
func (s *Store) LatestBatch(ctx context.Context) (*Batch, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, source_root, dest_root, status, created_at, updated_at
         FROM batches ORDER BY created_at DESC LIMIT 1`)
	return scanBatch(row)
}

// ListBatches returns batches newest first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]*Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, source_root, dest_root, status, created_at, updated_at
         FROM batches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// UpdateBatchStatus records a batch state change.
func (s *Store) UpdateBatchStatus(ctx context.Context, id string, status BatchStatus) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE batches SET status = ?, updated_at = ? WHERE id = ?`,
		status, timestamp(), id)
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	return nil
}

// ClearFinished removes batches in terminal states together with their jobs.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM batches WHERE status IN (?, ?)`,
		BatchCompleted, BatchCancelled)
	if err != nil {
		return 0, fmt.Errorf("clear finished batches: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(scanner rowScanner) (*Batch, error) {
	var (
		batch      Batch
		status     string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	err := scanner.Scan(&batch.ID, &batch.SourceRoot, &batch.DestRoot, &status, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	batch.Status = BatchStatus(status)
	batch.CreatedAt = parseTime(createdRaw)
	batch.UpdatedAt = parseTime(updatedRaw)
	return &batch, nil
}
