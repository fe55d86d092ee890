package queue_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ohopus/internal/config"
	"ohopus/internal/queue"
)

func newStore(t *testing.T) *queue.Store {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "src")
	cfg.Paths.DestDir = filepath.Join(base, "dest")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	store, err := queue.Open(&cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newBatchWithJobs(t *testing.T, store *queue.Store, n int) (*queue.Batch, []*queue.Job) {
	t.Helper()
	ctx := context.Background()
	batch, err := store.NewBatch(ctx, "batch-1", "/music/mp3", "/music/opus")
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}
	jobs := make([]*queue.Job, 0, n)
	for i := 0; i < n; i++ {
		job, err := store.NewJob(ctx, batch.ID,
			filepath.Join("/music/mp3", "track"+string(rune('a'+i))+".mp3"),
			filepath.Join("/music/opus", "track"+string(rune('a'+i))+".opus"))
		if err != nil {
			t.Fatalf("new job: %v", err)
		}
		jobs = append(jobs, job)
	}
	return batch, jobs
}

func TestNewJobStartsPending(t *testing.T) {
	store := newStore(t)
	_, jobs := newBatchWithJobs(t, store, 1)

	if jobs[0].Status != queue.StatusPending {
		t.Fatalf("status = %s, want pending", jobs[0].Status)
	}
	if jobs[0].StartedAt != nil || jobs[0].FinishedAt != nil {
		t.Fatal("new job should have no start or finish time")
	}
}

func TestJobLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, jobs := newBatchWithJobs(t, store, 1)
	id := jobs[0].ID

	if err := store.MarkRunning(ctx, id, "ffmpeg", "Jazz", 160, 184, true); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := store.UpdateProgress(ctx, id, 42.5); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	job, err := store.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != queue.StatusRunning || job.ProgressPercent != 42.5 {
		t.Fatalf("job = %+v", job)
	}
	if job.Engine != "ffmpeg" || job.Genre != "Jazz" || job.EffectiveBitrate != 184 || !job.VBR {
		t.Fatalf("encode parameters not recorded: %+v", job)
	}
	if job.StartedAt == nil {
		t.Fatal("started_at not set")
	}

	if err := store.MarkCompleted(ctx, id); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	job, _ = store.GetJob(ctx, id)
	if job.Status != queue.StatusCompleted || job.ProgressPercent != 100 || job.FinishedAt == nil {
		t.Fatalf("completed job = %+v", job)
	}
}

func TestMarkRunningRequiresPending(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, jobs := newBatchWithJobs(t, store, 1)
	id := jobs[0].ID

	if err := store.MarkRunning(ctx, id, "ffmpeg", "", 160, 160, true); err != nil {
		t.Fatalf("first mark running: %v", err)
	}
	if err := store.MarkRunning(ctx, id, "ffmpeg", "", 160, 160, true); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("second mark running = %v, want ErrNotFound", err)
	}
}

func TestMarkFailedRecordsKindAndMessage(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, jobs := newBatchWithJobs(t, store, 1)
	id := jobs[0].ID

	if err := store.MarkRunning(ctx, id, "opusenc", "", 160, 160, false); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := store.MarkFailed(ctx, id, "process_exit", "exit status 1"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	job, _ := store.GetJob(ctx, id)
	if job.Status != queue.StatusFailed || job.ErrorKind != "process_exit" || job.ErrorMessage != "exit status 1" {
		t.Fatalf("failed job = %+v", job)
	}
}

func TestMarkSkipped(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, jobs := newBatchWithJobs(t, store, 1)

	if err := store.MarkSkipped(ctx, jobs[0].ID, "destination exists"); err != nil {
		t.Fatalf("mark skipped: %v", err)
	}
	job, _ := store.GetJob(ctx, jobs[0].ID)
	if job.Status != queue.StatusSkipped || job.ErrorMessage != "destination exists" {
		t.Fatalf("skipped job = %+v", job)
	}
}

func TestCancelPendingLeavesOtherStates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	batch, jobs := newBatchWithJobs(t, store, 3)

	if err := store.MarkRunning(ctx, jobs[0].ID, "ffmpeg", "", 160, 160, true); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := store.MarkCompleted(ctx, jobs[0].ID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	n, err := store.CancelPending(ctx, batch.ID)
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if n != 2 {
		t.Fatalf("cancelled %d jobs, want 2", n)
	}

	counts, err := store.BatchCounts(ctx, batch.ID)
	if err != nil {
		t.Fatalf("batch counts: %v", err)
	}
	if counts.Completed != 1 || counts.Cancelled != 2 || counts.Pending != 0 {
		t.Fatalf("counts = %+v", counts)
	}
	if !counts.Done() {
		t.Fatal("batch should count as done")
	}
}

func TestListJobsPreservesInsertionOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	batch, jobs := newBatchWithJobs(t, store, 3)

	listed, err := store.ListJobs(ctx, batch.ID)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("listed %d jobs, want 3", len(listed))
	}
	for i := range jobs {
		if listed[i].ID != jobs[i].ID {
			t.Fatalf("order mismatch at %d: %d vs %d", i, listed[i].ID, jobs[i].ID)
		}
	}
}

func TestResetStuckRunning(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, jobs := newBatchWithJobs(t, store, 2)

	if err := store.MarkRunning(ctx, jobs[0].ID, "ffmpeg", "", 160, 160, true); err != nil {
		t.Fatalf("mark running: %v", err)
	}

	n, err := store.ResetStuckRunning(ctx)
	if err != nil {
		t.Fatalf("reset stuck: %v", err)
	}
	if n != 1 {
		t.Fatalf("reset %d jobs, want 1", n)
	}
	job, _ := store.GetJob(ctx, jobs[0].ID)
	if job.Status != queue.StatusPending || job.StartedAt != nil {
		t.Fatalf("reset job = %+v", job)
	}
}

func TestBatchStatusAndListing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	batch, _ := newBatchWithJobs(t, store, 1)

	if err := store.UpdateBatchStatus(ctx, batch.ID, queue.BatchPaused); err != nil {
		t.Fatalf("update batch status: %v", err)
	}
	got, err := store.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.Status != queue.BatchPaused {
		t.Fatalf("status = %s, want paused", got.Status)
	}

	latest, err := store.LatestBatch(ctx)
	if err != nil || latest.ID != batch.ID {
		t.Fatalf("latest batch = %v, %v", latest, err)
	}

	if err := store.UpdateBatchStatus(ctx, "missing", queue.BatchRunning); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("missing batch update = %v, want ErrNotFound", err)
	}
}

func TestClearFinishedCascadesToJobs(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	batch, jobs := newBatchWithJobs(t, store, 1)

	if err := store.MarkSkipped(ctx, jobs[0].ID, ""); err != nil {
		t.Fatalf("mark skipped: %v", err)
	}
	if err := store.UpdateBatchStatus(ctx, batch.ID, queue.BatchCompleted); err != nil {
		t.Fatalf("update batch status: %v", err)
	}

	n, err := store.ClearFinished(ctx)
	if err != nil {
		t.Fatalf("clear finished: %v", err)
	}
	if n != 1 {
		t.Fatalf("cleared %d batches, want 1", n)
	}
	if _, err := store.GetJob(ctx, jobs[0].ID); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("job should be gone, got %v", err)
	}
}
