package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"ohopus/internal/encoder"
	"ohopus/internal/logging"
	"ohopus/internal/metadata"
	"ohopus/internal/policy"
	"ohopus/internal/queue"
	"ohopus/internal/replaygain"
	"ohopus/internal/services"
	"ohopus/internal/walker"
)

// State is the scheduler lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// ErrAlreadyStarted is returned when Run is called twice on one scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// DurationProbe returns a source file's duration in seconds, used for
// progress reporting. A probe failure only disables progress for that job.
type DurationProbe func(ctx context.Context, path string) (float64, error)

// Notifier receives batch lifecycle notifications. Delivery failures are
// logged, never fatal.
type Notifier interface {
	BatchStarted(ctx context.Context, batchID string, total int) error
	BatchFinished(ctx context.Context, batchID string, counts queue.Counts) error
}

// Options configures a Scheduler. Store, Engine, and Logger are required.
type Options struct {
	Store        *queue.Store
	Engine       encoder.Engine
	Policy       policy.Policy
	Logger       *slog.Logger
	Workers      int
	VBR          bool
	SkipExisting bool
	Gain         *replaygain.Adapter
	GainMode     string
	Probe        DurationProbe
	Notifier     Notifier
	OnEvent      func(Event)
}

// Scheduler drives one batch from discovery through the gain post-pass.
// A scheduler is single-use: construct a new one per batch.
type Scheduler struct {
	store    *queue.Store
	engine   encoder.Engine
	policy   policy.Policy
	logger   *slog.Logger
	workers  int
	vbr      bool
	skip     bool
	gain     *replaygain.Adapter
	gainMode string
	probe    DurationProbe
	notifier Notifier
	onEvent  func(Event)

	mu        sync.Mutex
	state     State
	batchID   string
	resumeCh  chan struct{}
	procs     map[int64]encoder.Process
	cancelRun context.CancelFunc
	cancelled bool
}

// New constructs a scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Store == nil {
		return nil, errors.New("store required")
	}
	if opts.Engine == nil {
		return nil, errors.New("engine required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 2
	}
	return &Scheduler{
		store:    opts.Store,
		engine:   opts.Engine,
		policy:   opts.Policy,
		logger:   logging.NewComponentLogger(opts.Logger, "batch"),
		workers:  workers,
		vbr:      opts.VBR,
		skip:     opts.SkipExisting,
		gain:     opts.Gain,
		gainMode: opts.GainMode,
		probe:    opts.Probe,
		notifier: opts.Notifier,
		onEvent:  opts.OnEvent,
		state:    StateIdle,
		procs:    make(map[int64]encoder.Process),
	}, nil
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BatchID returns the identifier of the batch being run, once Run started.
func (s *Scheduler) BatchID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchID
}

// Run converts every entry and blocks until the batch reaches a terminal
// state. The returned counts always reflect the final queue contents, even
// when Run also returns an error.
func (s *Scheduler) Run(ctx context.Context, sourceRoot, destRoot string, entries []walker.Entry) (queue.Counts, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return queue.Counts{}, ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.state = StateRunning
	s.batchID = uuid.NewString()
	s.cancelRun = cancel
	batchID := s.batchID
	s.mu.Unlock()

	if _, err := s.store.NewBatch(runCtx, batchID, sourceRoot, destRoot); err != nil {
		return queue.Counts{}, fmt.Errorf("create batch: %w", err)
	}

	jobs := make(chan *queue.Job, len(entries))
	for _, entry := range entries {
		job, err := s.store.NewJob(runCtx, batchID, entry.SourcePath, entry.DestPath)
		if err != nil {
			close(jobs)
			return queue.Counts{}, fmt.Errorf("enqueue %s: %w", entry.SourcePath, err)
		}
		jobs <- job
	}
	close(jobs)

	s.logger.Info("batch started",
		logging.String(logging.FieldBatchID, batchID),
		logging.Int("jobs", len(entries)),
		logging.String(logging.FieldEngine, s.engine.Name()))
	s.emit(Event{Type: EventBatchStarted, BatchID: batchID})
	if s.notifier != nil {
		if err := s.notifier.BatchStarted(runCtx, batchID, len(entries)); err != nil {
			s.logger.Warn("send start notification", logging.Error(err))
		}
	}

	workers := s.workers
	if workers > len(entries) {
		workers = len(entries)
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				s.runJob(runCtx, job)
			}
		}()
	}
	wg.Wait()

	s.applyGain(runCtx, batchID)

	s.mu.Lock()
	cancelled := s.cancelled
	if cancelled {
		s.state = StateCancelled
	} else {
		s.state = StateCompleted
	}
	s.mu.Unlock()

	finalStatus := queue.BatchCompleted
	eventType := EventBatchCompleted
	if cancelled {
		finalStatus = queue.BatchCancelled
		eventType = EventBatchCancelled
	}
	if err := s.store.UpdateBatchStatus(context.WithoutCancel(ctx), batchID, finalStatus); err != nil {
		s.logger.Warn("record batch status", logging.Error(err))
	}

	counts, err := s.store.BatchCounts(context.WithoutCancel(ctx), batchID)
	if err != nil {
		return counts, fmt.Errorf("batch counts: %w", err)
	}

	s.logger.Info("batch finished",
		logging.String(logging.FieldBatchID, batchID),
		logging.String("status", string(finalStatus)),
		logging.Int("completed", counts.Completed),
		logging.Int("failed", counts.Failed),
		logging.Int("skipped", counts.Skipped),
		logging.Int("cancelled", counts.Cancelled))
	s.emit(Event{Type: eventType, BatchID: batchID})
	if s.notifier != nil {
		if err := s.notifier.BatchFinished(context.WithoutCancel(ctx), batchID, counts); err != nil {
			s.logger.Warn("send finish notification", logging.Error(err))
		}
	}
	return counts, nil
}

// Pause suspends running encoder processes and withholds new dispatch.
// On platforms without process suspension the batch degrades to finishing
// in-flight jobs while dispatching nothing new.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StatePaused
	s.resumeCh = make(chan struct{})
	procs := s.snapshotProcs()
	batchID := s.batchID
	s.mu.Unlock()

	for id, proc := range procs {
		if err := proc.Suspend(); err != nil {
			s.logger.Warn("suspend encoder process; job will run to completion",
				logging.Int64(logging.FieldJobID, id), logging.Error(err))
		}
	}
	if err := s.store.UpdateBatchStatus(context.Background(), batchID, queue.BatchPaused); err != nil {
		s.logger.Warn("record pause", logging.Error(err))
	}
	s.logger.Info("batch paused", logging.String(logging.FieldBatchID, batchID))
	s.emit(Event{Type: EventBatchPaused, BatchID: batchID})
}

// Resume reverses Pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return
	}
	s.state = StateRunning
	resumeCh := s.resumeCh
	s.resumeCh = nil
	procs := s.snapshotProcs()
	batchID := s.batchID
	s.mu.Unlock()

	for id, proc := range procs {
		if err := proc.Resume(); err != nil {
			s.logger.Warn("resume encoder process",
				logging.Int64(logging.FieldJobID, id), logging.Error(err))
		}
	}
	close(resumeCh)
	if err := s.store.UpdateBatchStatus(context.Background(), batchID, queue.BatchRunning); err != nil {
		s.logger.Warn("record resume", logging.Error(err))
	}
	s.logger.Info("batch resumed", logging.String(logging.FieldBatchID, batchID))
	s.emit(Event{Type: EventBatchResumed, BatchID: batchID})
}

// Cancel terminates running encoder processes and marks queued jobs
// cancelled. Run returns once in-flight teardown finishes.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StatePaused {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	resumeCh := s.resumeCh
	s.resumeCh = nil
	procs := s.snapshotProcs()
	cancel := s.cancelRun
	batchID := s.batchID
	s.mu.Unlock()

	// Suspended processes must be resumed before a termination signal can
	// be delivered.
	for _, proc := range procs {
		_ = proc.Resume()
		_ = proc.Terminate()
	}
	if resumeCh != nil {
		close(resumeCh)
	}
	if cancel != nil {
		cancel()
	}
	if _, err := s.store.CancelPending(context.Background(), batchID); err != nil {
		s.logger.Warn("cancel pending jobs", logging.Error(err))
	}
	s.logger.Info("batch cancel requested", logging.String(logging.FieldBatchID, batchID))
}

func (s *Scheduler) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Scheduler) emit(event Event) {
	if s.onEvent != nil {
		s.onEvent(event)
	}
}

func (s *Scheduler) snapshotProcs() map[int64]encoder.Process {
	procs := make(map[int64]encoder.Process, len(s.procs))
	for id, proc := range s.procs {
		procs[id] = proc
	}
	return procs
}

// awaitResume blocks while the batch is paused.
func (s *Scheduler) awaitResume(ctx context.Context) error {
	for {
		s.mu.Lock()
		ch := s.resumeCh
		s.mu.Unlock()
		if ch == nil {
			return ctx.Err()
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) registerProc(id int64, proc encoder.Process) {
	s.mu.Lock()
	s.procs[id] = proc
	paused := s.state == StatePaused
	s.mu.Unlock()
	if paused {
		_ = proc.Suspend()
	}
}

func (s *Scheduler) unregisterProc(id int64) {
	s.mu.Lock()
	delete(s.procs, id)
	s.mu.Unlock()
}

func (s *Scheduler) runJob(ctx context.Context, job *queue.Job) {
	log := s.logger.With(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldSource, job.SourcePath))

	if err := s.awaitResume(ctx); err != nil || ctx.Err() != nil {
		s.markJobCancelled(job, log)
		return
	}

	if s.skip {
		if _, err := os.Stat(job.DestPath); err == nil {
			if err := s.store.MarkSkipped(ctx, job.ID, "destination exists"); err != nil {
				log.Warn("record skip", logging.Error(err))
			}
			log.Info("skipped: destination exists",
				logging.String(logging.FieldDestination, job.DestPath))
			s.emit(Event{Type: EventJobSkipped, BatchID: job.BatchID, JobID: job.ID, Source: job.SourcePath})
			return
		}
	}

	src, readErr := metadata.ReadFile(job.SourcePath)
	if readErr != nil {
		log.Warn("read tags; continuing with best-effort metadata", logging.Error(readErr))
	}
	tags, warnings := metadata.Map(src)
	for _, warning := range warnings {
		log.Warn("metadata mapping degraded", logging.String("detail", warning))
	}
	tags.Add("ENCODER", "ohopus")

	decision := s.policy.Decide(src.Genre())
	if decision.Boosted() {
		log.Info("genre boost applied",
			logging.String("genre", decision.Genre),
			logging.String("family", decision.Family),
			logging.Int("effective_bitrate", decision.Effective))
	}

	if err := s.store.MarkRunning(ctx, job.ID, s.engine.Name(), decision.Genre,
		decision.Nominal, decision.Effective, s.vbr); err != nil {
		log.Warn("mark running", logging.Error(err))
		return
	}
	s.emit(Event{Type: EventJobStarted, BatchID: job.BatchID, JobID: job.ID, Source: job.SourcePath})

	var duration float64
	if s.probe != nil {
		if seconds, err := s.probe(ctx, job.SourcePath); err != nil {
			log.Warn("probe duration; progress disabled for this job", logging.Error(err))
		} else {
			duration = seconds
		}
	}

	encodeErr := s.engine.Encode(ctx, encoder.Request{
		SourcePath:      job.SourcePath,
		DestPath:        job.DestPath,
		Bitrate:         decision.Effective,
		Tags:            tags,
		DurationSeconds: duration,
		OnProgress:      s.progressRecorder(job),
		OnStart: func(proc encoder.Process) {
			s.registerProc(job.ID, proc)
		},
	})
	s.unregisterProc(job.ID)

	if encodeErr == nil {
		if err := s.store.MarkCompleted(context.WithoutCancel(ctx), job.ID); err != nil {
			log.Warn("mark completed", logging.Error(err))
		}
		log.Info("job completed",
			logging.String(logging.FieldDestination, job.DestPath),
			logging.Int("effective_bitrate", decision.Effective))
		s.emit(Event{Type: EventJobCompleted, BatchID: job.BatchID, JobID: job.ID, Source: job.SourcePath, Percent: 100})
		return
	}

	kind := services.Classify(encodeErr)
	if kind == services.KindCancelled || ctx.Err() != nil {
		s.markJobCancelled(job, log)
		return
	}
	if err := s.store.MarkFailed(context.WithoutCancel(ctx), job.ID, string(kind), encodeErr.Error()); err != nil {
		log.Warn("mark failed", logging.Error(err))
	}
	log.Error("job failed",
		logging.String("kind", string(kind)),
		logging.Error(encodeErr))
	s.emit(Event{Type: EventJobFailed, BatchID: job.BatchID, JobID: job.ID, Source: job.SourcePath, Message: encodeErr.Error()})
}

func (s *Scheduler) markJobCancelled(job *queue.Job, log *slog.Logger) {
	if err := s.store.MarkCancelled(context.Background(), job.ID); err != nil && !errors.Is(err, queue.ErrNotFound) {
		log.Warn("mark cancelled", logging.Error(err))
	}
	log.Info("job cancelled")
	s.emit(Event{Type: EventJobCancelled, BatchID: job.BatchID, JobID: job.ID, Source: job.SourcePath})
}

// progressRecorder persists progress at coarse steps to keep write volume
// down while staying useful for status output.
func (s *Scheduler) progressRecorder(job *queue.Job) func(float64) {
	var mu sync.Mutex
	last := -5.0
	return func(percent float64) {
		mu.Lock()
		if percent < 100 && percent-last < 5 {
			mu.Unlock()
			return
		}
		last = percent
		mu.Unlock()

		if err := s.store.UpdateProgress(context.Background(), job.ID, percent); err != nil {
			s.logger.Warn("update progress",
				logging.Int64(logging.FieldJobID, job.ID), logging.Error(err))
		}
		s.emit(Event{Type: EventJobProgress, BatchID: job.BatchID, JobID: job.ID, Source: job.SourcePath, Percent: percent})
	}
}
