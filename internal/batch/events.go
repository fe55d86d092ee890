package batch

// EventType identifies what happened to a batch or one of its jobs.
type EventType string

const (
	EventBatchStarted   EventType = "batch_started"
	EventBatchPaused    EventType = "batch_paused"
	EventBatchResumed   EventType = "batch_resumed"
	EventBatchCompleted EventType = "batch_completed"
	EventBatchCancelled EventType = "batch_cancelled"
	EventJobStarted     EventType = "job_started"
	EventJobProgress    EventType = "job_progress"
	EventJobCompleted   EventType = "job_completed"
	EventJobFailed      EventType = "job_failed"
	EventJobSkipped     EventType = "job_skipped"
	EventJobCancelled   EventType = "job_cancelled"
	EventGainApplied    EventType = "gain_applied"
	EventGainSkipped    EventType = "gain_skipped"
)

// Event is one observable batch occurrence, delivered to the OnEvent hook.
type Event struct {
	Type    EventType
	BatchID string
	JobID   int64
	Source  string
	Percent float64
	Message string
}
