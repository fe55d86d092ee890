package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusSkipped,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// BatchStatus represents the lifecycle of a whole batch.
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchPaused    BatchStatus = "paused"
	BatchCompleted BatchStatus = "completed"
	BatchCancelled BatchStatus = "cancelled"
)

// Job is one source-to-destination conversion persisted in SQLite.
type Job struct {
	ID               int64
	BatchID          string
	SourcePath       string
	DestPath         string
	Status           Status
	Engine           string
	Genre            string
	NominalBitrate   int
	EffectiveBitrate int
	VBR              bool
	ProgressPercent  float64
	ErrorKind        string
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	FinishedAt       *time.Time
}

// Batch is one conversion run over a library root.
type Batch struct {
	ID         string
	SourceRoot string
	DestRoot   string
	Status     BatchStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Counts aggregates job states for one batch.
type Counts struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Skipped   int
	Cancelled int
}

// Done reports whether no job remains pending or running.
func (c Counts) Done() bool {
	return c.Pending == 0 && c.Running == 0
}

// AllStatuses returns the ordered list of known job statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a job status can no longer change.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}
