package logging

// Standardized attribute keys shared across components.
const (
	// FieldComponent identifies the subsystem producing a record.
	FieldComponent = "component"
	// FieldBatchID identifies a batch run.
	FieldBatchID = "batch_id"
	// FieldJobID identifies a conversion job within a batch.
	FieldJobID = "job_id"
	// FieldEngine names the encoder backend handling a job.
	FieldEngine = "engine"
	// FieldSource is the source file path of a job.
	FieldSource = "source"
	// FieldDestination is the destination file path of a job.
	FieldDestination = "destination"
	// FieldEventType tags records that feed the progress/event stream.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step for operator-facing warnings.
	FieldErrorHint = "error_hint"
)
