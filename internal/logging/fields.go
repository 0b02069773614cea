package logging

// Canonical attribute keys shared across components.
const (
	FieldComponent = "component"
	FieldJobID     = "job_id"
	FieldStage     = "stage"
	FieldProtocol  = "protocol"
	FieldLanguage  = "language"
	FieldEventType = "event_type"
	FieldRequestID = "request_id"
	FieldPercent   = "percent"
)
