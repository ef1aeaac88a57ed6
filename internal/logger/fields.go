package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldRunID identifies one orchestrator invocation
	FieldRunID = "run_id"

	// FieldSource is the job-board source identifier
	FieldSource = "source"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldURL is the page URL being fetched
	FieldURL = "url"
)

// Standard metric fields, used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldPage is the listing page number
	FieldPage = "page"

	// FieldSize is the response body size in bytes
	FieldSize = "size"
)
