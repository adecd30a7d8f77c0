package logging

// Standard field names for consistent logging across the application.
const (
	// FieldNodeID is the registry identifier of an HA node.
	FieldNodeID = "node_id"

	// FieldNodeName is the operator-chosen name of an HA node.
	FieldNodeName = "node_name"

	// FieldSessionID is the per-process session identifier.
	FieldSessionID = "session_id"

	// FieldHAStatus is the HA role of a node (active, standby, ...).
	FieldHAStatus = "ha_status"

	// FieldDBStatus is the registry database connection state.
	FieldDBStatus = "db_status"

	// FieldFailoverDelay is the configured failover delay in seconds.
	FieldFailoverDelay = "failover_delay"

	// FieldRequestID is a unique identifier for each HTTP request.
	FieldRequestID = "request_id"

	// FieldDuration is the duration of an operation in milliseconds.
	FieldDuration = "duration_ms"

	// FieldStatusCode is the HTTP status code of a response.
	FieldStatusCode = "status_code"

	// FieldMethod is the HTTP method of a request.
	FieldMethod = "method"

	// FieldPath is the URL path of an HTTP request.
	FieldPath = "path"

	// FieldRemoteAddr is the client's remote address.
	FieldRemoteAddr = "remote_addr"

	// FieldError is the error message or description.
	FieldError = "error"

	// FieldComponent identifies the component or service generating the log.
	FieldComponent = "component"
)
