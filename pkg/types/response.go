package types

// ErrorEnvelope is the flat error body every deployed bot and the admin UI
// already parse: {"error": "..."}.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// VerifyResponse is the body of a license verification reply.
type VerifyResponse struct {
	Valid   bool   `json:"valid"`
	Owner   string `json:"owner,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TelemetryResponse reports how many log entries were persisted.
type TelemetryResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}
