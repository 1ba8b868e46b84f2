package models

// RequestInfo is the request context attached to a log line.
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMS  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo is the structured form of an error attached to a log line.
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // e.g. "extraction", "index_write", "model_call"
	StatusCode int    `json:"status_code,omitempty"` // HTTP status returned to the client, if any
}
