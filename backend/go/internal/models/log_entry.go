package models

// RequestInfo describes the HTTP request a log line belongs to.
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMS  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo is the structured error attached to error-level log lines.
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // e.g. "validation", "upstream"
	StatusCode int    `json:"status_code,omitempty"` // HTTP status, when known
}
