package server

import (
	"github.com/textsift/textsift/internal/export"
)

// HealthResponse reports liveness and build identification.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// ProcessResponse wraps one synchronous document run.
type ProcessResponse struct {
	Success            bool         `json:"success"`
	Session            string       `json:"session,omitempty"`
	Result             *export.Dump `json:"result,omitempty"`
	ZeroDetectionPages []int        `json:"zero_detection_pages,omitempty"`
	DurationMs         int64        `json:"duration_ms,omitempty"`
	Error              string       `json:"error,omitempty"`
}

// SessionInfo describes one session directory.
type SessionInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	ModTime string `json:"mod_time"`
}

// SessionsResponse lists session directories, newest first.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Count    int           `json:"count"`
}

// PruneResponse reports a retention sweep.
type PruneResponse struct {
	Removed []string `json:"removed"`
	Kept    int      `json:"kept"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
