package models

import "time"

// Launch records a session created through this tool. It is a local audit
// trail only; the remote session remains the source of truth for state.
type Launch struct {
	ID          string
	SessionName string
	SessionID   string
	Title       string
	Source      string
	Branch      string
	Prompt      string
	CreatedAt   time.Time
}
