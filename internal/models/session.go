package models

// SessionState is the remote session lifecycle state. The state machine is
// executed entirely server-side; values here are observations. Unknown wire
// values are preserved as-is rather than rejected, so new server states don't
// break older binaries.
type SessionState string

const (
	SessionStateUnspecified          SessionState = "STATE_UNSPECIFIED"
	SessionStateQueued               SessionState = "QUEUED"
	SessionStatePlanning             SessionState = "PLANNING"
	SessionStateAwaitingPlanApproval SessionState = "AWAITING_PLAN_APPROVAL"
	SessionStateAwaitingUserFeedback SessionState = "AWAITING_USER_FEEDBACK"
	SessionStateInProgress           SessionState = "IN_PROGRESS"
	SessionStatePaused               SessionState = "PAUSED"
	SessionStateFailed               SessionState = "FAILED"
	SessionStateCompleted            SessionState = "COMPLETED"
)

// Terminal reports whether the session has reached a final state.
func (s SessionState) Terminal() bool {
	return s == SessionStateFailed || s == SessionStateCompleted
}

// Known reports whether the value belongs to the documented state set.
func (s SessionState) Known() bool {
	switch s {
	case SessionStateUnspecified, SessionStateQueued, SessionStatePlanning,
		SessionStateAwaitingPlanApproval, SessionStateAwaitingUserFeedback,
		SessionStateInProgress, SessionStatePaused, SessionStateFailed,
		SessionStateCompleted:
		return true
	}
	return false
}

// AutomationMode controls how far a session proceeds without user input.
type AutomationMode string

const (
	AutomationModeUnspecified    AutomationMode = "AUTOMATION_MODE_UNSPECIFIED"
	AutomationModeFullyAutomatic AutomationMode = "FULLY_AUTOMATIC"
	AutomationModeSemiAutomatic  AutomationMode = "SEMI_AUTOMATIC"
)

// PullRequest is the PR descriptor attached to a session output.
type PullRequest struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	State string `json:"state,omitempty"`
}

// SessionOutput wraps one output artifact of a session.
type SessionOutput struct {
	PullRequest *PullRequest `json:"pullRequest,omitempty"`
}

// Session is one coding task tracked by the remote system. Name and the
// server-assigned timestamps are absent until the remote system creates the
// resource; they are never regenerated locally.
type Session struct {
	Name                string          `json:"name,omitempty"`
	ID                  string          `json:"id,omitempty"`
	Prompt              string          `json:"prompt"`
	SourceContext       *SourceContext  `json:"sourceContext,omitempty"`
	Title               string          `json:"title,omitempty"`
	RequirePlanApproval *bool           `json:"requirePlanApproval,omitempty"`
	AutomationMode      AutomationMode  `json:"automationMode,omitempty"`
	CreateTime          string          `json:"createTime,omitempty"`
	UpdateTime          string          `json:"updateTime,omitempty"`
	State               SessionState    `json:"state,omitempty"`
	URL                 string          `json:"url,omitempty"`
	Outputs             []SessionOutput `json:"outputs,omitempty"`
}

// Validate checks the required session fields.
func (s *Session) Validate() error {
	if s.Prompt == "" {
		return missingField("prompt")
	}
	if s.SourceContext != nil {
		if err := s.SourceContext.validate("sourceContext"); err != nil {
			return err
		}
	}
	return nil
}

// SessionList is one page of sessions.
type SessionList struct {
	Sessions      []Session `json:"sessions"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

// CreateSessionRequest is the body of the create-session call. Optional
// fields are omitted from the wire form when unset, so the remote defaults
// apply.
type CreateSessionRequest struct {
	Prompt              string         `json:"prompt"`
	SourceContext       SourceContext  `json:"sourceContext"`
	Title               string         `json:"title,omitempty"`
	RequirePlanApproval bool           `json:"requirePlanApproval,omitempty"`
	AutomationMode      AutomationMode `json:"automationMode,omitempty"`
}

// Validate checks the fields required to start a session.
func (r *CreateSessionRequest) Validate() error {
	if r.Prompt == "" {
		return missingField("prompt")
	}
	return r.SourceContext.validate("sourceContext")
}

// SendMessageRequest is the body of the :sendMessage action.
type SendMessageRequest struct {
	Prompt string `json:"prompt"`
}

// Validate checks that a message prompt is present.
func (r *SendMessageRequest) Validate() error {
	if r.Prompt == "" {
		return missingField("prompt")
	}
	return nil
}
