package models

import (
	"encoding/json"
	"fmt"
)

// PlanStep is one step of a generated plan. Index is zero-based and defines
// execution order.
type PlanStep struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"`
}

// Plan is an ordered sequence of steps proposed by the agent.
type Plan struct {
	ID    string     `json:"id,omitempty"`
	Steps []PlanStep `json:"steps,omitempty"`
}

// Validate enforces that step indices are contiguous and match their
// position in the sequence.
func (p *Plan) Validate() error {
	for i, step := range p.Steps {
		if step.Index != i {
			return &ValidationError{
				Field:  fmt.Sprintf("plan.steps[%d].index", i),
				Reason: fmt.Sprintf("expected %d, got %d", i, step.Index),
			}
		}
	}
	return nil
}

// GitPatch carries the diff output of a change set.
type GitPatch struct {
	UnidiffPatch           string `json:"unidiff,omitempty"`
	BaseCommitID           string `json:"baseCommitId,omitempty"`
	SuggestedCommitMessage string `json:"suggestedCommitMessage,omitempty"`
}

// ChangeSet is a set of code changes produced by the agent.
type ChangeSet struct {
	Source   string    `json:"source,omitempty"`
	GitPatch *GitPatch `json:"gitPatch,omitempty"`
}

// Artifact wraps one artifact attached to an activity.
type Artifact struct {
	ChangeSet *ChangeSet `json:"changeSet,omitempty"`
}

// Activity content variants. Exactly one is populated per activity.

// AgentMessaged is a message from the agent to the user.
type AgentMessaged struct {
	Message string `json:"message,omitempty"`
}

// UserMessaged is a message from the user to the agent.
type UserMessaged struct {
	Message string `json:"message,omitempty"`
}

// PlanGenerated reports a newly generated plan.
type PlanGenerated struct {
	Plan *Plan `json:"plan,omitempty"`
}

// PlanApproved reports approval of a previously generated plan.
type PlanApproved struct {
	PlanID string `json:"planId,omitempty"`
}

// ProgressUpdated is an incremental progress report.
type ProgressUpdated struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// SessionCompleted marks the session as finished successfully.
type SessionCompleted struct {
	Summary string `json:"summary,omitempty"`
}

// SessionFailed marks the session as failed.
type SessionFailed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Activity is one unit of session history. Its content is a tagged union:
// at most one of the variant pointers is non-nil, enforced at parse time.
type Activity struct {
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	CreateTime  string `json:"createTime,omitempty"`
	UpdateTime  string `json:"updateTime,omitempty"`
	Description string `json:"description,omitempty"`
	Originator  string `json:"originator,omitempty"`

	AgentMessaged    *AgentMessaged    `json:"agentMessaged,omitempty"`
	UserMessaged     *UserMessaged     `json:"userMessaged,omitempty"`
	PlanGenerated    *PlanGenerated    `json:"planGenerated,omitempty"`
	PlanApproved     *PlanApproved     `json:"planApproved,omitempty"`
	ProgressUpdated  *ProgressUpdated  `json:"progressUpdated,omitempty"`
	SessionCompleted *SessionCompleted `json:"sessionCompleted,omitempty"`
	SessionFailed    *SessionFailed    `json:"sessionFailed,omitempty"`

	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// activityAlias avoids UnmarshalJSON recursion.
type activityAlias Activity

// UnmarshalJSON decodes an activity and rejects objects that set more than
// one content variant.
func (a *Activity) UnmarshalJSON(data []byte) error {
	var alias activityAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*a = Activity(alias)

	if n := len(a.populatedVariants()); n > 1 {
		return &ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("%d content variants set, want at most one", n),
		}
	}
	return nil
}

// Kind returns the wire key of the populated content variant, or "" when the
// activity carries no typed content.
func (a *Activity) Kind() string {
	variants := a.populatedVariants()
	if len(variants) == 0 {
		return ""
	}
	return variants[0]
}

func (a *Activity) populatedVariants() []string {
	var set []string
	if a.AgentMessaged != nil {
		set = append(set, "agentMessaged")
	}
	if a.UserMessaged != nil {
		set = append(set, "userMessaged")
	}
	if a.PlanGenerated != nil {
		set = append(set, "planGenerated")
	}
	if a.PlanApproved != nil {
		set = append(set, "planApproved")
	}
	if a.ProgressUpdated != nil {
		set = append(set, "progressUpdated")
	}
	if a.SessionCompleted != nil {
		set = append(set, "sessionCompleted")
	}
	if a.SessionFailed != nil {
		set = append(set, "sessionFailed")
	}
	return set
}

// Validate checks required activity fields and nested plan invariants.
func (a *Activity) Validate() error {
	if a.Name == "" {
		return missingField("name")
	}
	if a.PlanGenerated != nil && a.PlanGenerated.Plan != nil {
		return a.PlanGenerated.Plan.Validate()
	}
	return nil
}

// ActivityList is one page of activities.
type ActivityList struct {
	Activities    []Activity `json:"activities"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}
