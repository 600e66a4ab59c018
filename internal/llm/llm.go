package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/jules/internal/models"
)

// Client wraps the Anthropic API for session digests.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildDigestPrompt constructs the system and user prompts for a session digest.
func buildDigestPrompt(session *models.Session, activities []models.Activity) (system string, user string) {
	system = `You summarize the activity log of an AI coding session. Write a short plain-text digest with:
- one sentence on what the session was asked to do
- what the agent has done so far (plan, progress, messages)
- the current state and what, if anything, the user needs to do next
- pull request links if any are present

Rules:
- Plain text only, no markdown headings or fencing
- At most 10 lines
- Quote plan step titles verbatim when listing them
- If the session failed, lead with the failure reason`

	var sb strings.Builder
	sb.WriteString("Session: ")
	sb.WriteString(session.Name)
	sb.WriteString("\nState: ")
	sb.WriteString(string(session.State))
	if session.Title != "" {
		sb.WriteString("\nTitle: ")
		sb.WriteString(session.Title)
	}
	if session.Prompt != "" {
		sb.WriteString("\nPrompt: ")
		sb.WriteString(session.Prompt)
	}
	for _, out := range session.Outputs {
		if out.PullRequest != nil && out.PullRequest.URL != "" {
			sb.WriteString("\nPull request: ")
			sb.WriteString(out.PullRequest.URL)
		}
	}

	sb.WriteString("\n\nActivity log (oldest first):\n")
	for _, a := range activities {
		sb.WriteString("- [")
		sb.WriteString(a.CreateTime)
		sb.WriteString("] ")
		sb.WriteString(describeActivity(a))
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// describeActivity renders one activity as a single prompt line.
func describeActivity(a models.Activity) string {
	switch {
	case a.AgentMessaged != nil:
		return "agent: " + a.AgentMessaged.Message
	case a.UserMessaged != nil:
		return "user: " + a.UserMessaged.Message
	case a.PlanGenerated != nil:
		var titles []string
		if a.PlanGenerated.Plan != nil {
			for _, step := range a.PlanGenerated.Plan.Steps {
				titles = append(titles, step.Title)
			}
		}
		return "plan generated: " + strings.Join(titles, "; ")
	case a.PlanApproved != nil:
		return "plan approved"
	case a.ProgressUpdated != nil:
		return "progress: " + a.ProgressUpdated.Title + " " + a.ProgressUpdated.Description
	case a.SessionCompleted != nil:
		return "session completed"
	case a.SessionFailed != nil:
		return "session failed: " + a.SessionFailed.Title + " " + a.SessionFailed.Description
	default:
		return a.Description
	}
}

// SummarizeSession sends the session and its activity log to the LLM and
// returns a short plain-text digest.
func (c *Client) SummarizeSession(ctx context.Context, session *models.Session, activities []models.Activity) (string, error) {
	systemPrompt, userPrompt := buildDigestPrompt(session, activities)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return strings.TrimSpace(text), nil
}
