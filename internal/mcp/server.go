// Package mcp exposes the Jules API client as MCP tools over stdio.
// Handlers carry no logic of their own beyond argument plumbing; remote
// failures are wrapped in tool error results rather than Go errors so the
// calling agent sees them as tool output.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/jules/internal/jules"
	"github.com/joescharf/jules/internal/models"
	"github.com/joescharf/jules/internal/store"
)

// activeFilter is the server-side filter expression for non-terminal
// sessions. The client-side pass in handleListSessions is a best-effort
// supplement on top of it, not a substitute.
const activeFilter = `state != "COMPLETED" AND state != "FAILED"`

// digestActivityCap bounds how many activities feed a digest prompt.
const digestActivityCap = 200

// Client is the Jules API surface the tools depend on.
type Client interface {
	ListSources(ctx context.Context, opts jules.ListOptions) (*models.SourceList, error)
	GetSource(ctx context.Context, name string) (*models.Source, error)
	ListSessions(ctx context.Context, opts jules.ListOptions) (*models.SessionList, error)
	GetSession(ctx context.Context, name string) (*models.Session, error)
	CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error)
	SendMessage(ctx context.Context, session, prompt string) (*jules.ActionResult, error)
	ApprovePlan(ctx context.Context, session string) (*jules.ActionResult, error)
	ListActivities(ctx context.Context, session string, opts jules.ListOptions) (*models.ActivityList, error)
	GetActivity(ctx context.Context, name string) (*models.Activity, error)
}

// Summarizer produces an LLM digest of a session's activity log.
type Summarizer interface {
	SummarizeSession(ctx context.Context, session *models.Session, activities []models.Activity) (string, error)
}

// Server wraps the Jules client and exposes it as MCP tools.
type Server struct {
	client Client
	store  store.Store
	llm    Summarizer
}

// NewServer creates the MCP server wrapper. The store may be nil (no local
// launch log) and the summarizer may be nil (digest tool not registered).
func NewServer(c Client, s store.Store, llm Summarizer) *Server {
	return &Server{client: c, store: s, llm: llm}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("jules", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listSourcesTool())
	srv.AddTool(s.getSourceTool())
	srv.AddTool(s.listSessionsTool())
	srv.AddTool(s.getSessionTool())
	srv.AddTool(s.createSessionTool())
	srv.AddTool(s.sendMessageTool())
	srv.AddTool(s.approvePlanTool())
	srv.AddTool(s.listActivitiesTool())
	srv.AddTool(s.getActivityTool())
	srv.AddTool(s.createPullRequestTool())

	if s.llm != nil {
		srv.AddTool(s.sessionDigestTool())
	}

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// pageOptions extracts the shared pagination arguments.
func pageOptions(request mcp.CallToolRequest, defaultSize int) jules.ListOptions {
	return jules.ListOptions{
		PageSize:  request.GetInt("page_size", defaultSize),
		PageToken: request.GetString("page_token", ""),
	}
}

// jsonResult marshals v as the tool result text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// jules_list_sources
func (s *Server) listSourcesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_list_sources",
		mcp.WithDescription("List GitHub repositories Jules can work with. Returns a JSON object with a sources array and an optional nextPageToken for pagination."),
		mcp.WithNumber("page_size", mcp.Description("Number of sources to return (1-100, default 30)")),
		mcp.WithString("page_token", mcp.Description("Token for pagination from a previous response")),
		mcp.WithString("filter", mcp.Description("Server-side filter expression")),
	)
	return tool, s.handleListSources
}

func (s *Server) handleListSources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := pageOptions(request, 30)
	opts.Filter = request.GetString("filter", "")

	list, err := s.client.ListSources(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sources: %v", err)), nil
	}
	return jsonResult(list)
}

// jules_get_source
func (s *Server) getSourceTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_get_source",
		mcp.WithDescription("Get details about a source repository, including branches and repo info."),
		mcp.WithString("source_name", mcp.Required(), mcp.Description("Resource name of the source (e.g. \"sources/github/owner/repo\")")),
	)
	return tool, s.handleGetSource
}

func (s *Server) handleGetSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("source_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: source_name"), nil
	}

	src, err := s.client.GetSource(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get source: %v", err)), nil
	}
	return jsonResult(src)
}

// jules_list_sessions
func (s *Server) listSessionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_list_sessions",
		mcp.WithDescription("List Jules coding sessions. Returns a JSON object with a sessions array and an optional nextPageToken."),
		mcp.WithNumber("page_size", mcp.Description("Number of sessions to return (1-100, default 30)")),
		mcp.WithString("page_token", mcp.Description("Token for pagination from a previous response")),
		mcp.WithBoolean("active_only", mcp.Description("Only show sessions that are not COMPLETED or FAILED")),
	)
	return tool, s.handleListSessions
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := pageOptions(request, 30)
	activeOnly := request.GetBool("active_only", false)
	if activeOnly {
		opts.Filter = activeFilter
	}

	list, err := s.client.ListSessions(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	sessions := list.Sessions
	if activeOnly {
		// Re-check locally in case the remote ignored the filter.
		filtered := sessions[:0:0]
		for _, sess := range sessions {
			if !sess.State.Terminal() {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}

	return jsonResult(models.SessionList{
		Sessions:      sessions,
		NextPageToken: list.NextPageToken,
	})
}

// jules_get_session
func (s *Server) getSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_get_session",
		mcp.WithDescription("Get details about a session, including state, outputs, and the web URL."),
		mcp.WithString("session_name", mcp.Required(), mcp.Description("Session name or bare id (e.g. \"sessions/abc123\" or \"abc123\")")),
	)
	return tool, s.handleGetSession
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("session_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_name"), nil
	}

	sess, err := s.client.GetSession(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get session: %v", err)), nil
	}
	return jsonResult(sess)
}

// jules_create_session
func (s *Server) createSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_create_session",
		mcp.WithDescription("Create a new Jules session to work on a coding task. Returns the created session including its name, state, and web URL."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The coding task description for Jules to work on")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Resource name of the source repository (e.g. \"sources/github/owner/repo\")")),
		mcp.WithString("branch", mcp.Description("Branch to work from (defaults to the repository default branch)")),
		mcp.WithString("title", mcp.Description("Session title (auto-generated if not provided)")),
		mcp.WithBoolean("require_plan_approval", mcp.Description("If true, Jules waits for plan approval before executing")),
		mcp.WithString("automation_mode", mcp.Description("Automation mode: FULLY_AUTOMATIC or SEMI_AUTOMATIC")),
	)
	return tool, s.handleCreateSession
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: prompt"), nil
	}
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: source"), nil
	}

	req := models.CreateSessionRequest{
		Prompt: prompt,
		SourceContext: models.SourceContext{
			Source: jules.SourceName(source),
			Branch: request.GetString("branch", ""),
		},
		Title:               request.GetString("title", ""),
		RequirePlanApproval: request.GetBool("require_plan_approval", false),
		AutomationMode:      models.AutomationMode(request.GetString("automation_mode", "")),
	}

	sess, err := s.client.CreateSession(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create session: %v", err)), nil
	}

	s.recordLaunch(ctx, sess, req)
	return jsonResult(sess)
}

// jules_send_message
func (s *Server) sendMessageTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_send_message",
		mcp.WithDescription("Send a follow-up message to an active session. Use this to clarify requirements or respond when Jules is waiting for user feedback."),
		mcp.WithString("session_name", mcp.Required(), mcp.Description("Session name or bare id")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The message to send to Jules")),
	)
	return tool, s.handleSendMessage
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := request.RequireString("session_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_name"), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	result, err := s.client.SendMessage(ctx, session, message)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to send message: %v", err)), nil
	}
	return jsonResult(result)
}

// jules_approve_plan
func (s *Server) approvePlanTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_approve_plan",
		mcp.WithDescription("Approve Jules's plan for a session. Use when the session is in AWAITING_PLAN_APPROVAL state."),
		mcp.WithString("session_name", mcp.Required(), mcp.Description("Session name or bare id")),
	)
	return tool, s.handleApprovePlan
}

func (s *Server) handleApprovePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := request.RequireString("session_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_name"), nil
	}

	result, err := s.client.ApprovePlan(ctx, session)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to approve plan: %v", err)), nil
	}
	return jsonResult(result)
}

// jules_list_activities
func (s *Server) listActivitiesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_list_activities",
		mcp.WithDescription("List the activity history of a session: messages, plans, progress updates, and completion or failure events."),
		mcp.WithString("session_name", mcp.Required(), mcp.Description("Session name or bare id")),
		mcp.WithNumber("page_size", mcp.Description("Number of activities to return (1-100, default 50)")),
		mcp.WithString("page_token", mcp.Description("Token for pagination from a previous response")),
	)
	return tool, s.handleListActivities
}

func (s *Server) handleListActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := request.RequireString("session_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_name"), nil
	}

	list, err := s.client.ListActivities(ctx, session, pageOptions(request, 50))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list activities: %v", err)), nil
	}
	return jsonResult(list)
}

// jules_get_activity
func (s *Server) getActivityTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_get_activity",
		mcp.WithDescription("Get a single activity by id within a session."),
		mcp.WithString("session_name", mcp.Required(), mcp.Description("Session name or bare id")),
		mcp.WithString("activity_id", mcp.Required(), mcp.Description("Activity id, or a fully qualified activity name")),
	)
	return tool, s.handleGetActivity
}

func (s *Server) handleGetActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := request.RequireString("session_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_name"), nil
	}
	activityID, err := request.RequireString("activity_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: activity_id"), nil
	}

	activity, err := s.client.GetActivity(ctx, jules.ActivityName(session, activityID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get activity: %v", err)), nil
	}
	return jsonResult(activity)
}

// jules_create_pull_request
func (s *Server) createPullRequestTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_create_pull_request",
		mcp.WithDescription("Create a session that will result in a pull request. Convenience wrapper around jules_create_session that instructs Jules to open a PR. Check the session's outputs field for the PR URL once completed."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Description of the changes to make")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Resource name of the source repository")),
		mcp.WithString("branch", mcp.Description("Base branch to create the PR against (defaults to the repository default)")),
		mcp.WithString("title", mcp.Description("Title for the session/PR")),
	)
	return tool, s.handleCreatePullRequest
}

func (s *Server) handleCreatePullRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: prompt"), nil
	}
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: source"), nil
	}

	req := models.CreateSessionRequest{
		Prompt: prompt + "\n\nPlease create a pull request with these changes.",
		SourceContext: models.SourceContext{
			Source: jules.SourceName(source),
			Branch: request.GetString("branch", ""),
		},
		Title: request.GetString("title", ""),
	}

	sess, err := s.client.CreateSession(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create session: %v", err)), nil
	}

	s.recordLaunch(ctx, sess, req)
	return jsonResult(sess)
}

// jules_session_digest
func (s *Server) sessionDigestTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jules_session_digest",
		mcp.WithDescription("Produce a short LLM-written digest of a session: what it was asked to do, what has happened so far, and what the user needs to do next."),
		mcp.WithString("session_name", mcp.Required(), mcp.Description("Session name or bare id")),
	)
	return tool, s.handleSessionDigest
}

func (s *Server) handleSessionDigest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("session_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_name"), nil
	}

	sess, err := s.client.GetSession(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get session: %v", err)), nil
	}

	activities, err := s.collectActivities(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list activities: %v", err)), nil
	}

	digest, err := s.llm.SummarizeSession(ctx, sess, activities)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to summarize session: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"session": jules.SessionName(name),
		"state":   sess.State,
		"digest":  digest,
	})
}

// collectActivities pages through the activity log up to digestActivityCap.
func (s *Server) collectActivities(ctx context.Context, session string) ([]models.Activity, error) {
	var all []models.Activity
	opts := jules.ListOptions{PageSize: 50}
	for {
		page, err := s.client.ListActivities(ctx, session, opts)
		if err != nil {
			return nil, err
		}
		all = models.MergePage(all, page.Activities)
		if page.NextPageToken == "" || len(all) >= digestActivityCap {
			return all, nil
		}
		opts.PageToken = page.NextPageToken
	}
}

// recordLaunch best-effort writes the created session to the local launch log.
func (s *Server) recordLaunch(ctx context.Context, sess *models.Session, req models.CreateSessionRequest) {
	if s.store == nil || sess == nil {
		return
	}
	_ = s.store.RecordLaunch(ctx, &models.Launch{
		SessionName: sess.Name,
		SessionID:   sess.ID,
		Title:       sess.Title,
		Source:      req.SourceContext.Source,
		Branch:      req.SourceContext.Branch,
		Prompt:      req.Prompt,
	})
}
