package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/jules/internal/jules"
	"github.com/joescharf/jules/internal/models"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockClient implements Client for testing.
type mockClient struct {
	sources    []models.Source
	sessions   []models.Session
	activities map[string][]models.Activity

	// Track calls for verification.
	createdSessions []models.CreateSessionRequest
	sentMessages    []string
	approvedPlans   []string
	lastListOpts    jules.ListOptions

	// Optional error injection.
	listSourcesErr    error
	getSourceErr      error
	listSessionsErr   error
	getSessionErr     error
	createSessionErr  error
	sendMessageErr    error
	approvePlanErr    error
	listActivitiesErr error
	getActivityErr    error
}

func (m *mockClient) ListSources(_ context.Context, opts jules.ListOptions) (*models.SourceList, error) {
	if m.listSourcesErr != nil {
		return nil, m.listSourcesErr
	}
	m.lastListOpts = opts
	return &models.SourceList{Sources: m.sources}, nil
}

func (m *mockClient) GetSource(_ context.Context, name string) (*models.Source, error) {
	if m.getSourceErr != nil {
		return nil, m.getSourceErr
	}
	full := jules.SourceName(name)
	for i := range m.sources {
		if m.sources[i].Name == full {
			return &m.sources[i], nil
		}
	}
	return nil, fmt.Errorf("source not found: %s", name)
}

func (m *mockClient) ListSessions(_ context.Context, opts jules.ListOptions) (*models.SessionList, error) {
	if m.listSessionsErr != nil {
		return nil, m.listSessionsErr
	}
	m.lastListOpts = opts
	return &models.SessionList{Sessions: m.sessions}, nil
}

func (m *mockClient) GetSession(_ context.Context, name string) (*models.Session, error) {
	if m.getSessionErr != nil {
		return nil, m.getSessionErr
	}
	full := jules.SessionName(name)
	for i := range m.sessions {
		if m.sessions[i].Name == full {
			return &m.sessions[i], nil
		}
	}
	return nil, fmt.Errorf("session not found: %s", name)
}

func (m *mockClient) CreateSession(_ context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	if m.createSessionErr != nil {
		return nil, m.createSessionErr
	}
	m.createdSessions = append(m.createdSessions, req)
	id := fmt.Sprintf("new-%d", len(m.createdSessions))
	sess := models.Session{
		Name:   "sessions/" + id,
		ID:     id,
		Prompt: req.Prompt,
		Title:  req.Title,
		State:  models.SessionStateQueued,
		URL:    "https://jules.google.com/task/" + id,
	}
	m.sessions = append(m.sessions, sess)
	return &sess, nil
}

func (m *mockClient) SendMessage(_ context.Context, session, prompt string) (*jules.ActionResult, error) {
	if m.sendMessageErr != nil {
		return nil, m.sendMessageErr
	}
	m.sentMessages = append(m.sentMessages, prompt)
	return &jules.ActionResult{Success: true, Session: jules.SessionName(session)}, nil
}

func (m *mockClient) ApprovePlan(_ context.Context, session string) (*jules.ActionResult, error) {
	if m.approvePlanErr != nil {
		return nil, m.approvePlanErr
	}
	m.approvedPlans = append(m.approvedPlans, jules.SessionName(session))
	return &jules.ActionResult{Success: true, Session: jules.SessionName(session)}, nil
}

func (m *mockClient) ListActivities(_ context.Context, session string, opts jules.ListOptions) (*models.ActivityList, error) {
	if m.listActivitiesErr != nil {
		return nil, m.listActivitiesErr
	}
	m.lastListOpts = opts
	return &models.ActivityList{Activities: m.activities[jules.SessionName(session)]}, nil
}

func (m *mockClient) GetActivity(_ context.Context, name string) (*models.Activity, error) {
	if m.getActivityErr != nil {
		return nil, m.getActivityErr
	}
	for _, acts := range m.activities {
		for i := range acts {
			if acts[i].Name == name {
				return &acts[i], nil
			}
		}
	}
	return nil, fmt.Errorf("activity not found: %s", name)
}

// mockLaunchStore implements store.Store for testing.
type mockLaunchStore struct {
	launches []*models.Launch
}

func (m *mockLaunchStore) RecordLaunch(_ context.Context, l *models.Launch) error {
	m.launches = append(m.launches, l)
	return nil
}
func (m *mockLaunchStore) GetLaunchBySession(_ context.Context, session string) (*models.Launch, error) {
	for _, l := range m.launches {
		if l.SessionName == session {
			return l, nil
		}
	}
	return nil, fmt.Errorf("launch not found: %s", session)
}
func (m *mockLaunchStore) ListLaunches(_ context.Context, _ int) ([]*models.Launch, error) {
	return m.launches, nil
}
func (m *mockLaunchStore) Migrate(_ context.Context) error { return nil }
func (m *mockLaunchStore) Close() error                    { return nil }

// mockSummarizer implements Summarizer for testing.
type mockSummarizer struct {
	digest     string
	err        error
	lastInput  *models.Session
	activities []models.Activity
}

func (m *mockSummarizer) SummarizeSession(_ context.Context, sess *models.Session, activities []models.Activity) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.lastInput = sess
	m.activities = activities
	return m.digest, nil
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestServer creates a Server with mock dependencies.
func newTestServer(t *testing.T) (*Server, *mockClient, *mockLaunchStore) {
	t.Helper()

	mc := &mockClient{activities: map[string][]models.Activity{}}
	ms := &mockLaunchStore{}

	srv := NewServer(mc, ms, nil)
	require.NotNil(t, srv)

	return srv, mc, ms
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

// seedSource adds a source to the mock client and returns it.
func seedSource(t *testing.T, mc *mockClient, owner, repo string) models.Source {
	t.Helper()
	src := models.Source{
		Name: fmt.Sprintf("sources/github/%s/%s", owner, repo),
		ID:   fmt.Sprintf("github/%s/%s", owner, repo),
		GitHubRepo: &models.GitHubRepo{
			Owner:         owner,
			Repo:          repo,
			DefaultBranch: &models.Branch{DisplayName: "main"},
		},
	}
	mc.sources = append(mc.sources, src)
	return src
}

// seedSession adds a session to the mock client and returns it.
func seedSession(t *testing.T, mc *mockClient, id string, state models.SessionState) models.Session {
	t.Helper()
	sess := models.Session{
		Name:       "sessions/" + id,
		ID:         id,
		Prompt:     "fix the bug in " + id,
		Title:      "Session " + id,
		State:      state,
		CreateTime: time.Now().UTC().Format(time.RFC3339),
	}
	mc.sessions = append(mc.sessions, sess)
	return sess
}

// seedActivity adds an agent message activity to a session's log.
func seedActivity(t *testing.T, mc *mockClient, session, id, message string) models.Activity {
	t.Helper()
	full := jules.SessionName(session)
	a := models.Activity{
		Name:          full + "/activities/" + id,
		ID:            id,
		AgentMessaged: &models.AgentMessaged{Message: message},
	}
	mc.activities[full] = append(mc.activities[full], a)
	return a
}

// ---------------------------------------------------------------------------
// Tests: MCPServer registration
// ---------------------------------------------------------------------------

func TestNewServer(t *testing.T) {
	srv, _, _ := newTestServer(t)
	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv, "MCPServer() should return non-nil")
}

// ---------------------------------------------------------------------------
// Tests: jules_list_sources
// ---------------------------------------------------------------------------

func TestHandleListSources_Empty(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_list_sources", nil)
	result, err := srv.handleListSources(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var list models.SourceList
	resultJSON(t, result, &list)
	assert.Empty(t, list.Sources)
}

func TestHandleListSources_WithSources(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedSource(t, mc, "acme", "widgets")
	seedSource(t, mc, "acme", "gadgets")

	req := callToolReq("jules_list_sources", nil)
	result, err := srv.handleListSources(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var list models.SourceList
	resultJSON(t, result, &list)
	require.Len(t, list.Sources, 2)
	assert.Equal(t, "sources/github/acme/widgets", list.Sources[0].Name)
}

func TestHandleListSources_PassesOptions(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_list_sources", map[string]any{
		"page_size":  10,
		"page_token": "tok-1",
	})
	result, err := srv.handleListSources(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Equal(t, 10, mc.lastListOpts.PageSize)
	assert.Equal(t, "tok-1", mc.lastListOpts.PageToken)
}

func TestHandleListSources_ClientError(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	mc.listSourcesErr = fmt.Errorf("status 503")

	req := callToolReq("jules_list_sources", nil)
	result, err := srv.handleListSources(ctx, req)
	require.NoError(t, err, "handler should not return Go error; should wrap in result")
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "status 503")
}

// ---------------------------------------------------------------------------
// Tests: jules_get_source
// ---------------------------------------------------------------------------

func TestHandleGetSource(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedSource(t, mc, "acme", "widgets")

	req := callToolReq("jules_get_source", map[string]any{
		"source_name": "sources/github/acme/widgets",
	})
	result, err := srv.handleGetSource(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var src models.Source
	resultJSON(t, result, &src)
	assert.Equal(t, "acme", src.GitHubRepo.Owner)
	assert.Equal(t, "main", src.GitHubRepo.DefaultBranch.DisplayName)
}

func TestHandleGetSource_MissingArg(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_get_source", nil)
	result, err := srv.handleGetSource(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "source_name")
}

// ---------------------------------------------------------------------------
// Tests: jules_list_sessions
// ---------------------------------------------------------------------------

func TestHandleListSessions_All(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedSession(t, mc, "s1", models.SessionStateInProgress)
	seedSession(t, mc, "s2", models.SessionStateCompleted)

	req := callToolReq("jules_list_sessions", nil)
	result, err := srv.handleListSessions(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var list models.SessionList
	resultJSON(t, result, &list)
	assert.Len(t, list.Sessions, 2)
	assert.Empty(t, mc.lastListOpts.Filter, "no filter without active_only")
}

func TestHandleListSessions_ActiveOnly(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedSession(t, mc, "s1", models.SessionStateInProgress)
	seedSession(t, mc, "s2", models.SessionStateCompleted)
	seedSession(t, mc, "s3", models.SessionStateFailed)
	seedSession(t, mc, "s4", models.SessionStateAwaitingPlanApproval)

	req := callToolReq("jules_list_sessions", map[string]any{"active_only": true})
	result, err := srv.handleListSessions(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	// Filter expression is pushed to the server, terminal sessions are
	// also dropped locally.
	assert.Equal(t, activeFilter, mc.lastListOpts.Filter)

	var list models.SessionList
	resultJSON(t, result, &list)
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, "sessions/s1", list.Sessions[0].Name)
	assert.Equal(t, "sessions/s4", list.Sessions[1].Name)
}

func TestHandleListSessions_ClientError(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	mc.listSessionsErr = fmt.Errorf("request failed with status 401")

	req := callToolReq("jules_list_sessions", nil)
	result, err := srv.handleListSessions(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "401")
}

// ---------------------------------------------------------------------------
// Tests: jules_get_session
// ---------------------------------------------------------------------------

func TestHandleGetSession_BareID(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedSession(t, mc, "abc123", models.SessionStateInProgress)

	req := callToolReq("jules_get_session", map[string]any{"session_name": "abc123"})
	result, err := srv.handleGetSession(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var sess models.Session
	resultJSON(t, result, &sess)
	assert.Equal(t, "sessions/abc123", sess.Name)
}

func TestHandleGetSession_MissingArg(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_get_session", nil)
	result, err := srv.handleGetSession(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "session_name")
}

// ---------------------------------------------------------------------------
// Tests: jules_create_session
// ---------------------------------------------------------------------------

func TestHandleCreateSession(t *testing.T) {
	srv, mc, ms := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_create_session", map[string]any{
		"prompt": "add rate limiting to the API",
		"source": "sources/github/acme/widgets",
		"branch": "develop",
		"title":  "Rate limiting",
	})
	result, err := srv.handleCreateSession(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	require.Len(t, mc.createdSessions, 1)
	created := mc.createdSessions[0]
	assert.Equal(t, "add rate limiting to the API", created.Prompt)
	assert.Equal(t, "sources/github/acme/widgets", created.SourceContext.Source)
	assert.Equal(t, "develop", created.SourceContext.Branch)

	var sess models.Session
	resultJSON(t, result, &sess)
	assert.Equal(t, models.SessionStateQueued, sess.State)
	assert.NotEmpty(t, sess.URL)

	// Launch is recorded locally.
	require.Len(t, ms.launches, 1)
	assert.Equal(t, sess.Name, ms.launches[0].SessionName)
	assert.Equal(t, "develop", ms.launches[0].Branch)
}

func TestHandleCreateSession_BareSource(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_create_session", map[string]any{
		"prompt": "do something",
		"source": "github/acme/widgets",
	})
	result, err := srv.handleCreateSession(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	require.Len(t, mc.createdSessions, 1)
	assert.Equal(t, "sources/github/acme/widgets", mc.createdSessions[0].SourceContext.Source)
}

func TestHandleCreateSession_MissingPrompt(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_create_session", map[string]any{
		"source": "sources/github/acme/widgets",
	})
	result, err := srv.handleCreateSession(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "prompt")
}

func TestHandleCreateSession_ClientError(t *testing.T) {
	srv, mc, ms := newTestServer(t)
	ctx := context.Background()

	mc.createSessionErr = fmt.Errorf("request failed with status 400")

	req := callToolReq("jules_create_session", map[string]any{
		"prompt": "do something",
		"source": "sources/github/acme/widgets",
	})
	result, err := srv.handleCreateSession(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, ms.launches, "failed create must not be recorded")
}

// ---------------------------------------------------------------------------
// Tests: jules_send_message
// ---------------------------------------------------------------------------

func TestHandleSendMessage(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_send_message", map[string]any{
		"session_name": "abc123",
		"message":      "please also update the docs",
	})
	result, err := srv.handleSendMessage(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	require.Len(t, mc.sentMessages, 1)
	assert.Equal(t, "please also update the docs", mc.sentMessages[0])

	var ar jules.ActionResult
	resultJSON(t, result, &ar)
	assert.True(t, ar.Success)
	assert.Equal(t, "sessions/abc123", ar.Session)
}

func TestHandleSendMessage_MissingMessage(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_send_message", map[string]any{"session_name": "abc123"})
	result, err := srv.handleSendMessage(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "message")
}

// ---------------------------------------------------------------------------
// Tests: jules_approve_plan
// ---------------------------------------------------------------------------

func TestHandleApprovePlan(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_approve_plan", map[string]any{"session_name": "abc123"})
	result, err := srv.handleApprovePlan(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	require.Len(t, mc.approvedPlans, 1)
	assert.Equal(t, "sessions/abc123", mc.approvedPlans[0])
}

func TestHandleApprovePlan_ClientError(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	mc.approvePlanErr = fmt.Errorf("request failed with status 409")

	req := callToolReq("jules_approve_plan", map[string]any{"session_name": "abc123"})
	result, err := srv.handleApprovePlan(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "409")
}

// ---------------------------------------------------------------------------
// Tests: jules_list_activities / jules_get_activity
// ---------------------------------------------------------------------------

func TestHandleListActivities(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedActivity(t, mc, "abc123", "a1", "starting work")
	seedActivity(t, mc, "abc123", "a2", "done with first step")

	req := callToolReq("jules_list_activities", map[string]any{"session_name": "abc123"})
	result, err := srv.handleListActivities(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var list models.ActivityList
	resultJSON(t, result, &list)
	require.Len(t, list.Activities, 2)
	assert.Equal(t, "starting work", list.Activities[0].AgentMessaged.Message)
}

func TestHandleGetActivity(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedActivity(t, mc, "abc123", "a1", "starting work")

	req := callToolReq("jules_get_activity", map[string]any{
		"session_name": "abc123",
		"activity_id":  "a1",
	})
	result, err := srv.handleGetActivity(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var a models.Activity
	resultJSON(t, result, &a)
	assert.Equal(t, "sessions/abc123/activities/a1", a.Name)
	assert.Equal(t, "agentMessaged", a.Kind())
}

func TestHandleGetActivity_FullName(t *testing.T) {
	srv, mc, _ := newTestServer(t)
	ctx := context.Background()

	seedActivity(t, mc, "abc123", "a1", "starting work")

	req := callToolReq("jules_get_activity", map[string]any{
		"session_name": "abc123",
		"activity_id":  "sessions/abc123/activities/a1",
	})
	result, err := srv.handleGetActivity(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

// ---------------------------------------------------------------------------
// Tests: jules_create_pull_request
// ---------------------------------------------------------------------------

func TestHandleCreatePullRequest_AppendsInstruction(t *testing.T) {
	srv, mc, ms := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_create_pull_request", map[string]any{
		"prompt": "rename the config package",
		"source": "github/acme/widgets",
	})
	result, err := srv.handleCreatePullRequest(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	require.Len(t, mc.createdSessions, 1)
	created := mc.createdSessions[0]
	assert.True(t, strings.HasPrefix(created.Prompt, "rename the config package"))
	assert.Contains(t, created.Prompt, "Please create a pull request with these changes.")
	assert.Equal(t, "sources/github/acme/widgets", created.SourceContext.Source)

	require.Len(t, ms.launches, 1)
}

func TestHandleCreatePullRequest_MissingSource(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("jules_create_pull_request", map[string]any{"prompt": "do it"})
	result, err := srv.handleCreatePullRequest(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "source")
}

// ---------------------------------------------------------------------------
// Tests: jules_session_digest
// ---------------------------------------------------------------------------

func TestHandleSessionDigest(t *testing.T) {
	mc := &mockClient{activities: map[string][]models.Activity{}}
	sum := &mockSummarizer{digest: "Session is waiting for plan approval."}
	srv := NewServer(mc, nil, sum)

	seedSession(t, mc, "abc123", models.SessionStateAwaitingPlanApproval)
	seedActivity(t, mc, "abc123", "a1", "here is my plan")

	ctx := context.Background()
	req := callToolReq("jules_session_digest", map[string]any{"session_name": "abc123"})
	result, err := srv.handleSessionDigest(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out map[string]any
	resultJSON(t, result, &out)
	assert.Equal(t, "sessions/abc123", out["session"])
	assert.Equal(t, "Session is waiting for plan approval.", out["digest"])

	require.NotNil(t, sum.lastInput)
	assert.Equal(t, "sessions/abc123", sum.lastInput.Name)
	assert.Len(t, sum.activities, 1)
}

func TestHandleSessionDigest_SummarizerError(t *testing.T) {
	mc := &mockClient{activities: map[string][]models.Activity{}}
	sum := &mockSummarizer{err: fmt.Errorf("anthropic: overloaded")}
	srv := NewServer(mc, nil, sum)

	seedSession(t, mc, "abc123", models.SessionStateInProgress)

	ctx := context.Background()
	req := callToolReq("jules_session_digest", map[string]any{"session_name": "abc123"})
	result, err := srv.handleSessionDigest(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "overloaded")
}

func TestMCPServer_DigestToolOnlyWithSummarizer(t *testing.T) {
	// Without a summarizer the digest tool is not registered; with one it is.
	// Registration itself must not panic either way.
	mc := &mockClient{activities: map[string][]models.Activity{}}

	srvNoLLM := NewServer(mc, nil, nil)
	require.NotNil(t, srvNoLLM.MCPServer())

	srvLLM := NewServer(mc, nil, &mockSummarizer{digest: "ok"})
	require.NotNil(t, srvLLM.MCPServer())
}
