// Package jules is the HTTP client for the Google Jules API. It performs one
// request per logical operation, attaches the static API-key header, and hands
// response bodies to the models package for validation. There are no retries:
// a failed attempt is surfaced immediately.
package jules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/jules/internal/models"
)

// DefaultBaseURL is the fixed versioned base path of the Jules API.
const DefaultBaseURL = "https://jules.googleapis.com/v1alpha"

// DefaultTimeout bounds each request. Action calls on the remote side can be
// slow, so this is generous.
const DefaultTimeout = 60 * time.Second

const apiKeyHeader = "X-Goog-Api-Key"

// ConfigError reports a missing or invalid client configuration value. It is
// raised at construction time, before any network activity.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "jules: configuration error: " + e.Reason
}

// RequestError reports a non-2xx response. Body is the raw response body,
// verbatim.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("jules: request failed with status %d: %s", e.StatusCode, e.Body)
}

// ActionResult is the synthetic confirmation returned for action calls whose
// successful response has an empty body (sendMessage, approvePlan).
type ActionResult struct {
	Success bool   `json:"success"`
	Session string `json:"session"`
}

// Config holds the client settings. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string        // defaults to DefaultBaseURL
	Timeout time.Duration // defaults to DefaultTimeout
}

// Client issues requests against the Jules API. It is safe for concurrent
// use; concurrent calls are independent with no cross-call ordering.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client, failing fast with a ConfigError when no API key
// is configured.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Reason: "API key is required (set JULES_API_KEY)"}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// ListOptions are the pagination and filter parameters accepted by list
// operations.
type ListOptions struct {
	PageSize  int
	PageToken string
	Filter    string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.PageToken != "" {
		q.Set("pageToken", o.PageToken)
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	return q
}

// SessionName normalizes a session reference to "sessions/<id>" form.
// Already-qualified names pass through unchanged.
func SessionName(ref string) string {
	if strings.HasPrefix(ref, "sessions/") {
		return ref
	}
	return "sessions/" + ref
}

// SourceName normalizes a source reference to "sources/..." form.
func SourceName(ref string) string {
	if strings.HasPrefix(ref, "sources/") {
		return ref
	}
	return "sources/" + ref
}

// ActivityName builds a fully qualified activity name from a session
// reference and an activity id. A ref that is already a full activity name
// passes through.
func ActivityName(session, ref string) string {
	if strings.Contains(ref, "/activities/") {
		return ref
	}
	return SessionName(session) + "/activities/" + ref
}

// ListSources lists the repositories Jules can work with.
func (c *Client) ListSources(ctx context.Context, opts ListOptions) (*models.SourceList, error) {
	body, err := c.get(ctx, "sources", opts.query())
	if err != nil {
		return nil, err
	}
	return models.ParseSourceList(body)
}

// GetSource fetches a single source by name or bare id.
func (c *Client) GetSource(ctx context.Context, name string) (*models.Source, error) {
	body, err := c.get(ctx, SourceName(name), nil)
	if err != nil {
		return nil, err
	}
	return models.ParseSource(body)
}

// ListSessions lists sessions. opts.Filter is passed through as the remote
// filter expression.
func (c *Client) ListSessions(ctx context.Context, opts ListOptions) (*models.SessionList, error) {
	body, err := c.get(ctx, "sessions", opts.query())
	if err != nil {
		return nil, err
	}
	return models.ParseSessionList(body)
}

// GetSession fetches a single session by name or bare id.
func (c *Client) GetSession(ctx context.Context, name string) (*models.Session, error) {
	body, err := c.get(ctx, SessionName(name), nil)
	if err != nil {
		return nil, err
	}
	return models.ParseSession(body)
}

// CreateSession starts a new coding session. The request is validated
// locally before any network activity.
func (c *Client) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := c.post(ctx, "sessions", req)
	if err != nil {
		return nil, err
	}
	return models.ParseSession(body)
}

// SendMessage sends a follow-up message to a session. The remote returns an
// empty body on success.
func (c *Client) SendMessage(ctx context.Context, session, prompt string) (*ActionResult, error) {
	req := models.SendMessageRequest{Prompt: prompt}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	name := SessionName(session)
	if _, err := c.post(ctx, name+":sendMessage", req); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Session: name}, nil
}

// ApprovePlan approves the pending plan of a session. The remote returns an
// empty body on success.
func (c *Client) ApprovePlan(ctx context.Context, session string) (*ActionResult, error) {
	name := SessionName(session)
	if _, err := c.post(ctx, name+":approvePlan", struct{}{}); err != nil {
		return nil, err
	}
	return &ActionResult{Success: true, Session: name}, nil
}

// ListActivities lists the activity history of a session.
func (c *Client) ListActivities(ctx context.Context, session string, opts ListOptions) (*models.ActivityList, error) {
	body, err := c.get(ctx, SessionName(session)+"/activities", opts.query())
	if err != nil {
		return nil, err
	}
	return models.ParseActivityList(body)
}

// GetActivity fetches a single activity by fully qualified name.
func (c *Client) GetActivity(ctx context.Context, name string) (*models.Activity, error) {
	body, err := c.get(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	return models.ParseActivity(body)
}

// --- transport ---

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jules: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jules: read response body: %w", err)
	}

	slog.Debug("jules api call",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
