package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a failed response is read for its detail.
const maxErrorBody = 64 << 10

// HTTPClient talks to the REST API over HTTP.
type HTTPClient struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client. The bearer token, if any,
// is layered over its transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithToken authenticates every request with a static bearer token.
func WithToken(token string) Option {
	return func(c *HTTPClient) {
		c.token = strings.TrimSpace(token)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// NewHTTPClient creates a client rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "planar",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		authed := oauth2.NewClient(ctx, ts)
		authed.Timeout = c.httpClient.Timeout
		c.httpClient = authed
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

// ListIssues fetches one page of a view's issues.
func (c *HTTPClient) ListIssues(ctx context.Context, workspace, projectID string, q IssueQuery) (IssuePage, error) {
	path := listPath(workspace, projectID, q)
	body, err := c.send(ctx, http.MethodGet, path, encodeIssueQuery(q), nil)
	if err != nil {
		return IssuePage{}, err
	}
	return decodeIssuePage("GET "+path, body)
}

// CreateIssue creates an issue and returns the server's record.
func (c *HTTPClient) CreateIssue(ctx context.Context, workspace, projectID string, in IssueCreate) (IssuePayload, error) {
	path := issuesPath(workspace, projectID)
	body, err := c.send(ctx, http.MethodPost, path, nil, in)
	if err != nil {
		return IssuePayload{}, err
	}
	return decodeIssue("POST "+path, body)
}

// UpdateIssue applies a partial update.
func (c *HTTPClient) UpdateIssue(ctx context.Context, workspace, projectID, issueID string, in IssueUpdate) (IssuePayload, error) {
	path := issuePath(workspace, projectID, issueID)
	body, err := c.send(ctx, http.MethodPatch, path, nil, in)
	if err != nil {
		return IssuePayload{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return IssuePayload{}, nil
	}
	return decodeIssue("PATCH "+path, body)
}

func (c *HTTPClient) DeleteIssue(ctx context.Context, workspace, projectID, issueID string) error {
	_, err := c.send(ctx, http.MethodDelete, issuePath(workspace, projectID, issueID), nil, nil)
	return err
}

// ArchiveIssue archives an issue and returns its archived_at timestamp.
func (c *HTTPClient) ArchiveIssue(ctx context.Context, workspace, projectID, issueID string) (string, error) {
	path := issuePath(workspace, projectID, issueID) + "archive/"
	body, err := c.send(ctx, http.MethodPost, path, nil, struct{}{})
	if err != nil {
		return "", err
	}
	var out struct {
		ArchivedAt *string `json:"archived_at"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", decodeError("POST "+path, "", err)
	}
	if out.ArchivedAt == nil || *out.ArchivedAt == "" {
		return "", decodeError("POST "+path, "archived_at", fmt.Errorf("missing value"))
	}
	return *out.ArchivedAt, nil
}

func (c *HTTPClient) RestoreIssue(ctx context.Context, workspace, projectID, issueID string) error {
	_, err := c.send(ctx, http.MethodDelete, issuePath(workspace, projectID, issueID)+"archive/", nil, nil)
	return err
}

// AddIssuesToView links issues to a cycle or module.
func (c *HTTPClient) AddIssuesToView(ctx context.Context, workspace, projectID string, scope ViewScope, issueIDs []string) error {
	path, err := scopeLinkPath(workspace, projectID, scope)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodPost, path, nil, map[string][]string{"issues": issueIDs})
	return err
}

// RemoveIssueFromView unlinks an issue from a cycle or module.
func (c *HTTPClient) RemoveIssueFromView(ctx context.Context, workspace, projectID string, scope ViewScope, issueID string) error {
	path, err := scopeLinkPath(workspace, projectID, scope)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, http.MethodDelete, path+url.PathEscape(issueID)+"/", nil, nil)
	return err
}

// ListProjects returns every project visible in the workspace.
func (c *HTTPClient) ListProjects(ctx context.Context, workspace string) ([]ProjectPayload, error) {
	path := fmt.Sprintf("/api/workspaces/%s/projects/", url.PathEscape(workspace))
	body, err := c.send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var projects []ProjectPayload
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, decodeError("GET "+path, "", err)
	}
	for i, p := range projects {
		if p.ID == "" {
			return nil, decodeError("GET "+path, fmt.Sprintf("[%d].id", i), fmt.Errorf("missing value"))
		}
	}
	return projects, nil
}

// UpdateProjectView stores the member's per-project view settings.
func (c *HTTPClient) UpdateProjectView(ctx context.Context, workspace, projectID string, in ProjectViewUpdate) error {
	path := projectPath(workspace, projectID) + "project-views/"
	_, err := c.send(ctx, http.MethodPatch, path, nil, in)
	return err
}

func (c *HTTPClient) ListStates(ctx context.Context, workspace, projectID string) ([]StatePayload, error) {
	path := projectPath(workspace, projectID) + "states/"
	body, err := c.send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var states []StatePayload
	if err := json.Unmarshal(body, &states); err != nil {
		return nil, decodeError("GET "+path, "", err)
	}
	for i, s := range states {
		if s.ID == "" {
			return nil, decodeError("GET "+path, fmt.Sprintf("[%d].id", i), fmt.Errorf("missing value"))
		}
	}
	return states, nil
}

// FetchPublishSettings resolves a public anchor.
func (c *HTTPClient) FetchPublishSettings(ctx context.Context, anchor string) (PublishSettingsPayload, error) {
	path := fmt.Sprintf("/api/public/anchor/%s/settings/", url.PathEscape(anchor))
	return c.fetchPublish(ctx, path)
}

// FetchAnchorFromProject looks up the publish settings of a project.
func (c *HTTPClient) FetchAnchorFromProject(ctx context.Context, workspace, projectID string) (PublishSettingsPayload, error) {
	path := fmt.Sprintf("/api/public/workspaces/%s/projects/%s/anchor/", url.PathEscape(workspace), url.PathEscape(projectID))
	return c.fetchPublish(ctx, path)
}

func (c *HTTPClient) fetchPublish(ctx context.Context, path string) (PublishSettingsPayload, error) {
	body, err := c.send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return PublishSettingsPayload{}, err
	}
	var out PublishSettingsPayload
	if err := json.Unmarshal(body, &out); err != nil {
		return PublishSettingsPayload{}, decodeError("GET "+path, "", err)
	}
	if out.Anchor == "" {
		return PublishSettingsPayload{}, decodeError("GET "+path, "anchor", fmt.Errorf("missing value"))
	}
	return out, nil
}

func (c *HTTPClient) ListAccounts(ctx context.Context) ([]AccountPayload, error) {
	const path = "/api/users/me/accounts/"
	body, err := c.send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var accounts []AccountPayload
	if err := json.Unmarshal(body, &accounts); err != nil {
		return nil, decodeError("GET "+path, "", err)
	}
	for i, a := range accounts {
		if a.Provider == "" {
			return nil, decodeError("GET "+path, fmt.Sprintf("[%d].provider", i), fmt.Errorf("missing value"))
		}
	}
	return accounts, nil
}

// send performs a request and returns the body of a 2xx response.
func (c *HTTPClient) send(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, classifyStatus(method, path, resp.StatusCode, detail)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	return body, nil
}

func projectPath(workspace, projectID string) string {
	return fmt.Sprintf("/api/workspaces/%s/projects/%s/", url.PathEscape(workspace), url.PathEscape(projectID))
}

func issuesPath(workspace, projectID string) string {
	return projectPath(workspace, projectID) + "issues/"
}

func issuePath(workspace, projectID, issueID string) string {
	return issuesPath(workspace, projectID) + url.PathEscape(issueID) + "/"
}

func listPath(workspace, projectID string, q IssueQuery) string {
	if q.Archived {
		return projectPath(workspace, projectID) + "archived-issues/"
	}
	switch q.ViewScope.Kind {
	case ViewCycle:
		return projectPath(workspace, projectID) + "cycles/" + url.PathEscape(q.ViewScope.ID) + "/cycle-issues/"
	case ViewModule:
		return projectPath(workspace, projectID) + "modules/" + url.PathEscape(q.ViewScope.ID) + "/module-issues/"
	default:
		return issuesPath(workspace, projectID)
	}
}

func scopeLinkPath(workspace, projectID string, scope ViewScope) (string, error) {
	if scope.ID == "" {
		return "", validationError("view scope needs an id")
	}
	switch scope.Kind {
	case ViewCycle:
		return projectPath(workspace, projectID) + "cycles/" + url.PathEscape(scope.ID) + "/cycle-issues/", nil
	case ViewModule:
		return projectPath(workspace, projectID) + "modules/" + url.PathEscape(scope.ID) + "/module-issues/", nil
	default:
		return "", validationError(fmt.Sprintf("issues cannot be linked to a %q view", scope.Kind))
	}
}

// encodeIssueQuery renders q as query parameters. A date window is sent as
// the server's target_date range filter.
func encodeIssueQuery(q IssueQuery) url.Values {
	v := url.Values{}
	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.GroupBy != "" {
		v.Set("group_by", q.GroupBy)
	}
	if q.GroupID != "" {
		v.Set("group_id", q.GroupID)
	}
	var window []string
	if q.After != "" {
		window = append(window, q.After+";after")
	}
	if q.Before != "" {
		window = append(window, q.Before+";before")
	}
	if len(window) > 0 {
		v.Set("target_date", strings.Join(window, ","))
	}
	if len(q.StateIDs) > 0 {
		v.Set("state", strings.Join(q.StateIDs, ","))
	}
	if q.OrderBy != "" {
		v.Set("order_by", q.OrderBy)
	}
	return v
}
