package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appErrors "planar/internal/errors"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, opts...)
}

func TestNewHTTPClientDefaults(t *testing.T) {
	c := NewHTTPClient("https://plane.example.com/")
	if c.baseURL != "https://plane.example.com" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestNewHTTPClientWithOptions(t *testing.T) {
	custom := &http.Client{}
	c := NewHTTPClient("https://plane.example.com", WithHTTPClient(custom), WithTimeout(3*time.Second))
	if c.httpClient != custom {
		t.Error("custom HTTP client not applied")
	}
	if c.httpClient.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", c.httpClient.Timeout)
	}
}

func TestBearerTokenIsSent(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	}, WithToken("secret"))

	if _, err := c.ListAccounts(context.Background()); err != nil {
		t.Fatalf("ListAccounts error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer token", auth)
	}
}

func TestListIssuesGroupedKeepsServerOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/workspaces/acme/projects/p-1/issues/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("group_by") != "target_date" || q.Get("per_page") != "4" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("target_date") != "2024-04-28;after,2024-06-01;before" {
			t.Errorf("target_date = %q", q.Get("target_date"))
		}
		_, _ = io.WriteString(w, `{
			"grouped_by": "target_date",
			"next_cursor": "4:1:0",
			"prev_cursor": "4:-1:1",
			"next_page_results": true,
			"total_count": 5,
			"results": {
				"2024-05-02": {"results": [{"id": "i-2", "project_id": "p-1", "sort_order": 2}], "total_results": 3},
				"2024-05-01": {"results": [{"id": "i-1", "project_id": "p-1", "sort_order": 1}], "total_results": 2}
			}
		}`)
	})

	page, err := c.ListIssues(context.Background(), "acme", "p-1", IssueQuery{
		PerPage: 4,
		GroupBy: "target_date",
		After:   "2024-04-28",
		Before:  "2024-06-01",
	})
	if err != nil {
		t.Fatalf("ListIssues error: %v", err)
	}
	if diff := cmp.Diff([]string{"2024-05-02", "2024-05-01"}, page.Order); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}
	if page.Groups["2024-05-02"].TotalResults != 3 {
		t.Errorf("total_results = %d, want 3", page.Groups["2024-05-02"].TotalResults)
	}
	if page.NextCursor != "4:1:0" || !page.NextPageResults {
		t.Errorf("cursor = %q has more = %v", page.NextCursor, page.NextPageResults)
	}
}

func TestListIssuesFlatResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"next_cursor": "", "total_count": 2, "results": [
			{"id": "a", "project_id": "p"}, {"id": "b", "project_id": "p"}
		]}`)
	})
	page, err := c.ListIssues(context.Background(), "acme", "p", IssueQuery{})
	if err != nil {
		t.Fatalf("ListIssues error: %v", err)
	}
	group, ok := page.Groups[UngroupedKey]
	if !ok || len(group.Issues) != 2 || group.TotalResults != 2 {
		t.Fatalf("flat results = %+v", page.Groups)
	}
}

func TestListIssuesScopedPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `{"results": []}`)
	})
	ctx := context.Background()
	_, _ = c.ListIssues(ctx, "acme", "p", IssueQuery{ViewScope: ViewScope{Kind: ViewCycle, ID: "c1"}})
	_, _ = c.ListIssues(ctx, "acme", "p", IssueQuery{ViewScope: ViewScope{Kind: ViewModule, ID: "m1"}})
	_, _ = c.ListIssues(ctx, "acme", "p", IssueQuery{Archived: true})

	want := []string{
		"/api/workspaces/acme/projects/p/cycles/c1/cycle-issues/",
		"/api/workspaces/acme/projects/p/modules/m1/module-issues/",
		"/api/workspaces/acme/projects/p/archived-issues/",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestListIssuesDecodeErrors(t *testing.T) {
	bodies := map[string]string{
		"not json":        `<html>`,
		"missing results": `{"next_cursor": "x"}`,
		"missing id":      `{"results": [{"project_id": "p"}]}`,
		"bad group":       `{"results": {"todo": 7}}`,
		"negative total":  `{"results": {"todo": {"results": [], "total_results": -1}}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := c.ListIssues(context.Background(), "acme", "p", IssueQuery{})
			if !appErrors.IsCode(err, appErrors.CodeDecode) {
				t.Fatalf("expected decode error, got %v", err)
			}
			var de DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected DecodeError in chain, got %T", err)
			}
		})
	}
}

func TestStatusCodesMapToErrorCodes(t *testing.T) {
	cases := map[int]appErrors.Code{
		http.StatusUnauthorized:        appErrors.CodeUnauthorized,
		http.StatusForbidden:           appErrors.CodeUnauthorized,
		http.StatusNotFound:            appErrors.CodeNotFound,
		http.StatusInternalServerError: appErrors.CodeNetwork,
		http.StatusBadRequest:          appErrors.CodeNetwork,
	}
	for status, want := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"detail": "nope"}`)
		})
		err := c.DeleteIssue(context.Background(), "acme", "p", "i")
		if got := appErrors.CodeOf(err); got != want {
			t.Errorf("status %d: code = %q, want %q", status, got, want)
		}
		if msg := UserMessage(err, "fallback"); msg != "nope" {
			t.Errorf("status %d: user message = %q, want server detail", status, msg)
		}
	}
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewHTTPClient(url, WithTimeout(time.Second))
	_, err := c.ListProjects(context.Background(), "acme")
	if !appErrors.IsCode(err, appErrors.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if msg := UserMessage(err, "fallback"); msg != "fallback" {
		t.Errorf("user message = %q, want fallback", msg)
	}
}

func TestUpdateIssueSendsNullForClearedFields(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"id": "i", "project_id": "p"}`)
	})
	_, err := c.UpdateIssue(context.Background(), "acme", "p", "i", IssueUpdate{"target_date": nil, "sort_order": 1.5})
	if err != nil {
		t.Fatalf("UpdateIssue error: %v", err)
	}
	v, ok := got["target_date"]
	if !ok || v != nil {
		t.Errorf("target_date = %#v (present %v), want explicit null", v, ok)
	}
	if got["sort_order"] != 1.5 {
		t.Errorf("sort_order = %#v", got["sort_order"])
	}
}

func TestArchiveAndRestore(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPost {
			_, _ = io.WriteString(w, `{"archived_at": "2024-05-01T10:00:00Z"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	at, err := c.ArchiveIssue(context.Background(), "acme", "p", "i")
	if err != nil || at != "2024-05-01T10:00:00Z" {
		t.Fatalf("ArchiveIssue = %q, %v", at, err)
	}
	if err := c.RestoreIssue(context.Background(), "acme", "p", "i"); err != nil {
		t.Fatalf("RestoreIssue error: %v", err)
	}
	want := []string{
		"POST /api/workspaces/acme/projects/p/issues/i/archive/",
		"DELETE /api/workspaces/acme/projects/p/issues/i/archive/",
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestViewLinkRequiresCycleOrModule(t *testing.T) {
	c := NewHTTPClient("http://unused.invalid")
	err := c.AddIssuesToView(context.Background(), "acme", "p", ViewScope{Kind: ViewProject, ID: "x"}, []string{"i"})
	if !appErrors.IsCode(err, appErrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchPublishSettings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/public/anchor/abc123/settings/":
			_, _ = io.WriteString(w, `{"id": "s1", "anchor": "abc123", "project": "p", "workspace_detail": {"slug": "acme"}, "view_props": {"kanban": true}}`)
		case "/api/public/workspaces/acme/projects/p/anchor/":
			_, _ = io.WriteString(w, `{"id": "s1"}`)
		default:
			http.NotFound(w, r)
		}
	})
	settings, err := c.FetchPublishSettings(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchPublishSettings error: %v", err)
	}
	if settings.WorkspaceDetail == nil || settings.WorkspaceDetail.Slug != "acme" {
		t.Errorf("workspace detail = %+v", settings.WorkspaceDetail)
	}

	if _, err := c.FetchAnchorFromProject(context.Background(), "acme", "p"); !appErrors.IsCode(err, appErrors.CodeDecode) {
		t.Errorf("missing anchor should be a decode error, got %v", err)
	}
}
