package domain

import (
	"testing"

	"planar/internal/api"

	"github.com/google/go-cmp/cmp"
)

func TestDescriptionMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		plain string
		want  string
	}{
		{
			name: "inline marks",
			html: `<p>Fix the <strong>login</strong> page, see <a href="https://x.test/a">docs</a> and <code>auth.go</code>.</p>`,
			want: "Fix the **login** page, see [docs](https://x.test/a) and `auth.go`.",
		},
		{
			name: "heading and nested lists",
			html: `<h2>Steps</h2><ol><li><p>Open</p></li><li><p>Click</p><ul><li><p>twice</p></li></ul></li></ol>`,
			want: "## Steps\n\n1. Open\n2. Click\n   - twice",
		},
		{
			name: "task list",
			html: `<ul data-type="taskList"><li data-checked="true" data-type="taskItem"><label><input type="checkbox" checked></label><div><p>done</p></div></li>` +
				`<li data-checked="false" data-type="taskItem"><label><input type="checkbox"></label><div><p>todo</p></div></li></ul>`,
			want: "- [x] done\n- [ ] todo",
		},
		{
			name: "code block",
			html: `<pre><code class="language-go">fmt.Println("hi")` + "\n" + `</code></pre>`,
			want: "```go\nfmt.Println(\"hi\")\n```",
		},
		{
			name: "quote escapes literal markers",
			html: `<blockquote><p>quoted *text*</p></blockquote>`,
			want: `> quoted \*text\*`,
		},
		{
			name: "paragraphs and line breaks",
			html: "<p>line one<br>line two</p>\n<p>second</p>",
			want: "line one  \nline two\n\nsecond",
		},
		{
			name:  "plain text fallback",
			plain: "Ship *fast*\n# not a heading\n1. step",
			want:  "Ship \\*fast\\*  \n\\# not a heading  \n1\\. step",
		},
		{
			name:  "empty rich body falls back",
			html:  "<p></p>",
			plain: "just text",
			want:  "just text",
		},
		{
			name: "nothing",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescriptionMarkdown(tt.html, tt.plain)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewIssueFromPayloadPrefersRichDescription(t *testing.T) {
	issue, err := NewIssueFromPayload(api.IssuePayload{
		ID:              "i-1",
		ProjectID:       "p-1",
		Priority:        "none",
		DescriptionHTML: "<p><em>Needs</em> review</p>",
		Description:     "Needs review",
	})
	if err != nil {
		t.Fatalf("NewIssueFromPayload returned error: %v", err)
	}
	if issue.Description != "_Needs_ review" {
		t.Fatalf("description = %q", issue.Description)
	}
}
