package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"planar/internal/api"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
	"planar/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"
)

type listOptions struct {
	json     bool
	all      bool
	archived bool
}

func runList(ctx context.Context, e env, args []string) error {
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	var opts listOptions
	flagSet.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	flagSet.BoolVar(&opts.all, "all", false, "page through every group instead of the first page")
	flagSet.BoolVar(&opts.archived, "archived", false, "list archived issues")
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(e.stderr, "planar list [--json] [--all] [--archived]", flagSet)
			return nil
		}
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printCommandHelp(e.stderr, "planar list [--json] [--all] [--archived]", flagSet)
		return nil
	}

	s, err := loadSettings(true)
	if err != nil {
		return err
	}
	s.archived = opts.archived
	client := e.newClient(s)

	states, err := fetchStates(ctx, client, s)
	if err != nil {
		return err
	}
	if s.states, err = resolveStateFilter(s.states, states); err != nil {
		return err
	}
	identifier := projectIdentifier(ctx, client, s)

	issues := store.New(store.Config{Client: client, Workspace: s.workspace, ProjectID: s.project})
	if err := issues.FetchIssues(ctx, store.LoaderInit, s.boardParams(), s.view); err != nil {
		return err
	}
	if opts.all {
		if err := fetchAllPages(ctx, issues); err != nil {
			return err
		}
	}

	groups := collectGroups(issues, states, identifier)
	if opts.json {
		return writeListJSON(e.stdout, groups)
	}
	writeListTable(e.stdout, groups)
	return nil
}

// projectIdentifier looks up the short project code for issue keys. A
// failed lookup falls back to "#seq" keys.
func projectIdentifier(ctx context.Context, client api.ProjectService, s settings) string {
	ps := store.NewProjectStore(store.ProjectConfig{Client: client, Workspace: s.workspace})
	if err := ps.Fetch(ctx); err != nil {
		logf("list projects: %v", err)
		return ""
	}
	p, ok := ps.Project(s.project)
	if !ok {
		return ""
	}
	return p.Identifier
}

// fetchAllPages follows every group's cursor until the server reports no
// more results.
func fetchAllPages(ctx context.Context, issues *store.Store) error {
	ungrouped := issues.GroupBy() == domain.GroupByNone
	for _, key := range issues.GroupKeys() {
		cursorKey := key
		if ungrouped {
			cursorKey = store.ViewCursor
		}
		for issues.PaginationData(cursorKey).HasMore {
			before, _ := issues.GroupIssueCount(key, true)
			if err := issues.FetchNextIssues(ctx, key); err != nil {
				return err
			}
			after, _ := issues.GroupIssueCount(key, true)
			if after == before {
				break
			}
		}
	}
	return nil
}

type listedIssue struct {
	ID         string   `json:"id"`
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	State      string   `json:"state"`
	Priority   string   `json:"priority"`
	StartDate  string   `json:"start_date,omitempty"`
	TargetDate string   `json:"target_date,omitempty"`
	Labels     []string `json:"label_ids,omitempty"`
	Assignees  []string `json:"assignee_ids,omitempty"`
	SortOrder  float64  `json:"sort_order"`
	ArchivedAt string   `json:"archived_at,omitempty"`
}

type listedGroup struct {
	Key    string        `json:"key"`
	Title  string        `json:"title"`
	Total  int           `json:"total"`
	Issues []listedIssue `json:"issues"`
}

func collectGroups(issues *store.Store, states []domain.State, identifier string) []listedGroup {
	var groups []listedGroup
	for _, key := range issues.GroupKeys() {
		loaded := issues.Issues(key)
		total, _ := issues.GroupIssueCount(key, false)
		if issues.GroupBy() == domain.GroupByNone {
			total, _ = issues.GroupIssueCount(store.ViewCursor, false)
		}
		g := listedGroup{
			Key:    key,
			Title:  listGroupTitle(issues.GroupBy(), key, states),
			Total:  max(total, len(loaded)),
			Issues: make([]listedIssue, 0, len(loaded)),
		}
		for _, issue := range loaded {
			stateName := issue.StateID
			if st, ok := domain.FindState(states, issue.StateID); ok {
				stateName = st.Name
			}
			g.Issues = append(g.Issues, listedIssue{
				ID:         issue.ID,
				Key:        listIssueKey(identifier, issue.SequenceID),
				Name:       issue.Name,
				State:      stateName,
				Priority:   string(issue.Priority),
				StartDate:  issue.StartDate,
				TargetDate: issue.TargetDate,
				Labels:     issue.LabelIDs,
				Assignees:  issue.AssigneeIDs,
				SortOrder:  issue.SortOrder,
				ArchivedAt: issue.ArchivedAt,
			})
		}
		groups = append(groups, g)
	}
	return groups
}

func listGroupTitle(g domain.GroupBy, key string, states []domain.State) string {
	switch {
	case key == "" || key == domain.NoneGroup:
		return "None"
	case key == domain.AllIssuesGroup:
		return "All issues"
	case g == domain.GroupByState:
		if st, ok := domain.FindState(states, key); ok {
			return st.Name
		}
	}
	return key
}

func listIssueKey(identifier string, seq int) string {
	switch {
	case seq <= 0:
		return "new"
	case identifier == "":
		return fmt.Sprintf("#%d", seq)
	default:
		return fmt.Sprintf("%s-%d", identifier, seq)
	}
}

func writeListJSON(w io.Writer, groups []listedGroup) error {
	if groups == nil {
		groups = []listedGroup{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(groups); err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	return nil
}

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true)
	listGroupStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	listCellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

func writeListTable(w io.Writer, groups []listedGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No issues.")
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, listGroupStyle.Render(fmt.Sprintf("%s (%d)", g.Title, g.Total)))
		if len(g.Issues) == 0 {
			fmt.Fprintln(w, "  no issues")
			continue
		}
		t := table.New().
			Border(lipgloss.HiddenBorder()).
			Headers("KEY", "NAME", "STATE", "PRIORITY", "TARGET").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return listHeaderStyle.PaddingRight(2)
				}
				return listCellStyle
			})
		for _, issue := range g.Issues {
			t.Row(issue.Key, issue.Name, issue.State, issue.Priority, issue.TargetDate)
		}
		fmt.Fprintln(w, strings.TrimRight(t.Render(), "\n"))
		if shown := len(g.Issues); shown < g.Total {
			fmt.Fprintf(w, "  … %d more (use --all)\n", g.Total-shown)
		}
	}
}

func printCommandHelp(w io.Writer, usage string, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage:\n  %s\n\nFlags:\n", usage)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
	flagSet.SetOutput(io.Discard)
}
