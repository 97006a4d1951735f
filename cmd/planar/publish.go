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

	"github.com/spf13/pflag"
)

const publishUsage = "planar publish [anchor] [--json]"

// publishedView is the printable form of publish settings.
type publishedView struct {
	ID        string   `json:"id"`
	Anchor    string   `json:"anchor"`
	Project   string   `json:"project"`
	Workspace string   `json:"workspace"`
	Slug      string   `json:"workspace_slug,omitempty"`
	Comments  bool     `json:"is_comments_enabled"`
	Reactions bool     `json:"is_reactions_enabled"`
	Votes     bool     `json:"is_votes_enabled"`
	Layouts   []string `json:"layouts"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

func runPublish(ctx context.Context, e env, args []string) error {
	flagSet := pflag.NewFlagSet("publish", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	asJSON := flagSet.Bool("json", false, "print JSON")
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(e.stderr, publishUsage, flagSet)
			return nil
		}
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printCommandHelp(e.stderr, publishUsage, flagSet)
		return nil
	}
	if flagSet.NArg() > 1 {
		return appErrors.New(appErrors.CodeValidation, "publish takes at most one anchor", nil)
	}
	anchor := strings.TrimSpace(flagSet.Arg(0))

	s, err := loadSettings(anchor == "")
	if err != nil {
		return err
	}
	client := e.newClient(s)

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var payload api.PublishSettingsPayload
	if anchor != "" {
		payload, err = client.FetchPublishSettings(reqCtx, anchor)
	} else {
		payload, err = client.FetchAnchorFromProject(reqCtx, s.workspace, s.project)
	}
	if err != nil {
		if appErrors.IsCode(err, appErrors.CodeNotFound) {
			return appErrors.New(appErrors.CodeNotFound, "project is not published", err)
		}
		return err
	}
	settings, err := domain.NewPublishSettings(payload)
	if err != nil {
		return appErrors.New(appErrors.CodeDecode, "publish settings: "+err.Error(), err)
	}

	view := publishedView{
		ID:        settings.ID(),
		Anchor:    settings.Anchor(),
		Project:   settings.ProjectID(),
		Workspace: settings.WorkspaceID(),
		Slug:      settings.WorkspaceSlug(),
		Comments:  settings.CommentsEnabled(),
		Reactions: settings.ReactionsEnabled(),
		Votes:     settings.VotesEnabled(),
		Layouts:   settings.Layouts(),
		CreatedAt: settings.CreatedAt(),
		UpdatedAt: settings.UpdatedAt(),
	}
	if view.Layouts == nil {
		view.Layouts = []string{}
	}
	if *asJSON {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	writePublished(e.stdout, view, s.baseURL)
	return nil
}

func writePublished(w io.Writer, v publishedView, baseURL string) {
	fmt.Fprintf(w, "Anchor:     %s\n", v.Anchor)
	fmt.Fprintf(w, "URL:        %s/%s\n", strings.TrimRight(baseURL, "/"), v.Anchor)
	if v.Slug != "" {
		fmt.Fprintf(w, "Workspace:  %s\n", v.Slug)
	}
	fmt.Fprintf(w, "Project:    %s\n", v.Project)
	layouts := "none"
	if len(v.Layouts) > 0 {
		layouts = strings.Join(v.Layouts, ", ")
	}
	fmt.Fprintf(w, "Layouts:    %s\n", layouts)
	fmt.Fprintf(w, "Comments:   %s\n", onOff(v.Comments))
	fmt.Fprintf(w, "Reactions:  %s\n", onOff(v.Reactions))
	fmt.Fprintf(w, "Votes:      %s\n", onOff(v.Votes))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
