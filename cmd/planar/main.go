package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"planar/internal/api"
	"planar/internal/config"
	"planar/internal/debug"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
	"planar/internal/store"
	"planar/internal/ui"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], defaultEnv())
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env holds the process surroundings so commands can run against fakes.
type env struct {
	stdout io.Writer
	stderr io.Writer
	// newClient builds the API client from the resolved settings.
	newClient func(settings) api.Client
	// runProgram runs the terminal UI.
	runProgram func(*ui.App) error
	now        func() time.Time
}

func defaultEnv() env {
	return env{
		stdout: os.Stdout,
		stderr: os.Stderr,
		newClient: func(s settings) api.Client {
			return api.NewHTTPClient(s.baseURL,
				api.WithToken(s.token),
				api.WithTimeout(s.timeout),
				api.WithUserAgent("planar/"+Version),
			)
		},
		runProgram: runProgram,
		now:        time.Now,
	}
}

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"base-url":      config.KeyBaseURL,
	"token":         config.KeyToken,
	"timeout":       config.KeyAPITimeout,
	"workspace":     config.KeyWorkspace,
	"project":       config.KeyProject,
	"view":          config.KeyView,
	"group-by":      config.KeyBoardGroupBy,
	"per-page":      config.KeyBoardPerPage,
	"state":         config.KeyBoardStates,
	"layout":        config.KeyCalendarLayout,
	"weekends":      config.KeyCalendarShowWeekends,
	"cache-path":    config.KeyCachePath,
	"offline":       config.KeyOffline,
	"output-format": config.KeyOutputFormat,
	"theme":         config.KeyTheme,
}

func newGlobalFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("planar", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(false)

	flagSet.String("base-url", config.GetString(config.KeyBaseURL), "server base URL")
	flagSet.String("token", "", "API token (or set PL_API_TOKEN)")
	flagSet.Duration("timeout", config.GetDuration(config.KeyAPITimeout), "request timeout")
	flagSet.StringP("workspace", "w", config.GetString(config.KeyWorkspace), "workspace slug")
	flagSet.StringP("project", "p", config.GetString(config.KeyProject), "project id")
	flagSet.String("view", config.GetString(config.KeyView), "view id (cycle:<id> or module:<id> for scoped views)")
	flagSet.StringP("group-by", "g", config.GetString(config.KeyBoardGroupBy), "board grouping (state, priority, labels, assignees, ...)")
	flagSet.Int("per-page", config.GetInt(config.KeyBoardPerPage), "issues per group page")
	flagSet.StringSlice("state", config.GetStringSlice(config.KeyBoardStates), "only show issues in these states (name or id, repeatable)")
	flagSet.String("layout", config.GetString(config.KeyCalendarLayout), "calendar layout (month or week)")
	flagSet.Bool("weekends", config.GetBool(config.KeyCalendarShowWeekends), "show weekends in the calendar")
	flagSet.String("cache-path", config.GetString(config.KeyCachePath), "snapshot cache database")
	flagSet.Bool("offline", config.GetBool(config.KeyOffline), "render the cached snapshot without contacting the server")
	flagSet.String("output-format", config.GetString(config.KeyOutputFormat), "detail markdown style (rich, dark, light, plain)")
	flagSet.String("theme", config.GetString(config.KeyTheme), "color theme")
	flagSet.Bool("calendar", false, "start in the calendar view")
	flagSet.Bool("archived", false, "show archived issues")
	flagSet.Bool("debug", false, "write a debug log to ~/.planar/debug.log")
	flagSet.BoolP("version", "v", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

func run(ctx context.Context, args []string, e env) error {
	if err := config.Initialize(); err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}

	flagSet := newGlobalFlagSet()
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(e.stderr, flagSet)
			return nil
		}
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(e.stderr, flagSet)
		return nil
	}
	if v, _ := flagSet.GetBool("version"); v {
		printVersion(e.stdout)
		return nil
	}

	enableDebug, _ := flagSet.GetBool("debug")
	if err := debug.Init(enableDebug); err != nil {
		return fmt.Errorf("initialize debug log: %w", err)
	}
	defer debug.Close()

	if err := config.ApplyOverrides(overridesFrom(flagSet)); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}

	rest := flagSet.Args()
	command := ""
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	switch command {
	case "", "tui":
		s, err := loadSettings(true)
		if err != nil {
			return err
		}
		s.calendar, _ = flagSet.GetBool("calendar")
		s.archived, _ = flagSet.GetBool("archived")
		return runTUI(ctx, e, s)
	case "list":
		return runList(ctx, e, rest)
	case "publish":
		return runPublish(ctx, e, rest)
	case "accounts":
		return runAccounts(ctx, e, rest)
	case "cache":
		return runCache(ctx, e, rest)
	case "version":
		printVersion(e.stdout)
		return nil
	case "help":
		printHelp(e.stderr, flagSet)
		return nil
	default:
		return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("unknown command %q (see planar --help)", command), nil)
	}
}

// overridesFrom returns the config values of flags set on the command line.
func overridesFrom(flagSet *pflag.FlagSet) map[string]any {
	overrides := map[string]any{}
	flagSet.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if list, isList := f.Value.(pflag.SliceValue); isList {
			overrides[key] = list.GetSlice()
			return
		}
		overrides[key] = f.Value.String()
	})
	return overrides
}

// settings is the resolved configuration for one run.
type settings struct {
	baseURL      string
	token        string
	timeout      time.Duration
	workspace    string
	project      string
	view         string
	scope        api.ViewScope
	groupBy      domain.GroupBy
	perPage      int
	states       []string
	layout       store.CalendarLayout
	weekends     bool
	cachePath    string
	offline      bool
	outputFormat string
	theme        string
	calendar     bool
	archived     bool
}

// loadSettings reads the merged configuration. needProject requires a
// workspace and project.
func loadSettings(needProject bool) (settings, error) {
	s := settings{
		baseURL:      strings.TrimSpace(config.GetString(config.KeyBaseURL)),
		token:        config.GetString(config.KeyToken),
		timeout:      config.GetDuration(config.KeyAPITimeout),
		workspace:    strings.TrimSpace(config.GetString(config.KeyWorkspace)),
		project:      strings.TrimSpace(config.GetString(config.KeyProject)),
		view:         strings.TrimSpace(config.GetString(config.KeyView)),
		perPage:      config.GetInt(config.KeyBoardPerPage),
		states:       config.GetStringSlice(config.KeyBoardStates),
		weekends:     config.GetBool(config.KeyCalendarShowWeekends),
		cachePath:    strings.TrimSpace(config.GetString(config.KeyCachePath)),
		offline:      config.GetBool(config.KeyOffline),
		outputFormat: config.GetString(config.KeyOutputFormat),
		theme:        config.GetString(config.KeyTheme),
	}
	if s.baseURL == "" {
		s.baseURL = config.DefaultBaseURL
	}
	if s.perPage <= 0 {
		s.perPage = config.DefaultPerPage
	}

	groupBy, ok := parseGroupBy(config.GetString(config.KeyBoardGroupBy))
	if !ok {
		return settings{}, appErrors.New(appErrors.CodeConfigurationError,
			fmt.Sprintf("unknown %s %q", config.KeyBoardGroupBy, config.GetString(config.KeyBoardGroupBy)), nil)
	}
	s.groupBy = groupBy

	layout, err := store.ParseCalendarLayout(config.GetString(config.KeyCalendarLayout))
	if err != nil {
		return settings{}, appErrors.New(appErrors.CodeConfigurationError, err.Error(), err)
	}
	s.layout = layout

	scope, err := parseViewScope(s.view)
	if err != nil {
		return settings{}, err
	}
	s.scope = scope

	if needProject && (s.workspace == "" || s.project == "") {
		return settings{}, appErrors.New(appErrors.CodeConfigurationError,
			"workspace and project are required (use --workspace/--project or set them in ~/.planar/config.yaml)", nil)
	}
	return s, nil
}

// parseGroupBy accepts the grouping names plus "none" and blank for an
// ungrouped board.
func parseGroupBy(raw string) (domain.GroupBy, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return domain.GroupByNone, true
	}
	return domain.ParseGroupBy(raw)
}

// resolveStateFilter maps configured state names or ids onto state ids.
// Names match case-insensitively.
func resolveStateFilter(raw []string, states []domain.State) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(raw))
	for _, want := range raw {
		id := ""
		for _, st := range states {
			if st.ID == want || strings.EqualFold(st.Name, want) {
				id = st.ID
				break
			}
		}
		if id == "" {
			return nil, appErrors.New(appErrors.CodeConfigurationError,
				fmt.Sprintf("unknown %s %q", config.KeyBoardStates, want), nil)
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseViewScope reads "cycle:<id>" and "module:<id>"; anything else is a
// plain project view id.
func parseViewScope(view string) (api.ViewScope, error) {
	kind, id, found := strings.Cut(view, ":")
	if !found {
		return api.ViewScope{Kind: api.ViewProject}, nil
	}
	switch api.ViewKind(kind) {
	case api.ViewCycle, api.ViewModule:
		if strings.TrimSpace(id) == "" {
			return api.ViewScope{}, appErrors.New(appErrors.CodeConfigurationError, fmt.Sprintf("view %q has no id", view), nil)
		}
		return api.ViewScope{Kind: api.ViewKind(kind), ID: id}, nil
	default:
		return api.ViewScope{}, appErrors.New(appErrors.CodeConfigurationError, fmt.Sprintf("unknown view kind %q", kind), nil)
	}
}

// boardParams are the store parameters for the board view.
func (s settings) boardParams() store.Params {
	return store.Params{
		CanGroup:     s.groupBy != domain.GroupByNone,
		GroupedBy:    s.groupBy,
		PerPageCount: s.perPage,
		Scope:        s.scope,
		Archived:     s.archived,
		StateIDs:     slices.Clone(s.states),
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `planar is a terminal client for Plane-style issue boards.

Usage:
  planar [flags] [command]

Commands:
  (none), tui     open the board (default)
  list            print the current view's issues
  publish         show a project's public view settings
  accounts        list linked third-party accounts
  cache           list or prune cached views
  version         print version information

Examples:
  # Open the board grouped by priority
  planar -w acme -p 2f1c... --group-by priority

  # Open the calendar from the cache without contacting the server
  planar --calendar --offline

  # Print the board as JSON
  planar list --json

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
	flagSet.SetOutput(io.Discard)
}
