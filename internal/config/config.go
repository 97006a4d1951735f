package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyBaseURL    = "api.base-url"
	KeyToken      = "api.token"
	KeyAPITimeout = "api.timeout"

	KeyWorkspace = "workspace"
	KeyProject   = "project"
	KeyView      = "view"

	KeyBoardGroupBy = "board.group-by"
	KeyBoardPerPage = "board.per-page"
	KeyBoardStates  = "board.states"

	KeyCalendarLayout       = "calendar.layout"
	KeyCalendarShowWeekends = "calendar.show-weekends"

	KeyCachePath    = "cache.path"
	KeyOffline      = "offline"
	KeyOutputFormat = "output.format"
	KeyTheme        = "theme"
)

const (
	// DefaultBaseURL is used when no server is configured.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultPerPage is the board page size per group.
	DefaultPerPage = 50
	// DirName is the per-user and per-project config directory.
	DirName    = ".planar"
	configFile = "config.yaml"
	envPrefix  = "PL"
)

// paths are the config files a run reads. project is empty when no
// .planar/config.yaml was found above the working directory.
type paths struct {
	workingDir string
	project    string
	user       string
}

// Option adjusts where Initialize looks for config files.
type Option func(*paths)

// WithWorkingDir starts project config discovery at dir.
func WithWorkingDir(dir string) Option {
	return func(p *paths) { p.workingDir = dir }
}

// WithProjectConfig skips discovery and uses path as the project config.
func WithProjectConfig(path string) Option {
	return func(p *paths) { p.project = path }
}

// WithUserConfig replaces ~/.planar/config.yaml.
func WithUserConfig(path string) Option {
	return func(p *paths) { p.user = path }
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	configPath paths
	initErr    error
)

// Initialize loads configuration once. Later sources win:
// defaults, user file, project file, PL_* environment, overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		var p paths
		for _, opt := range opts {
			opt(&p)
		}
		initErr = load(p)
	})
	return initErr
}

// ApplyOverrides sets values from command-line flags on top of every other
// source.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

func lookup[T any](key string, get func(*viper.Viper, string) T) T {
	v, err := getViper()
	if err != nil {
		var zero T
		return zero
	}
	return get(v, key)
}

// GetString returns a setting as a string.
func GetString(key string) string { return lookup(key, (*viper.Viper).GetString) }

// GetBool returns a setting as a bool.
func GetBool(key string) bool { return lookup(key, (*viper.Viper).GetBool) }

// GetInt returns a setting as an int.
func GetInt(key string) int { return lookup(key, (*viper.Viper).GetInt) }

// GetDuration returns a setting as a duration ("15s", "2m").
func GetDuration(key string) time.Duration { return lookup(key, (*viper.Viper).GetDuration) }

// GetStringSlice returns a list setting. Entries holding commas, as a list
// set through the environment does, are split; blanks are dropped.
func GetStringSlice(key string) []string {
	var out []string
	for _, item := range lookup(key, (*viper.Viper).GetStringSlice) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Set changes a key in the running configuration only.
func Set(key string, value any) error {
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	configInst.Set(key, value)
	return nil
}

func load(p paths) error {
	if strings.TrimSpace(p.workingDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		p.workingDir = wd
	}
	if strings.TrimSpace(p.user) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("determine user home: %w", err)
		}
		p.user = filepath.Join(home, DirName, configFile)
	}
	if strings.TrimSpace(p.project) == "" {
		found, err := findProjectConfig(p.workingDir)
		if err != nil {
			return err
		}
		p.project = found
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, path := range []string{p.user, p.project} {
		if err := mergeConfigFile(v, path); err != nil {
			return err
		}
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	configPath = p
	return nil
}

// mergeConfigFile layers a YAML file onto v. Missing and empty files are
// skipped.
func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("read config %s: %w", path, err)
	case len(bytes.TrimSpace(data)) == 0:
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// findProjectConfig walks up from dir to the nearest .planar/config.yaml.
func findProjectConfig(dir string) (string, error) {
	for strings.TrimSpace(dir) != "" {
		candidate := filepath.Join(dir, DirName, configFile)
		switch info, err := os.Stat(candidate); {
		case err == nil && info.IsDir():
			return "", fmt.Errorf("project config %s is a directory", candidate)
		case err == nil:
			return candidate, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("look for project config: %w", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyAPITimeout, 15*time.Second)
	v.SetDefault(KeyWorkspace, "")
	v.SetDefault(KeyProject, "")
	v.SetDefault(KeyView, "")
	v.SetDefault(KeyBoardGroupBy, "state")
	v.SetDefault(KeyBoardPerPage, DefaultPerPage)
	v.SetDefault(KeyBoardStates, []string{})
	v.SetDefault(KeyCalendarLayout, "month")
	v.SetDefault(KeyCalendarShowWeekends, false)
	v.SetDefault(KeyCachePath, "")
	v.SetDefault(KeyOffline, false)
	v.SetDefault(KeyOutputFormat, "rich")
	v.SetDefault(KeyTheme, "tokyonight")
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return configInst, nil
}

func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	configPath = paths{}
	initErr = nil
	configOnce = sync.Once{}
}

// ResetForTesting reinitializes from an empty temp directory so tests in
// other packages see only defaults and their own Set calls. The returned
// func restores a clean slate.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, configFile)))
	return reset
}

// Save writes one key to the project config when the run found one, else
// to the user config, and applies it to the running configuration. Other
// keys in the file are kept. Only the user config directory is created.
func Save(key string, value any) error {
	if err := Initialize(); err != nil {
		return err
	}
	configMu.RLock()
	target := configPath.project
	if target == "" {
		target = configPath.user
	}
	configMu.RUnlock()

	v := viper.New()
	v.SetConfigType("yaml")
	if err := mergeConfigFile(v, target); err != nil {
		return err
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(target); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return Set(key, value)
}
