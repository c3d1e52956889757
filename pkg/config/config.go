// Package config handles loading and saving teamboard configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/teamboard/config.yaml
//   - State:   ~/.local/state/teamboard/ (preferences database)
//
// Environment variables override file values after loading:
// TB_SOURCE, TB_USERNAME, TB_PASSWORD, TB_PAGE_SIZE and TB_LOCALE.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const appName = "teamboard"

// ErrInvalid is returned (wrapped) when a loaded config fails validation.
var ErrInvalid = errors.New("invalid config")

// SourceConfig describes where statistics come from.
type SourceConfig struct {
	// Location is an http(s) base URL, a .json file, a .db/.sqlite file, or
	// several of these separated by commas.
	Location     string        `yaml:"location,omitempty"`
	Username     string        `yaml:"username,omitempty"`
	Password     string        `yaml:"password,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty" validate:"min=0"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty" validate:"min=0"` // 0 disables polling
}

// DashboardConfig holds view defaults.
type DashboardConfig struct {
	PageSize    int    `yaml:"page_size,omitempty" validate:"min=1,max=500"`
	Locale      string `yaml:"locale,omitempty" validate:"required"`
	DefaultSort string `yaml:"default_sort,omitempty" validate:"omitempty,oneof=completedDesc failedDesc inWorkDesc nameAsc"`
	DefaultView string `yaml:"default_view,omitempty" validate:"omitempty,oneof=table cards"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Dir    string `yaml:"dir,omitempty"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=csv json xlsx md"`
	BOM    bool   `yaml:"bom,omitempty"` // prefix CSV with a UTF-8 BOM for spreadsheet apps
}

// StateConfig controls persisted preferences.
type StateConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"` // defaults to StateDir()/prefs.db
}

// Config is the top-level configuration for teamboard.
type Config struct {
	Source    SourceConfig    `yaml:"source,omitempty"`
	Dashboard DashboardConfig `yaml:"dashboard,omitempty"`
	Export    ExportConfig    `yaml:"export,omitempty"`
	State     StateConfig     `yaml:"state,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Timeout: 15 * time.Second,
		},
		Dashboard: DashboardConfig{
			PageSize:    10,
			Locale:      "ru",
			DefaultSort: "completedDesc",
			DefaultView: "table",
		},
		Export: ExportConfig{
			Format: "csv",
		},
	}
}

// ConfigDir returns the XDG config directory for teamboard.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for teamboard.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig (with env overrides) if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, applies environment overrides
// and validates the result. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	cfg.State.Path = expandHome(cfg.State.Path)
	if !strings.Contains(cfg.Source.Location, "://") {
		cfg.Source.Location = expandHome(cfg.Source.Location)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TB_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TB_SOURCE"); v != "" {
		c.Source.Location = v
	}
	if v := os.Getenv("TB_USERNAME"); v != "" {
		c.Source.Username = v
	}
	if v := os.Getenv("TB_PASSWORD"); v != "" {
		c.Source.Password = v
	}
	if v := os.Getenv("TB_LOCALE"); v != "" {
		c.Dashboard.Locale = v
	}
	if v := os.Getenv("TB_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TB_PAGE_SIZE=%q is not a number", ErrInvalid, v)
		}
		c.Dashboard.PageSize = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. Failures wrap ErrInvalid.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// PrefsPath returns where the preferences database lives, or "" when state
// is disabled or no state directory can be determined.
func (c Config) PrefsPath() string {
	if c.State.Disabled {
		return ""
	}
	if c.State.Path != "" {
		return c.State.Path
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "prefs.db")
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path. The password is never
// written; it belongs in the environment or a .env file.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfg.Source.Password = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
