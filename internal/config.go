package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/ids"
	"github.com/outfitter-dev/waymark/internal/lint"
	pkgconfig "github.com/outfitter-dev/waymark/pkg/config"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ProjectConfigPath is the workspace-local config file.
const ProjectConfigPath = ".waymark/config.yaml"

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig           `yaml:"app"`
	Scan       ScanConfig                  `yaml:"scan"`
	Cache      CacheConfig                 `yaml:"cache"`
	IDs        IDsConfig                   `yaml:"ids"`
	Format     FormatConfig                `yaml:"format"`
	Lint       LintConfig                  `yaml:"lint"`
	Languages  LanguagesConfig             `yaml:"languages"`
	Categories map[string]grammar.Category `yaml:"categories"`
	Auth       AuthConfig                  `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Scan.Validate(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.IDs.Validate(); err != nil {
		return fmt.Errorf("ids: %w", err)
	}
	if err := c.Lint.Validate(); err != nil {
		return fmt.Errorf("lint: %w", err)
	}
	if err := c.Languages.Validate(); err != nil {
		return fmt.Errorf("languages: %w", err)
	}
	if err := validateCategories(c.Categories); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ScanConfig controls which files are scanned and how.
type ScanConfig struct {
	// Root is the workspace directory. Relative paths elsewhere in the
	// config resolve against it.
	Root           string   `yaml:"root"`
	Include        []string `yaml:"include"`
	Exclude        []string `yaml:"exclude"`
	IncludeIgnored bool     `yaml:"include_ignored"`
	UnknownFiles   bool     `yaml:"unknown_files"`
	Workers        int      `yaml:"workers"`
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

// CacheConfig holds the SQLite cache location.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// IDsConfig controls embedded waymark ids.
type IDsConfig struct {
	Enabled bool `yaml:"enabled"`
	Length  int  `yaml:"length"`
}

// Validate validates the ids configuration.
func (c *IDsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Length, validation.Required, validation.Min(4), validation.Max(16)),
	)
}

// FormatConfig controls rendering.
type FormatConfig struct {
	Align bool `yaml:"align"`
}

// LintConfig holds rule severities and extra accepted marker types.
type LintConfig struct {
	Rules        map[string]lint.Severity `yaml:"rules"`
	AllowMarkers []string                 `yaml:"allow_markers"`
}

// Validate validates the lint configuration.
func (c *LintConfig) Validate() error {
	for name, sev := range c.Rules {
		if !slices.Contains(lint.RuleNames(), name) {
			return fmt.Errorf("unknown rule %q", name)
		}
		if !lint.ValidSeverity(sev) {
			return fmt.Errorf("rule %s: unknown severity %q", name, sev)
		}
	}
	return nil
}

// LanguagesConfig overlays the built-in language registry.
//
// Extension keys include the leading dot. Compound maps a multi-dot suffix
// such as ".d.ts" to the extension it folds to.
type LanguagesConfig struct {
	Extensions map[string]grammar.Language `yaml:"extensions"`
	Basenames  map[string]grammar.Language `yaml:"basenames"`
	Compound   map[string]string           `yaml:"compound"`
}

// Validate validates the language overlays.
func (c *LanguagesConfig) Validate() error {
	for ext, lang := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
		if err := validation.Validate(lang.ID, validation.Required); err != nil {
			return fmt.Errorf("extension %s: id: %w", ext, err)
		}
	}
	for name, lang := range c.Basenames {
		if err := validation.Validate(lang.ID, validation.Required); err != nil {
			return fmt.Errorf("basename %s: id: %w", name, err)
		}
	}
	for suffix, ext := range c.Compound {
		if !strings.HasPrefix(suffix, ".") || !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("compound %q -> %q: both sides must start with a dot", suffix, ext)
		}
	}
	return nil
}

// Apply returns a registry that is base with the overlays merged in. base is
// not modified.
func (c *LanguagesConfig) Apply(base *grammar.Registry) *grammar.Registry {
	if len(c.Extensions) == 0 && len(c.Basenames) == 0 && len(c.Compound) == 0 {
		return base
	}
	t := base.Tables()
	for ext, lang := range c.Extensions {
		lang.ID = strings.ToLower(lang.ID)
		t.Extensions[strings.ToLower(ext)] = lang
	}
	for name, lang := range c.Basenames {
		lang.ID = strings.ToLower(lang.ID)
		t.Basenames[name] = lang
	}
	for suffix, ext := range c.Compound {
		t.Compound[strings.ToLower(suffix)] = strings.ToLower(ext)
	}
	return grammar.NewRegistry(t)
}

func validateCategories(m map[string]grammar.Category) error {
	for ext, cat := range m {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
		if !cat.Valid() {
			return fmt.Errorf("extension %s: unknown category %q", ext, cat)
		}
	}
	return nil
}

// CategoryRegistry returns the built-in category registry with the
// configured extensions merged in.
func (c *Config) CategoryRegistry() *grammar.CategoryRegistry {
	if len(c.Categories) == 0 {
		return grammar.DefaultCategories()
	}
	table := grammar.DefaultCategoryTable()
	for ext, cat := range c.Categories {
		table[ext] = cat
	}
	return grammar.NewCategoryRegistry(table)
}

// CachePath resolves the cache path against the workspace root.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(c.Scan.Root, c.Cache.Path)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
			HTTP: HTTPConfig{
				Port: 7878,
			},
		},
		Scan: ScanConfig{
			Root: ".",
		},
		Cache: CacheConfig{
			Path: ".waymark/cache.db",
		},
		IDs: IDsConfig{
			Length: ids.DefaultLength,
		},
		Format: FormatConfig{
			Align: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

// UserConfigPath is the per-user config file under the XDG config home.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "waymark", "config.yaml")
}

// LoadConfig loads configuration over the defaults and reports the file it
// used. An explicit path must exist. Otherwise the workspace file is tried,
// then the user file; when neither exists the defaults are returned and
// the path is empty.
func LoadConfig(explicit string) (*Config, string, error) {
	cfg := NewDefaultConfig()
	if explicit != "" {
		if err := pkgconfig.Load(explicit, cfg); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, "", fmt.Errorf("config file not found: %s", explicit)
			}
			return nil, "", err
		}
		return cfg, explicit, nil
	}

	path, err := pkgconfig.LoadFirst(cfg, ProjectConfigPath, UserConfigPath())
	switch {
	case errors.Is(err, pkgconfig.ErrNoConfig):
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("config validation failed: %w", err)
		}
		return cfg, "", nil
	case err != nil:
		return nil, "", err
	}
	return cfg, path, nil
}
