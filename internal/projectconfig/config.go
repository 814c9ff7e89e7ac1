// Package projectconfig provides the ProjectConfig struct and loader for
// .ifccheck.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spboyer/ifccheck/internal/validation"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".ifccheck.yaml"

// Default values for project configuration, applied by New().
const (
	DefaultFormat   = "text"
	DefaultWorkers  = 4
	DefaultCacheDir = ".ifccheck-cache"
	DefaultDebounce = "500ms"
)

// OutputConfig selects the report format and destination.
type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
}

// PublishConfig holds the Azure Blob Storage destination for JSON reports.
type PublishConfig struct {
	URL       string `yaml:"url,omitempty"`
	Container string `yaml:"container,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .ifccheck.yaml.
type ProjectConfig struct {
	Models  []string       `yaml:"models,omitempty"`
	Rules   []string       `yaml:"rules,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
	Output  OutputConfig   `yaml:"output,omitempty"`
	Workers int            `yaml:"workers,omitempty"`
	Cache   CacheConfig    `yaml:"cache,omitempty"`
	Watch   WatchConfig    `yaml:"watch,omitempty"`
	Publish PublishConfig  `yaml:"publish,omitempty"`

	// Dir is the directory of the loaded file, or empty when only defaults
	// are in effect. Relative model paths resolve against it.
	Dir string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Output: OutputConfig{
			Format: DefaultFormat,
		},
		Workers: DefaultWorkers,
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}

// DebounceDuration returns the watch debounce delay, falling back to the
// default when the configured value does not parse.
func (c *ProjectConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultDebounce)
	}
	return d
}

// Load finds .ifccheck.yaml by walking up from startDir (max 10 levels),
// validates and unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid %s:\n  %s", path, strings.Join(errs, "\n  "))
	}

	mergeConfig(cfg, &fileCfg)
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Write stores cfg as .ifccheck.yaml in dir. An existing file is only
// replaced when overwrite is set.
func Write(dir string, cfg *ProjectConfig, overwrite bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// findConfigFile walks up from dir looking for .ifccheck.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) (string, []byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if len(src.Models) > 0 {
		dst.Models = src.Models
	}
	if len(src.Rules) > 0 {
		dst.Rules = src.Rules
	}
	if len(src.Options) > 0 {
		dst.Options = src.Options
	}

	// Output
	if src.Output.Format != "" {
		dst.Output.Format = src.Output.Format
	}
	if src.Output.Path != "" {
		dst.Output.Path = src.Output.Path
	}

	if src.Workers != 0 {
		dst.Workers = src.Workers
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Watch
	if src.Watch.Debounce != "" {
		dst.Watch.Debounce = src.Watch.Debounce
	}

	// Publish
	if src.Publish.URL != "" {
		dst.Publish.URL = src.Publish.URL
	}
	if src.Publish.Container != "" {
		dst.Publish.Container = src.Publish.Container
	}
}

func boolPtr(b bool) *bool {
	return &b
}
