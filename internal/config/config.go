// Package config loads diagnav.toml (or diagnav.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"diagnav/internal/command"
	"diagnav/internal/feed"
)

// FileNames are looked up in every directory, in this order.
var FileNames = []string{"diagnav.toml", "diagnav.yaml", "diagnav.yml"}

const (
	defaultDebounce   = 200 * time.Millisecond
	defaultMaxOpenAll = 20
)

// Config is the user configuration. Zero sections mean defaults.
type Config struct {
	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-" yaml:"-"`

	Open   OpenConfig          `toml:"open" yaml:"open"`
	Keys   map[string][]string `toml:"keys" yaml:"keys"`
	UI     UIConfig            `toml:"ui" yaml:"ui"`
	Watch  WatchConfig         `toml:"watch" yaml:"watch"`
	Filter FilterConfig        `toml:"filter" yaml:"filter"`
}

// OpenConfig selects the editor command. Empty means print locations.
type OpenConfig struct {
	Command         string `toml:"command" yaml:"command"`
	FileOnlyCommand string `toml:"file_only_command" yaml:"file_only_command"`
}

// UIConfig tunes the panel and open-all.
type UIConfig struct {
	ShowTraces bool `toml:"show_traces" yaml:"show_traces"`
	MaxOpenAll int  `toml:"max_open_all" yaml:"max_open_all"`
}

// WatchConfig tunes file watching.
type WatchConfig struct {
	Debounce string `toml:"debounce" yaml:"debounce"`
}

// FilterConfig hides diagnostics by file. Patterns use doublestar globs,
// e.g. "node_modules/**" or "**/*_gen.go".
type FilterConfig struct {
	Exclude []string `toml:"exclude" yaml:"exclude"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		UI:    UIConfig{ShowTraces: true, MaxOpenAll: defaultMaxOpenAll},
		Watch: WatchConfig{Debounce: defaultDebounce.String()},
	}
}

// Find walks upward from startDir looking for a config file.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest config, or returns defaults.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads path. The format follows the extension; anything that is not
// .yaml/.yml is TOML.
func Load(path string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
	}
	cfg.Path = path
	if cfg.UI.MaxOpenAll <= 0 {
		cfg.UI.MaxOpenAll = defaultMaxOpenAll
	}
	if _, err := cfg.Debounce(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := cfg.Exclusion(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Debounce parses [watch].debounce.
func (c *Config) Debounce() (time.Duration, error) {
	if strings.TrimSpace(c.Watch.Debounce) == "" {
		return defaultDebounce, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("[watch].debounce: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("[watch].debounce must be positive, got %s", d)
	}
	return d, nil
}

// Exclusion builds the [filter] exclusion. Relative patterns are matched
// against paths relative to the directory holding the config file.
func (c *Config) Exclusion() (*feed.Exclusion, error) {
	root := ""
	if c.Path != "" {
		root = filepath.Dir(c.Path)
	}
	x, err := feed.NewExclusion(c.Filter.Exclude, root)
	if err != nil {
		return nil, fmt.Errorf("[filter].exclude: %w", err)
	}
	return x, nil
}

// ApplyKeys rebinds every command listed in [keys]. Names are checked with
// known first; nothing is changed when one of them is unknown.
func (c *Config) ApplyKeys(km *command.KeyMap, known func(string) bool) error {
	names := make([]string, 0, len(c.Keys))
	for name := range c.Keys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if known != nil && !known(name) {
			return fmt.Errorf("%s: [keys]: %w: %q", c.source(), command.ErrUnknownCommand, name)
		}
	}
	for _, name := range names {
		km.Rebind(name, c.Keys[name]...)
	}
	return nil
}

func (c *Config) source() string {
	if c.Path == "" {
		return "config"
	}
	return c.Path
}
