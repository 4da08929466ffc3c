// Package config loads and saves the strmlink YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/internal/fileutil"
)

const (
	AppName        = "strmlink"
	ConfigFileName = "config.yaml"
)

type Config struct {
	Version    int              `yaml:"version"`
	Extensions ExtensionsConfig `yaml:"extensions"`
	Scan       ScanConfig       `yaml:"scan"`
	Watch      WatchConfig      `yaml:"watch"`
	Ignore     []string         `yaml:"ignore"`
	Log        LogConfig        `yaml:"log"`
}

// ExtensionsConfig lists the registered kinds. A non-empty list replaces
// the built-in defaults for that set.
type ExtensionsConfig struct {
	Payload   []string `yaml:"payload"`
	Companion []string `yaml:"companion"`
}

type ScanConfig struct {
	Workers   int           `yaml:"workers"`
	Recursive bool          `yaml:"recursive"`
	Timeout   time.Duration `yaml:"timeout"` // 0 disables the timeout
}

type WatchConfig struct {
	DebounceMs  int              `yaml:"debounce_ms"`
	InitialScan bool             `yaml:"initial_scan"`
	Directories []WatchDirectory `yaml:"directories,omitempty"`
}

type WatchDirectory struct {
	Path      string `yaml:"path"`
	Recursive bool   `yaml:"recursive"`
}

type LogConfig struct {
	File string `yaml:"file,omitempty"` // empty means the XDG state dir
}

func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Extensions: ExtensionsConfig{
			Payload:   append([]string(nil), extensions.DefaultPayloadKinds...),
			Companion: append([]string(nil), extensions.DefaultCompanionKinds...),
		},
		Scan: ScanConfig{
			Workers:   4,
			Recursive: true,
		},
		Watch: WatchConfig{
			DebounceMs:  500,
			InitialScan: true,
		},
		Ignore: []string{
			".git",
			"@eaDir",
			".Trash",
			".Trashes",
			"$RECYCLE.BIN",
			"lost+found",
		},
	}
}

// DefaultPath returns config.yaml under the XDG config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

func resolve(path string) string {
	if path == "" {
		return DefaultPath()
	}
	return path
}

// Load reads the config at path, or DefaultPath when path is empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	if !Exists(path) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// applyDefaults fills in values older or hand-written files leave out.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if len(c.Extensions.Payload) == 0 {
		c.Extensions.Payload = defaults.Extensions.Payload
	}
	if len(c.Extensions.Companion) == 0 {
		c.Extensions.Companion = defaults.Extensions.Companion
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaults.Scan.Workers
	}
	if c.Scan.Timeout < 0 {
		c.Scan.Timeout = 0
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = defaults.Watch.DebounceMs
	}
	if c.Ignore == nil {
		c.Ignore = defaults.Ignore
	}
}

// Save writes the config to path, or DefaultPath when path is empty.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := fileutil.WriteFileAtomically(resolve(path), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func Exists(path string) bool {
	_, err := os.Stat(resolve(path))
	return err == nil
}

// Registry builds an extension registry from the configured kinds.
func (c *Config) Registry() *extensions.Registry {
	reg := extensions.New()
	for _, k := range c.Extensions.Payload {
		reg.AddPayloadKind(k)
	}
	for _, k := range c.Extensions.Companion {
		reg.AddCompanionKind(k)
	}
	return reg
}

// AddPayloadKind records a payload kind. It reports whether the list changed.
func (c *Config) AddPayloadKind(token string) bool {
	return addKind(&c.Extensions.Payload, token)
}

// AddCompanionKind records a companion kind. It reports whether the list changed.
func (c *Config) AddCompanionKind(token string) bool {
	return addKind(&c.Extensions.Companion, token)
}

func addKind(list *[]string, token string) bool {
	k := extensions.Normalize(token)
	if k == "" {
		return false
	}
	for _, existing := range *list {
		if extensions.Normalize(existing) == k {
			return false
		}
	}
	*list = append(*list, k)
	return true
}

// AddWatchDirectory records a watched root, replacing the recursive flag
// of an existing entry for the same path.
func (c *Config) AddWatchDirectory(path string, recursive bool) {
	for i, d := range c.Watch.Directories {
		if filepath.Clean(d.Path) == filepath.Clean(path) {
			c.Watch.Directories[i].Recursive = recursive
			return
		}
	}
	c.Watch.Directories = append(c.Watch.Directories, WatchDirectory{Path: path, Recursive: recursive})
}
