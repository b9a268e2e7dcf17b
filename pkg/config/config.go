// Package config loads the optional fiber.yaml file that tunes roots created
// by the fiber command and by applications that opt in.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// FileName is the name of the configuration file looked up in a project.
const FileName = "fiber.yaml"

// SupportedMajor is the configuration format major version this build reads.
const SupportedMajor = "v1"

// Defaults applied by Resolve.
const (
	DefaultSlice         = 5 * time.Millisecond
	DefaultFrameInterval = 16 * time.Millisecond
)

// Config represents the optional fiber.yaml configuration.
type Config struct {
	Version   string          `yaml:"version,omitempty"`
	App       AppConfig       `yaml:"app"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Debug     DebugConfig     `yaml:"debug"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// SchedulerConfig controls render slicing.
type SchedulerConfig struct {
	// Slice is the time budget of one idle slice.
	Slice time.Duration `yaml:"slice,omitempty"`
	// Batch, when positive, replaces time budgets with a fixed number of
	// fibers per slice.
	Batch int `yaml:"batch,omitempty"`
	// YieldThreshold is the remaining slice time below which the work loop
	// yields.
	YieldThreshold time.Duration `yaml:"yieldThreshold,omitempty"`
	// FrameInterval paces slices while a render is in flight.
	FrameInterval time.Duration `yaml:"frameInterval,omitempty"`
}

// DebugConfig contains development switches.
type DebugConfig struct {
	// HookChecks validates hook order on every render. Defaults to true.
	HookChecks *bool `yaml:"hookChecks,omitempty"`
	// Inspector is the listen address of the debug inspector. Empty disables
	// it.
	Inspector string `yaml:"inspector,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root           string        `yaml:"root"`
	ModulePath     string        `yaml:"module,omitempty"`
	AppName        string        `yaml:"app"`
	Version        string        `yaml:"version"`
	Slice          time.Duration `yaml:"slice"`
	Batch          int           `yaml:"batch"`
	YieldThreshold time.Duration `yaml:"yieldThreshold"`
	FrameInterval  time.Duration `yaml:"frameInterval"`
	HookChecks     bool          `yaml:"hookChecks"`
	Inspector      string        `yaml:"inspector,omitempty"`
}

// LoadOptional reads fiber.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	return Parse(data)
}

// Parse decodes and validates a fiber.yaml document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if v := strings.TrimSpace(c.Version); v != "" {
		if !semver.IsValid(v) {
			return fmt.Errorf("version must be a semantic version like v1.0.0 (got %q)", v)
		}
		if semver.Major(v) != SupportedMajor {
			return fmt.Errorf("version %s is not supported (want %s.x)", v, SupportedMajor)
		}
	}
	s := c.Scheduler
	if s.Slice < 0 || s.YieldThreshold < 0 || s.FrameInterval < 0 {
		return fmt.Errorf("scheduler durations cannot be negative")
	}
	if s.Batch < 0 {
		return fmt.Errorf("scheduler.batch cannot be negative (got %d)", s.Batch)
	}
	if s.Slice > 0 && s.YieldThreshold >= s.Slice {
		return fmt.Errorf("scheduler.yieldThreshold (%s) must be below scheduler.slice (%s)", s.YieldThreshold, s.Slice)
	}
	return nil
}

// Resolve loads fiber.yaml (if present) and resolves defaults. dir does not
// have to be a Go module; when it is, the module path names the app.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	modPath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Root:           dir,
		ModulePath:     modPath,
		AppName:        strings.TrimSpace(cfg.App.Name),
		Version:        strings.TrimSpace(cfg.Version),
		Slice:          cfg.Scheduler.Slice,
		Batch:          cfg.Scheduler.Batch,
		YieldThreshold: cfg.Scheduler.YieldThreshold,
		FrameInterval:  cfg.Scheduler.FrameInterval,
		HookChecks:     true,
		Inspector:      strings.TrimSpace(cfg.Debug.Inspector),
	}
	if r.AppName == "" {
		r.AppName = defaultAppName(modPath, dir)
	}
	if r.Version == "" {
		r.Version = SupportedMajor + ".0.0"
	}
	if r.Slice == 0 {
		r.Slice = DefaultSlice
	}
	if r.YieldThreshold == 0 {
		r.YieldThreshold = min(core.DefaultYieldThreshold, r.Slice/5)
	}
	if r.YieldThreshold >= r.Slice {
		return nil, fmt.Errorf("scheduler.yieldThreshold (%s) must be below scheduler.slice (%s)", r.YieldThreshold, r.Slice)
	}
	if r.FrameInterval == 0 {
		r.FrameInterval = DefaultFrameInterval
	}
	if cfg.Debug.HookChecks != nil {
		r.HookChecks = *cfg.Debug.HookChecks
	}
	return r, nil
}

// RootOptions returns the root options the configuration implies.
func (r *Resolved) RootOptions() []core.RootOption {
	return []core.RootOption{
		core.WithYieldThreshold(r.YieldThreshold),
		core.WithHookChecks(r.HookChecks),
	}
}

// NewLoop creates a frame loop paced by the configuration.
func (r *Resolved) NewLoop() *scheduler.Loop {
	return scheduler.NewLoop(scheduler.LoopConfig{
		Interval: r.FrameInterval,
		Slice:    r.Slice,
		Batch:    r.Batch,
	})
}

// Marshal renders the resolved configuration as YAML.
func (r *Resolved) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// modulePath returns the module path declared in dir/go.mod, or "" when dir
// has no go.mod.
func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
			parts := strings.Split(prefix, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "fiber_app"
	}
	return base
}
