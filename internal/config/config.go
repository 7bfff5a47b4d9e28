// Package config loads arena and runner settings from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	arena "github.com/pavanmanishd/framearena"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the top level of a runner configuration file.
type Config struct {
	Arena  ArenaConfig  `toml:"arena"`
	Wait   WaitConfig   `toml:"wait"`
	Runner RunnerConfig `toml:"runner"`
}

// ArenaConfig mirrors arena.Options. Zero sizes take the arena defaults.
type ArenaConfig struct {
	InitialBlockBytes uint64 `toml:"initial_block_bytes"`
	MaxBlockBytes     uint64 `toml:"max_block_bytes"`
	Alignment         uint64 `toml:"alignment"`

	// Upstream is "heap" or "mmap".
	Upstream string `toml:"upstream"`
}

// WaitConfig selects a wait policy preset and optionally overrides it.
type WaitConfig struct {
	// Preset is "desktop", "editor" or "server".
	Preset     string `toml:"preset"`
	SpinIters  uint32 `toml:"spin_iters"`
	YieldIters uint32 `toml:"yield_iters"`

	Sleep    time.Duration `toml:"-"`
	SleepRaw string        `toml:"sleep"`

	// ResetTimeout bounds each end-of-frame ResetSafely.
	ResetTimeout    time.Duration `toml:"-"`
	ResetTimeoutRaw string        `toml:"reset_timeout"`
}

// RunnerConfig drives cmd/arena-runner.
type RunnerConfig struct {
	Frames      int      `toml:"frames"`
	Workers     int      `toml:"workers"`
	Scenarios   []string `toml:"scenarios"`
	MetricsAddr string   `toml:"metrics_addr"`

	// LogFormat is "text", "json" or "" to pick by terminal.
	LogFormat string `toml:"log_format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{
			InitialBlockBytes: arena.DefaultInitialBlockBytes,
			MaxBlockBytes:     arena.DefaultMaxBlockBytes,
			Alignment:         arena.DefaultAlignment,
			Upstream:          "heap",
		},
		Wait: WaitConfig{
			Preset:       "desktop",
			ResetTimeout: 2 * time.Millisecond,
		},
		Runner: RunnerConfig{
			Frames:  60,
			Workers: 4,
		},
	}
}

// ReadFile decodes the TOML file at path on top of DefaultConfig.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes TOML text on top of DefaultConfig and validates the result.
// Unknown keys are rejected.
func Parse(data string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	if err := c.fillTimeDurations(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) fillTimeDurations() error {
	var err error
	if c.Wait.SleepRaw != "" {
		if c.Wait.Sleep, err = time.ParseDuration(c.Wait.SleepRaw); err != nil {
			return fmt.Errorf("%w: wait.sleep: %v", ErrInvalid, err)
		}
	}
	if c.Wait.ResetTimeoutRaw != "" {
		if c.Wait.ResetTimeout, err = time.ParseDuration(c.Wait.ResetTimeoutRaw); err != nil {
			return fmt.Errorf("%w: wait.reset_timeout: %v", ErrInvalid, err)
		}
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	a := c.Arena
	if a.Alignment != 0 && a.Alignment&(a.Alignment-1) != 0 {
		return fmt.Errorf("%w: arena.alignment %d is not a power of two", ErrInvalid, a.Alignment)
	}
	if a.MaxBlockBytes != 0 && a.MaxBlockBytes < a.InitialBlockBytes {
		return fmt.Errorf("%w: arena.max_block_bytes %d below initial_block_bytes %d", ErrInvalid, a.MaxBlockBytes, a.InitialBlockBytes)
	}
	switch a.Upstream {
	case "", "heap", "mmap":
	default:
		return fmt.Errorf("%w: arena.upstream %q (want heap or mmap)", ErrInvalid, a.Upstream)
	}
	if _, ok := presets[c.Wait.Preset]; !ok && c.Wait.Preset != "" {
		return fmt.Errorf("%w: wait.preset %q", ErrInvalid, c.Wait.Preset)
	}
	if c.Wait.Sleep < 0 || c.Wait.ResetTimeout < 0 {
		return fmt.Errorf("%w: negative wait duration", ErrInvalid)
	}
	if c.Runner.Frames < 0 || c.Runner.Workers < 0 {
		return fmt.Errorf("%w: negative runner frames or workers", ErrInvalid)
	}
	switch c.Runner.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: runner.log_format %q", ErrInvalid, c.Runner.LogFormat)
	}
	return nil
}

var presets = map[string]arena.WaitPolicy{
	"desktop": arena.DesktopWaitPolicy,
	"editor":  arena.EditorWaitPolicy,
	"server":  arena.ServerWaitPolicy,
}

// WaitPolicy resolves the preset and applies non-zero overrides.
func (c *Config) WaitPolicy() arena.WaitPolicy {
	p, ok := presets[c.Wait.Preset]
	if !ok {
		p = arena.DesktopWaitPolicy
	}
	if c.Wait.SpinIters != 0 {
		p.SpinIters = c.Wait.SpinIters
	}
	if c.Wait.YieldIters != 0 {
		p.YieldIters = c.Wait.YieldIters
	}
	if c.Wait.Sleep != 0 {
		p.Sleep = c.Wait.Sleep
	}
	return p
}

// ArenaOptions builds arena.Options from the configuration. Telemetry is
// left for the caller to attach.
func (c *Config) ArenaOptions() (arena.Options, error) {
	if err := c.Validate(); err != nil {
		return arena.Options{}, err
	}
	up, err := upstream(c.Arena.Upstream)
	if err != nil {
		return arena.Options{}, err
	}
	return arena.Options{
		InitialBlockBytes: uintptr(c.Arena.InitialBlockBytes),
		MaxBlockBytes:     uintptr(c.Arena.MaxBlockBytes),
		Alignment:         uintptr(c.Arena.Alignment),
		Upstream:          up,
		WaitPolicy:        c.WaitPolicy(),
	}, nil
}
