package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// profileConfig is the optional modprof.toml, discovered upward from the
// working directory. Every field is optional; flags override file values.
type profileConfig struct {
	Trace  traceConfig  `toml:"trace"`
	Report reportConfig `toml:"report"`
}

type traceConfig struct {
	LogDir    string  `toml:"log_dir"`
	TimerPath string  `toml:"timer_path"`
	Ranks     []int64 `toml:"ranks"`
}

type reportConfig struct {
	StrictDurations bool `toml:"strict_durations"`
	SubstringMatch  bool `toml:"substring_match"`
}

const (
	configFileName   = "modprof.toml"
	defaultLogDir    = "/tmp/logs"
	defaultTimerPath = "/tmp/profiling.msgpack"
)

func findProfileToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadProfileConfig finds and parses modprof.toml. A missing file is not an
// error; defaults apply.
func loadProfileConfig(startDir string) (profileConfig, error) {
	cfg := profileConfig{
		Trace: traceConfig{LogDir: defaultLogDir, TimerPath: defaultTimerPath},
	}
	path, ok, err := findProfileToml(startDir)
	if err != nil || !ok {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if cfg.Trace.LogDir == "" {
		cfg.Trace.LogDir = defaultLogDir
	}
	if cfg.Trace.TimerPath == "" {
		cfg.Trace.TimerPath = defaultTimerPath
	}
	return cfg, nil
}

// ranks converts the configured rank list to native ints.
func (c traceConfig) ranks() ([]int, error) {
	out := make([]int, 0, len(c.Ranks))
	for _, r := range c.Ranks {
		v, err := safecast.Conv[int](r)
		if err != nil {
			return nil, fmt.Errorf("invalid rank %d in %s: %w", r, configFileName, err)
		}
		out = append(out, v)
	}
	return out, nil
}
