package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/kfanim/internal/gentime"
)

type Config struct {
	FPS          gentime.Rate `yaml:"fps"`
	Locale       string       `yaml:"locale"`
	UndoLimit    int          `yaml:"undo_limit"`
	Workers      int          `yaml:"workers"`
	LogLevel     string       `yaml:"log_level"`
	LogFormat    string       `yaml:"log_format"`
	ShowStats    bool         `yaml:"show_stats"`
	BenchmarkLog string       `yaml:"benchmark_log"`
	BuildVersion string       `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		FPS:          gentime.PAL,
		UndoLimit:    100,
		Workers:      runtime.NumCPU(),
		LogLevel:     "info",
		LogFormat:    "text",
		BenchmarkLog: "benchmark.log",
	}
}

// Load reads a YAML file over the defaults. A missing path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be defaulted silently.
func (c *Config) Validate() error {
	var errs []error
	if !c.FPS.Valid() {
		errs = append(errs, fmt.Errorf("invalid fps %s", c.FPS))
	}
	if c.UndoLimit < 0 {
		errs = append(errs, fmt.Errorf("undo_limit must not be negative, got %d", c.UndoLimit))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ParseRate accepts "25", "30000/1001" or "29.97".
func ParseRate(s string) (gentime.Rate, error) {
	var num, den int64
	if n, err := fmt.Sscanf(s, "%d/%d", &num, &den); err == nil && n == 2 {
		r := gentime.Rate{Num: num, Den: den}
		if !r.Valid() {
			return gentime.Rate{}, fmt.Errorf("invalid frame rate %q", s)
		}
		return r, nil
	}
	switch s {
	case "23.976", "23.98":
		return gentime.Rate{Num: 24000, Den: 1001}, nil
	case "29.97":
		return gentime.NTSC, nil
	case "59.94":
		return gentime.Rate{Num: 60000, Den: 1001}, nil
	}
	var fps int64
	if _, err := fmt.Sscanf(s, "%d", &fps); err != nil || fps <= 0 || fmt.Sprint(fps) != s {
		return gentime.Rate{}, fmt.Errorf("invalid frame rate %q", s)
	}
	return gentime.Rate{Num: fps, Den: 1}, nil
}
