package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/config"
	"github.com/ivlev/kfanim/internal/keyframes"
	"github.com/ivlev/kfanim/internal/observability"
	"github.com/ivlev/kfanim/internal/params"
	"github.com/ivlev/kfanim/internal/project"
)

// globals holds the persistent flags.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	fps        string
	locale     string
	stats      bool
}

// env is what every handler needs, built from the configuration and flags.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	registry *prometheus.Registry
	loc      anim.Locale
	out      io.Writer
}

func (g *globals) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg.BuildVersion = version
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if g.locale != "" {
		cfg.Locale = g.locale
	}
	if g.stats {
		cfg.ShowStats = true
	}
	if g.fps != "" {
		rate, err := config.ParseRate(g.fps)
		if err != nil {
			return nil, err
		}
		cfg.FPS = rate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := anim.NewLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	e := &env{
		cfg: cfg,
		logger: observability.NewLogger(observability.LogConfig{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: cmd.ErrOrStderr(),
		}),
		metrics:  observability.NewMetrics(reg),
		registry: reg,
		loc:      loc,
		out:      cmd.OutOrStdout(),
	}
	slog.SetDefault(e.logger)
	return e, nil
}

func (e *env) sessionOptions() project.Options {
	return project.Options{
		Logger:    e.logger,
		Metrics:   e.metrics,
		UndoLimit: e.cfg.UndoLimit,
		Locale:    e.cfg.Locale,
	}
}

// printStats writes every non-zero counter when --stats is set.
func (e *env) printStats() {
	if !e.cfg.ShowStats {
		return
	}
	families, err := e.registry.Gather()
	if err != nil {
		e.logger.Warn("cannot gather metrics", "error", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil || m.GetCounter().GetValue() == 0 {
				continue
			}
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	fmt.Fprintln(e.out, "--- [STATS] ---")
	for _, l := range lines {
		fmt.Fprintln(e.out, l)
	}
}

// valueFlags describe the parameter an animation string on the command line belongs to.
type valueFlags struct {
	typ      string
	in       int
	duration int
	rng      params.Range
}

func (v *valueFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&v.typ, "type", "t", "keyframe", "Parameter type (keyframe, animatedrect, roto-spline, double)")
	f.IntVar(&v.in, "in", 0, "First frame of the owning effect")
	f.IntVar(&v.duration, "duration", 0, "Length of the owning effect in frames")
	f.Float64Var(&v.rng.Min, "min", 0, "Minimum value")
	f.Float64Var(&v.rng.Max, "max", 1, "Maximum value")
	f.Float64Var(&v.rng.Default, "default", 0, "Default value")
	f.Float64Var(&v.rng.Factor, "factor", 1, "Display factor")
}

// standalone binds a store to a throwaway parameter holding value.
func (e *env) standalone(v *valueFlags, value string) (*keyframes.Store, error) {
	typ, err := params.ParseType(v.typ)
	if err != nil {
		return nil, err
	}
	asset := params.NewAsset("cli", v.in, v.duration)
	asset.AddParameter(params.Definition{Name: "value", Type: typ, Range: v.rng}, value)
	reg := params.NewRegistry()
	h := reg.Register(asset)

	store := keyframes.New(params.Ref{Registry: reg, Handle: h, Param: "value"}, keyframes.Options{
		Rate:    e.cfg.FPS,
		Locale:  e.loc,
		Logger:  e.logger,
		Metrics: e.metrics,
	})
	// New only logs a bad value
	if err := store.Refresh(); err != nil {
		return nil, err
	}
	return store, nil
}
