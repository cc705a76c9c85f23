// Package engine evaluates keyframe stores over frame ranges.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/observability"
	"github.com/ivlev/kfanim/internal/project"
)

// ErrEmptyRange is returned when to is before from.
var ErrEmptyRange = errors.New("engine: empty frame range")

// Options configures a bake.
type Options struct {
	Workers int
	Locale  anim.Locale
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Frame is one evaluated value.
type Frame struct {
	Frame int64  `yaml:"frame"`
	Value string `yaml:"value"`
}

// Track holds the values of one parameter over the baked range.
type Track struct {
	Effect string  `yaml:"effect"`
	Param  string  `yaml:"param"`
	Type   string  `yaml:"type"`
	Frames []Frame `yaml:"frames"`
}

// Result is the output of Bake.
type Result struct {
	From    int64         `yaml:"from"`
	To      int64         `yaml:"to"`
	Tracks  []Track       `yaml:"tracks"`
	Elapsed time.Duration `yaml:"-"`
}

// Bake evaluates every target at each frame of [from, to], spreading targets
// over a bounded number of workers. Tracks keep the order of targets.
func Bake(ctx context.Context, targets []project.Target, from, to int64, opts Options) (*Result, error) {
	if to < from {
		return nil, fmt.Errorf("%w: %d..%d", ErrEmptyRange, from, to)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	res := &Result{From: from, To: to, Tracks: make([]Track, len(targets))}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range targets {
		g.Go(func() error {
			track := Track{Effect: t.Effect, Param: t.Param, Type: t.Store.Type().String()}
			track.Frames = make([]Frame, 0, to-from+1)
			for f := from; f <= to; f++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, ok := t.Store.ValueAt(f)
				if !ok {
					return fmt.Errorf("%s/%s: no value at frame %d", t.Effect, t.Param, f)
				}
				track.Frames = append(track.Frames, Frame{Frame: f, Value: anim.FormatValue(v, opts.Locale)})
			}
			res.Tracks[i] = track
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	opts.Metrics.ObserveBake(start)
	logger.Info("bake finished", "tracks", len(targets), "frames", to-from+1, "elapsed", res.Elapsed)
	return res, nil
}

// Write encodes the result as YAML.
func (r *Result) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// WriteFile writes the result to path, creating parent directories.
func (r *Result) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Values returns the number of evaluated values.
func (r *Result) Values() int {
	n := 0
	for _, t := range r.Tracks {
		n += len(t.Frames)
	}
	return n
}

// Report prints a short performance summary.
func (r *Result) Report(w io.Writer, build string) {
	rate := 0.0
	if s := r.Elapsed.Seconds(); s > 0 {
		rate = float64(r.Values()) / s
	}
	fmt.Fprintf(w,
		"--- [BAKE REPORT] ---\n"+
			"Build: %s\n"+
			"Tracks: %d\n"+
			"Frames: %d..%d\n"+
			"Total Time: %.3fs\n"+
			"Values/s: %.0f\n"+
			"---------------------\n",
		build, len(r.Tracks), r.From, r.To, r.Elapsed.Seconds(), rate,
	)
}

// AppendLog appends a one-line summary to the benchmark log at path.
func (r *Result) AppendLog(path, build, input string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "[%s] Build: %s | Input: %s | Tracks: %d | Frames: %d | Total: %.3fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(input),
		len(r.Tracks),
		r.To-r.From+1,
		r.Elapsed.Seconds(),
	)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
