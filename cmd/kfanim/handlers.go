package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/engine"
	"github.com/ivlev/kfanim/internal/keyframes"
	"github.com/ivlev/kfanim/internal/params"
	"github.com/ivlev/kfanim/internal/project"
	"github.com/ivlev/kfanim/internal/renderer"
)

// errRefused is returned when the store rejects an edit.
var errRefused = errors.New("operation refused")

func parseFrame(s string) (int64, error) {
	f, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame %q", s)
	}
	return f, nil
}

// =============================================================================
// Animation string handlers
// =============================================================================

func runParse(cmd *cobra.Command, g *globals, vf *valueFlags, value string) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	store, err := e.standalone(vf, value)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "%s\n\n", store.AnimProperty())
	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tTYPE\tVALUE\tNORMALIZED")
	for i := range store.Count() {
		r, _ := store.Row(i)
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\n", r.Frame, r.Type, anim.FormatValue(r.Value, e.loc), r.Normalized)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if spans, ok := store.Ranges(); ok {
		fmt.Fprintf(e.out, "\nranges: x %g..%g  y %g..%g  w %g..%g  h %g..%g  opacity %g..%g\n",
			spans[0].Min, spans[0].Max, spans[1].Min, spans[1].Max, spans[2].Min, spans[2].Max,
			spans[3].Min, spans[3].Max, spans[4].Min, spans[4].Max)
	}
	e.printStats()
	return nil
}

func runSample(cmd *cobra.Command, g *globals, vf *valueFlags, value string, frames []string) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	store, err := e.standalone(vf, value)
	if err != nil {
		return err
	}
	for _, arg := range frames {
		f, err := parseFrame(arg)
		if err != nil {
			return err
		}
		v, ok := store.ValueAt(f)
		if !ok {
			return fmt.Errorf("no value at frame %d", f)
		}
		fmt.Fprintf(e.out, "%d\t%s\n", f, anim.FormatValue(v, e.loc))
	}
	e.printStats()
	return nil
}

func runExpr(cmd *cobra.Command, g *globals, vf *valueFlags, value, variable string) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	store, err := e.standalone(vf, value)
	if err != nil {
		return err
	}

	samples := store.Samples()
	switch store.Type() {
	case params.AnimatedRect:
		exprs, err := renderer.GenerateRectExpressions(samples, variable)
		if err != nil {
			return err
		}
		for _, x := range exprs {
			fmt.Fprintln(e.out, x)
		}
	default:
		x, err := renderer.GenerateExpression(samples, variable)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, x)
	}
	return nil
}

// =============================================================================
// Project handlers
// =============================================================================

func runBake(cmd *cobra.Command, g *globals, path string, from, to int64, out string, workers int) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	path, err = project.Resolve(path)
	if err != nil {
		return err
	}
	s, err := project.Load(path, e.sessionOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	if to < 0 {
		for _, eff := range s.Snapshot().Effects {
			to = max(to, int64(eff.In+eff.Duration-1))
		}
		to = max(to, from)
	}
	if workers <= 0 {
		workers = e.cfg.Workers
	}

	res, err := engine.Bake(cmd.Context(), s.Targets(), from, to, engine.Options{
		Workers: workers,
		Locale:  e.loc,
		Logger:  e.logger,
		Metrics: e.metrics,
	})
	if err != nil {
		return fmt.Errorf("bake failed: %w", err)
	}

	if out == "" {
		if err := res.Write(e.out); err != nil {
			return err
		}
	} else {
		if err := res.WriteFile(out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[+] Baked %d tracks to %s\n", len(res.Tracks), out)
	}

	if e.cfg.ShowStats {
		res.Report(cmd.ErrOrStderr(), e.cfg.BuildVersion)
		if e.cfg.BenchmarkLog != "" {
			if err := res.AppendLog(e.cfg.BenchmarkLog, e.cfg.BuildVersion, path); err != nil {
				e.logger.Warn("cannot write benchmark log", "path", e.cfg.BenchmarkLog, "error", err)
			}
		}
	}
	return nil
}

// editStore opens the project in args[0], runs fn on the store named by
// args[1] and args[2] and saves the project when fn succeeds.
func editStore(cmd *cobra.Command, g *globals, kf *keyframeFlags, args []string, fn func(e *env, s *keyframes.Store, rest []string) (bool, error)) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	effect, param := args[1], args[2]
	path, err := project.Resolve(args[0])
	if err != nil {
		return err
	}
	session, err := project.Load(path, e.sessionOptions())
	if err != nil {
		return err
	}
	defer session.Close()

	store, err := session.Store(effect, param)
	if err != nil {
		return err
	}
	ok, err := fn(e, store, args[3:])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s/%s: %w", cmd.Name(), effect, param, errRefused)
	}

	dest := kf.out
	if dest == "" {
		dest = path
	}
	if err := session.Save(dest); err != nil {
		return err
	}
	if labels, _ := session.Undo.History(); len(labels) > 0 {
		e.logger.Info("edit applied", "command", labels[len(labels)-1])
	}
	fmt.Fprintf(e.out, "%s/%s = %s\n", effect, param, store.AnimProperty())
	e.printStats()
	return nil
}

func runKeyframeAdd(cmd *cobra.Command, g *globals, kf *keyframeFlags, args []string, typ string) error {
	return editStore(cmd, g, kf, args, func(e *env, s *keyframes.Store, rest []string) (bool, error) {
		frame, err := parseFrame(rest[0])
		if err != nil {
			return false, err
		}
		kt, err := anim.ParseKeyframeType(typ)
		if err != nil {
			return false, err
		}
		v, err := anim.ParseValue(rest[1], s.Type(), e.loc)
		if err != nil {
			return false, err
		}
		return s.Add(s.Time(frame), kt, v), nil
	})
}

func runKeyframeRemove(cmd *cobra.Command, g *globals, kf *keyframeFlags, args []string) error {
	return editStore(cmd, g, kf, args, func(e *env, s *keyframes.Store, rest []string) (bool, error) {
		frame, err := parseFrame(rest[0])
		if err != nil {
			return false, err
		}
		return s.Remove(s.Time(frame)), nil
	})
}

func runKeyframeMove(cmd *cobra.Command, g *globals, kf *keyframeFlags, args []string) error {
	return editStore(cmd, g, kf, args, func(e *env, s *keyframes.Store, rest []string) (bool, error) {
		from, err := parseFrame(rest[0])
		if err != nil {
			return false, err
		}
		to, err := parseFrame(rest[1])
		if err != nil {
			return false, err
		}
		return s.Move(s.Time(from), s.Time(to), -1), nil
	})
}

func runKeyframeType(cmd *cobra.Command, g *globals, kf *keyframeFlags, args []string) error {
	return editStore(cmd, g, kf, args, func(e *env, s *keyframes.Store, rest []string) (bool, error) {
		frame, err := parseFrame(rest[0])
		if err != nil {
			return false, err
		}
		kt, err := anim.ParseKeyframeType(rest[1])
		if err != nil {
			return false, err
		}
		return s.UpdateType(s.Time(frame), kt), nil
	})
}

func runKeyframeOffset(cmd *cobra.Command, g *globals, kf *keyframeFlags, args []string) error {
	return editStore(cmd, g, kf, args, func(e *env, s *keyframes.Store, rest []string) (bool, error) {
		from, err := parseFrame(rest[0])
		if err != nil {
			return false, err
		}
		to, err := parseFrame(rest[1])
		if err != nil {
			return false, err
		}
		return s.Offset(s.Time(from), s.Time(to)), nil
	})
}

func runKeyframeClear(cmd *cobra.Command, g *globals, kf *keyframeFlags, args []string, after int64) error {
	return editStore(cmd, g, kf, args, func(e *env, s *keyframes.Store, rest []string) (bool, error) {
		if after >= 0 {
			return s.RemoveAfter(s.Time(after)), nil
		}
		return s.RemoveAll(), nil
	})
}

func runWatch(cmd *cobra.Command, g *globals, path, debounce string) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	delay, err := time.ParseDuration(debounce)
	if err != nil {
		return fmt.Errorf("invalid debounce: %w", err)
	}
	path, err = project.Resolve(path)
	if err != nil {
		return err
	}
	session, err := project.Load(path, e.sessionOptions())
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchSession(ctx, e, session, path, delay)
}

func watchSession(ctx context.Context, e *env, session *project.Session, path string, delay time.Duration) error {
	fmt.Fprintf(e.out, "[*] Watching %s (%d parameters)\n", path, len(session.Targets()))
	err := project.Watch(ctx, path, delay, e.logger, func(p *project.Project, err error) {
		if err != nil {
			e.logger.Warn("cannot read project", "path", path, "error", err)
			return
		}
		if err := session.Apply(p); err != nil {
			e.logger.Warn("project reloaded with errors", "error", err)
		}
		total := 0
		for _, t := range session.Targets() {
			total += t.Store.Count()
		}
		fmt.Fprintf(e.out, "[>] Reloaded %s: %d keyframes\n", path, total)
	})
	e.printStats()
	return err
}
