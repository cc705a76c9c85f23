package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/observability"
	"github.com/ivlev/kfanim/internal/project"
)

const doc = `
effects:
  - name: fade
    duration: 100
    params:
      - name: level
        type: keyframe
        max: 100
        value: "0=0;10=100"
  - name: crop
    duration: 100
    params:
      - name: rect
        type: animatedrect
        value: "0=0 0 100 100 1;10|=50 50 10 10 0"
`

func targets(t *testing.T) []project.Target {
	t.Helper()
	p, err := project.DecodeProject([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	s, err := project.Open(p, project.Options{Logger: observability.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s.Targets()
}

func TestBake(t *testing.T) {
	m := observability.NewMetrics(nil)
	res, err := Bake(context.Background(), targets(t), 0, 20, Options{
		Workers: 2,
		Locale:  anim.C,
		Logger:  observability.Discard(),
		Metrics: m,
	})
	if err != nil {
		t.Fatalf("Bake() error = %v", err)
	}

	if len(res.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(res.Tracks))
	}
	if res.Values() != 42 {
		t.Errorf("expected 42 values, got %d", res.Values())
	}

	level := res.Tracks[0]
	if level.Effect != "fade" || level.Param != "level" || level.Type != "keyframe" {
		t.Errorf("unexpected first track %+v", level)
	}
	checks := map[int64]string{0: "0", 5: "50", 10: "100", 20: "100"}
	for f, want := range checks {
		if got := level.Frames[f].Value; got != want {
			t.Errorf("level at %d = %q, want %q", f, got, want)
		}
	}

	rect := res.Tracks[1]
	if got := rect.Frames[5].Value; got != "25 25 55 55 0.5" {
		t.Errorf("rect at 5 = %q", got)
	}
	if got := rect.Frames[15].Value; got != "50 50 10 10 0" {
		t.Errorf("rect at 15 = %q", got)
	}

	if got := testutil.CollectAndCount(m.BakeDuration); got != 1 {
		t.Errorf("expected bake duration to be observed, got %d series", got)
	}
}

func TestBakeEmptyRange(t *testing.T) {
	if _, err := Bake(context.Background(), targets(t), 10, 5, Options{}); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("expected ErrEmptyRange, got %v", err)
	}
}

func TestBakeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Bake(ctx, targets(t), 0, 1000, Options{Logger: observability.Discard()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestResultOutput(t *testing.T) {
	res, err := Bake(context.Background(), targets(t), 0, 2, Options{Logger: observability.Discard()})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := res.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var back Result
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if back.To != 2 || len(back.Tracks) != 2 || len(back.Tracks[0].Frames) != 3 {
		t.Errorf("unexpected decoded result %+v", back)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "bake.yaml")
	if err := res.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var report bytes.Buffer
	res.Report(&report, "test")
	if !strings.Contains(report.String(), "Tracks: 2") {
		t.Errorf("report misses track count:\n%s", report.String())
	}

	logPath := filepath.Join(dir, "benchmark.log")
	for range 2 {
		if err := res.AppendLog(logPath, "test", "/tmp/project.yaml"); err != nil {
			t.Fatalf("AppendLog() error = %v", err)
		}
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "Input: project.yaml"); n != 2 {
		t.Errorf("expected 2 log lines, got %d", n)
	}
}
