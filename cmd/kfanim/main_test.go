package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/kfanim/internal/project"
)

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"parse", "sample", "expr", "bake", "keyframe", "watch"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := buildRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", "50~=100;0=0", "--max", "100")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !strings.HasPrefix(out, "0=0;50~=100\n") {
		t.Errorf("expected canonical string first, got:\n%s", out)
	}
	if !strings.Contains(out, "curve") || !strings.Contains(out, "1.0000") {
		t.Errorf("expected a curve row with normalized 1, got:\n%s", out)
	}

	if _, err := run(t, "parse", "0=abc"); err == nil {
		t.Error("expected error for a malformed value")
	}
}

func TestParseRectShowsRanges(t *testing.T) {
	out, err := run(t, "parse", "--type", "animatedrect", "0=0 0 100 100 1;10=50 20 10 10 0.5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !strings.Contains(out, "x 0..50") || !strings.Contains(out, "opacity 0.5..1") {
		t.Errorf("unexpected ranges:\n%s", out)
	}
}

func TestSampleCommand(t *testing.T) {
	out, err := run(t, "sample", "0=0;10=100", "5", "20")
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if out != "5\t50\n20\t100\n" {
		t.Errorf("unexpected output %q", out)
	}

	out, err = run(t, "--locale", "de_DE", "sample", "0=0;10=1", "5")
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if out != "5\t0,5\n" {
		t.Errorf("unexpected localized output %q", out)
	}

	if _, err := run(t, "sample", "0=0", "five"); err == nil {
		t.Error("expected error for a bad frame")
	}
}

func TestExprCommand(t *testing.T) {
	out, err := run(t, "expr", "0=0;10=100", "--var", "on")
	if err != nil {
		t.Fatalf("expr failed: %v", err)
	}
	if !strings.HasPrefix(out, "if(lte(on,10),") {
		t.Errorf("unexpected expression %q", out)
	}

	out, err = run(t, "expr", "--type", "animatedrect", "0=0 0 10 10 1;5=5 5 10 10 0")
	if err != nil {
		t.Fatalf("expr failed: %v", err)
	}
	if lines := strings.Count(out, "\n"); lines != 5 {
		t.Errorf("expected 5 expressions, got %d", lines)
	}
}

const projectDoc = `
effects:
  - name: blur
    duration: 100
    params:
      - name: amount
        type: keyframe
        max: 100
        value: "0=0;50=100"
`

func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte(projectDoc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func amountOf(t *testing.T, path string) string {
	t.Helper()
	p, err := project.ReadProject(path)
	if err != nil {
		t.Fatal(err)
	}
	return p.Effects[0].Params[0].Value
}

func TestKeyframeCommands(t *testing.T) {
	path := writeProject(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"add", path, "blur", "amount", "75", "20", "--type", "curve"}, "0=0;50=100;75~=20"},
		{[]string{"type", path, "blur", "amount", "75", "discrete"}, "0=0;50=100;75|=20"},
		{[]string{"move", path, "blur", "amount", "50", "40"}, "0=0;40=100;75|=20"},
		{[]string{"offset", path, "blur", "amount", "40", "45"}, "0=0;45=100;80|=20"},
		{[]string{"remove", path, "blur", "amount", "80"}, "0=0;45=100"},
		{[]string{"clear", path, "blur", "amount"}, "0=0"},
	}
	for _, st := range steps {
		if _, err := run(t, append([]string{"keyframe"}, st.args...)...); err != nil {
			t.Fatalf("keyframe %s failed: %v", st.args[0], err)
		}
		if got := amountOf(t, path); got != st.want {
			t.Fatalf("after %s: value = %q, want %q", st.args[0], got, st.want)
		}
	}

	if _, err := run(t, "keyframe", "remove", path, "blur", "amount", "0"); err == nil {
		t.Error("removing the first keyframe should be refused")
	}
	if _, err := run(t, "keyframe", "add", path, "nope", "amount", "1", "1"); err == nil {
		t.Error("expected error for an unknown effect")
	}
}

func TestKeyframeOutFlag(t *testing.T) {
	path := writeProject(t)
	out := filepath.Join(t.TempDir(), "edited.yaml")
	if _, err := run(t, "keyframe", "clear", path, "blur", "amount", "--out", out); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if got := amountOf(t, path); got != "0=0;50=100" {
		t.Errorf("source project changed: %q", got)
	}
	if got := amountOf(t, out); got != "0=0" {
		t.Errorf("edited project = %q", got)
	}
}

func TestBakeCommand(t *testing.T) {
	path := writeProject(t)
	out, err := run(t, "bake", path, "--to", "10")
	if err != nil {
		t.Fatalf("bake failed: %v", err)
	}
	if !strings.Contains(out, "param: amount") || !strings.Contains(out, "value: \"10\"") {
		t.Errorf("unexpected bake output:\n%s", out)
	}
}

func TestStatsFlag(t *testing.T) {
	out, err := run(t, "--stats", "sample", "0=0;10=100", "5")
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if !strings.Contains(out, `kfanim_parse_total{format=text,status=success}`) {
		t.Errorf("expected parse counter in stats:\n%s", out)
	}
}

func TestWatchSessionReloads(t *testing.T) {
	path := writeProject(t)
	cmd := buildRootCmd()
	cmd.SetErr(io.Discard)
	var g globals
	g.logLevel = "error"
	e, err := g.setup(cmd)
	if err != nil {
		t.Fatal(err)
	}
	var buf syncBuffer
	e.out = &buf

	s, err := project.Load(path, e.sessionOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchSession(ctx, e, s, path, 10*time.Millisecond) }()

	edited := strings.Replace(projectDoc, `"0=0;50=100"`, `"0=0;20=5;50=100"`, 1)
	store, _ := s.Store("blur", "amount")
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(buf.String(), "[>] Reloaded") {
		if time.Now().After(deadline) {
			t.Fatal("store was not reloaded")
		}
		if err := os.WriteFile(path, []byte(edited), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch returned %v", err)
	}
	if got := store.Count(); got != 3 {
		t.Errorf("keyframes after reload = %d, want 3", got)
	}
}

// syncBuffer is written from the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
