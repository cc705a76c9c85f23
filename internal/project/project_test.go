package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/kfanim/internal/anim"
	"github.com/ivlev/kfanim/internal/gentime"
	"github.com/ivlev/kfanim/internal/observability"
	"github.com/ivlev/kfanim/internal/params"
)

const sampleDoc = `
version: "1.0"
fps: {num: 25, den: 1}
effects:
  - id: 6f1c8a52-3c1e-4b7a-9a55-2f3d0c1e9b10
    name: blur
    in: 0
    duration: 100
    params:
      - name: amount
        type: keyframe
        min: 0
        max: 100
        default: 50
        value: "0=0;50=100"
      - name: passes
        type: double
        min: 1
        max: 10
        default: 2
        value: "3"
  - name: transform
    in: 10
    duration: 50
    params:
      - name: rect
        type: animatedrect
        value: "10=0 0 100 100 1;30=50 50 100 100 0.5"
`

func openSample(t *testing.T) *Session {
	t.Helper()
	p, err := DecodeProject([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("DecodeProject() error = %v", err)
	}
	s, err := Open(p, Options{Logger: observability.Discard(), UndoLimit: 10})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestDecodeProjectDefaults(t *testing.T) {
	p, err := DecodeProject([]byte("effects:\n  - name: fade\n    params:\n      - name: level\n        type: keyframe\n        value: \"0=1\"\n"))
	if err != nil {
		t.Fatalf("DecodeProject() error = %v", err)
	}
	if p.FPS != gentime.PAL {
		t.Errorf("FPS = %v, want PAL", p.FPS)
	}
	if got := p.Effects[0].Params[0].Factor; got != 1 {
		t.Errorf("Factor = %v, want 1", got)
	}

	if _, err := DecodeProject([]byte("effects:\n  - in: 3\n")); err == nil {
		t.Error("expected error for an unnamed effect")
	}
}

func TestWriteReadProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	p := &Project{
		FPS: gentime.NTSC,
		Effects: []Effect{{
			Name:     "fade",
			Duration: 25,
			Params: []Param{{
				Name:  "level",
				Type:  "keyframe",
				Range: params.Range{Max: 1, Factor: 1},
				Value: "0=0;24=1",
			}},
		}},
	}
	if err := WriteProject(p, path); err != nil {
		t.Fatalf("WriteProject() error = %v", err)
	}
	got, err := ReadProject(path)
	if err != nil {
		t.Fatalf("ReadProject() error = %v", err)
	}
	if got.Version != CurrentVersion {
		t.Errorf("Version = %q, want %q", got.Version, CurrentVersion)
	}
	if got.FPS != gentime.NTSC {
		t.Errorf("FPS = %v, want NTSC", got.FPS)
	}
	if v := got.Effects[0].Params[0].Value; v != "0=0;24=1" {
		t.Errorf("Value = %q", v)
	}
}

func TestOpenCreatesStores(t *testing.T) {
	s := openSample(t)

	if got := len(s.Targets()); got != 3 {
		t.Fatalf("Targets() = %d, want 3", got)
	}

	amount, err := s.Store("blur", "amount")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if v, _ := amount.ValueAt(25); v != anim.Scalar(50) {
		t.Errorf("amount at 25 = %v, want 50", v)
	}

	byID, err := s.Store("6f1c8a52-3c1e-4b7a-9a55-2f3d0c1e9b10", "amount")
	if err != nil || byID != amount {
		t.Errorf("lookup by id = %v, %v", byID, err)
	}

	rect, err := s.Store("transform", "rect")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if got := rect.Count(); got != 2 {
		t.Errorf("rect keyframes = %d, want 2", got)
	}

	if _, err := s.Store("blur", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing param error = %v, want ErrNotFound", err)
	}
	if _, err := s.Store("nope", "amount"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing effect error = %v, want ErrNotFound", err)
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		p    *Project
	}{
		{"bad id", &Project{Effects: []Effect{{ID: "not-a-uuid", Name: "x"}}}},
		{"bad type", &Project{Effects: []Effect{{Name: "x", Params: []Param{{Name: "a", Type: "colour"}}}}}},
		{"bad locale", &Project{Locale: "??", Effects: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.p, Options{Logger: observability.Discard()}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSharedUndoAndSave(t *testing.T) {
	s := openSample(t)
	amount, _ := s.Store("blur", "amount")
	rect, _ := s.Store("transform", "rect")

	if !amount.Add(amount.Time(75), anim.Linear, anim.Scalar(20)) {
		t.Fatal("Add failed")
	}
	if !rect.Remove(rect.Time(30)) {
		t.Fatal("Remove failed")
	}
	if got := s.Undo.Len(); got != 2 {
		t.Fatalf("undo entries = %d, want 2", got)
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	saved, err := ReadProject(path)
	if err != nil {
		t.Fatalf("ReadProject() error = %v", err)
	}
	if v := saved.Effects[0].Params[0].Value; v != "0=0;50=100;75=20" {
		t.Errorf("saved amount = %q", v)
	}
	if v := saved.Effects[1].Params[0].Value; strings.Contains(v, "30=") {
		t.Errorf("saved rect still has frame 30: %q", v)
	}

	if !s.Undo.Undo() || !s.Undo.Undo() {
		t.Fatal("undo failed")
	}
	if got := amount.Count(); got != 2 {
		t.Errorf("amount keyframes after undo = %d, want 2", got)
	}
	if got := rect.Count(); got != 2 {
		t.Errorf("rect keyframes after undo = %d, want 2", got)
	}
}

func TestApplyRefreshesStores(t *testing.T) {
	s := openSample(t)
	amount, _ := s.Store("blur", "amount")

	p := s.Snapshot()
	p.Effects[0].Params[0].Value = "0=10;20=30;40=50"
	p.Effects = append(p.Effects, Effect{Name: "ghost"})
	if err := s.Apply(p); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := amount.Count(); got != 3 {
		t.Errorf("keyframes = %d, want 3", got)
	}
	if v, _ := amount.ValueAt(10); v != anim.Scalar(20) {
		t.Errorf("value at 10 = %v, want 20", v)
	}

	p.Effects[0].Params[0].Value = "0=;x"
	if err := s.Apply(p); err == nil {
		t.Error("expected error for malformed value")
	}
}

func TestCloseReleasesOwners(t *testing.T) {
	p, _ := DecodeProject([]byte(sampleDoc))
	s, err := Open(p, Options{Logger: observability.Discard()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	amount, _ := s.Store("blur", "amount")
	s.Close()
	s.Close()

	if s.Registry.Len() != 0 {
		t.Errorf("registry still holds %d assets", s.Registry.Len())
	}
	if _, err := s.Store("blur", "amount"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Store() after Close error = %v", err)
	}
	if err := amount.Refresh(); err == nil {
		t.Error("Refresh succeeded on a released owner")
	}
}

func TestWatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Project, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, observability.Discard(), func(p *Project, err error) {
			if err != nil {
				return
			}
			select {
			case got <- p:
			default:
			}
		})
	}()

	updated := strings.Replace(sampleDoc, `"0=0;50=100"`, `"0=0;60=80"`, 1)
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case p := <-got:
			if v := p.Effects[0].Params[0].Value; v != "0=0;60=80" {
				t.Fatalf("watched value = %q", v)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch() error = %v", err)
			}
			return
		case <-tick.C:
			// the watcher may not be registered yet when the first write lands
			if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.yaml", "b.yml", "c.yaml"}
	for i, name := range files {
		f := filepath.Join(dir, name)
		if err := os.WriteFile(f, []byte(sampleDoc), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(f, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	latest, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := filepath.Join(dir, "c.yaml"); latest != want {
		t.Errorf("Resolve(dir) = %s, want %s", latest, want)
	}

	file := filepath.Join(dir, "a.yaml")
	if got, _ := Resolve(file); got != file {
		t.Errorf("Resolve(file) = %s", got)
	}

	if _, err := FindLatest(t.TempDir()); err == nil {
		t.Error("expected error for a directory without projects")
	}
}
