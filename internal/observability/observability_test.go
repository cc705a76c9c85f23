package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf})
	logger.Debug("keyframe added", "frame", 50)

	out := buf.String()
	if !strings.Contains(out, `"msg":"keyframe added"`) || !strings.Contains(out, `"frame":50`) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("level filtering failed: %s", out)
	}
}

func TestMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.Mutation("add", true)
	m.Mutation("add", true)
	m.Mutation("remove", false)
	m.UndoCommand("push", true)
	m.Parse("text", false)
	m.ObserveBake(time.Now())

	if got := testutil.ToFloat64(m.KeyframeMutations.WithLabelValues("add", "success")); got != 2 {
		t.Errorf("expected 2 successful adds, got %v", got)
	}
	if got := testutil.ToFloat64(m.KeyframeMutations.WithLabelValues("remove", "refused")); got != 1 {
		t.Errorf("expected 1 refused remove, got %v", got)
	}

	expected := `
		# HELP kfanim_parse_total Animation decoding attempts by format and status
		# TYPE kfanim_parse_total counter
		kfanim_parse_total{format="text",status="error"} 1
	`
	if err := testutil.CollectAndCompare(m.Parses, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}

	if n, err := testutil.GatherAndCount(registry, "kfanim_undo_commands_total"); err != nil || n != 1 {
		t.Errorf("expected 1 undo series, got %d (%v)", n, err)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Mutation("add", true)
	m.UndoCommand("undo", false)
	m.Parse("roto", true)
	m.ObserveBake(time.Now())
}
