package fluxion

import (
	"strings"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelWarn,
		"":        LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestTextFormatterFields(t *testing.T) {
	f := newTextFormatter()
	f.includeTimestamp = false

	line := string(f.format(time.Now(), LevelInfo, "reduced system", map[string]any{
		"states": 3,
		"domain": Domain{0, 1},
		"name":   "van der pol",
	}))
	if !strings.HasPrefix(line, "[INFO] reduced system") {
		t.Errorf("Unexpected prefix: %q", line)
	}
	// keys sorted, strings with spaces quoted
	idx := strings.Index(line, "domain=[0, 1]")
	if idx < 0 {
		t.Errorf("Expected domain field in %q", line)
	}
	if !strings.Contains(line, `name="van der pol"`) {
		t.Errorf("Expected quoted name field in %q", line)
	}
	if strings.Index(line, "domain=") > strings.Index(line, "name=") ||
		strings.Index(line, "name=") > strings.Index(line, "states=") {
		t.Errorf("Expected sorted field keys in %q", line)
	}
}

func TestLoggerLevelAndWith(t *testing.T) {
	var sb strings.Builder
	log := NewLogger(LevelInfo, &sb)

	log.Debugf("hidden %d", 1)
	if sb.Len() != 0 {
		t.Fatalf("Debug output leaked below level: %q", sb.String())
	}

	child := log.With(map[string]any{"reduce_id": "abc123"})
	child.Infof("stage %s", "split")
	out := sb.String()
	if !strings.Contains(out, "stage split") || !strings.Contains(out, "reduce_id=abc123") {
		t.Errorf("Unexpected log line: %q", out)
	}

	// parent keeps its own field set
	sb.Reset()
	log.Warnf("plain")
	if strings.Contains(sb.String(), "reduce_id") {
		t.Errorf("Parent logger picked up child fields: %q", sb.String())
	}
}

func TestNopLogger(t *testing.T) {
	log := NopLogger()
	log.Errorf("nothing %v", "happens")
	if log.With(map[string]any{"k": "v"}) != log {
		t.Error("Expected With on the no-op logger to return itself")
	}
}

func TestExprSummaryTruncates(t *testing.T) {
	b := testBuilder(t)
	u := b.Var(0)
	e := Sin(Cos(Tan(u)))

	full := exprSummary(b, e.id, 10)
	if full != "sin(cos(tan(u)))" {
		t.Errorf("Expected full summary, got %q", full)
	}
	short := exprSummary(b, e.id, 2)
	if short != "sin(cos(...))" {
		t.Errorf("Expected truncated summary, got %q", short)
	}
}
