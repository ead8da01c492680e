package observ

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestTimerSummary(t *testing.T) {
	tm := NewTimer()
	i := tm.Begin("program-points")
	tm.End(i, "12 points")
	tm.End(99, "ignored")
	sum := tm.Summary()
	if !strings.Contains(sum, "program-points") || !strings.Contains(sum, "// 12 points") {
		t.Fatalf("unexpected summary:\n%s", sum)
	}
	if got := len(tm.Report().Phases); got != 1 {
		t.Fatalf("expected 1 phase, got %d", got)
	}
}

func TestCountersAccumulate(t *testing.T) {
	before := testutil.ToFloat64(deopts.WithLabelValues("number"))
	RecordDeopt("number")
	RecordDeopt("number")
	if got := testutil.ToFloat64(deopts.WithLabelValues("number")) - before; got != 2 {
		t.Fatalf("expected 2 deopts recorded, got %v", got)
	}
	RegisterMetrics()
	RegisterMetrics()
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "tachyon", zerolog.InfoLevel)
	log.Debug().Msg("hidden")
	log.Info().Str("fn", "add").Msg("deopt")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "deopt") {
		t.Fatalf("unexpected log output %q", out)
	}
}
