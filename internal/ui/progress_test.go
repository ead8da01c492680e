package ui

import (
	"strings"
	"testing"

	"tachyon/internal/engine"
	"tachyon/internal/speculate"
)

func TestApplyEventTracksSpecializations(t *testing.T) {
	m := NewProgressModel("add", nil).(*progressModel)
	key := speculate.FunctionKey{Function: "addOne", Context: "exact"}
	for _, ev := range []engine.Event{
		{Kind: engine.EventCompiled, Key: key, Generation: 1},
		{Kind: engine.EventDeopt, Key: key, Generation: 2},
	} {
		m.applyEvent(ev)
	}
	if got := stableShare(m.items); got != 0 {
		t.Fatalf("share after deopt = %v", got)
	}
	m.applyEvent(engine.Event{Kind: engine.EventCompiled, Key: key, Generation: 2})
	m.applyEvent(engine.Event{Kind: engine.EventRestart, Key: key, Generation: 2})
	if len(m.items) != 1 {
		t.Fatalf("items = %+v", m.items)
	}
	it := m.items[0]
	if it.generation != 2 || it.deopts != 1 || it.restarts != 1 || it.status != "restart" {
		t.Fatalf("item = %+v", it)
	}
	if got := stableShare(m.items); got != 1 {
		t.Fatalf("share = %v", got)
	}
	if view := m.View(); !strings.Contains(view, "addOne/exact") {
		t.Fatalf("view misses the row:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"averylongfunctionname", 10, "averylo..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
