package source

import (
	"testing"
)

func TestSpan_Cover(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected Span
	}{
		{
			name:     "overlapping spans",
			a:        Span{File: 1, Start: 10, End: 20},
			b:        Span{File: 1, Start: 15, End: 30},
			expected: Span{File: 1, Start: 10, End: 30},
		},
		{
			name:     "empty receiver takes other",
			a:        Span{File: 1},
			b:        Span{File: 1, Start: 4, End: 9},
			expected: Span{File: 1, Start: 4, End: 9},
		},
		{
			name:     "different files are not merged",
			a:        Span{File: 1, Start: 1, End: 2},
			b:        Span{File: 2, Start: 0, End: 50},
			expected: Span{File: 1, Start: 1, End: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.expected {
				t.Errorf("Cover() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSpan_Len(t *testing.T) {
	if got := (Span{Start: 3, End: 10}).Len(); got != 7 {
		t.Fatalf("Len() = %d, want 7", got)
	}
	if got := (Span{Start: 10, End: 3}).Len(); got != 0 {
		t.Fatalf("inverted span Len() = %d, want 0", got)
	}
}
