package dedup

import (
	"math"
	"testing"
)

func TestSimilarityReflexive(t *testing.T) {
	names := []string{
		"Create overlay test for bitkey wallet",
		"fix login bug",
		"A",
		"Fix résumé parser crash", // multibyte runes
	}
	for _, name := range names {
		if got := Similarity(name, name); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %v, want 1.0", name, name, got)
		}
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Create overlay test for bitkey wallet", "Create overlay test for bitkey"},
		{"abcd", "bcda"},
		{"Fix login bug", "Add registration feature"},
		{"short", "a much longer task name with more words"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarityScores(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		min, max float64
	}{
		{
			name: "documented near-duplicate example",
			a:    "Create overlay test for bitkey wallet",
			b:    "Create overlay test for bitkey",
			min:  0.85,
			max:  1.0,
		},
		{
			name: "unrelated names stay below threshold",
			a:    "Create overlay test for bitkey wallet",
			b:    "Unrelated task name",
			min:  0.0,
			max:  0.85,
		},
		{
			name: "case differences are ignored",
			a:    "FIX LOGIN BUG",
			b:    "fix login bug",
			min:  1.0,
			max:  1.0,
		},
		{
			name: "surrounding whitespace is ignored",
			a:    "  fix login bug  ",
			b:    "fix login bug",
			min:  1.0,
			max:  1.0,
		},
		{
			name: "completely disjoint strings",
			a:    "aaaa",
			b:    "bbbb",
			min:  0.0,
			max:  0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestSimilarityPrefixRatio(t *testing.T) {
	// b is a 30-char prefix of the 37-char a, so the ratio is exactly
	// 2*30/(37+30).
	a := "Create overlay test for bitkey wallet"
	b := "Create overlay test for bitkey"
	want := 60.0 / 67.0
	if got := Similarity(a, b); math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity = %v, want %v", got, want)
	}
}

func TestSimilarityRange(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "something"},
		{"x", "y"},
		{"overlapping words in both", "both have overlapping words"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0.0 || got > 1.0 {
			t.Errorf("Similarity(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
		}
	}
}
