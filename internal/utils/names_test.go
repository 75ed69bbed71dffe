package utils

import (
	"math"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Anna Müller", "anna muller"},
		{"  JÜRGEN   Groß ", "jurgen gross"},
		{"Zoë-Marie O'Neill", "zoe marie o neill"},
		{"Ana-María Núñez", "ana maria nunez"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 1},
		{"abc", "", 0},
		{"abcd", "bcde", 0.75},
		{"hans meier", "hans meyer", 0.9},
		{"anna schmidt", "bert schmidt", 16.0 / 24.0},
		{"same", "same", 1},
		{"abcdefgh ijklmnopqrs", "abcdefgh ijklmnopxyz", 0.85},
	}

	for _, tt := range tests {
		got := SimilarityRatio(tt.a, tt.b)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("SimilarityRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name      string
		invited   string
		first     string
		last      string
		wantMatch bool
	}{
		{"exact", "Anna Müller", "Anna", "Müller", true},
		{"accents and case", "anna muller", "ANNA", "Müller", true},
		{"reversed order", "Müller, Anna", "Anna", "Müller", true},
		{"small typo", "Hans Meier", "Hans", "Meyer", true},
		{"different person", "Anna Schmidt", "Bert", "Schmidt", false},
		{"unrelated", "Anna Müller", "Peter", "Weber", false},
		// 17 of 20 runes match: ratio is exactly 0.85
		{"at threshold", "Abcdefgh Ijklmnopqrs", "Abcdefgh", "Ijklmnopxyz", true},
		{"below threshold", "Abcdefgh Ijklmnopqrs", "Abcdefgh", "Ijklmnoxyzw", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NamesMatch(tt.invited, tt.first, tt.last); got != tt.wantMatch {
				t.Errorf("NamesMatch(%q, %q, %q) = %v, want %v", tt.invited, tt.first, tt.last, got, tt.wantMatch)
			}
		})
	}
}
