package nlu

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"kitten", "sitting", 3},
		{"pyramids", "pyramds", 1},
		{"cairo", "cairo", 0},
		{"Cairo", "cairo", 0},
		{"", "luxor", 5},
		{"luxor", "", 5},
		{"", "", 0},
		{"الاهرامات", "الاهرامات", 0},
		{"الاهرامات", "الاهرمات", 1},
	}

	for _, tt := range tests {
		if got := levenshteinDistance(tt.s1, tt.s2); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}

func TestFuzzyRatio(t *testing.T) {
	if got := fuzzyRatio("pyramids", "pyramids"); got != 1 {
		t.Errorf("identical strings ratio = %v, want 1", got)
	}
	if got := fuzzyRatio("", ""); got != 1 {
		t.Errorf("empty strings ratio = %v, want 1", got)
	}
	got := fuzzyRatio("pyramids", "pyramds")
	want := 1 - 1.0/8.0
	if got != want {
		t.Errorf("fuzzyRatio(pyramids, pyramds) = %v, want %v", got, want)
	}
}

func TestExtractLowerWords(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"  multiple   spaces\tand\ntabs ", []string{"multiple", "spaces", "and", "tabs"}},
		{"عايز اروح الاهرامات", []string{"عايز", "اروح", "الاهرامات"}},
		{"mixed عربي text", []string{"mixed", "عربي", "text"}},
		{"...", nil},
		{"room 101", []string{"room", "101"}},
	}

	for _, tt := range tests {
		if got := extractLowerWords(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("extractLowerWords(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
