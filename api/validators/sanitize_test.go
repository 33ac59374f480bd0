package validators

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFilterCollapsesWhitespace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Surat ", "Surat"},
		{"navi \t  mumbai", "navi mumbai"},
		{"", ""},
		{"   ", ""},
		{"Varachha\nRoad", "Varachha Road"},
	}
	for _, tc := range cases {
		if got := SanitizeFilter(tc.in, MaxFilterLen); got != tc.want {
			t.Errorf("SanitizeFilter(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFilterCutsOnCharacters(t *testing.T) {
	city := strings.Repeat("सूरत", 30)
	got := SanitizeFilter(city, MaxFilterLen)
	if !utf8.ValidString(got) {
		t.Fatalf("cut produced invalid utf-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != MaxFilterLen {
		t.Fatalf("expected %d characters, got %d", MaxFilterLen, n)
	}

	if got := SanitizeFilter("ab cd", 3); got != "ab" {
		t.Fatalf("expected trailing space trimmed after cut, got %q", got)
	}
}
