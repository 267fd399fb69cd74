package adapter

import (
	"testing"
	"time"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"&lt;p&gt;Encoded&lt;/p&gt;", "Encoded"},
		{"Line one<br>Line two", "Line one Line two"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractText(tt.in); got != tt.want {
			t.Errorf("extractText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeState(t *testing.T) {
	tests := map[string]string{
		"Texas":                "TX",
		"tx":                   "TX",
		" new   york ":         "NY",
		"District of Columbia": "DC",
		"Ontario":              "",
		"":                     "",
		"ZZ":                   "",
	}
	for in, want := range tests {
		if got := NormalizeState(in); got != want {
			t.Errorf("NormalizeState(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-02-01T00:00:00.0000000Z", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"2026-02-19", time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC), true},
		{"2026-02-19T10:30:00", time.Date(2026, 2, 19, 10, 30, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
