package models

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"1H", "live"},
		{"2H", "live"},
		{"HT", "live"},
		{"ET", "live"},
		{"live", "live"},
		{"FT", "finished"},
		{"AET", "finished"},
		{"PEN", "finished"},
		{"finished", "finished"},
		{"NS", "scheduled"},
		{"", "scheduled"},
		{"whatever", "scheduled"},
	}
	for _, c := range cases {
		if got := NormalizeStatus(c.raw); got != c.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}
