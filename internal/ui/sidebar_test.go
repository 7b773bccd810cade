package ui

import (
	"strings"
	"testing"

	"github.com/wookiisky/think-bot/internal/storage"
)

func recentList(urls ...string) []storage.RecentURL {
	out := make([]storage.RecentURL, len(urls))
	for i, u := range urls {
		out[i] = storage.RecentURL{URL: u, Title: "Page " + u}
	}
	return out
}

func TestSidebar_Selection(t *testing.T) {
	s := NewSidebar()
	s.SetSize(SidebarWidth, 30)
	s.SetRecent(recentList("https://a.test", "https://b.test", "https://c.test"))

	if got := s.Selected(); got == nil || got.URL != "https://a.test" {
		t.Fatalf("Selected() = %v, want first entry", got)
	}

	s.MoveDown()
	s.MoveDown()
	if got := s.Selected(); got.URL != "https://c.test" {
		t.Errorf("Selected() = %q, want last entry", got.URL)
	}

	s.MoveDown()
	if got := s.Selected(); got.URL != "https://c.test" {
		t.Error("selection should not move past the end")
	}

	s.MoveUp()
	if got := s.Selected(); got.URL != "https://b.test" {
		t.Errorf("Selected() = %q after MoveUp", got.URL)
	}
}

func TestSidebar_EmptyList(t *testing.T) {
	s := NewSidebar()
	s.SetSize(SidebarWidth, 30)

	if s.Selected() != nil {
		t.Error("Selected() should be nil with no entries")
	}

	if !strings.Contains(s.View(), "No pages yet") {
		t.Error("empty sidebar should show the placeholder")
	}
}

func TestSidebar_SetRecentClampsSelection(t *testing.T) {
	s := NewSidebar()
	s.SetRecent(recentList("https://a.test", "https://b.test", "https://c.test"))
	s.MoveDown()
	s.MoveDown()

	s.SetRecent(recentList("https://a.test"))

	if got := s.Selected(); got == nil || got.URL != "https://a.test" {
		t.Errorf("Selected() = %v after shrink", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"much too long for this", 8, "much to…"},
		{"anything", 0, ""},
		// A combining accent stays attached to its base letter.
		{"ééé", 2, "é…"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
