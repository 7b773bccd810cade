package ui

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

func TestHeader_ShowsTitle(t *testing.T) {
	h := NewHeader()
	h.SetWidth(80)

	view := ansi.Strip(h.View())
	if !strings.Contains(view, "think-bot") {
		t.Errorf("header should contain the app name: %q", view)
	}
}

func TestHeader_ShowsPage(t *testing.T) {
	h := NewHeader()
	h.SetWidth(120)
	h.SetPage("Example Article", "https://example.com/a")

	view := ansi.Strip(h.View())
	if !strings.Contains(view, "Example Article") {
		t.Errorf("header should contain the page title: %q", view)
	}
}

func TestHeader_FitsWidth(t *testing.T) {
	h := NewHeader()
	h.SetWidth(40)
	h.SetPage("A very long page title that cannot possibly fit", "https://example.com/extremely/long/path")

	for _, line := range strings.Split(h.View(), "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Errorf("header line width = %d, want <= 40", w)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b := parseHexColor("#6366F1")
	if r != 0x63 || g != 0x66 || b != 0xF1 {
		t.Errorf("parseHexColor = %d,%d,%d", r, g, b)
	}
}
