package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/wookiisky/think-bot/internal/storage"
)

// Sidebar is the left panel listing recently visited pages.
type Sidebar struct {
	recent       []storage.RecentURL
	selectedIdx  int
	width        int
	height       int
	focused      bool
	scrollOffset int
}

func NewSidebar() *Sidebar {
	return &Sidebar{}
}

func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *Sidebar) Width() int { return s.width }

func (s *Sidebar) SetFocused(focused bool) { s.focused = focused }

func (s *Sidebar) IsFocused() bool { return s.focused }

// SetRecent replaces the recent-pages list, clamping the selection.
func (s *Sidebar) SetRecent(recent []storage.RecentURL) {
	if len(recent) > MaxRecentShown {
		recent = recent[:MaxRecentShown]
	}
	s.recent = recent
	if s.selectedIdx >= len(recent) {
		s.selectedIdx = len(recent) - 1
	}
	if s.selectedIdx < 0 {
		s.selectedIdx = 0
	}
}

// Selected returns the currently selected entry, or nil when the list is
// empty.
func (s *Sidebar) Selected() *storage.RecentURL {
	if len(s.recent) == 0 {
		return nil
	}
	return &s.recent[s.selectedIdx]
}

// MoveUp moves the selection up one entry.
func (s *Sidebar) MoveUp() {
	if s.selectedIdx > 0 {
		s.selectedIdx--
	}
	s.scrollToSelection()
}

// MoveDown moves the selection down one entry.
func (s *Sidebar) MoveDown() {
	if s.selectedIdx < len(s.recent)-1 {
		s.selectedIdx++
	}
	s.scrollToSelection()
}

func (s *Sidebar) scrollToSelection() {
	visible := s.visibleRows()
	if s.selectedIdx < s.scrollOffset {
		s.scrollOffset = s.selectedIdx
	}
	if s.selectedIdx >= s.scrollOffset+visible {
		s.scrollOffset = s.selectedIdx - visible + 1
	}
}

func (s *Sidebar) visibleRows() int {
	// Two rows per entry (title + url), inside the panel border and title.
	rows := (s.height - BorderWidth - 1) / 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the sidebar panel.
func (s *Sidebar) View() string {
	innerWidth := s.width - BorderWidth

	var sb strings.Builder
	sb.WriteString(PanelTitleStyle.Render("Pages"))
	sb.WriteString("\n")

	if len(s.recent) == 0 {
		sb.WriteString(SidebarItemStyle.Render("No pages yet"))
		sb.WriteString("\n")
		sb.WriteString(SidebarURLStyle.Render(" Press ctrl+n to open a URL"))
	} else {
		visible := s.visibleRows()
		end := s.scrollOffset + visible
		if end > len(s.recent) {
			end = len(s.recent)
		}
		for i := s.scrollOffset; i < end; i++ {
			entry := s.recent[i]
			title := entry.Title
			if title == "" {
				title = entry.URL
			}
			title = truncate(title, innerWidth-2)

			style := SidebarItemStyle
			if s.focused && i == s.selectedIdx {
				style = SidebarSelectedStyle
			}
			sb.WriteString(style.Render(title))
			sb.WriteString("\n")
			sb.WriteString(SidebarURLStyle.Render(" " + truncate(entry.URL, innerWidth-2)))
			sb.WriteString("\n")
		}
	}

	panel := PanelStyle
	if s.focused {
		panel = PanelFocusedStyle
	}
	return panel.Width(s.width - BorderWidth).Height(s.height - BorderWidth).Render(sb.String())
}

// truncate cuts text to max display columns, walking grapheme clusters so a
// combining sequence or multi-rune emoji is never split mid-cluster.
func truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= max {
		return text
	}
	budget := max - 1 // room for the ellipsis
	var b strings.Builder
	width := 0
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		cluster := gr.Str()
		w := runewidth.StringWidth(cluster)
		if width+w > budget {
			break
		}
		b.WriteString(cluster)
		width += w
	}
	return b.String() + "…"
}
