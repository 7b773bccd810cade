package ui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key  string
	Desc string
}

// FlashType categorizes a transient footer message.
type FlashType int

const (
	FlashInfo FlashType = iota
	FlashSuccess
	FlashWarning
	FlashError
)

// FlashMessage is a transient message shown in place of the key bindings.
type FlashMessage struct {
	Text string
	Type FlashType
}

// FlashTimeoutMsg is sent when a flash message should be dismissed.
type FlashTimeoutMsg struct{}

// FlashTick returns a command that dismisses the flash after a delay.
func FlashTick() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return FlashTimeoutMsg{}
	})
}

// Footer is the bottom bar with keybindings and the storage usage readout.
type Footer struct {
	width          int
	bindings       []KeyBinding
	flashMessage   *FlashMessage
	sidebarFocused bool
	streaming      bool
	usedBytes      int64
	quotaBytes     int64
	syncing        bool
}

func NewFooter() *Footer {
	return &Footer{
		bindings: []KeyBinding{
			{Key: "tab", Desc: "switch pane"},
			{Key: "ctrl+e", Desc: "re-extract"},
			{Key: "ctrl+o", Desc: "models"},
			{Key: "ctrl+q", Desc: "quick inputs"},
			{Key: "ctrl+s", Desc: "sync"},
			{Key: "ctrl+l", Desc: "clear chat"},
			{Key: "pgup/dn", Desc: "scroll"},
			{Key: "ctrl+c", Desc: "quit"},
		},
	}
}

func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetContext updates conditional state for rendering.
func (f *Footer) SetContext(sidebarFocused, streaming, syncing bool) {
	f.sidebarFocused = sidebarFocused
	f.streaming = streaming
	f.syncing = syncing
}

// SetFlash shows a transient message in place of the key bindings.
func (f *Footer) SetFlash(text string, flashType FlashType) {
	f.flashMessage = &FlashMessage{Text: text, Type: flashType}
}

// ClearFlash removes the flash message.
func (f *Footer) ClearFlash() {
	f.flashMessage = nil
}

// SetUsage updates the storage usage readout.
func (f *Footer) SetUsage(used, quota int64) {
	f.usedBytes = used
	f.quotaBytes = quota
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.0fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func (f *Footer) flashStyle() lipgloss.Style {
	switch f.flashMessage.Type {
	case FlashError:
		return lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	case FlashWarning:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case FlashSuccess:
		return lipgloss.NewStyle().Foreground(ColorSuccess)
	default:
		return lipgloss.NewStyle().Foreground(ColorText)
	}
}

// View renders the footer.
func (f *Footer) View() string {
	var left string
	if f.flashMessage != nil {
		left = f.flashStyle().Render(f.flashMessage.Text)
	} else {
		var parts []string
		bindings := f.bindings
		if f.sidebarFocused {
			bindings = append([]KeyBinding{
				{Key: "enter", Desc: "open"},
				{Key: "d", Desc: "forget"},
			}, bindings...)
		}
		if f.streaming {
			bindings = append([]KeyBinding{{Key: "esc", Desc: "stop"}}, bindings...)
		}
		for _, b := range bindings {
			key := FooterKeyStyle.Render(b.Key)
			desc := FooterDescStyle.Render(": " + b.Desc)
			parts = append(parts, key+desc)
		}
		left = strings.Join(parts, "  ")
	}

	var right string
	if f.quotaBytes > 0 {
		pct := float64(f.usedBytes) / float64(f.quotaBytes) * 100
		usage := fmt.Sprintf("%s / %s (%.0f%%)", formatBytes(f.usedBytes), formatBytes(f.quotaBytes), pct)
		if pct >= 80 {
			right = FooterUsageWarnStyle.Render(usage)
		} else {
			right = FooterUsageStyle.Render(usage)
		}
	}
	if f.syncing {
		if right != "" {
			right = FooterUsageStyle.Render("syncing… ") + right
		} else {
			right = FooterUsageStyle.Render("syncing…")
		}
	}

	gap := f.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return FooterStyle.Width(f.width).Render(left + strings.Repeat(" ", gap) + right)
}
