package ui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// =============================================================================
// OpenURLState - prompt for a URL to extract and chat about
// =============================================================================

type OpenURLState struct {
	Input textinput.Model
}

func (*OpenURLState) modalState() {}

func (s *OpenURLState) Title() string { return "Open Page" }

func (s *OpenURLState) Help() string {
	return "Enter: extract  Esc: cancel"
}

func (s *OpenURLState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.Input.View(), help)
}

func (s *OpenURLState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// URL returns the entered URL, defaulting the scheme to https.
func (s *OpenURLState) URL() string {
	url := strings.TrimSpace(s.Input.Value())
	if url == "" {
		return ""
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	return url
}

// NewOpenURLState creates the URL prompt.
func NewOpenURLState() *OpenURLState {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/article"
	ti.CharLimit = ModalInputCharLimit
	ti.SetWidth(ModalInputWidth)
	ti.Focus()
	return &OpenURLState{Input: ti}
}
