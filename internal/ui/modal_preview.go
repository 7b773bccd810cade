package ui

import (
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wookiisky/think-bot/internal/chat"
)

// =============================================================================
// PreviewState - full-screen scrollable view of one branch response
// =============================================================================

type PreviewState struct {
	ModelName string
	content   string
	viewport  viewport.Model
}

func (*PreviewState) modalState() {}

func (s *PreviewState) Title() string { return "Preview: " + s.ModelName }

func (s *PreviewState) Help() string {
	return "↑/↓ scroll  pgup/pgdn page  Esc: close"
}

func (s *PreviewState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.viewport.View(), help)
}

func (s *PreviewState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

// SetSize resizes the preview to fit the screen.
func (s *PreviewState) SetSize(width, height int) {
	w := width - 8
	h := height - 8
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	s.viewport.SetWidth(w)
	s.viewport.SetHeight(h)
	s.viewport.SetContent(renderBranchContent(s.content, w))
}

// NewPreviewState creates a preview of a branch response, rendered with the
// same markdown pipeline as the chat panel.
func NewPreviewState(modelName, content string, width, height int) *PreviewState {
	vp := viewport.New()
	vp.MouseWheelEnabled = true
	s := &PreviewState{
		ModelName: modelName,
		content:   content,
		viewport:  vp,
	}
	s.SetSize(width, height)
	return s
}

// =============================================================================
// UserMessagePreviewState - view the full text of a user message
// =============================================================================

type UserMessagePreviewState struct {
	message  chat.UserMessage
	viewport viewport.Model
}

func (*UserMessagePreviewState) modalState() {}

func (s *UserMessagePreviewState) Title() string { return "Message" }

func (s *UserMessagePreviewState) Help() string {
	return "↑/↓ scroll  Esc: close"
}

func (s *UserMessagePreviewState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.viewport.View(), help)
}

func (s *UserMessagePreviewState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

// NewUserMessagePreviewState shows the raw text that was sent, including the
// quick-input send text hidden behind its display label.
func NewUserMessagePreviewState(message chat.UserMessage, width, height int) *UserMessagePreviewState {
	vp := viewport.New()
	w := width - 8
	h := height - 8
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	vp.SetWidth(w)
	vp.SetHeight(h)

	content := message.Content
	if message.ImageBase64 != "" {
		content += "\n\n[attached image]"
	}
	vp.SetContent(content)

	return &UserMessagePreviewState{message: message, viewport: vp}
}
