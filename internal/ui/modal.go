package ui

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wookiisky/think-bot/internal/keys"
	"github.com/wookiisky/think-bot/internal/logger"
)

// ModalState is a discriminated union interface for modal-specific state.
// Each modal type implements this interface with its own state struct,
// ensuring type-safe access to modal-specific fields.
type ModalState interface {
	modalState() // marker method to restrict implementations
	Title() string
	Help() string
	Render() string
	Update(msg tea.Msg) (ModalState, tea.Cmd)
}

// Modal represents a popup dialog with type-safe state management.
// The State field is nil when no modal is visible.
type Modal struct {
	State ModalState
	error string
}

// NewModal creates a new modal
func NewModal() *Modal {
	return &Modal{}
}

// Show displays a modal with the given state. If a confirmation dialog is
// already visible, a second confirmation Show is ignored so the first
// dialog's callbacks stay in place.
func (m *Modal) Show(state ModalState) {
	if _, visible := m.State.(*ConfirmState); visible {
		if _, incoming := state.(*ConfirmState); incoming {
			logger.Warn("Modal: confirm dialog already visible, ignoring Show")
			return
		}
	}
	m.State = state
	m.error = ""
}

// Hide hides the modal
func (m *Modal) Hide() {
	m.State = nil
	m.error = ""
}

// IsVisible returns whether the modal is visible
func (m *Modal) IsVisible() bool {
	return m.State != nil
}

// SetError sets an error message
func (m *Modal) SetError(err string) {
	m.error = err
}

// GetError returns the current error message
func (m *Modal) GetError() string {
	return m.error
}

// Update handles messages by delegating to the current state
func (m *Modal) Update(msg tea.Msg) (*Modal, tea.Cmd) {
	if m.State == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.State, cmd = m.State.Update(msg)
	return m, cmd
}

// View renders the modal centered over the screen.
func (m *Modal) View(screenWidth, screenHeight int) string {
	if m.State == nil {
		return ""
	}

	content := m.State.Render()

	if m.error != "" {
		content += "\n" + StatusErrorStyle.Render(m.error)
	}

	modal := ModalStyle.Render(content)

	return lipgloss.Place(
		screenWidth, screenHeight,
		lipgloss.Center, lipgloss.Center,
		modal,
	)
}

// =============================================================================
// ConfirmState - generic yes/no confirmation dialog
// =============================================================================

// ConfirmOptions configures a confirmation dialog. Exactly one of OnConfirm
// and OnCancel runs when the dialog resolves; dismissing with Esc counts as
// cancel.
type ConfirmOptions struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string
	OnConfirm    tea.Cmd
	OnCancel     tea.Cmd
}

type ConfirmState struct {
	opts          ConfirmOptions
	SelectedIndex int // 0=confirm, 1=cancel
	resolved      bool
}

func (*ConfirmState) modalState() {}

func (s *ConfirmState) Title() string { return s.opts.Title }

func (s *ConfirmState) Help() string {
	return "←/→ select  Enter: choose  Esc: cancel"
}

func (s *ConfirmState) Render() string {
	title := ModalTitleStyle.Render(s.opts.Title)

	message := lipgloss.NewStyle().
		Foreground(ColorText).
		Width(ModalWidth - 6).
		Render(s.opts.Message)

	confirmLabel := s.opts.ConfirmLabel
	if confirmLabel == "" {
		confirmLabel = "Confirm"
	}
	cancelLabel := s.opts.CancelLabel
	if cancelLabel == "" {
		cancelLabel = "Cancel"
	}

	renderButton := func(label string, selected bool) string {
		style := lipgloss.NewStyle().Padding(0, 2).MarginRight(1).Foreground(ColorTextMuted)
		if selected {
			style = style.Foreground(ColorTextInverse).Background(ColorPrimary)
		}
		return style.Render(label)
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		renderButton(confirmLabel, s.SelectedIndex == 0),
		renderButton(cancelLabel, s.SelectedIndex == 1),
	)

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, message, "", buttons, help)
}

func (s *ConfirmState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Left, keys.Up, "h", "k", keys.Tab:
			s.SelectedIndex = 0
		case keys.Right, keys.Down, "l", "j", keys.ShiftTab:
			s.SelectedIndex = 1
		}
	}
	return s, nil
}

// Resolve runs at most once: the first call returns the matching callback
// and later calls return nil.
func (s *ConfirmState) Resolve(confirmed bool) tea.Cmd {
	if s.resolved {
		logger.Warn("Modal: confirm dialog already resolved")
		return nil
	}
	s.resolved = true
	if confirmed {
		return s.opts.OnConfirm
	}
	return s.opts.OnCancel
}

// ConfirmSelected reports whether the confirm button is highlighted.
func (s *ConfirmState) ConfirmSelected() bool {
	return s.SelectedIndex == 0
}

// NewConfirmState creates a confirmation dialog.
func NewConfirmState(opts ConfirmOptions) *ConfirmState {
	return &ConfirmState{opts: opts, SelectedIndex: 1}
}
