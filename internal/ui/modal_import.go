package ui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/keys"
)

// =============================================================================
// ImportConfirmState - confirm overwriting settings with an imported file
// =============================================================================

type ImportConfirmState struct {
	Result        *config.ImportResult
	SelectedIndex int // 0=import, 1=cancel
}

func (*ImportConfirmState) modalState() {}

func (s *ImportConfirmState) Title() string { return "Import Settings" }

func (s *ImportConfirmState) Help() string {
	return "←/→ select  Enter: choose  Esc: cancel"
}

func (s *ImportConfirmState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	meta := ""
	if s.Result.ExportedAt != "" {
		meta = "Exported " + s.Result.ExportedAt
		if s.Result.ExportedBy != "" {
			meta += " by " + s.Result.ExportedBy
		}
	}

	summary := fmt.Sprintf("%d models, %d quick inputs", len(s.Result.Models), len(s.Result.QuickInputs))

	warning := lipgloss.NewStyle().
		Foreground(ColorWarning).
		Width(ModalWidth - 6).
		Render("Importing replaces your current models, quick inputs and basic settings.")

	var lines []string
	lines = append(lines, title)
	if meta != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(ColorTextMuted).Render(meta))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(ColorText).Render(summary), warning, "")

	renderButton := func(label string, selected bool) string {
		style := lipgloss.NewStyle().Padding(0, 2).MarginRight(1).Foreground(ColorTextMuted)
		if selected {
			style = style.Foreground(ColorTextInverse).Background(ColorPrimary)
		}
		return style.Render(label)
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
		renderButton("Import", s.SelectedIndex == 0),
		renderButton("Cancel", s.SelectedIndex == 1),
	))
	lines = append(lines, ModalHelpStyle.Render(s.Help()))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (s *ImportConfirmState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Left, "h", keys.Tab:
			s.SelectedIndex = 0
		case keys.Right, "l", keys.ShiftTab:
			s.SelectedIndex = 1
		}
	}
	return s, nil
}

// ImportSelected reports whether the import button is highlighted.
func (s *ImportConfirmState) ImportSelected() bool {
	return s.SelectedIndex == 0
}

// NewImportConfirmState creates the import confirmation dialog. Cancel is
// preselected so a stray Enter cannot overwrite settings.
func NewImportConfirmState(result *config.ImportResult) *ImportConfirmState {
	return &ImportConfirmState{Result: result, SelectedIndex: 1}
}
