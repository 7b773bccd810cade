package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/keys"
)

// =============================================================================
// BranchPickerState - pick a model to add as a new branch
// =============================================================================

type BranchPickerState struct {
	// OriginalBranchID is the branch being re-branched from.
	OriginalBranchID string
	Models           []config.Model
	SelectedIndex    int
}

func (*BranchPickerState) modalState() {}

func (s *BranchPickerState) Title() string { return "Branch with Model" }

func (s *BranchPickerState) Help() string {
	return "↑/↓ select  Enter: branch  Esc: cancel"
}

func (s *BranchPickerState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	var list strings.Builder
	if len(s.Models) == 0 {
		list.WriteString(lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Render("No models available. Configure one with ctrl+o first."))
	} else {
		for i, m := range s.Models {
			style := SidebarItemStyle
			prefix := "  "
			if i == s.SelectedIndex {
				style = SidebarSelectedStyle
				prefix = "> "
			}
			list.WriteString(style.Render(prefix + m.Name))
			list.WriteString("  ")
			list.WriteString(lipgloss.NewStyle().Foreground(ColorTextMuted).Render(m.Provider))
			list.WriteString("\n")
		}
	}

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, list.String(), help)
}

func (s *BranchPickerState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Up, "k":
			if s.SelectedIndex > 0 {
				s.SelectedIndex--
			}
		case keys.Down, "j":
			if s.SelectedIndex < len(s.Models)-1 {
				s.SelectedIndex++
			}
		}
	}
	return s, nil
}

// Selected returns the chosen model, or nil when none are available.
func (s *BranchPickerState) Selected() *config.Model {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Models) {
		return nil
	}
	return &s.Models[s.SelectedIndex]
}

// NewBranchPickerState creates the model picker for re-branching. Only
// complete, enabled models should be passed in.
func NewBranchPickerState(originalBranchID string, models []config.Model) *BranchPickerState {
	return &BranchPickerState{
		OriginalBranchID: originalBranchID,
		Models:           models,
	}
}

// =============================================================================
// ProviderPickerState - pick the provider for a new model
// =============================================================================

type ProviderPickerState struct {
	Providers     []string
	SelectedIndex int
}

func (*ProviderPickerState) modalState() {}

func (s *ProviderPickerState) Title() string { return "New Model" }

func (s *ProviderPickerState) Help() string {
	return "↑/↓ select  Enter: continue  Esc: cancel"
}

func (s *ProviderPickerState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	var list strings.Builder
	for i, p := range s.Providers {
		style := SidebarItemStyle
		prefix := "  "
		if i == s.SelectedIndex {
			style = SidebarSelectedStyle
			prefix = "> "
		}
		list.WriteString(style.Render(prefix + providerLabel(p)))
		list.WriteString("\n")
	}

	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, list.String(), help)
}

func (s *ProviderPickerState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Up, "k":
			if s.SelectedIndex > 0 {
				s.SelectedIndex--
			}
		case keys.Down, "j":
			if s.SelectedIndex < len(s.Providers)-1 {
				s.SelectedIndex++
			}
		}
	}
	return s, nil
}

// Selected returns the chosen provider identifier.
func (s *ProviderPickerState) Selected() string {
	return s.Providers[s.SelectedIndex]
}

func providerLabel(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return "OpenAI compatible"
	case config.ProviderGemini:
		return "Google Gemini"
	case config.ProviderAzure:
		return "Azure OpenAI"
	}
	return provider
}

func NewProviderPickerState() *ProviderPickerState {
	return &ProviderPickerState{
		Providers: []string{
			config.ProviderOpenAI,
			config.ProviderGemini,
			config.ProviderAzure,
		},
	}
}
