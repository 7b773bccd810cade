package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	huh "charm.land/huh/v2"
	"charm.land/lipgloss/v2"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/keys"
)

// =============================================================================
// QuickInputListState - the quick-input manager list
// =============================================================================

type QuickInputListState struct {
	Inputs        []config.QuickInput
	SelectedIndex int
}

func (*QuickInputListState) modalState() {}

func (s *QuickInputListState) Title() string { return "Quick Inputs" }

func (s *QuickInputListState) Help() string {
	return "↑/↓ select  a: add  e: edit  d: delete  ctrl+↑/↓ reorder  Esc: close"
}

func (s *QuickInputListState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	var list strings.Builder
	if len(s.Inputs) == 0 {
		list.WriteString(lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Render("No quick inputs. Press 'a' to add one."))
	} else {
		for i, qi := range s.Inputs {
			style := SidebarItemStyle
			prefix := "  "
			if i == s.SelectedIndex {
				style = SidebarSelectedStyle
				prefix = "> "
			}
			label := qi.DisplayText
			if label == "" {
				label = "(untitled)"
			}
			list.WriteString(style.Render(prefix + label))
			if qi.AutoTrigger {
				list.WriteString(lipgloss.NewStyle().Foreground(ColorSecondary).Render(" auto"))
			}
			list.WriteString("\n")
		}
	}

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, list.String(), help)
}

func (s *QuickInputListState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Up, "k":
			if s.SelectedIndex > 0 {
				s.SelectedIndex--
			}
		case keys.Down, "j":
			if s.SelectedIndex < len(s.Inputs)-1 {
				s.SelectedIndex++
			}
		}
	}
	return s, nil
}

// Selected returns the highlighted quick input, or nil when the list is
// empty.
func (s *QuickInputListState) Selected() *config.QuickInput {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Inputs) {
		return nil
	}
	return &s.Inputs[s.SelectedIndex]
}

// SetInputs refreshes the list after a manager change, keeping the selection
// in range.
func (s *QuickInputListState) SetInputs(inputs []config.QuickInput) {
	s.Inputs = inputs
	if s.SelectedIndex >= len(inputs) {
		s.SelectedIndex = len(inputs) - 1
	}
	if s.SelectedIndex < 0 {
		s.SelectedIndex = 0
	}
}

// NewQuickInputListState creates the quick-input manager list modal.
func NewQuickInputListState(inputs []config.QuickInput) *QuickInputListState {
	return &QuickInputListState{Inputs: inputs}
}

// =============================================================================
// QuickInputEditState - add/edit a quick input via a huh form
// =============================================================================

type QuickInputEditState struct {
	Input config.QuickInput
	IsNew bool

	autoTrigger bool
	modelIDs    []string // MultiSelect binding; empty means all active models

	form *huh.Form
}

func (*QuickInputEditState) modalState() {}

func (s *QuickInputEditState) Title() string {
	if s.IsNew {
		return "Add Quick Input"
	}
	return "Edit Quick Input"
}

func (s *QuickInputEditState) Help() string {
	return "Tab: next field  Enter: save  Esc: cancel"
}

func (s *QuickInputEditState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.form.View(), help)
}

func (s *QuickInputEditState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.form, cmd = huhFormUpdate(s.form, msg)
	return s, cmd
}

// Result applies the form fields back onto the quick input and returns it.
func (s *QuickInputEditState) Result() config.QuickInput {
	qi := s.Input
	qi.AutoTrigger = s.autoTrigger
	qi.BranchModelIDs = s.modelIDs
	return qi
}

// NewQuickInputEditState creates the add/edit form for a quick input.
// models lists the complete models selectable for the branch restriction.
func NewQuickInputEditState(input config.QuickInput, isNew bool, models []config.Model) *QuickInputEditState {
	s := &QuickInputEditState{
		Input:       input,
		IsNew:       isNew,
		autoTrigger: input.AutoTrigger,
		modelIDs:    input.BranchModelIDs,
	}

	modelOpts := make([]huh.Option[string], len(models))
	for i, m := range models {
		modelOpts[i] = huh.NewOption(m.Name, m.ID).
			Selected(input.AllowsModel(m.ID) && len(input.BranchModelIDs) > 0)
	}

	mainGroup := huh.NewGroup(
		huh.NewInput().
			Title("Button label").
			Description("Shown on the button and in the chat").
			CharLimit(ModalInputCharLimit).
			Value(&s.Input.DisplayText),
		huh.NewText().
			Title("Message").
			Description("Sent to the models; {CONTENT} inserts the page text").
			CharLimit(0).
			Value(&s.Input.SendText),
		huh.NewConfirm().
			Title("Auto trigger").
			Description("Fire automatically when the tab is first opened").
			Affirmative("Yes").
			Negative("No").
			Value(&s.autoTrigger),
	)

	modelGroup := huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Models").
			Description("Leave empty to use all enabled models").
			Options(modelOpts...).
			Height(len(modelOpts)).
			Value(&s.modelIDs),
	).WithHideFunc(func() bool { return len(models) == 0 })

	s.form = huh.NewForm(mainGroup, modelGroup).
		WithTheme(modalTheme()).
		WithShowHelp(false).
		WithWidth(ModalInputWidth).
		WithLayout(huh.LayoutStack)

	initHuhForm(s.form)
	return s
}
