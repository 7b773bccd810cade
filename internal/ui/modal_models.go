package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	huh "charm.land/huh/v2"
	"charm.land/lipgloss/v2"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/keys"
)

// =============================================================================
// ModelListState - the model manager list
// =============================================================================

type ModelListState struct {
	Models        []config.Model
	SelectedIndex int
}

func (*ModelListState) modalState() {}

func (s *ModelListState) Title() string { return "Models" }

func (s *ModelListState) Help() string {
	return "↑/↓ select  a: add  e: edit  c: copy  d: delete  space: toggle  ctrl+↑/↓ reorder  Esc: close"
}

func (s *ModelListState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	var list strings.Builder
	if len(s.Models) == 0 {
		list.WriteString(lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Render("No models configured. Press 'a' to add one."))
	} else {
		for i, m := range s.Models {
			style := SidebarItemStyle
			prefix := "  "
			if i == s.SelectedIndex {
				style = SidebarSelectedStyle
				prefix = "> "
			}
			check := "[ ]"
			if m.Enabled {
				check = "[x]"
			}
			name := m.Name
			if name == "" {
				name = "(unnamed)"
			}
			line := fmt.Sprintf("%s%s %s", prefix, check, name)
			list.WriteString(style.Render(line))
			list.WriteString("  ")
			list.WriteString(lipgloss.NewStyle().Foreground(ColorTextMuted).Render(m.Provider))
			if !m.IsComplete() {
				list.WriteString(lipgloss.NewStyle().Foreground(ColorWarning).Render(" incomplete"))
			}
			list.WriteString("\n")
		}
	}

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, list.String(), help)
}

func (s *ModelListState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
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

// Selected returns the highlighted model, or nil when the list is empty.
func (s *ModelListState) Selected() *config.Model {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Models) {
		return nil
	}
	return &s.Models[s.SelectedIndex]
}

// SetModels refreshes the list after a manager change, keeping the selection
// in range.
func (s *ModelListState) SetModels(models []config.Model) {
	s.Models = models
	if s.SelectedIndex >= len(models) {
		s.SelectedIndex = len(models) - 1
	}
	if s.SelectedIndex < 0 {
		s.SelectedIndex = 0
	}
}

// NewModelListState creates the model manager list modal.
func NewModelListState(models []config.Model) *ModelListState {
	return &ModelListState{Models: models}
}

// =============================================================================
// ModelEditState - add/edit a model via a huh form
// =============================================================================

type ModelEditState struct {
	Model config.Model
	IsNew bool

	// string shadows for numeric form fields
	maxTokens      string
	temperature    string
	thinkingBudget string
	enabled        bool

	form *huh.Form
}

func (*ModelEditState) modalState() {}

func (s *ModelEditState) Title() string {
	if s.IsNew {
		return "Add Model"
	}
	return "Edit Model"
}

func (s *ModelEditState) Help() string {
	return "Tab: next field  Enter: save  Esc: cancel"
}

func (s *ModelEditState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.form.View(), help)
}

func (s *ModelEditState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.form, cmd = huhFormUpdate(s.form, msg)
	return s, cmd
}

// Result applies the form fields back onto the model and returns it.
// Numeric shadows that fail to parse are left at zero, meaning "use the
// provider default".
func (s *ModelEditState) Result() config.Model {
	m := s.Model
	m.Enabled = s.enabled
	m.MaxTokens, _ = strconv.Atoi(strings.TrimSpace(s.maxTokens))
	if t, err := strconv.ParseFloat(strings.TrimSpace(s.temperature), 64); err == nil {
		m.Temperature = t
	} else {
		m.Temperature = 0
	}
	m.ThinkingBudget, _ = strconv.Atoi(strings.TrimSpace(s.thinkingBudget))
	return m
}

func validateNumber(label string) func(string) error {
	return func(v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("%s must be a number", label)
		}
		return nil
	}
}

// NewModelEditState creates the add/edit form for a model. The provider is
// fixed at creation time; provider-specific connection fields are shown
// conditionally.
func NewModelEditState(model config.Model, isNew bool) *ModelEditState {
	s := &ModelEditState{
		Model:   model,
		IsNew:   isNew,
		enabled: model.Enabled,
	}
	if model.MaxTokens > 0 {
		s.maxTokens = strconv.Itoa(model.MaxTokens)
	}
	if model.Temperature > 0 {
		s.temperature = strconv.FormatFloat(model.Temperature, 'f', -1, 64)
	}
	if model.ThinkingBudget > 0 {
		s.thinkingBudget = strconv.Itoa(model.ThinkingBudget)
	}

	isAzure := model.Provider == config.ProviderAzure
	isGemini := model.Provider == config.ProviderGemini

	commonGroup := huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Description("Display name shown on branches").
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.Name),
		huh.NewInput().
			Title("API key").
			EchoMode(huh.EchoModePassword).
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.APIKey),
	)

	openaiGroup := huh.NewGroup(
		huh.NewInput().
			Title("Base URL").
			Placeholder("https://api.openai.com/v1").
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.BaseURL),
		huh.NewInput().
			Title("Model").
			Placeholder("gpt-4o").
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.Model),
	).WithHideFunc(func() bool { return isAzure || isGemini })

	geminiGroup := huh.NewGroup(
		huh.NewInput().
			Title("Model").
			Placeholder("gemini-2.0-flash").
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.Model),
		huh.NewInput().
			Title("Thinking budget").
			Description("Token budget for reasoning, 0 disables").
			Validate(validateNumber("thinking budget")).
			Value(&s.thinkingBudget),
	).WithHideFunc(func() bool { return !isGemini })

	azureGroup := huh.NewGroup(
		huh.NewInput().
			Title("Endpoint").
			Placeholder("https://myresource.openai.azure.com").
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.Endpoint),
		huh.NewInput().
			Title("Deployment name").
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.DeploymentName),
		huh.NewInput().
			Title("API version").
			Placeholder("2024-10-21").
			CharLimit(ModalInputCharLimit).
			Value(&s.Model.APIVersion),
	).WithHideFunc(func() bool { return !isAzure })

	tuningGroup := huh.NewGroup(
		huh.NewInput().
			Title("Max tokens").
			Description("0 uses the provider default").
			Validate(validateNumber("max tokens")).
			Value(&s.maxTokens),
		huh.NewInput().
			Title("Temperature").
			Placeholder("0.7").
			Value(&s.temperature),
		huh.NewConfirm().
			Title("Enabled").
			Affirmative("Yes").
			Negative("No").
			Value(&s.enabled),
	)

	s.form = huh.NewForm(commonGroup, openaiGroup, geminiGroup, azureGroup, tuningGroup).
		WithTheme(modalTheme()).
		WithShowHelp(false).
		WithWidth(ModalInputWidth).
		WithLayout(huh.LayoutStack)

	initHuhForm(s.form)
	return s
}
