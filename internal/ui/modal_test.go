package ui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/config"
)

func TestNewModal(t *testing.T) {
	modal := NewModal()

	if modal == nil {
		t.Fatal("NewModal() returned nil")
	}

	if modal.IsVisible() {
		t.Error("New modal should not be visible")
	}
}

func TestModal_ShowHide(t *testing.T) {
	modal := NewModal()

	modal.Show(NewOpenURLState())

	if !modal.IsVisible() {
		t.Error("Modal should be visible after Show")
	}

	modal.Hide()

	if modal.IsVisible() {
		t.Error("Modal should not be visible after Hide")
	}
	if modal.State != nil {
		t.Error("Modal state should be nil after Hide")
	}
}

func TestModal_Error(t *testing.T) {
	modal := NewModal()

	if modal.GetError() != "" {
		t.Error("New modal should have no error")
	}

	modal.SetError("Something went wrong")
	if modal.GetError() != "Something went wrong" {
		t.Errorf("GetError() = %q", modal.GetError())
	}

	modal.Show(NewOpenURLState())
	if modal.GetError() != "" {
		t.Error("Show should clear the error")
	}
}

func TestConfirmState_ResolveOnce(t *testing.T) {
	confirmRan := false
	cancelRan := false

	state := NewConfirmState(ConfirmOptions{
		Title:     "Clear chat",
		Message:   "Delete all messages for this page?",
		OnConfirm: func() tea.Msg { confirmRan = true; return nil },
		OnCancel:  func() tea.Msg { cancelRan = true; return nil },
	})

	cmd := state.Resolve(true)
	if cmd == nil {
		t.Fatal("first Resolve should return the confirm callback")
	}
	cmd()

	if !confirmRan {
		t.Error("confirm callback should have run")
	}
	if cancelRan {
		t.Error("cancel callback should not have run")
	}

	if again := state.Resolve(false); again != nil {
		t.Error("second Resolve should return nil")
	}
}

func TestConfirmState_CancelCallback(t *testing.T) {
	cancelRan := false

	state := NewConfirmState(ConfirmOptions{
		Title:    "Clear chat",
		OnCancel: func() tea.Msg { cancelRan = true; return nil },
	})

	cmd := state.Resolve(false)
	if cmd == nil {
		t.Fatal("Resolve(false) should return the cancel callback")
	}
	cmd()

	if !cancelRan {
		t.Error("cancel callback should have run")
	}
}

func TestModal_ReentrantConfirmShowIgnored(t *testing.T) {
	modal := NewModal()

	first := NewConfirmState(ConfirmOptions{Title: "first"})
	modal.Show(first)

	second := NewConfirmState(ConfirmOptions{Title: "second"})
	modal.Show(second)

	got, ok := modal.State.(*ConfirmState)
	if !ok {
		t.Fatal("modal state should still be a ConfirmState")
	}
	if got != first {
		t.Error("re-entrant Show should keep the first confirm dialog")
	}
}

func TestConfirmState_DefaultsToCancel(t *testing.T) {
	state := NewConfirmState(ConfirmOptions{Title: "Clear chat"})

	if state.ConfirmSelected() {
		t.Error("cancel should be preselected")
	}

	state.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	if !state.ConfirmSelected() {
		t.Error("left should move selection to confirm")
	}
}

func TestModelListState_Selection(t *testing.T) {
	models := []config.Model{
		{ID: "a", Name: "GPT-4o", Provider: config.ProviderOpenAI},
		{ID: "b", Name: "Gemini", Provider: config.ProviderGemini},
	}
	state := NewModelListState(models)

	if state.Selected() == nil || state.Selected().ID != "a" {
		t.Fatal("first model should be selected initially")
	}

	state.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if state.Selected().ID != "b" {
		t.Error("down should select the second model")
	}

	state.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if state.Selected().ID != "b" {
		t.Error("selection should not move past the end")
	}
}

func TestModelListState_SetModelsClampsSelection(t *testing.T) {
	state := NewModelListState([]config.Model{
		{ID: "a", Name: "One"},
		{ID: "b", Name: "Two"},
	})
	state.SelectedIndex = 1

	state.SetModels([]config.Model{{ID: "a", Name: "One"}})

	if state.SelectedIndex != 0 {
		t.Errorf("SelectedIndex = %d, want 0", state.SelectedIndex)
	}
}

func TestModelEditState_Result(t *testing.T) {
	model := config.NewModel(config.ProviderOpenAI)
	state := NewModelEditState(model, true)

	state.maxTokens = "8192"
	state.temperature = "0.3"
	state.enabled = false

	result := state.Result()
	if result.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", result.MaxTokens)
	}
	if result.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", result.Temperature)
	}
	if result.Enabled {
		t.Error("Enabled should be false")
	}
}

func TestModelEditState_BadNumbersFallBack(t *testing.T) {
	state := NewModelEditState(config.NewModel(config.ProviderGemini), true)
	state.maxTokens = "lots"
	state.temperature = "warm"

	result := state.Result()
	if result.MaxTokens != 0 {
		t.Errorf("MaxTokens = %d, want 0", result.MaxTokens)
	}
	if result.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", result.Temperature)
	}
}

func TestQuickInputEditState_Result(t *testing.T) {
	qi := config.NewQuickInput()
	qi.DisplayText = "Summarize"
	qi.SendText = "Summarize: {CONTENT}"

	state := NewQuickInputEditState(qi, false, nil)
	state.autoTrigger = true
	state.modelIDs = []string{"m1"}

	result := state.Result()
	if !result.AutoTrigger {
		t.Error("AutoTrigger should be true")
	}
	if len(result.BranchModelIDs) != 1 || result.BranchModelIDs[0] != "m1" {
		t.Errorf("BranchModelIDs = %v", result.BranchModelIDs)
	}
	if result.DisplayText != "Summarize" {
		t.Errorf("DisplayText = %q", result.DisplayText)
	}
}

func TestBranchPickerState_Selected(t *testing.T) {
	state := NewBranchPickerState("branch-1", []config.Model{
		{ID: "a", Name: "One"},
		{ID: "b", Name: "Two"},
	})

	state.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if got := state.Selected(); got == nil || got.ID != "b" {
		t.Errorf("Selected() = %v, want model b", got)
	}
}

func TestBranchPickerState_EmptyModels(t *testing.T) {
	state := NewBranchPickerState("branch-1", nil)

	if state.Selected() != nil {
		t.Error("Selected() should be nil with no models")
	}
	if !strings.Contains(state.Render(), "No models") {
		t.Error("Render should mention there are no models")
	}
}

func TestOpenURLState_DefaultsScheme(t *testing.T) {
	state := NewOpenURLState()
	state.Input.SetValue("example.com/post")

	if got := state.URL(); got != "https://example.com/post" {
		t.Errorf("URL() = %q", got)
	}

	state.Input.SetValue("http://example.com")
	if got := state.URL(); got != "http://example.com" {
		t.Errorf("URL() = %q, scheme should be kept", got)
	}

	state.Input.SetValue("  ")
	if got := state.URL(); got != "" {
		t.Errorf("URL() = %q, want empty", got)
	}
}
