package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/keys"
	"github.com/wookiisky/think-bot/internal/ui"
)

// settingsDeleteMsg is emitted when a settings-delete confirm resolves.
type settingsDeleteMsg struct {
	ModelID      string
	QuickInputID string
}

func (m *Model) handleModalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch state := m.modal.State.(type) {
	case *ui.ConfirmState:
		switch key {
		case keys.Enter:
			cmd := state.Resolve(state.ConfirmSelected())
			m.modal.Hide()
			return m, cmd
		case keys.Escape:
			cmd := state.Resolve(false)
			m.modal.Hide()
			return m, cmd
		}

	case *ui.ModelListState:
		return m.handleModelListKey(state, key, msg)

	case *ui.ModelEditState:
		return m.handleModelEditKey(state, key, msg)

	case *ui.QuickInputListState:
		return m.handleQuickInputListKey(state, key, msg)

	case *ui.QuickInputEditState:
		return m.handleQuickInputEditKey(state, key, msg)

	case *ui.ProviderPickerState:
		switch key {
		case keys.Enter:
			provider := state.Selected()
			m.modal.Show(ui.NewModelEditState(config.NewModel(provider), true))
			return m, nil
		case keys.Escape:
			m.modal.Show(ui.NewModelListState(m.models.Visible()))
			return m, nil
		}

	case *ui.BranchPickerState:
		switch key {
		case keys.Enter:
			model := state.Selected()
			m.modal.Hide()
			if model == nil {
				return m, nil
			}
			return m.branchWithModel(state.OriginalBranchID, *model)
		case keys.Escape:
			m.modal.Hide()
			return m, nil
		}

	case *ui.ImportConfirmState:
		switch key {
		case keys.Enter:
			apply := state.ImportSelected()
			result := state.Result
			m.modal.Hide()
			if apply {
				return m.applyImport(result)
			}
			return m, nil
		case keys.Escape:
			m.modal.Hide()
			return m, nil
		}

	case *ui.OpenURLState:
		switch key {
		case keys.Enter:
			url := state.URL()
			m.modal.Hide()
			if url == "" {
				return m, nil
			}
			return m.openPage(url)
		case keys.Escape:
			m.modal.Hide()
			return m, nil
		}

	case *ui.PreviewState, *ui.UserMessagePreviewState:
		switch key {
		case keys.Escape, keys.Enter, "q":
			m.modal.Hide()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleModelListKey(state *ui.ModelListState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Escape:
		m.modal.Hide()
		m.flushSettings()
		return m, nil

	case "a":
		m.modal.Show(ui.NewProviderPickerState())
		return m, nil

	case "e", keys.Enter:
		if sel := state.Selected(); sel != nil {
			m.modal.Show(ui.NewModelEditState(*sel, false))
		}
		return m, nil

	case "c":
		if sel := state.Selected(); sel != nil {
			m.models.Copy(sel.ID)
			state.SetModels(m.models.Visible())
		}
		return m, nil

	case keys.Space:
		if sel := state.Selected(); sel != nil {
			m.models.SetEnabled(sel.ID, !sel.Enabled)
			state.SetModels(m.models.Visible())
		}
		return m, nil

	case "d":
		if sel := state.Selected(); sel != nil {
			id := sel.ID
			name := sel.Name
			if name == "" {
				name = "this model"
			}
			m.modal.Show(ui.NewConfirmState(ui.ConfirmOptions{
				Title:        "Delete Model",
				Message:      "Delete " + name + "? Conversations keep its past responses.",
				ConfirmLabel: "Delete",
				OnConfirm: func() tea.Msg {
					return settingsDeleteMsg{ModelID: id}
				},
			}))
		}
		return m, nil

	case keys.CtrlUp:
		if m.models.Reorder(state.SelectedIndex, state.SelectedIndex-1) {
			state.SelectedIndex--
			state.SetModels(m.models.Visible())
		}
		return m, nil

	case keys.CtrlDown:
		if m.models.Reorder(state.SelectedIndex, state.SelectedIndex+1) {
			state.SelectedIndex++
			state.SetModels(m.models.Visible())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleModelEditKey(state *ui.ModelEditState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Escape:
		m.modal.Show(ui.NewModelListState(m.models.Visible()))
		return m, nil

	case keys.Enter:
		edited := state.Result()
		if state.IsNew {
			m.models.Insert(edited)
		} else {
			m.models.Update(edited)
		}
		m.modal.Show(ui.NewModelListState(m.models.Visible()))
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleQuickInputListKey(state *ui.QuickInputListState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Escape:
		m.modal.Hide()
		m.flushSettings()
		m.chat.SetQuickInputs(m.quickInputs.Visible())
		return m, nil

	case "a":
		m.modal.Show(ui.NewQuickInputEditState(config.NewQuickInput(), true, m.models.Complete()))
		return m, nil

	case "e", keys.Enter:
		if sel := state.Selected(); sel != nil {
			m.modal.Show(ui.NewQuickInputEditState(*sel, false, m.models.Complete()))
		}
		return m, nil

	case "d":
		if sel := state.Selected(); sel != nil {
			id := sel.ID
			label := sel.DisplayText
			if label == "" {
				label = "this quick input"
			}
			m.modal.Show(ui.NewConfirmState(ui.ConfirmOptions{
				Title:        "Delete Quick Input",
				Message:      "Delete " + label + "?",
				ConfirmLabel: "Delete",
				OnConfirm: func() tea.Msg {
					return settingsDeleteMsg{QuickInputID: id}
				},
			}))
		}
		return m, nil

	case keys.CtrlUp:
		if m.quickInputs.Reorder(state.SelectedIndex, state.SelectedIndex-1) {
			state.SelectedIndex--
			state.SetInputs(m.quickInputs.Visible())
		}
		return m, nil

	case keys.CtrlDown:
		if m.quickInputs.Reorder(state.SelectedIndex, state.SelectedIndex+1) {
			state.SelectedIndex++
			state.SetInputs(m.quickInputs.Visible())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleQuickInputEditKey(state *ui.QuickInputEditState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Escape:
		m.modal.Show(ui.NewQuickInputListState(m.quickInputs.Visible()))
		return m, nil

	case keys.Enter:
		edited := state.Result()
		if state.IsNew {
			m.quickInputs.Insert(edited)
		} else {
			m.quickInputs.Update(edited)
		}
		m.chat.SetQuickInputs(m.quickInputs.Visible())
		m.modal.Show(ui.NewQuickInputListState(m.quickInputs.Visible()))
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

// handleSettingsDelete runs after a delete confirm resolves; it reopens the
// list the delete came from.
func (m *Model) handleSettingsDelete(msg settingsDeleteMsg) (tea.Model, tea.Cmd) {
	if msg.ModelID != "" {
		m.models.Remove(msg.ModelID)
		m.modal.Show(ui.NewModelListState(m.models.Visible()))
	}
	if msg.QuickInputID != "" {
		m.quickInputs.Remove(msg.QuickInputID)
		m.chat.SetQuickInputs(m.quickInputs.Visible())
		m.modal.Show(ui.NewQuickInputListState(m.quickInputs.Visible()))
	}
	return m, nil
}

// branchWithModel adds a parallel branch to the turn owning the original
// branch and starts its stream.
func (m *Model) branchWithModel(originalBranchID string, model config.Model) (tea.Model, tea.Cmd) {
	conv := m.chat.Conversation()
	fresh := conv.AddBranch(originalBranchID, model.ID)
	if fresh == nil {
		m.footer.SetFlash("Branch no longer exists", ui.FlashWarning)
		return m, ui.FlashTick()
	}
	m.chat.BeginStreaming()
	return m, tea.Batch(
		m.startBranch(*fresh, model),
		ui.StopwatchTick(),
		m.requestSave(),
	)
}

// applyImport replaces local settings with the imported snapshot and reloads
// the managers.
func (m *Model) applyImport(result *config.ImportResult) (tea.Model, tea.Cmd) {
	if result == nil {
		return m, nil
	}
	result.Apply(m.config)
	if err := m.config.Save(); err != nil {
		m.footer.SetFlash("Import saved partially: "+err.Error(), ui.FlashWarning)
		return m, ui.FlashTick()
	}
	m.reloadManagers()
	m.footer.SetFlash("Settings imported", ui.FlashSuccess)
	return m, ui.FlashTick()
}
