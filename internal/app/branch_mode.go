package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/chat"
	"github.com/wookiisky/think-bot/internal/clipboard"
	"github.com/wookiisky/think-bot/internal/keys"
	"github.com/wookiisky/think-bot/internal/logger"
	"github.com/wookiisky/think-bot/internal/ui"
)

// Branch mode is a lightweight cursor over the branches of the last turn:
// ctrl+b enters it, up/down pick a branch, and single keys act on it.

func (m *Model) enterBranchMode() (tea.Model, tea.Cmd) {
	turn := m.chat.Conversation().LastTurn()
	if turn == nil || len(turn.Branches) == 0 {
		return m, nil
	}
	m.branchMode = true
	m.branchIndex = 0
	m.chat.SetSelectedBranch(turn.Branches[0].ID)
	return m, nil
}

func (m *Model) exitBranchMode() {
	m.branchMode = false
	m.chat.SetSelectedBranch("")
}

// selectedTurnBranch returns the turn and branch under the cursor, exiting
// branch mode if the selection no longer exists.
func (m *Model) selectedTurnBranch() (*chat.Turn, *chat.Branch) {
	turn := m.chat.Conversation().LastTurn()
	if turn == nil || len(turn.Branches) == 0 {
		m.exitBranchMode()
		return nil, nil
	}
	if m.branchIndex >= len(turn.Branches) {
		m.branchIndex = len(turn.Branches) - 1
	}
	return turn, &turn.Branches[m.branchIndex]
}

func (m *Model) handleBranchModeKey(key string) (tea.Model, tea.Cmd) {
	turn, branch := m.selectedTurnBranch()
	if branch == nil {
		return m, nil
	}

	switch key {
	case keys.Escape, keys.CtrlB:
		m.exitBranchMode()
		return m, nil

	case keys.Up, "k", keys.Left, "h":
		if m.branchIndex > 0 {
			m.branchIndex--
		}
		m.chat.SetSelectedBranch(turn.Branches[m.branchIndex].ID)
		return m, nil

	case keys.Down, "j", keys.Right, "l":
		if m.branchIndex < len(turn.Branches)-1 {
			m.branchIndex++
		}
		m.chat.SetSelectedBranch(turn.Branches[m.branchIndex].ID)
		return m, nil

	case "y":
		if branch.Status == chat.BranchDone {
			if err := clipboard.WriteText(branch.Content); err != nil {
				m.footer.SetFlash("Clipboard unavailable", ui.FlashWarning)
			} else {
				m.footer.SetFlash("Copied response text", ui.FlashSuccess)
			}
			return m, ui.FlashTick()
		}
		return m, nil

	case "Y":
		if branch.Status == chat.BranchDone {
			if err := clipboard.WriteMarkdown(branch.Content); err != nil {
				m.footer.SetFlash("Clipboard unavailable", ui.FlashWarning)
			} else {
				m.footer.SetFlash("Copied markdown", ui.FlashSuccess)
			}
			return m, ui.FlashTick()
		}
		return m, nil

	case "r":
		return m.retryBranch(branch)

	case "b":
		if branch.IsLoading() {
			return m, nil
		}
		m.exitBranchMode()
		m.modal.Show(ui.NewBranchPickerState(branch.ID, m.ActiveModels()))
		return m, nil

	case "d":
		return m.confirmDeleteBranch(branch)

	case "p", keys.Enter:
		m.exitBranchMode()
		m.modal.Show(ui.NewPreviewState(
			m.config.ResolveModelDisplayName(branch.Model),
			branch.Content, m.width, m.height,
		))
		return m, nil

	case "u":
		// Show what was actually sent, including quick-input send text
		// hidden behind its display label.
		m.exitBranchMode()
		m.modal.Show(ui.NewUserMessagePreviewState(turn.User, m.width, m.height))
		return m, nil
	}
	return m, nil
}

// retryBranch replaces a settled branch with a fresh request to the same
// model. Loading branches are not retryable.
func (m *Model) retryBranch(branch *chat.Branch) (tea.Model, tea.Cmd) {
	if branch.IsLoading() {
		return m, nil
	}
	model := m.config.FindModel(branch.Model)
	if model == nil || !model.IsComplete() {
		m.footer.SetFlash("Model is no longer configured", ui.FlashWarning)
		return m, ui.FlashTick()
	}

	conv := m.chat.Conversation()
	fresh := conv.AddBranch(branch.ID, branch.Model)
	if fresh == nil {
		return m, nil
	}
	conv.DeleteBranch(branch.ID)
	m.chat.SetSelectedBranch(fresh.ID)
	m.chat.BeginStreaming()

	logger.Info("App: retrying branch with model %s", branch.Model)
	return m, tea.Batch(
		m.startBranch(*fresh, *model),
		ui.StopwatchTick(),
		m.requestSave(),
	)
}

// confirmDeleteBranch asks before removing a branch. Branch mode stays
// active; the modal swallows keys until the dialog resolves.
func (m *Model) confirmDeleteBranch(branch *chat.Branch) (tea.Model, tea.Cmd) {
	id := branch.ID
	message := "Delete this response? This cannot be undone."
	if branch.IsLoading() {
		message = "Stop generating and delete this response?"
	}
	m.modal.Show(ui.NewConfirmState(ui.ConfirmOptions{
		Title:        "Delete Response",
		Message:      message,
		ConfirmLabel: "Delete",
		OnConfirm: func() tea.Msg {
			return branchDeleteMsg{BranchID: id}
		},
	}))
	return m, nil
}

// branchDeleteMsg is internal: emitted when the delete-branch confirm
// resolves.
type branchDeleteMsg struct {
	BranchID string
}

// deleteBranch removes a branch; a loading branch is cancelled first and its
// eventual stream result dropped.
func (m *Model) deleteBranch(branchID string) (tea.Model, tea.Cmd) {
	conv := m.chat.Conversation()
	if b, ok := conv.FindBranch(branchID); ok && b.IsLoading() {
		m.engine.Cancel(branchID)
		delete(m.streams, branchID)
		if len(m.streams) == 0 {
			m.setState(StateIdle)
		}
	}

	_, turnRemoved := conv.DeleteBranch(branchID)
	if turnRemoved && conv.Len() == 0 {
		delete(m.autoTriggered, tabMarker(m.currentURL, m.currentTab))
	}

	if turn := conv.LastTurn(); turn == nil || len(turn.Branches) == 0 {
		m.exitBranchMode()
	} else {
		if m.branchIndex >= len(turn.Branches) {
			m.branchIndex = len(turn.Branches) - 1
		}
		m.chat.SetSelectedBranch(turn.Branches[m.branchIndex].ID)
	}

	m.chat.Refresh()
	return m, m.requestSave()
}
