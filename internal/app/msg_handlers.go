package app

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/chat"
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/extract"
	"github.com/wookiisky/think-bot/internal/llm"
	"github.com/wookiisky/think-bot/internal/logger"
	"github.com/wookiisky/think-bot/internal/notification"
	"github.com/wookiisky/think-bot/internal/settings"
	"github.com/wookiisky/think-bot/internal/storage"
	"github.com/wookiisky/think-bot/internal/ui"
)

func (m *Model) handleStreamChunk(msg StreamChunkMsg) (tea.Model, tea.Cmd) {
	stream, known := m.streams[msg.BranchID]
	if !known {
		// Branch was deleted while streaming; drop the chunk.
		logger.Debug("App: dropping chunk for unknown branch %s", msg.BranchID)
		return m, nil
	}

	if !m.chat.Conversation().AppendChunk(msg.BranchID, msg.Content) {
		logger.Debug("App: conversation rejected chunk for branch %s", msg.BranchID)
	}
	m.chat.Refresh()

	return m, tea.Batch(
		m.listenForBranch(msg.BranchID, stream.ch),
		m.requestSave(),
	)
}

func (m *Model) handleStreamEnd(msg StreamEndMsg) (tea.Model, tea.Cmd) {
	stream, known := m.streams[msg.BranchID]
	delete(m.streams, msg.BranchID)

	conv := m.chat.Conversation()
	conv.FinishBranch(msg.BranchID)
	m.chat.Refresh()

	if len(m.streams) == 0 {
		m.setState(StateIdle)
	}

	var cmds []tea.Cmd
	if known && !m.terminalFocused && m.config.GetBasic().NotificationsEnabled {
		modelName := m.config.ResolveModelDisplayName(stream.model.ID)
		if err := notification.BranchCompleted(modelName); err != nil {
			logger.Debug("App: notification failed: %v", err)
		}
	}
	cmds = append(cmds, m.requestSave(), m.refreshUsageCmd())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	stream, known := m.streams[msg.BranchID]
	delete(m.streams, msg.BranchID)

	conv := m.chat.Conversation()
	conv.FailBranch(msg.BranchID, msg.Err.Error())
	m.chat.Refresh()

	if len(m.streams) == 0 {
		m.setState(StateIdle)
	}

	if known && !m.terminalFocused && m.config.GetBasic().NotificationsEnabled {
		modelName := m.config.ResolveModelDisplayName(stream.model.ID)
		if err := notification.BranchFailed(modelName); err != nil {
			logger.Debug("App: notification failed: %v", err)
		}
	}
	return m, m.requestSave()
}

func (m *Model) handlePageInfo(msg PageInfoMsg) (tea.Model, tea.Cmd) {
	m.tracker.Finish(msg.URL, msg.Tab)
	m.clearLoadingState(msg.URL, msg.Tab)

	if msg.URL != m.currentURL {
		// A stale extraction for a page we already left; cache it and move on.
		m.cachePageContent(msg.URL, msg.Content)
		return m, nil
	}

	m.currentTitle = msg.Title
	m.header.SetPage(msg.Title, msg.URL)
	m.chat.SetPageContent(msg.Content)
	m.cachePageContent(msg.URL, msg.Content)

	var cmds []tea.Cmd
	cmds = append(cmds, m.touchRecentCmd(msg.URL, msg.Title), m.refreshUsageCmd())
	if cmd := m.maybeAutoTrigger(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) cachePageContent(url, content string) {
	if m.store == nil {
		return
	}
	if err := m.store.Put(storage.PageKey(url), []byte(content)); err != nil {
		logger.Warn("App: cache page content: %v", err)
	}
}

func (m *Model) handlePageInfoError(msg PageInfoErrorMsg) (tea.Model, tea.Cmd) {
	m.clearLoadingState(msg.URL, msg.Tab)

	if msg.Restricted {
		m.tracker.Restrict(msg.URL, msg.Tab)
		if msg.URL == m.currentURL {
			m.chat.SetRestricted()
		}
		return m, nil
	}

	errText := msg.Err.Error()
	if extract.IsDisconnection(msg.Err) {
		// Transient transport drop: hold the tab for a manual reload
		// instead of a hard failure.
		m.tracker.SetWaitingForReload(msg.URL, msg.Tab, true)
		errText = "connection interrupted, press ctrl+e to reload"
	}
	m.tracker.Fail(msg.URL, msg.Tab, errText)
	if msg.URL == m.currentURL {
		m.chat.SetPageError(errText)
	}
	m.footer.SetFlash("Extraction failed: "+errText, ui.FlashError)
	return m, ui.FlashTick()
}

func (m *Model) handleContentUpdated(ContentUpdatedMsg) (tea.Model, tea.Cmd) {
	return m, m.refreshUsageCmd()
}

func (m *Model) handleContentUpdateError(msg ContentUpdateErrorMsg) (tea.Model, tea.Cmd) {
	logger.Error("App: save conversation %s: %v", msg.Key, msg.Err)
	m.footer.SetFlash("Failed to save conversation", ui.FlashError)
	return m, ui.FlashTick()
}

func (m *Model) handleConfigReloaded(ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	m.reloadManagers()
	m.footer.SetFlash("Settings reloaded", ui.FlashInfo)
	return m, ui.FlashTick()
}

// reloadManagers re-seeds the settings managers and dependent UI after the
// config changed outside the managers (file watcher, sync, import).
func (m *Model) reloadManagers() {
	onChange := func(settings.ChangeKind) { m.dirty = true }
	m.models.Init(m.config, onChange)
	m.quickInputs.Init(m.config, onChange)
	m.chat.SetQuickInputs(m.quickInputs.Visible())
}

func (m *Model) handleSyncFinished(msg SyncFinishedMsg) (tea.Model, tea.Cmd) {
	m.syncing = false
	if msg.Err != nil {
		m.footer.SetFlash("Sync failed: "+msg.Err.Error(), ui.FlashError)
		return m, ui.FlashTick()
	}

	// Merge may have rewritten models and quick inputs.
	m.reloadManagers()
	m.footer.SetFlash("Sync complete", ui.FlashSuccess)
	return m, ui.FlashTick()
}

func (m *Model) handleBlacklistDetected(msg BlacklistDetectedMsg) (tea.Model, tea.Cmd) {
	logger.Log("App: %s is blacklisted (pattern %q)", msg.URL, msg.Pattern)
	if msg.URL == m.currentURL {
		m.chat.SetPageError("page is blacklisted (" + msg.Pattern + ")")
	}
	m.footer.SetFlash("Page is blacklisted", ui.FlashWarning)
	return m, ui.FlashTick()
}

func (m *Model) handleLoadingState(msg LoadingStateMsg) (tea.Model, tea.Cmd) {
	if msg.URL != m.currentURL || msg.Tab != m.currentTab {
		return m, nil
	}
	if !m.tracker.Restore(msg.URL, msg.Tab, msg.Cached) {
		return m, nil
	}
	switch msg.Cached.Status {
	case extract.CachedStatusLoading:
		m.chat.SetPageLoading(true)
	case extract.CachedStatusTimeout:
		m.chat.SetPageError(m.tracker.ErrorMessage(msg.URL, msg.Tab))
	}
	return m, nil
}

func (m *Model) handleTabChanged(msg TabChangedMsg) (tea.Model, tea.Cmd) {
	if cmd := m.maybeAutoTrigger(); cmd != nil {
		return m, cmd
	}
	return m, nil
}

// maybeAutoTrigger fires the current tab's auto-trigger quick input once per
// visit. It requires extracted page content so the trigger carries context.
func (m *Model) maybeAutoTrigger() tea.Cmd {
	if m.currentURL == "" || m.chat.PageContent() == "" {
		return nil
	}
	marker := tabMarker(m.currentURL, m.currentTab)
	if m.autoTriggered[marker] {
		return nil
	}
	if m.chat.Conversation().Len() > 0 {
		// A restored conversation counts as initialized.
		m.autoTriggered[marker] = true
		return nil
	}

	qi, ok := m.quickInputs.Get(m.currentTab)
	if !ok || !qi.AutoTrigger || qi.IsDeleted {
		return nil
	}
	m.autoTriggered[marker] = true
	return m.triggerQuickInput(qi)
}

// triggerQuickInput sends a quick input's canned message, hiding the raw
// send text behind its display label.
func (m *Model) triggerQuickInput(qi config.QuickInput) tea.Cmd {
	content := qi.SendText
	if strings.Contains(content, llm.ContentPlaceholder) {
		content = strings.ReplaceAll(content, llm.ContentPlaceholder, m.chat.PageContent())
	}
	msg := chat.UserMessage{
		Content:      content,
		DisplayText:  qi.DisplayText,
		IsQuickInput: true,
		Timestamp:    config.Now(),
	}
	return m.sendMessage(msg, qi.BranchModelIDs)
}

func (m *Model) handleSaveTick(msg SaveTickMsg) (tea.Model, tea.Cmd) {
	if msg.Generation != m.saveGeneration || !m.savePending {
		// Superseded by a newer save request.
		return m, nil
	}
	return m, m.flushSave()
}

func (m *Model) handleRecentURLs(msg RecentURLsMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Warn("App: load recent URLs: %v", msg.Err)
		return m, nil
	}
	m.sidebar.SetRecent(msg.Recent)
	return m, nil
}

func (m *Model) handleUsage(msg UsageMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Debug("App: compute usage: %v", msg.Err)
		return m, nil
	}
	m.footer.SetUsage(msg.Usage.UsedBytes, msg.Usage.QuotaBytes)
	return m, nil
}
