package app

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/chat"
	"github.com/wookiisky/think-bot/internal/clipboard"
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/extract"
	"github.com/wookiisky/think-bot/internal/keys"
	"github.com/wookiisky/think-bot/internal/logger"
	"github.com/wookiisky/think-bot/internal/storage"
	"github.com/wookiisky/think-bot/internal/ui"
)

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()

	case tea.FocusMsg:
		m.terminalFocused = true

	case tea.BlurMsg:
		m.terminalFocused = false

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case ui.StopwatchTickMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd

	case ui.FlashTimeoutMsg:
		m.footer.ClearFlash()
		return m, nil

	case StreamChunkMsg:
		return m.handleStreamChunk(msg)
	case StreamEndMsg:
		return m.handleStreamEnd(msg)
	case StreamErrorMsg:
		return m.handleStreamError(msg)
	case PageInfoMsg:
		return m.handlePageInfo(msg)
	case PageInfoErrorMsg:
		return m.handlePageInfoError(msg)
	case ContentUpdatedMsg:
		return m.handleContentUpdated(msg)
	case ContentUpdateErrorMsg:
		return m.handleContentUpdateError(msg)
	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	case SyncFinishedMsg:
		return m.handleSyncFinished(msg)
	case BlacklistDetectedMsg:
		return m.handleBlacklistDetected(msg)
	case LoadingStateMsg:
		return m.handleLoadingState(msg)
	case TabChangedMsg:
		return m.handleTabChanged(msg)
	case RecentURLsMsg:
		return m.handleRecentURLs(msg)
	case UsageMsg:
		return m.handleUsage(msg)
	case SaveTickMsg:
		return m.handleSaveTick(msg)

	case clearChatMsg:
		return m, m.clearChat(msg.URL, msg.Tab)

	case branchDeleteMsg:
		return m.deleteBranch(msg.BranchID)

	case stopGenerationMsg:
		return m.stopDeleteLoadingBranches()

	case pageForgetMsg:
		return m.forgetPage(msg.URL)

	case settingsDeleteMsg:
		return m.handleSettingsDelete(msg)

	case OpenURLRequestMsg:
		if msg.URL != "" {
			return m.openPage(msg.URL)
		}
		return m, nil

	case SyncRequestedMsg:
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		return m, m.syncRunCmd()
	}

	// Forward everything else to the focused panel.
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.modal.IsVisible() {
		return m.handleModalKey(msg)
	}

	if m.branchMode {
		return m.handleBranchModeKey(key)
	}

	switch key {
	case keys.CtrlC:
		m.Shutdown()
		return m, tea.Quit

	case keys.Escape:
		if m.state == StateStreaming {
			return m.confirmStopGeneration()
		}
		return m, nil

	case keys.Tab:
		m.toggleFocus()
		return m, nil

	case keys.CtrlN:
		m.modal.Show(ui.NewOpenURLState())
		return m, nil

	case keys.CtrlE:
		if m.currentURL == "" {
			return m, nil
		}
		if m.tracker.WaitingForReload(m.currentURL, m.currentTab) {
			logger.Info("App: reloading %s after dropped connection", m.currentURL)
		}
		m.chat.SetPageLoading(true)
		return m, m.extractCmd(m.currentURL, m.currentTab)

	case keys.CtrlO:
		m.modal.Show(ui.NewModelListState(m.models.Visible()))
		return m, nil

	case keys.CtrlQ:
		m.modal.Show(ui.NewQuickInputListState(m.quickInputs.Visible()))
		return m, nil

	case keys.CtrlS:
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		return m, m.syncRunCmd()

	case keys.CtrlL:
		return m.confirmClearChat()

	case keys.CtrlV:
		return m.handleImagePaste()

	case keys.CtrlP:
		return m.cycleTab()

	case keys.CtrlB:
		return m.enterBranchMode()
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(key)
	}

	if key == keys.Enter {
		return m.handleSend()
	}
	if key == keys.ShiftTab {
		m.chat.CycleQuickInput(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == FocusSidebar {
		m.focus = FocusChat
	} else {
		m.focus = FocusSidebar
	}
	m.sidebar.SetFocused(m.focus == FocusSidebar)
	m.chat.SetFocused(m.focus == FocusChat)
}

func (m *Model) handleSidebarKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Up, "k":
		m.sidebar.MoveUp()
	case keys.Down, "j":
		m.sidebar.MoveDown()
	case keys.Enter:
		if entry := m.sidebar.Selected(); entry != nil {
			return m.openPage(entry.URL)
		}
	case "d":
		if entry := m.sidebar.Selected(); entry != nil {
			return m.confirmForgetPage(entry.URL)
		}
	}
	return m, nil
}

// confirmForgetPage asks before dropping a page from the recent list along
// with its cached conversation and content.
func (m *Model) confirmForgetPage(url string) (tea.Model, tea.Cmd) {
	m.modal.Show(ui.NewConfirmState(ui.ConfirmOptions{
		Title:        "Forget Page",
		Message:      "Remove this page and its cached chats? This cannot be undone.",
		ConfirmLabel: "Remove",
		OnConfirm: func() tea.Msg {
			return pageForgetMsg{URL: url}
		},
	}))
	return m, nil
}

// pageForgetMsg is internal: emitted when the forget-page confirm resolves.
type pageForgetMsg struct {
	URL string
}

// forgetPage wipes every cached entry for a URL and its loader state. When
// the page is the one on screen, the in-memory conversation goes too.
func (m *Model) forgetPage(url string) (tea.Model, tea.Cmd) {
	m.tracker.Reset(url)
	for marker := range m.autoTriggered {
		if strings.HasPrefix(marker, url+"#") {
			delete(m.autoTriggered, marker)
		}
	}
	if url == m.currentURL {
		m.stopAllStreams()
		m.chat.SetConversation(chat.New())
		m.chat.Refresh()
	}

	if m.store == nil {
		return m, nil
	}
	store := m.store
	clear := func() tea.Msg {
		if err := store.ClearURL(url); err != nil {
			return ContentUpdateErrorMsg{Key: url, Err: err}
		}
		return nil
	}
	return m, tea.Sequence(clear, m.refreshRecentCmd(), m.refreshUsageCmd())
}

// handleSend sends the typed message, or triggers the selected quick input
// when the input is empty.
func (m *Model) handleSend() (tea.Model, tea.Cmd) {
	text := m.chat.GetInput()
	if text == "" {
		if qi := m.chat.SelectedQuickInput(); qi != nil {
			return m, m.triggerQuickInput(*qi)
		}
		return m, nil
	}

	m.chat.ClearInput()
	userMsg := chat.UserMessage{
		Content:     text,
		ImageBase64: m.chat.TakeAttachedImage(),
		Timestamp:   config.Now(),
	}
	return m, m.sendMessage(userMsg, nil)
}

// confirmStopGeneration asks before abandoning every in-flight branch.
func (m *Model) confirmStopGeneration() (tea.Model, tea.Cmd) {
	m.modal.Show(ui.NewConfirmState(ui.ConfirmOptions{
		Title:        "Stop Generation",
		Message:      "Stop generating and delete the pending responses?",
		ConfirmLabel: "Stop",
		OnConfirm: func() tea.Msg {
			return stopGenerationMsg{}
		},
	}))
	return m, nil
}

// stopGenerationMsg is internal: emitted when the stop-generation confirm
// resolves.
type stopGenerationMsg struct{}

// stopDeleteLoadingBranches cancels every loading branch and removes it from
// the conversation (the optimistic removal: the stream result, if any, is
// dropped by the unknown-branch guard).
func (m *Model) stopDeleteLoadingBranches() (tea.Model, tea.Cmd) {
	conv := m.chat.Conversation()

	var loading []string
	if turn := conv.LastTurn(); turn != nil {
		for _, b := range turn.Branches {
			if b.IsLoading() {
				loading = append(loading, b.ID)
			}
		}
	}

	for _, id := range loading {
		m.engine.Cancel(id)
		delete(m.streams, id)
		conv.DeleteBranch(id)
	}
	if len(m.streams) == 0 {
		m.setState(StateIdle)
	}

	// An emptied tab may auto-trigger again on the next visit.
	if conv.Len() == 0 {
		delete(m.autoTriggered, tabMarker(m.currentURL, m.currentTab))
	}

	m.chat.Refresh()
	logger.Info("App: stop-deleted %d loading branches", len(loading))
	return m, m.requestSave()
}

func (m *Model) confirmClearChat() (tea.Model, tea.Cmd) {
	if m.chat.Conversation().Len() == 0 {
		return m, nil
	}
	url, tab := m.currentURL, m.currentTab
	m.modal.Show(ui.NewConfirmState(ui.ConfirmOptions{
		Title:        "Clear Chat",
		Message:      "Delete the conversation for this page? This cannot be undone.",
		ConfirmLabel: "Clear",
		OnConfirm: func() tea.Msg {
			return clearChatMsg{URL: url, Tab: tab}
		},
	}))
	return m, nil
}

// clearChatMsg is internal: emitted when the clear-chat confirm resolves.
type clearChatMsg struct {
	URL string
	Tab string
}

func (m *Model) clearChat(url, tab string) tea.Cmd {
	m.stopAllStreams()
	m.chat.SetConversation(chat.New())
	delete(m.autoTriggered, tabMarker(url, tab))

	if m.store == nil {
		return nil
	}
	store := m.store
	key := storage.ChatKey(url, tab)
	refresh := m.refreshUsageCmd()
	return func() tea.Msg {
		if err := store.Delete(key); err != nil {
			return ContentUpdateErrorMsg{Key: key, Err: err}
		}
		return refresh()
	}
}

func (m *Model) handleImagePaste() (tea.Model, tea.Cmd) {
	img, err := clipboard.ReadImage()
	if err != nil || img == nil {
		m.footer.SetFlash("No image in clipboard", ui.FlashInfo)
		return m, ui.FlashTick()
	}
	if err := img.Validate(); err != nil {
		m.footer.SetFlash(err.Error(), ui.FlashWarning)
		return m, ui.FlashTick()
	}
	m.chat.AttachImage(img.DataURI())
	return m, nil
}

// openPage switches the app to a page, loading its stored conversation and
// content or extracting fresh.
func (m *Model) openPage(url string) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Persist the tab we're leaving.
	if m.currentURL != "" {
		if cmd := m.flushSave(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	m.currentURL = url
	m.currentTitle = ""
	m.currentTab = MainTab
	m.header.SetPage("", url)
	m.chat.SetConversation(m.loadConversation(url, MainTab))
	m.focus = FocusChat
	m.sidebar.SetFocused(false)
	m.chat.SetFocused(true)

	if content, ok := m.cachedPageContent(url); ok {
		m.chat.SetPageContent(content)
		cmds = append(cmds, m.touchRecentCmd(url, titleFromContent(content, url)))
		if cmd := m.maybeAutoTrigger(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	} else {
		m.chat.SetPageLoading(true)
		cmds = append(cmds, m.extractCmd(url, MainTab))
	}

	cmds = append(cmds, m.restoreLoadingStateCmd(url, MainTab))
	return m, tea.Batch(cmds...)
}

func (m *Model) cachedPageContent(url string) (string, bool) {
	if m.store == nil {
		return "", false
	}
	data, err := m.store.Get(storage.PageKey(url))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// restoreLoadingStateCmd re-emits a cached extraction placeholder for a
// reopened tab.
func (m *Model) restoreLoadingStateCmd(url, tab string) tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	return func() tea.Msg {
		data, err := store.Get(storage.LoadingKey(url, tab))
		if err != nil || len(data) == 0 {
			return nil
		}
		cached := extract.DecodeCachedState(data)
		if cached.Status == "" {
			return nil
		}
		return LoadingStateMsg{URL: url, Tab: tab, Cached: cached}
	}
}

// cycleTab moves to the next chat tab: main, then one per quick input.
func (m *Model) cycleTab() (tea.Model, tea.Cmd) {
	if m.currentURL == "" {
		return m, nil
	}

	tabs := []string{MainTab}
	for _, qi := range m.quickInputs.Visible() {
		tabs = append(tabs, qi.ID)
	}

	idx := 0
	for i, t := range tabs {
		if t == m.currentTab {
			idx = i
			break
		}
	}
	next := tabs[(idx+1)%len(tabs)]
	if next == m.currentTab {
		return m, nil
	}

	var cmds []tea.Cmd
	if cmd := m.flushSave(); cmd != nil {
		cmds = append(cmds, cmd)
	}

	m.currentTab = next
	m.chat.SetConversation(m.loadConversation(m.currentURL, next))
	cmds = append(cmds,
		m.restoreLoadingStateCmd(m.currentURL, next),
		func() tea.Msg { return TabChangedMsg{URL: m.currentURL, Tab: next} },
	)
	return m, tea.Batch(cmds...)
}
