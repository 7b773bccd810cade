package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/chat"
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/extract"
	"github.com/wookiisky/think-bot/internal/storage"
	"github.com/wookiisky/think-bot/internal/ui"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.LoadFrom(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	store, err := storage.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m := New(Options{Config: cfg, Store: store, Version: "test"})
	m.width, m.height = 120, 40
	m.updateSizes()
	return m
}

func completeModel(name string) config.Model {
	mdl := config.NewModel(config.ProviderOpenAI)
	mdl.Name = name
	mdl.APIKey = "sk-test"
	mdl.BaseURL = "https://api.example.com/v1"
	mdl.Model = "gpt-4o"
	return mdl
}

func TestStreamChunkForUnknownBranchIsDropped(t *testing.T) {
	m := newTestModel(t)

	conv := m.chat.Conversation()
	conv.AppendUser(chat.UserMessage{Content: "hi", Timestamp: config.Now()})
	branches := conv.OpenAssistant([]string{"m1"})

	// No stream registered for the branch, so the chunk must vanish.
	_, cmd := m.handleStreamChunk(StreamChunkMsg{BranchID: branches[0].ID, Content: "x"})
	if cmd != nil {
		t.Error("unknown branch chunk should produce no follow-up command")
	}
	got, _ := conv.FindBranch(branches[0].ID)
	if got.Content != "" {
		t.Errorf("branch content = %q, want empty", got.Content)
	}
}

func TestSaveTickSupersededGenerationIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m.currentURL = "https://example.com/a"
	m.currentTab = MainTab

	m.requestSave()
	first := m.saveGeneration
	m.requestSave()

	_, cmd := m.handleSaveTick(SaveTickMsg{Generation: first})
	if cmd != nil {
		t.Error("stale generation should not flush")
	}
	if !m.savePending {
		t.Error("save should still be pending for the newer generation")
	}

	_, cmd = m.handleSaveTick(SaveTickMsg{Generation: m.saveGeneration})
	if cmd == nil {
		t.Error("current generation should flush")
	}
	if m.savePending {
		t.Error("flush should clear the pending flag")
	}
}

func TestToggleFocus(t *testing.T) {
	m := newTestModel(t)
	if m.focus != FocusChat {
		t.Fatalf("initial focus = %v, want chat", m.focus)
	}
	m.toggleFocus()
	if m.focus != FocusSidebar {
		t.Errorf("focus = %v, want sidebar", m.focus)
	}
	m.toggleFocus()
	if m.focus != FocusChat {
		t.Errorf("focus = %v, want chat", m.focus)
	}
}

func TestFanOutModels(t *testing.T) {
	m := newTestModel(t)
	a := completeModel("A")
	b := completeModel("B")
	m.models.Insert(a)
	m.models.Insert(b)

	if got := m.fanOutModels(nil); len(got) != 2 {
		t.Errorf("nil ids: got %d models, want 2", len(got))
	}
	got := m.fanOutModels([]string{b.ID})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("explicit id: got %v", got)
	}
	// Unknown IDs fall back to the full set rather than sending nothing.
	if got := m.fanOutModels([]string{"gone"}); len(got) != 2 {
		t.Errorf("unknown id: got %d models, want 2", len(got))
	}
}

func TestAutoTriggerFiresOncePerTab(t *testing.T) {
	m := newTestModel(t)
	m.models.Insert(completeModel("A"))

	qi := config.NewQuickInput()
	qi.DisplayText = "Summarize"
	qi.SendText = "Summarize: {CONTENT}"
	qi.AutoTrigger = true
	m.quickInputs.Insert(qi)

	m.currentURL = "https://example.com/article"
	m.currentTab = qi.ID
	m.chat.SetPageContent("# Article\n\nBody text.")

	if cmd := m.maybeAutoTrigger(); cmd == nil {
		t.Fatal("first visit should trigger")
	}
	if m.chat.Conversation().Len() != 1 {
		t.Fatalf("conversation turns = %d, want 1", m.chat.Conversation().Len())
	}
	turn := m.chat.Conversation().LastTurn()
	if !strings.Contains(turn.User.Content, "Body text.") {
		t.Error("placeholder should expand to the page content")
	}
	if turn.User.DisplayText != "Summarize" {
		t.Errorf("DisplayText = %q, want the quick input label", turn.User.DisplayText)
	}

	if cmd := m.maybeAutoTrigger(); cmd != nil {
		t.Error("second visit to the same tab must not trigger again")
	}
}

func TestAutoTriggerRestoredConversationMarksInitialized(t *testing.T) {
	m := newTestModel(t)
	m.models.Insert(completeModel("A"))

	qi := config.NewQuickInput()
	qi.DisplayText = "Summarize"
	qi.SendText = "Summarize: {CONTENT}"
	qi.AutoTrigger = true
	m.quickInputs.Insert(qi)

	m.currentURL = "https://example.com/article"
	m.currentTab = qi.ID
	m.chat.SetPageContent("content")
	m.chat.Conversation().AppendUser(chat.UserMessage{Content: "earlier", Timestamp: config.Now()})

	if cmd := m.maybeAutoTrigger(); cmd != nil {
		t.Error("a restored non-empty conversation must not re-trigger")
	}
	if !m.autoTriggered[tabMarker(m.currentURL, m.currentTab)] {
		t.Error("restored conversation should mark the tab initialized")
	}
}

func TestStopDeleteClearsAutoTriggerWhenTabEmpties(t *testing.T) {
	m := newTestModel(t)
	m.currentURL = "https://example.com/a"
	m.currentTab = MainTab
	marker := tabMarker(m.currentURL, m.currentTab)
	m.autoTriggered[marker] = true

	conv := m.chat.Conversation()
	conv.AppendUser(chat.UserMessage{Content: "q", Timestamp: config.Now()})
	branches := conv.OpenAssistant([]string{"m1"})
	m.streams[branches[0].ID] = branchStream{}
	m.setState(StateStreaming)

	m.stopDeleteLoadingBranches()

	if conv.Len() != 0 {
		t.Errorf("conversation turns = %d, want 0", conv.Len())
	}
	if m.autoTriggered[marker] {
		t.Error("emptied tab should clear the auto-trigger marker")
	}
	if m.state != StateIdle {
		t.Errorf("state = %v, want idle", m.state)
	}
}

func TestSendWithNoModelsFlashesWarning(t *testing.T) {
	m := newTestModel(t)
	cmd := m.sendMessage(chat.UserMessage{Content: "hi", Timestamp: config.Now()}, nil)
	if cmd == nil {
		t.Fatal("want a flash timeout command")
	}
	if m.chat.Conversation().Len() != 0 {
		t.Error("message must not be appended without a usable model")
	}
}

func TestClearChatConfirmIsNotReentrant(t *testing.T) {
	m := newTestModel(t)
	m.currentURL = "https://example.com/a"
	m.currentTab = MainTab
	m.chat.Conversation().AppendUser(chat.UserMessage{Content: "q", Timestamp: config.Now()})

	m.confirmClearChat()
	first := m.modal.State
	if first == nil {
		t.Fatal("confirm dialog should be visible")
	}

	// A second request while the dialog is up keeps the first dialog.
	m.confirmClearChat()
	if m.modal.State != first {
		t.Error("second confirm replaced the first dialog")
	}
}

func TestClearChatResetsConversationAndMarker(t *testing.T) {
	m := newTestModel(t)
	m.currentURL = "https://example.com/a"
	m.currentTab = MainTab
	marker := tabMarker(m.currentURL, m.currentTab)
	m.autoTriggered[marker] = true
	m.chat.Conversation().AppendUser(chat.UserMessage{Content: "q", Timestamp: config.Now()})

	cmd := m.clearChat(m.currentURL, m.currentTab)
	if cmd == nil {
		t.Fatal("want a delete command")
	}
	if m.chat.Conversation().Len() != 0 {
		t.Error("conversation should be empty after clear")
	}
	if m.autoTriggered[marker] {
		t.Error("clear should reset the auto-trigger marker")
	}
}

func TestCycleTabVisitsQuickInputsAndWraps(t *testing.T) {
	m := newTestModel(t)
	qi := config.NewQuickInput()
	qi.DisplayText = "Summarize"
	qi.SendText = "Summarize"
	m.quickInputs.Insert(qi)

	m.currentURL = "https://example.com/a"
	m.currentTab = MainTab

	m.cycleTab()
	if m.currentTab != qi.ID {
		t.Errorf("tab = %q, want quick input tab", m.currentTab)
	}
	m.cycleTab()
	if m.currentTab != MainTab {
		t.Errorf("tab = %q, want %q after wrap", m.currentTab, MainTab)
	}
}

func TestOpenPageLoadsStoredConversation(t *testing.T) {
	m := newTestModel(t)

	url := "https://example.com/saved"
	conv := chat.New()
	conv.AppendUser(chat.UserMessage{Content: "stored question", Timestamp: config.Now()})
	data, err := conv.MarshalHistory()
	if err != nil {
		t.Fatalf("MarshalHistory: %v", err)
	}
	if err := m.store.Put(storage.ChatKey(url, MainTab), data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.store.Put(storage.PageKey(url), []byte("# Saved\n\ntext")); err != nil {
		t.Fatalf("Put page: %v", err)
	}

	m.openPage(url)

	if m.currentURL != url || m.currentTab != MainTab {
		t.Errorf("current = %q %q", m.currentURL, m.currentTab)
	}
	if m.chat.Conversation().Len() != 1 {
		t.Errorf("turns = %d, want 1 restored", m.chat.Conversation().Len())
	}
	if m.chat.PageContent() == "" {
		t.Error("cached page content should be restored")
	}
}

func TestViewRendersWithoutPage(t *testing.T) {
	m := newTestModel(t)
	out := m.RenderToString()
	if out == "" || out == "Loading..." {
		t.Fatalf("unexpected view %q", out)
	}
	if !strings.Contains(out, "Pages") {
		t.Error("sidebar title missing from view")
	}
}

func TestKeyRoutingOpensModals(t *testing.T) {
	m := newTestModel(t)

	press := func(code rune) tea.KeyPressMsg {
		return tea.KeyPressMsg{Code: code, Mod: tea.ModCtrl}
	}

	m.handleKey(press('o'))
	if _, ok := m.modal.State.(*ui.ModelListState); !ok {
		t.Errorf("ctrl+o state = %T, want model list", m.modal.State)
	}
	m.modal.Hide()

	m.handleKey(press('q'))
	if _, ok := m.modal.State.(*ui.QuickInputListState); !ok {
		t.Errorf("ctrl+q state = %T, want quick input list", m.modal.State)
	}
	m.modal.Hide()

	m.handleKey(press('n'))
	if _, ok := m.modal.State.(*ui.OpenURLState); !ok {
		t.Errorf("ctrl+n state = %T, want open URL", m.modal.State)
	}
}

func TestImagePasteWithoutImageFlashes(t *testing.T) {
	m := newTestModel(t)

	// Whether the clipboard is unavailable or simply holds no image, the
	// handler flashes instead of attaching anything.
	_, cmd := m.handleImagePaste()
	if cmd == nil {
		t.Fatal("want a flash timeout command")
	}
	if m.chat.HasAttachedImage() {
		t.Error("nothing should be attached without a clipboard image")
	}
}

func TestBranchDeleteAsksForConfirmation(t *testing.T) {
	m := newTestModel(t)
	m.currentURL = "https://example.com/a"

	conv := m.chat.Conversation()
	conv.AppendUser(chat.UserMessage{Content: "q", Timestamp: config.Now()})
	branches := conv.OpenAssistant([]string{"m1"})
	conv.FinishBranch(branches[0].ID)

	m.enterBranchMode()
	m.handleBranchModeKey("d")

	state, ok := m.modal.State.(*ui.ConfirmState)
	if !ok {
		t.Fatalf("modal state = %T, want confirm dialog", m.modal.State)
	}
	if conv.Len() != 1 {
		t.Fatal("branch must survive until the dialog resolves")
	}

	cmd := state.Resolve(true)
	if cmd == nil {
		t.Fatal("confirm should produce a command")
	}
	m.Update(cmd())
	if conv.Len() != 0 {
		t.Errorf("conversation turns = %d after confirmed delete, want 0", conv.Len())
	}
}

func TestStopGenerationAsksForConfirmation(t *testing.T) {
	m := newTestModel(t)
	m.currentURL = "https://example.com/a"
	m.currentTab = MainTab

	conv := m.chat.Conversation()
	conv.AppendUser(chat.UserMessage{Content: "q", Timestamp: config.Now()})
	branches := conv.OpenAssistant([]string{"m1"})
	m.streams[branches[0].ID] = branchStream{}
	m.setState(StateStreaming)

	m.handleKey(tea.KeyPressMsg{Code: tea.KeyEscape})

	state, ok := m.modal.State.(*ui.ConfirmState)
	if !ok {
		t.Fatalf("modal state = %T, want confirm dialog", m.modal.State)
	}
	if conv.Len() != 1 {
		t.Fatal("loading branch must survive until the dialog resolves")
	}

	cmd := state.Resolve(true)
	if cmd == nil {
		t.Fatal("confirm should produce a command")
	}
	m.Update(cmd())
	if conv.Len() != 0 {
		t.Errorf("conversation turns = %d after confirmed stop, want 0", conv.Len())
	}
	if m.state != StateIdle {
		t.Errorf("state = %v, want idle", m.state)
	}
}

func TestReorderStampsModelOrderTimestamp(t *testing.T) {
	m := newTestModel(t)
	m.models.Add(config.ProviderOpenAI)
	m.models.Add(config.ProviderOpenAI)

	if got := m.config.GetBasic().ModelOrderModified; got != 0 {
		t.Fatalf("ModelOrderModified = %d before any reorder, want 0", got)
	}

	if !m.models.Reorder(0, 1) {
		t.Fatal("Reorder should succeed with two models")
	}
	if got := m.config.GetBasic().ModelOrderModified; got == 0 {
		t.Error("reorder must stamp the order timestamp")
	}
}

func TestBranchModeUserMessagePreview(t *testing.T) {
	m := newTestModel(t)

	conv := m.chat.Conversation()
	conv.AppendUser(chat.UserMessage{Content: "what was sent", Timestamp: config.Now()})
	branches := conv.OpenAssistant([]string{"m1"})
	conv.FinishBranch(branches[0].ID)

	m.enterBranchMode()
	m.handleBranchModeKey("u")

	if _, ok := m.modal.State.(*ui.UserMessagePreviewState); !ok {
		t.Errorf("modal state = %T, want user message preview", m.modal.State)
	}
	if m.branchMode {
		t.Error("preview should leave branch mode")
	}
}

func TestSidebarForgetAsksForConfirmation(t *testing.T) {
	m := newTestModel(t)
	if err := m.store.TouchRecentURL("https://example.com/a", "A"); err != nil {
		t.Fatalf("TouchRecentURL: %v", err)
	}
	recent, err := m.store.RecentURLs(0)
	if err != nil {
		t.Fatalf("RecentURLs: %v", err)
	}
	m.sidebar.SetRecent(recent)
	m.focus = FocusSidebar

	m.handleSidebarKey("d")
	if _, ok := m.modal.State.(*ui.ConfirmState); !ok {
		t.Fatalf("modal state = %T, want confirm dialog", m.modal.State)
	}
}

func TestForgetPageDropsCacheAndConversation(t *testing.T) {
	m := newTestModel(t)
	url := "https://example.com/a"
	m.currentURL = url
	m.currentTab = MainTab
	m.autoTriggered[tabMarker(url, MainTab)] = true
	m.chat.Conversation().AppendUser(chat.UserMessage{Content: "q", Timestamp: config.Now()})
	m.tracker.Begin(url, MainTab)

	_, cmd := m.forgetPage(url)
	if cmd == nil {
		t.Fatal("want a cleanup command")
	}
	if m.chat.Conversation().Len() != 0 {
		t.Error("current conversation should be dropped with its page")
	}
	if m.autoTriggered[tabMarker(url, MainTab)] {
		t.Error("auto-trigger markers for the page should be cleared")
	}
	if m.tracker.State(url, MainTab) != extract.StateIdle {
		t.Error("loader state for the page should reset")
	}
}

func TestDisconnectionErrorHoldsTabForReload(t *testing.T) {
	m := newTestModel(t)
	url := "https://example.com/a"
	m.currentURL = url
	m.currentTab = MainTab

	m.handlePageInfoError(PageInfoErrorMsg{
		URL: url,
		Tab: MainTab,
		Err: fmt.Errorf("read tcp: connection reset by peer"),
	})

	if !m.tracker.WaitingForReload(url, MainTab) {
		t.Error("disconnection should flag the tab as waiting for reload")
	}
	if got := m.tracker.ErrorMessage(url, MainTab); !strings.Contains(got, "ctrl+e") {
		t.Errorf("error message = %q, want a reload hint", got)
	}

	// Re-extracting clears the flag.
	m.tracker.Begin(url, MainTab)
	if m.tracker.WaitingForReload(url, MainTab) {
		t.Error("Begin should clear the reload flag")
	}
}
