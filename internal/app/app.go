package app

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/blacklist"
	"github.com/wookiisky/think-bot/internal/chat"
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/extract"
	"github.com/wookiisky/think-bot/internal/llm"
	"github.com/wookiisky/think-bot/internal/logger"
	"github.com/wookiisky/think-bot/internal/settings"
	"github.com/wookiisky/think-bot/internal/storage"
	"github.com/wookiisky/think-bot/internal/sync"
	"github.com/wookiisky/think-bot/internal/ui"
)

// saveDebounce collapses rapid save requests into one write.
const saveDebounce = 300 * time.Millisecond

// Model is the main Bubble Tea model
type Model struct {
	config  *config.Config
	version string // injected at build time
	header  *ui.Header
	footer  *ui.Footer
	sidebar *ui.Sidebar
	chat    *ui.Chat
	modal   *ui.Modal

	store     *storage.Store
	engine    *llm.Engine
	tracker   *extract.Tracker
	syncer    *sync.Client
	blocklist *blacklist.Blacklist

	models      *settings.ModelManager
	quickInputs *settings.QuickInputManager

	width  int
	height int
	focus  Focus
	state  AppState

	// current page and chat tab
	currentURL   string
	currentTitle string
	currentTab   string

	// in-flight branch requests
	streams map[string]branchStream

	// branch action mode over the last turn
	branchMode  bool
	branchIndex int

	// autoTriggered marks (url, tab) pairs whose auto quick input already
	// fired; cleared when the tab's conversation empties.
	autoTriggered map[string]bool

	// debounced save
	saveGeneration int
	savePending    bool

	// dirty marks unsaved settings changes from the managers.
	dirty bool

	// syncing shows the footer indicator while a sync round runs.
	syncing bool

	// terminalFocused gates desktop notifications: only notify when the
	// terminal is in the background.
	terminalFocused bool
}

// Options configures app construction; zero values use real defaults.
type Options struct {
	Config    *config.Config
	Store     *storage.Store
	Engine    *llm.Engine
	Blocklist *blacklist.Blacklist
	Version   string
}

// New creates a new app model
func New(opts Options) *Model {
	cfg := opts.Config
	engine := opts.Engine
	if engine == nil {
		engine = llm.NewEngine(llm.NewHTTPClient())
	}
	blocklist := opts.Blocklist
	if blocklist == nil {
		blocklist, _ = blacklist.Load("")
	}

	m := &Model{
		config:          cfg,
		version:         opts.Version,
		header:          ui.NewHeader(),
		footer:          ui.NewFooter(),
		sidebar:         ui.NewSidebar(),
		modal:           ui.NewModal(),
		store:           opts.Store,
		engine:          engine,
		tracker:         extract.NewTracker(),
		syncer:          sync.NewClient(),
		blocklist:       blocklist,
		models:          settings.NewModelManager(),
		quickInputs:     settings.NewQuickInputManager(),
		focus:           FocusChat,
		state:           StateIdle,
		currentTab:      MainTab,
		streams:         make(map[string]branchStream),
		autoTriggered:   make(map[string]bool),
		terminalFocused: true,
	}

	m.chat = ui.NewChat(cfg.ResolveModelDisplayName)

	onChange := func(kind settings.ChangeKind) {
		m.dirty = true
		logger.Log("App: settings changed (%v)", kind)
	}
	m.models.Init(cfg, func(kind settings.ChangeKind) {
		// Reorders carry their own timestamp so a remote content edit
		// cannot clobber a local ordering during merge.
		if kind == settings.ChangeOrder {
			cfg.MarkModelOrderModified()
		}
		onChange(kind)
	})
	m.quickInputs.Init(cfg, onChange)

	m.chat.SetQuickInputs(m.quickInputs.Visible())
	m.chat.SetFocused(true)

	return m
}

// IsIdle returns true if the app is ready for user input
func (m *Model) IsIdle() bool {
	return m.state == StateIdle
}

// setState transitions to a new state with logging
func (m *Model) setState(newState AppState) {
	if m.state != newState {
		logger.Log("App: State transition %s -> %s", m.state, newState)
		m.state = newState
	}
}

// tabStorageKey returns the chat store key for the current page and tab.
func (m *Model) tabStorageKey() string {
	return storage.ChatKey(m.currentURL, m.currentTab)
}

func tabMarker(url, tab string) string {
	return url + "#" + tab
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshRecentCmd(),
		m.refreshUsageCmd(),
	)
}

// updateSizes propagates the window size to every panel.
func (m *Model) updateSizes() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)

	panelHeight := m.height - ui.HeaderHeight - ui.FooterHeight
	m.sidebar.SetSize(ui.SidebarWidth, panelHeight)
	m.chat.SetSize(m.width-ui.SidebarWidth, panelHeight)
}

// stopAllStreams cancels every in-flight branch request.
func (m *Model) stopAllStreams() {
	m.engine.CancelAll()
	m.streams = make(map[string]branchStream)
	m.setState(StateIdle)
}

// requestSave schedules a debounced conversation save.
func (m *Model) requestSave() tea.Cmd {
	m.saveGeneration++
	m.savePending = true
	gen := m.saveGeneration
	return tea.Tick(saveDebounce, func(time.Time) tea.Msg {
		return SaveTickMsg{Generation: gen}
	})
}

// flushSave persists the current conversation immediately.
func (m *Model) flushSave() tea.Cmd {
	m.savePending = false
	if m.store == nil || m.currentURL == "" {
		return nil
	}
	key := m.tabStorageKey()
	conv := m.chat.Conversation()
	data, err := conv.MarshalHistory()
	if err != nil {
		logger.Error("App: marshal conversation: %v", err)
		return nil
	}
	store := m.store
	return func() tea.Msg {
		if err := store.Put(key, data); err != nil {
			return ContentUpdateErrorMsg{Key: key, Err: err}
		}
		return ContentUpdatedMsg{Key: key}
	}
}

// flushSettings writes dirty manager state back through the config.
func (m *Model) flushSettings() {
	if !m.dirty {
		return
	}
	m.models.Flush(m.config)
	m.quickInputs.Flush(m.config)
	if err := m.config.Save(); err != nil {
		logger.Error("App: save config: %v", err)
		return
	}
	m.dirty = false
}

// Shutdown flushes pending state before exit.
func (m *Model) Shutdown() {
	m.stopAllStreams()
	m.flushSettings()
	if m.store != nil && m.currentURL != "" {
		data, err := m.chat.Conversation().MarshalHistory()
		if err == nil {
			if err := m.store.Put(m.tabStorageKey(), data); err != nil {
				logger.Error("App: final save: %v", err)
			}
		}
	}
}

// loadConversation reads the stored history for (url, tab), returning an
// empty conversation when nothing is stored.
func (m *Model) loadConversation(url, tab string) *chat.Conversation {
	if m.store == nil {
		return chat.New()
	}
	data, err := m.store.Get(storage.ChatKey(url, tab))
	if err != nil {
		return chat.New()
	}
	conv, err := chat.UnmarshalHistory(data)
	if err != nil {
		logger.Warn("App: corrupt stored conversation for %s: %v", url, err)
		return chat.New()
	}
	return conv
}

// ActiveModels returns the models eligible for a fan-out: enabled, complete,
// not deleted.
func (m *Model) ActiveModels() []config.Model {
	return m.models.Complete()
}
