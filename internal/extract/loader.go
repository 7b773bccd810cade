package extract

import (
	"encoding/json"
	"sync"

	"github.com/wookiisky/think-bot/internal/logger"
)

// State is the loading state of one page/tab combination.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateRestricted
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateRestricted:
		return "restricted"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// CachedState is the loading marker persisted to storage so an in-flight
// extraction or a pending timeout survives a restart.
type CachedState struct {
	Status    string `json:"status"` // "loading" or "timeout"
	Method    string `json:"method,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Cached status values.
const (
	CachedStatusLoading = "loading"
	CachedStatusTimeout = "timeout"
)

// EncodeCachedState serializes a cached loading marker.
func EncodeCachedState(s CachedState) []byte {
	data, _ := json.Marshal(s)
	return data
}

// DecodeCachedState parses a cached loading marker. A garbled marker decodes
// to the zero value, which restores as nothing.
func DecodeCachedState(data []byte) CachedState {
	var s CachedState
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("Extract: Ignoring undecodable cached loading state: %v", err)
	}
	return s
}

type tabKey struct {
	url string
	tab string
}

type tabState struct {
	state            State
	waitingForReload bool
	errMessage       string
	timeoutShown     bool
}

// Tracker holds per-(url, tab) loading state. Transitions are guarded so a
// tab cannot be double-loaded, and a restored "timeout" status renders at
// most once.
type Tracker struct {
	mu   sync.Mutex
	tabs map[tabKey]*tabState
}

func NewTracker() *Tracker {
	return &Tracker{tabs: make(map[tabKey]*tabState)}
}

func (t *Tracker) get(url, tab string) *tabState {
	key := tabKey{url, tab}
	s, ok := t.tabs[key]
	if !ok {
		s = &tabState{}
		t.tabs[key] = s
	}
	return s
}

// State returns the current state for a page/tab.
func (t *Tracker) State(url, tab string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(url, tab).state
}

// Begin transitions idle/loaded/error to loading. Returns false when the tab
// is already loading, which callers treat as a duplicate-request guard.
func (t *Tracker) Begin(url, tab string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.get(url, tab)
	if s.state == StateLoading {
		logger.Debug("Extract: %s (tab %q) already loading, ignoring duplicate request", url, tab)
		return false
	}
	s.state = StateLoading
	s.errMessage = ""
	s.waitingForReload = false
	return true
}

// Finish marks a successful load.
func (t *Tracker) Finish(url, tab string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(url, tab).state = StateLoaded
}

// Fail marks a failed load with the message shown to the user.
func (t *Tracker) Fail(url, tab, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.get(url, tab)
	s.state = StateError
	s.errMessage = message
}

// Restrict marks a page as non-extractable.
func (t *Tracker) Restrict(url, tab string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(url, tab).state = StateRestricted
}

// ErrorMessage returns the message recorded by Fail, empty otherwise.
func (t *Tracker) ErrorMessage(url, tab string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(url, tab).errMessage
}

// SetWaitingForReload flags the tab as pending a page reload; the next Begin
// clears it.
func (t *Tracker) SetWaitingForReload(url, tab string, waiting bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(url, tab).waitingForReload = waiting
}

// WaitingForReload reports the reload flag.
func (t *Tracker) WaitingForReload(url, tab string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(url, tab).waitingForReload
}

// Restore applies a cached loading marker on reopen. It returns true when
// the caller should render the restored state. A cached timeout renders only
// the first time it is restored; repeats are suppressed.
func (t *Tracker) Restore(url, tab string, cached CachedState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.get(url, tab)

	switch cached.Status {
	case CachedStatusLoading:
		s.state = StateLoading
		return true
	case CachedStatusTimeout:
		if s.timeoutShown {
			logger.Debug("Extract: Suppressing duplicate timeout render for %s (tab %q)", url, tab)
			return false
		}
		s.timeoutShown = true
		s.state = StateError
		s.errMessage = "page extraction timed out"
		return true
	default:
		return false
	}
}

// Reset clears all tracked state for a page, for use after ClearURL.
func (t *Tracker) Reset(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.tabs {
		if key.url == url {
			delete(t.tabs, key)
		}
	}
}
