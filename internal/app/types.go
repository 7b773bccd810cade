package app

import (
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/extract"
	"github.com/wookiisky/think-bot/internal/llm"
	"github.com/wookiisky/think-bot/internal/storage"
	"github.com/wookiisky/think-bot/internal/sync"
)

// Focus represents which panel is focused
type Focus int

const (
	FocusSidebar Focus = iota
	FocusChat
)

// AppState represents the current state of the application.
// Using an explicit state machine prevents invalid state combinations
// and makes state transitions clear and traceable.
type AppState int

const (
	StateIdle      AppState = iota // Ready for user input
	StateStreaming                 // At least one branch is receiving chunks
)

// String returns a human-readable name for the state
func (s AppState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStreaming:
		return "Streaming"
	default:
		return "Unknown"
	}
}

// MainTab is the tab id of the default chat tab; quick-input tabs use the
// quick input's id.
const MainTab = "chat"

// StreamChunkMsg carries one content chunk for a branch.
type StreamChunkMsg struct {
	BranchID string
	Content  string
}

// StreamEndMsg is sent when a branch finishes streaming cleanly.
type StreamEndMsg struct {
	BranchID string
}

// StreamErrorMsg is sent when a branch's stream fails.
type StreamErrorMsg struct {
	BranchID string
	Err      error
}

// PageInfoMsg is sent when page extraction completes.
type PageInfoMsg struct {
	URL     string
	Tab     string
	Title   string
	Content string
	Method  string
}

// PageInfoErrorMsg is sent when page extraction fails.
type PageInfoErrorMsg struct {
	URL        string
	Tab        string
	Restricted bool
	Err        error
}

// ContentUpdatedMsg is sent after a conversation save completes.
type ContentUpdatedMsg struct {
	Key string
}

// ContentUpdateErrorMsg is sent when persisting a conversation fails.
type ContentUpdateErrorMsg struct {
	Key string
	Err error
}

// ConfigReloadedMsg is sent when the config file changes on disk.
type ConfigReloadedMsg struct{}

// OpenURLRequestMsg asks the app to open a page, e.g. the URL passed on the
// command line.
type OpenURLRequestMsg struct {
	URL string
}

// SyncRequestedMsg asks the app to start a sync round, e.g. from the
// periodic sync ticker.
type SyncRequestedMsg struct{}

// SyncFinishedMsg carries the result of a full sync run.
type SyncFinishedMsg struct {
	Result sync.Result
	Err    error
}

// BlacklistDetectedMsg is sent when the requested URL matches the blacklist.
type BlacklistDetectedMsg struct {
	URL     string
	Pattern string
}

// LoadingStateMsg restores a cached extraction loading state on reopen.
type LoadingStateMsg struct {
	URL    string
	Tab    string
	Cached extract.CachedState
}

// TabChangedMsg is sent after switching to another chat tab.
type TabChangedMsg struct {
	URL string
	Tab string
}

// RecentURLsMsg refreshes the sidebar list.
type RecentURLsMsg struct {
	Recent []storage.RecentURL
	Err    error
}

// UsageMsg refreshes the footer storage readout.
type UsageMsg struct {
	Usage storage.Usage
	Err   error
}

// SaveTickMsg fires when the debounced save timer expires.
type SaveTickMsg struct {
	Generation int
}

// branchStream tracks one in-flight branch request.
type branchStream struct {
	model config.Model
	ch    <-chan llm.StreamChunk
}
