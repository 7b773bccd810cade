package ui

// Layout constants
const (
	// SidebarWidth is the fixed width of the recent-pages sidebar.
	SidebarWidth = 32

	// HeaderHeight and FooterHeight are single rows.
	HeaderHeight = 1
	FooterHeight = 1

	// InputHeight is the chat input textarea height (rows of text).
	InputHeight = 3

	// InputTotalHeight includes the input border.
	InputTotalHeight = InputHeight + 2

	// BorderWidth accounts for left+right (or top+bottom) border cells.
	BorderWidth = 2

	// DefaultWrapWidth is used before the first window size message arrives.
	DefaultWrapWidth = 80

	// ModalWidth is the default modal box width.
	ModalWidth = 64

	// ModalInputWidth is the width of text inputs inside modals.
	ModalInputWidth = 48

	// ModalInputCharLimit caps text input length in modals.
	ModalInputCharLimit = 512

	// MaxRecentShown caps how many recent pages the sidebar lists.
	MaxRecentShown = 20
)
