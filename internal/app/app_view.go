package app

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// View renders the app. This is the core Bubble Tea view function.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion

	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}

	v.SetContent(m.RenderToString())
	return v
}

// RenderToString renders the current view as a string, which is also what
// the view tests assert against.
func (m *Model) RenderToString() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	m.updateFooterContext()

	header := m.header.View()
	footer := m.footer.View()

	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.sidebar.View(),
		m.chat.View(),
	)

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		panels,
		footer,
	)

	if m.modal.IsVisible() {
		return m.modal.View(m.width, m.height)
	}

	return view
}

// updateFooterContext updates the footer with current context for
// conditional bindings.
func (m *Model) updateFooterContext() {
	m.footer.SetContext(
		m.focus == FocusSidebar,
		m.state == StateStreaming,
		m.syncing,
	)
}
