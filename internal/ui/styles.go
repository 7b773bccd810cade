package ui

import "charm.land/lipgloss/v2"

// Hex values kept alongside the parsed colors for gradient interpolation.
const (
	HexPrimary = "#6366F1"
	HexBg      = "#111827"
)

// Color palette - Indigo + Teal theme
var (
	ColorPrimary     = lipgloss.Color(HexPrimary) // Indigo
	ColorSecondary   = lipgloss.Color("#14B8A6")  // Teal
	ColorMuted       = lipgloss.Color("#6B7280")  // Gray
	ColorBorder      = lipgloss.Color("#374151")  // Dark gray
	ColorBorderFocus = lipgloss.Color("#6366F1")  // Indigo when focused
	ColorBg          = lipgloss.Color(HexBg)      // Dark background
	ColorText        = lipgloss.Color("#F9FAFB")  // Light text
	ColorTextMuted   = lipgloss.Color("#9CA3AF")  // Muted text
	ColorTextInverse = lipgloss.Color("#111827")  // Dark text for light backgrounds
	ColorUser        = lipgloss.Color("#818CF8")  // Light indigo for user messages
	ColorBranch      = lipgloss.Color("#2DD4BF")  // Bright teal for branch headers
	ColorWarning     = lipgloss.Color("#F59E0B")  // Amber
	ColorError       = lipgloss.Color("#EF4444")  // Red
	ColorSuccess     = lipgloss.Color("#10B981")  // Green
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorText).
		Background(ColorPrimary).
		Padding(0, 1)
)

// Footer styles
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	FooterKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	FooterUsageStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	FooterUsageWarnStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	PanelFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderFocus)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)
)

// Sidebar styles
var (
	SidebarItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	SidebarSelectedStyle = lipgloss.NewStyle().
				Background(ColorPrimary).
				Foreground(ColorText).
				Bold(true).
				Padding(0, 1)

	SidebarURLStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)
)

// Chat styles
var (
	ChatUserStyle = lipgloss.NewStyle().
			Foreground(ColorUser).
			Bold(true)

	ChatMessageStyle = lipgloss.NewStyle().
				Foreground(ColorText)

	BranchHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorBranch).
				Bold(true)

	BranchBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	BranchBoxErrorStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorError).
				Padding(0, 1)

	BranchErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError)

	BranchActionStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted)

	BranchActionKeyStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Bold(true)

	ChatInputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	ChatInputFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderFocus).
				Padding(0, 1)

	QuickInputStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	QuickInputActiveStyle = lipgloss.NewStyle().
				Foreground(ColorTextInverse).
				Background(ColorSecondary).
				Bold(true).
				Padding(0, 1)

	PageContentStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted)

	RestrictedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2).
			Width(ModalWidth)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	ModalHelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError)
)
