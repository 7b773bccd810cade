package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Header is the top bar: app title on the left, current page on the right.
type Header struct {
	width     int
	pageTitle string
	pageURL   string
}

func NewHeader() *Header {
	return &Header{}
}

func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetPage sets the page shown on the right side of the bar.
func (h *Header) SetPage(title, url string) {
	h.pageTitle = title
	h.pageURL = url
}

// View renders the header with a gradient background fading into the page
// area.
func (h *Header) View() string {
	titleText := " think-bot"
	var rightText string
	switch {
	case h.pageTitle != "":
		rightText = h.pageTitle + " "
	case h.pageURL != "":
		rightText = h.pageURL + " "
	}

	// Truncate the page portion before padding so the bar never wraps.
	maxRight := h.width - len(titleText) - 1
	if maxRight < 0 {
		maxRight = 0
	}
	if len(rightText) > maxRight {
		if maxRight > 3 {
			rightText = rightText[:maxRight-3] + "... "
		} else {
			rightText = ""
		}
	}

	paddingLen := h.width - len(titleText) - len(rightText)
	if paddingLen < 0 {
		paddingLen = 0
	}
	return h.renderGradient(titleText + strings.Repeat(" ", paddingLen) + rightText)
}

func parseHexColor(hex string) (r, g, b int) {
	if len(hex) == 7 && hex[0] == '#' {
		fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	}
	return
}

// renderGradient paints the bar background from the primary color into the
// app background, character by character.
func (h *Header) renderGradient(content string) string {
	if len(content) == 0 {
		return ""
	}

	startR, startG, startB := parseHexColor(HexPrimary)
	endR, endG, endB := parseHexColor(HexBg)

	runes := []rune(content)
	width := len(runes)
	var result strings.Builder

	for i, r := range runes {
		t := float64(i) / float64(width)
		cr := int(float64(startR)*(1-t) + float64(endR)*t)
		cg := int(float64(startG)*(1-t) + float64(endG)*t)
		cb := int(float64(startB)*(1-t) + float64(endB)*t)

		style := lipgloss.NewStyle().
			Background(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", cr, cg, cb))).
			Foreground(ColorText).
			Bold(i < len(" think-bot"))
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}
