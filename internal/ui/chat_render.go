package ui

import (
	"bytes"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/wookiisky/think-bot/internal/chat"
)

// mdRenderer is lazily rebuilt whenever the wrap width changes.
var (
	mdRenderer      *glamour.TermRenderer
	mdRendererWidth int
)

// renderMarkdown renders markdown content through glamour, falling back to
// the raw text when the renderer is unavailable.
func renderMarkdown(content string, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	if mdRenderer == nil || mdRendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		mdRenderer = r
		mdRendererWidth = width
	}
	rendered, err := mdRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// highlightCode applies syntax highlighting to code using chroma
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get("monokai")
	if style == nil {
		style = chromastyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}

	return buf.String()
}

// renderPlainWithCode renders non-markdown content, still highlighting any
// fenced code blocks. Prose is word-wrapped; code is left alone.
func renderPlainWithCode(content string, width int) string {
	var result strings.Builder
	lines := strings.Split(content, "\n")
	inCodeBlock := false
	codeBlockLang := ""
	var codeBlockContent strings.Builder

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if !inCodeBlock {
				inCodeBlock = true
				codeBlockLang = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				codeBlockContent.Reset()
			} else {
				inCodeBlock = false
				result.WriteString(highlightCode(codeBlockContent.String(), codeBlockLang))
				codeBlockLang = ""
			}
			continue
		}

		if inCodeBlock {
			if codeBlockContent.Len() > 0 {
				codeBlockContent.WriteString("\n")
			}
			codeBlockContent.WriteString(line)
		} else {
			if width > 0 {
				line = wordwrap.String(line, width)
			}
			result.WriteString(line)
			result.WriteString("\n")
		}
	}

	// Unterminated code block: output whatever we have.
	if inCodeBlock {
		result.WriteString(highlightCode(codeBlockContent.String(), codeBlockLang))
	}

	return strings.TrimRight(result.String(), "\n")
}

func renderBranchContent(content string, width int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if chat.LooksLikeMarkdown(content) {
		return renderMarkdown(content, width)
	}
	return renderPlainWithCode(content, width)
}

func (c *Chat) updateContent() {
	var sb strings.Builder

	wrapWidth := c.viewport.Width()
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}

	if header := c.renderPageSection(wrapWidth); header != "" {
		sb.WriteString(header)
		sb.WriteString("\n\n")
	}

	turns := c.conv.Turns()
	if len(turns) == 0 {
		sb.WriteString(lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Render("Ask a question, or press a quick input to get started."))
	}

	for i := range turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(c.renderTurn(&turns[i], wrapWidth))
	}

	c.viewport.SetContent(sb.String())
	c.viewport.GotoBottom()
}

func (c *Chat) renderPageSection(wrapWidth int) string {
	switch {
	case c.restricted:
		return RestrictedStyle.Render("This page cannot be read (browser or restricted URL).")
	case c.loadingPage:
		return PageContentStyle.Render("Extracting page content...")
	case c.loadingErr != "":
		return BranchErrorStyle.Render("Extraction failed: " + c.loadingErr)
	case c.pageShown && c.pageContent != "":
		preview := c.pageContent
		const maxPreview = 2000
		if len(preview) > maxPreview {
			preview = preview[:maxPreview] + "\n…"
		}
		return PageContentStyle.Width(wrapWidth).Render(preview)
	}
	return ""
}

func (c *Chat) renderTurn(turn *chat.Turn, wrapWidth int) string {
	var sb strings.Builder

	sb.WriteString(ChatUserStyle.Render("You:"))
	sb.WriteString("\n")
	text := turn.User.Content
	if turn.User.DisplayText != "" {
		text = turn.User.DisplayText
	}
	sb.WriteString(ChatMessageStyle.Width(wrapWidth).Render(strings.TrimSpace(text)))
	if turn.User.ImageBase64 != "" {
		sb.WriteString("\n")
		sb.WriteString(QuickInputStyle.Render("[image]"))
	}

	for i := range turn.Branches {
		sb.WriteString("\n\n")
		sb.WriteString(c.renderBranch(&turn.Branches[i], wrapWidth))
	}

	return sb.String()
}

func (c *Chat) renderBranch(b *chat.Branch, wrapWidth int) string {
	var sb strings.Builder

	name := c.modelName(b.Model)
	header := name
	if b.ID == c.selectedBranch && c.selectedBranch != "" {
		header = "▸ " + header
	}
	switch b.Status {
	case chat.BranchLoading:
		elapsed := time.Since(c.waitStart)
		verb := c.waitingVerb
		if verb == "" {
			verb = "Thinking"
		}
		if b.Content == "" {
			header += "  " + verb + "... " + formatElapsed(elapsed)
		} else {
			header += "  streaming " + formatElapsed(elapsed)
		}
	case chat.BranchError:
		header += "  failed"
	}
	sb.WriteString(BranchHeaderStyle.Render(header))
	sb.WriteString("\n")

	boxWidth := wrapWidth - 2
	if boxWidth < 10 {
		boxWidth = 10
	}

	if b.Status == chat.BranchError {
		msg := b.ErrorMessage
		if msg == "" {
			msg = "request failed"
		}
		body := BranchErrorStyle.Render(msg)
		if b.Content != "" {
			body = renderBranchContent(b.Content, boxWidth) + "\n" + body
		}
		sb.WriteString(BranchBoxErrorStyle.Width(boxWidth).Render(body))
	} else {
		body := renderBranchContent(b.Content, boxWidth)
		if body == "" {
			body = lipgloss.NewStyle().Foreground(ColorTextMuted).Italic(true).Render("…")
		}
		sb.WriteString(BranchBoxStyle.Width(boxWidth).Render(body))
	}

	sb.WriteString("\n")
	sb.WriteString(c.renderBranchActions(b))
	return sb.String()
}

// renderBranchActions shows the per-branch key hints; the available set
// depends on the branch status.
func (c *Chat) renderBranchActions(b *chat.Branch) string {
	type action struct{ key, label string }

	var actions []action
	switch b.Status {
	case chat.BranchLoading:
		actions = []action{{"esc", "stop"}}
	case chat.BranchDone:
		actions = []action{
			{"y", "copy"},
			{"Y", "copy md"},
			{"r", "retry"},
			{"b", "branch"},
			{"d", "delete"},
		}
	case chat.BranchError:
		actions = []action{
			{"r", "retry"},
			{"d", "delete"},
		}
	}

	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts,
			BranchActionKeyStyle.Render(a.key)+BranchActionStyle.Render(":"+a.label))
	}
	return BranchActionStyle.Render("  ") + strings.Join(parts, BranchActionStyle.Render("  "))
}
