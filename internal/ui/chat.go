package ui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/chat"
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/logger"
)

// StopwatchTickMsg is sent to update the elapsed-time display on loading
// branches.
type StopwatchTickMsg time.Time

// thinkingVerbs are playful status messages that cycle while a branch waits
// for its first chunk.
var thinkingVerbs = []string{
	"Thinking",
	"Reasoning",
	"Pondering",
	"Contemplating",
	"Musing",
	"Cogitating",
	"Ruminating",
	"Deliberating",
	"Reflecting",
	"Considering",
	"Analyzing",
	"Processing",
	"Synthesizing",
	"Formulating",
	"Noodling",
	"Percolating",
	"Brewing",
	"Marinating",
}

// randomThinkingVerb returns a random verb from the list
func randomThinkingVerb() string {
	return thinkingVerbs[rand.Intn(len(thinkingVerbs))]
}

// Chat is the right panel: the conversation view over the extracted page,
// the quick-input button row, and the message input.
type Chat struct {
	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	focused  bool

	conv        *chat.Conversation
	pageContent string
	pageShown   bool
	restricted  bool
	loadingPage bool
	loadingErr  string

	quickInputs   []config.QuickInput
	quickSelected int

	// attached clipboard image, sent with the next message
	attachedImage string

	// highlighted branch while branch actions are active
	selectedBranch string

	// resolves a model ID to its configured display name
	modelName func(id string) string

	waitStart   time.Time
	waitingVerb string
}

// NewChat creates the chat panel. resolveModelName maps a model ID to its
// display name for branch headers; it may be nil.
func NewChat(resolveModelName func(id string) string) *Chat {
	ti := textarea.New()
	ti.Placeholder = "Ask about this page..."
	ti.CharLimit = 0
	ti.SetHeight(InputHeight)
	ti.ShowLineNumbers = false
	ti.Prompt = ""

	vp := viewport.New()
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	if resolveModelName == nil {
		resolveModelName = func(id string) string { return id }
	}

	c := &Chat{
		viewport:  vp,
		input:     ti,
		conv:      chat.New(),
		modelName: resolveModelName,
	}
	c.updateContent()
	return c
}

// SetSize sets the chat panel dimensions.
func (c *Chat) SetSize(width, height int) {
	c.width = width
	c.height = height

	chatPanelHeight := height - InputTotalHeight
	innerWidth := width - BorderWidth
	viewportHeight := chatPanelHeight - BorderWidth - 1 // quick-input row
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	c.viewport.SetWidth(innerWidth)
	c.viewport.SetHeight(viewportHeight)
	c.input.SetWidth(innerWidth - 2)
	c.updateContent()
}

// SetFocused sets the focus state.
func (c *Chat) SetFocused(focused bool) {
	c.focused = focused
	if focused {
		c.input.Focus()
	} else {
		c.input.Blur()
	}
}

// IsFocused returns the focus state.
func (c *Chat) IsFocused() bool {
	return c.focused
}

// SetConversation swaps in the conversation for the current page tab.
func (c *Chat) SetConversation(conv *chat.Conversation) {
	if conv == nil {
		conv = chat.New()
	}
	c.conv = conv
	if conv.HasLoadingBranches() {
		c.startWaiting()
	}
	c.updateContent()
}

// Conversation returns the conversation currently displayed.
func (c *Chat) Conversation() *chat.Conversation {
	return c.conv
}

// SetPageContent sets the extracted page content and clears any page-level
// error state.
func (c *Chat) SetPageContent(content string) {
	c.pageContent = content
	c.restricted = false
	c.loadingPage = false
	c.loadingErr = ""
	c.updateContent()
}

// PageContent returns the extracted content for the current page.
func (c *Chat) PageContent() string {
	return c.pageContent
}

// TogglePagePreview shows or hides the extracted content above the chat.
func (c *Chat) TogglePagePreview() {
	c.pageShown = !c.pageShown
	c.updateContent()
}

// SetPageLoading marks the page as extracting.
func (c *Chat) SetPageLoading(loading bool) {
	c.loadingPage = loading
	if loading {
		c.loadingErr = ""
		c.restricted = false
	}
	c.updateContent()
}

// SetPageError records a page extraction failure.
func (c *Chat) SetPageError(message string) {
	c.loadingPage = false
	c.loadingErr = message
	c.updateContent()
}

// SetRestricted marks the page as one that cannot be extracted.
func (c *Chat) SetRestricted() {
	c.loadingPage = false
	c.restricted = true
	c.updateContent()
}

// SetQuickInputs replaces the quick-input button row.
func (c *Chat) SetQuickInputs(inputs []config.QuickInput) {
	c.quickInputs = inputs
	if c.quickSelected >= len(inputs) {
		c.quickSelected = 0
	}
	c.updateContent()
}

// CycleQuickInput moves the quick-input selection by delta, wrapping.
func (c *Chat) CycleQuickInput(delta int) {
	if len(c.quickInputs) == 0 {
		return
	}
	c.quickSelected = (c.quickSelected + delta + len(c.quickInputs)) % len(c.quickInputs)
	c.updateContent()
}

// SelectedQuickInput returns the highlighted quick input, or nil.
func (c *Chat) SelectedQuickInput() *config.QuickInput {
	if len(c.quickInputs) == 0 {
		return nil
	}
	return &c.quickInputs[c.quickSelected]
}

// AttachImage stores a clipboard image data URI to send with the next
// message.
func (c *Chat) AttachImage(dataURI string) {
	c.attachedImage = dataURI
	c.updateContent()
}

// TakeAttachedImage returns and clears the attached image.
func (c *Chat) TakeAttachedImage() string {
	img := c.attachedImage
	c.attachedImage = ""
	return img
}

// HasAttachedImage reports whether an image is waiting to be sent.
func (c *Chat) HasAttachedImage() bool {
	return c.attachedImage != ""
}

// GetInput returns the trimmed input text.
func (c *Chat) GetInput() string {
	val := strings.TrimSpace(c.input.Value())
	logger.Log("Chat.GetInput: len=%d", len(val))
	return val
}

// ClearInput clears the input field.
func (c *Chat) ClearInput() {
	c.input.Reset()
}

// SetInput sets the input field value.
func (c *Chat) SetInput(value string) {
	c.input.SetValue(value)
}

// IsStreaming reports whether any branch in the conversation is still
// loading.
func (c *Chat) IsStreaming() bool {
	return c.conv.HasLoadingBranches()
}

func (c *Chat) startWaiting() {
	c.waitStart = time.Now()
	c.waitingVerb = randomThinkingVerb()
}

// BeginStreaming records the start of a fan-out so the stopwatch runs.
func (c *Chat) BeginStreaming() {
	c.startWaiting()
	c.updateContent()
}

// SetSelectedBranch highlights a branch header; an empty ID clears the
// highlight.
func (c *Chat) SetSelectedBranch(branchID string) {
	c.selectedBranch = branchID
	c.updateContent()
}

// Refresh re-renders the conversation, e.g. after a chunk lands.
func (c *Chat) Refresh() {
	c.updateContent()
}

// StopwatchTick returns a command that sends a tick message after a delay
func StopwatchTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return StopwatchTickMsg(t)
	})
}

// formatElapsed formats a duration as a stopwatch string (e.g., "1.2s", "1:23")
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// Update handles messages
func (c *Chat) Update(msg tea.Msg) (*Chat, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.(type) {
	case StopwatchTickMsg:
		if c.conv.HasLoadingBranches() {
			c.updateContent()
			cmds = append(cmds, StopwatchTick())
		}
		return c, tea.Batch(cmds...)
	}

	if c.focused {
		// Scroll keys bypass the input so the viewport handles them.
		if keyMsg, isKey := msg.(tea.KeyPressMsg); isKey {
			key := keyMsg.String()
			switch key {
			case "pgup", "pgdown", "ctrl+up", "ctrl+down", "home", "end",
				"page up", "page down", "ctrl+u", "ctrl+d":
				var cmd tea.Cmd
				c.viewport, cmd = c.viewport.Update(msg)
				cmds = append(cmds, cmd)
				return c, tea.Batch(cmds...)
			}
		}

		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		cmds = append(cmds, cmd)

		// Keys consumed by the input never reach the viewport, so space
		// and arrows don't scroll while typing.
		if _, isKey := msg.(tea.KeyPressMsg); isKey {
			return c, tea.Batch(cmds...)
		}
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return c, tea.Batch(cmds...)
}

// View renders the chat panel with the quick-input row and input area.
func (c *Chat) View() string {
	panelStyle := PanelStyle
	if c.focused {
		panelStyle = PanelFocusedStyle
	}

	var sb strings.Builder
	sb.WriteString(c.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(c.renderQuickInputRow())

	chatPanelHeight := c.height - InputTotalHeight
	panel := panelStyle.
		Width(c.width - BorderWidth).
		Height(chatPanelHeight - BorderWidth).
		Render(sb.String())

	inputStyle := ChatInputStyle
	if c.focused {
		inputStyle = ChatInputFocusedStyle
	}
	inputPrompt := c.input.View()
	if c.attachedImage != "" {
		inputPrompt = QuickInputActiveStyle.Render("[image attached]") + "\n" + inputPrompt
	}
	input := inputStyle.Width(c.width - BorderWidth).Render(inputPrompt)

	return panel + "\n" + input
}

func (c *Chat) renderQuickInputRow() string {
	if len(c.quickInputs) == 0 {
		return QuickInputStyle.Render("no quick inputs · ctrl+q to configure")
	}
	parts := make([]string, 0, len(c.quickInputs))
	for i, qi := range c.quickInputs {
		label := qi.DisplayText
		if label == "" {
			label = "(untitled)"
		}
		style := QuickInputStyle
		if i == c.quickSelected {
			style = QuickInputActiveStyle
		}
		parts = append(parts, style.Render("["+label+"]"))
	}
	return strings.Join(parts, " ")
}
