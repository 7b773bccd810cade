package app

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/wookiisky/think-bot/internal/chat"
	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/extract"
	"github.com/wookiisky/think-bot/internal/llm"
	"github.com/wookiisky/think-bot/internal/logger"
	"github.com/wookiisky/think-bot/internal/storage"
	"github.com/wookiisky/think-bot/internal/ui"
)

// refreshRecentCmd reloads the sidebar's recent-pages list.
func (m *Model) refreshRecentCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	return func() tea.Msg {
		recent, err := store.RecentURLs(ui.MaxRecentShown)
		return RecentURLsMsg{Recent: recent, Err: err}
	}
}

// refreshUsageCmd recomputes the storage usage readout.
func (m *Model) refreshUsageCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	return func() tea.Msg {
		usage, err := store.Usage()
		return UsageMsg{Usage: usage, Err: err}
	}
}

// extractors builds the primary and fallback extractors from the config.
func (m *Model) extractors() (primary, fallback extract.Extractor) {
	basic := m.config.GetBasic()
	readability := extract.NewReadabilityExtractor()
	jina := extract.NewJinaExtractor(basic.JinaAPIKey)
	if basic.DefaultExtractionMethod == extract.MethodJina {
		return jina, readability
	}
	return readability, jina
}

// extractCmd runs page extraction with retry for (url, tab).
func (m *Model) extractCmd(url, tab string) tea.Cmd {
	if pattern, ok := m.blocklist.Match(url); ok {
		return func() tea.Msg {
			return BlacklistDetectedMsg{URL: url, Pattern: pattern}
		}
	}
	if !m.tracker.Begin(url, tab) {
		logger.Log("App: extraction already running for %s", url)
		return nil
	}
	m.cacheLoadingState(url, tab, extract.CachedStatusLoading, "")

	primary, fallback := m.extractors()
	return func() tea.Msg {
		result, err := extract.LoadWithRetry(context.Background(), extract.DefaultPolicy(), primary, fallback, url)
		if err != nil {
			return PageInfoErrorMsg{
				URL:        url,
				Tab:        tab,
				Restricted: extractRestricted(err),
				Err:        err,
			}
		}
		return PageInfoMsg{
			URL:     url,
			Tab:     tab,
			Title:   titleFromContent(result.Content, url),
			Content: result.Content,
			Method:  result.Method,
		}
	}
}

func extractRestricted(err error) bool {
	return errors.Is(err, errors.KindPermission)
}

// titleFromContent lifts the first markdown heading as the page title.
func titleFromContent(content, url string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
		if line != "" {
			break
		}
	}
	return url
}

// cacheLoadingState persists the extraction state so a reopened tab can
// restore its placeholder.
func (m *Model) cacheLoadingState(url, tab, status, method string) {
	if m.store == nil {
		return
	}
	state := extract.CachedState{Status: status, Method: method, Timestamp: config.Now()}
	if err := m.store.Put(storage.LoadingKey(url, tab), extract.EncodeCachedState(state)); err != nil {
		logger.Warn("App: cache loading state: %v", err)
	}
}

func (m *Model) clearLoadingState(url, tab string) {
	if m.store == nil {
		return
	}
	if err := m.store.Delete(storage.LoadingKey(url, tab)); err != nil {
		logger.Debug("App: clear loading state: %v", err)
	}
}

// touchRecentCmd bumps the page in the recent list and refreshes the sidebar.
func (m *Model) touchRecentCmd(url, title string) tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	refresh := m.refreshRecentCmd()
	return func() tea.Msg {
		if err := store.TouchRecentURL(url, title); err != nil {
			logger.Warn("App: touch recent URL: %v", err)
		}
		return refresh()
	}
}

// syncRunCmd runs a full sync round.
func (m *Model) syncRunCmd() tea.Cmd {
	syncer := m.syncer
	cfg := m.config
	return func() tea.Msg {
		result, err := syncer.Run(context.Background(), cfg)
		return SyncFinishedMsg{Result: result, Err: err}
	}
}

// listenForBranch reads the next chunk from a branch stream. The msg handler
// re-arms the listener until the channel reports Done or an error.
func (m *Model) listenForBranch(branchID string, ch <-chan llm.StreamChunk) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return StreamEndMsg{BranchID: branchID}
		}
		if chunk.Err != nil {
			return StreamErrorMsg{BranchID: branchID, Err: chunk.Err}
		}
		if chunk.Done {
			return StreamEndMsg{BranchID: branchID}
		}
		return StreamChunkMsg{BranchID: chunk.BranchID, Content: chunk.Content}
	}
}

// contextMessages flattens the conversation into the request context for one
// model: each turn's user message plus that model's own branch response when
// it has one, else the turn's first completed branch.
func contextMessages(conv *chat.Conversation, modelID string) []llm.Message {
	var out []llm.Message
	for _, turn := range conv.Turns() {
		out = append(out, llm.Message{
			Role:        chat.RoleUser,
			Content:     turn.User.Content,
			ImageBase64: turn.User.ImageBase64,
		})

		var picked *chat.Branch
		for i := range turn.Branches {
			b := &turn.Branches[i]
			if b.Status != chat.BranchDone {
				continue
			}
			if b.Model == modelID {
				picked = b
				break
			}
			if picked == nil {
				picked = b
			}
		}
		if picked != nil {
			out = append(out, llm.Message{Role: chat.RoleAssistant, Content: picked.Content})
		}
	}
	return out
}

// startBranch launches the streaming request for one branch and returns its
// listener command.
func (m *Model) startBranch(branch chat.Branch, model config.Model) tea.Cmd {
	conv := m.chat.Conversation()
	messages := contextMessages(conv, model.ID)
	// The fan-out opens the assistant turn before requests start, so the
	// messages already end with the user turn that triggered it.
	systemPrompt := llm.BuildSystemPrompt(m.config.GetBasic().SystemPrompt, m.chat.PageContent())

	ch := m.engine.Send(context.Background(), branch.ID, model, messages, systemPrompt)
	m.streams[branch.ID] = branchStream{model: model, ch: ch}
	m.setState(StateStreaming)
	return m.listenForBranch(branch.ID, ch)
}

// sendMessage appends a user turn, fans out to target models, and starts all
// branch streams.
func (m *Model) sendMessage(msg chat.UserMessage, modelIDs []string) tea.Cmd {
	targets := m.fanOutModels(modelIDs)
	if len(targets) == 0 {
		m.footer.SetFlash("No usable models configured (ctrl+o)", ui.FlashWarning)
		return ui.FlashTick()
	}

	conv := m.chat.Conversation()
	conv.AppendUser(msg)

	ids := make([]string, len(targets))
	for i, t := range targets {
		ids[i] = t.ID
	}
	branches := conv.OpenAssistant(ids)

	var cmds []tea.Cmd
	for i, b := range branches {
		cmds = append(cmds, m.startBranch(b, targets[i]))
	}
	m.chat.BeginStreaming()
	cmds = append(cmds, ui.StopwatchTick(), m.requestSave())
	return tea.Batch(cmds...)
}

// fanOutModels resolves the target model list: explicit ids when given and
// usable, otherwise every complete enabled model.
func (m *Model) fanOutModels(modelIDs []string) []config.Model {
	all := m.models.Complete()
	if len(modelIDs) == 0 {
		return all
	}
	var out []config.Model
	for _, id := range modelIDs {
		for _, mdl := range all {
			if mdl.ID == id {
				out = append(out, mdl)
				break
			}
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}
