// Package chat holds the canonical conversation model: a sequence of turns,
// where each turn is one user message plus a set of parallel assistant
// branches (one per model invoked). The UI renders a projection of this
// model and persistence flattens it; neither ever becomes the source of
// truth. All mutation happens on the program's update loop, so the model
// carries no locks.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/wookiisky/think-bot/internal/logger"
)

// BranchStatus is the lifecycle state of one model's response.
type BranchStatus string

const (
	// BranchLoading means the branch is still streaming. A loading branch
	// must resolve to done/error or be explicitly cancelled before the
	// turn counts as settled.
	BranchLoading BranchStatus = "loading"
	BranchDone    BranchStatus = "done"
	BranchError   BranchStatus = "error"
)

// Branch is one model's response within an assistant turn.
type Branch struct {
	ID           string
	Model        string // model identifier as configured (resolved to a display name at render time)
	Content      string
	Status       BranchStatus
	ErrorMessage string
	UpdatedAt    int64
}

// IsLoading reports whether the branch is still streaming.
func (b *Branch) IsLoading() bool {
	return b.Status == BranchLoading
}

// UserMessage is the user half of a turn.
type UserMessage struct {
	Content      string
	Timestamp    int64
	ImageBase64  string
	DisplayText  string // quick-input shadow text shown instead of the raw send text
	IsQuickInput bool
}

// Turn pairs a user message with its assistant branch set. Branches is nil
// until the fan-out opens the assistant side.
type Turn struct {
	User               UserMessage
	Branches           []Branch
	AssistantTimestamp int64
}

// HasAssistant reports whether the assistant side of the turn was opened.
func (t *Turn) HasAssistant() bool {
	return t.Branches != nil
}

// Conversation is the ordered list of turns for one page/tab.
type Conversation struct {
	turns []Turn
}

// New creates an empty conversation.
func New() *Conversation {
	return &Conversation{}
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns the turns for rendering. The caller must not mutate the
// returned slice.
func (c *Conversation) Turns() []Turn {
	return c.turns
}

// LastTurn returns the most recent turn, or nil.
func (c *Conversation) LastTurn() *Turn {
	if len(c.turns) == 0 {
		return nil
	}
	return &c.turns[len(c.turns)-1]
}

// AppendUser starts a new turn with the given user message.
func (c *Conversation) AppendUser(msg UserMessage) *Turn {
	if msg.Timestamp == 0 {
		msg.Timestamp = nowMilli()
	}
	c.turns = append(c.turns, Turn{User: msg})
	return &c.turns[len(c.turns)-1]
}

// OpenAssistant opens the assistant side of the last turn with one loading
// branch per model. Returns the created branches. No-op when the last turn
// already has an assistant side or the conversation is empty.
func (c *Conversation) OpenAssistant(models []string) []Branch {
	turn := c.LastTurn()
	if turn == nil {
		logger.Warn("Chat: OpenAssistant on empty conversation")
		return nil
	}
	if turn.HasAssistant() {
		logger.Warn("Chat: OpenAssistant on a turn that already has branches")
		return nil
	}

	turn.AssistantTimestamp = nowMilli()
	turn.Branches = make([]Branch, 0, len(models))
	for _, model := range models {
		turn.Branches = append(turn.Branches, Branch{
			ID:        uuid.New().String(),
			Model:     model,
			Status:    BranchLoading,
			UpdatedAt: nowMilli(),
		})
	}

	created := make([]Branch, len(turn.Branches))
	copy(created, turn.Branches)
	return created
}

// AddBranch fans out one more loading branch next to an existing branch
// (the re-branch operation). Returns the created branch, or nil when the
// original branch is unknown.
func (c *Conversation) AddBranch(originalBranchID, model string) *Branch {
	turn, _ := c.findBranch(originalBranchID)
	if turn == nil {
		logger.Warn("Chat: AddBranch for unknown original branch %s", originalBranchID)
		return nil
	}

	turn.Branches = append(turn.Branches, Branch{
		ID:        uuid.New().String(),
		Model:     model,
		Status:    BranchLoading,
		UpdatedAt: nowMilli(),
	})
	created := turn.Branches[len(turn.Branches)-1]
	return &created
}

// findBranch locates a branch and its turn by branch ID.
func (c *Conversation) findBranch(branchID string) (*Turn, *Branch) {
	for i := range c.turns {
		for j := range c.turns[i].Branches {
			if c.turns[i].Branches[j].ID == branchID {
				return &c.turns[i], &c.turns[i].Branches[j]
			}
		}
	}
	return nil, nil
}

// FindBranch returns a copy of the branch with the given ID.
func (c *Conversation) FindBranch(branchID string) (Branch, bool) {
	_, b := c.findBranch(branchID)
	if b == nil {
		return Branch{}, false
	}
	return *b, true
}

// AppendChunk appends streamed content to a loading branch. Chunks for
// unknown or already-settled branches are dropped: a best-effort cancel can
// leave the worker streaming briefly after the branch is gone, and those
// late chunks must not resurrect it.
func (c *Conversation) AppendChunk(branchID, content string) bool {
	_, b := c.findBranch(branchID)
	if b == nil {
		logger.Debug("Chat: Dropping chunk for unknown branch %s", branchID)
		return false
	}
	if b.Status != BranchLoading {
		logger.Debug("Chat: Dropping chunk for settled branch %s (status=%s)", branchID, b.Status)
		return false
	}

	b.Content += content
	b.UpdatedAt = nowMilli()
	return true
}

// FinishBranch marks a loading branch done.
func (c *Conversation) FinishBranch(branchID string) bool {
	_, b := c.findBranch(branchID)
	if b == nil || b.Status != BranchLoading {
		return false
	}
	b.Status = BranchDone
	b.UpdatedAt = nowMilli()
	return true
}

// FailBranch marks a loading branch as errored with the given message.
func (c *Conversation) FailBranch(branchID, errorMessage string) bool {
	_, b := c.findBranch(branchID)
	if b == nil || b.Status != BranchLoading {
		return false
	}
	b.Status = BranchError
	b.ErrorMessage = errorMessage
	b.UpdatedAt = nowMilli()
	return true
}

// DeleteBranch removes a branch. When it was the last surviving branch of
// its turn, the whole turn (user message included) is removed: a turn
// cannot exist with zero branches. Returns whether the branch was found and
// whether the turn went with it.
func (c *Conversation) DeleteBranch(branchID string) (deleted, turnRemoved bool) {
	for i := range c.turns {
		turn := &c.turns[i]
		for j := range turn.Branches {
			if turn.Branches[j].ID != branchID {
				continue
			}

			if len(turn.Branches) == 1 {
				c.turns = append(c.turns[:i], c.turns[i+1:]...)
				logger.Info("Chat: Removed last branch %s and its turn", branchID)
				return true, true
			}

			turn.Branches = append(turn.Branches[:j], turn.Branches[j+1:]...)
			logger.Info("Chat: Removed branch %s (%d remain)", branchID, len(turn.Branches))
			return true, false
		}
	}
	return false, false
}

// HasLoadingBranches reports whether any branch is still streaming.
func (c *Conversation) HasLoadingBranches() bool {
	for i := range c.turns {
		for j := range c.turns[i].Branches {
			if c.turns[i].Branches[j].IsLoading() {
				return true
			}
		}
	}
	return false
}

// Clear removes all turns.
func (c *Conversation) Clear() {
	c.turns = nil
}
