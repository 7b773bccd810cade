package chat

import (
	"encoding/json"
	"strings"

	"github.com/wookiisky/think-bot/internal/logger"
)

// Stored history layout. The flat role-tagged array matches what earlier
// releases persisted, so histories written before the in-memory model
// existed still load.

// Roles of stored history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StoredMessage is one entry of the flattened history array.
type StoredMessage struct {
	Role         string         `json:"role"`
	Content      string         `json:"content,omitempty"`
	Timestamp    int64          `json:"timestamp"`
	ImageBase64  string         `json:"imageBase64,omitempty"`
	DisplayText  string         `json:"displayText,omitempty"`
	IsQuickInput bool           `json:"isQuickInput,omitempty"`
	Responses    []StoredBranch `json:"responses,omitempty"`
}

// StoredBranch is one branch of a stored assistant entry.
type StoredBranch struct {
	BranchID     string `json:"branchId"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// objectArtifact is the literal junk string a serialization bug upstream
// could leak into stored content. Stripped defensively on both directions.
const objectArtifact = "[object Object]"

func sanitize(content string) string {
	if !strings.Contains(content, objectArtifact) {
		return content
	}
	return strings.ReplaceAll(content, objectArtifact, "")
}

// History flattens the conversation into the stored layout. An assistant
// turn with zero branches is never emitted (a turn that lost all branches
// was already removed together with its user message). Loading branches
// are emitted with their partial buffers so an interrupted stream survives
// a reload.
func (c *Conversation) History() []StoredMessage {
	history := make([]StoredMessage, 0, len(c.turns)*2)

	for i := range c.turns {
		turn := &c.turns[i]

		history = append(history, StoredMessage{
			Role:         RoleUser,
			Content:      sanitize(turn.User.Content),
			Timestamp:    turn.User.Timestamp,
			ImageBase64:  turn.User.ImageBase64,
			DisplayText:  turn.User.DisplayText,
			IsQuickInput: turn.User.IsQuickInput,
		})

		if !turn.HasAssistant() || len(turn.Branches) == 0 {
			continue
		}

		entry := StoredMessage{
			Role:      RoleAssistant,
			Timestamp: turn.AssistantTimestamp,
			Responses: make([]StoredBranch, 0, len(turn.Branches)),
		}
		for j := range turn.Branches {
			b := &turn.Branches[j]
			entry.Responses = append(entry.Responses, StoredBranch{
				BranchID:     b.ID,
				Model:        b.Model,
				Content:      sanitize(b.Content),
				Status:       string(b.Status),
				ErrorMessage: b.ErrorMessage,
				UpdatedAt:    b.UpdatedAt,
			})
		}
		history = append(history, entry)
	}

	return history
}

// FromHistory rebuilds a conversation from the stored layout. Assistant
// entries without a responses array are the legacy single-response format;
// they are dropped with a warning, together with the user message they
// followed, rather than guessed at. An assistant entry with an empty
// responses array gets the same treatment.
func FromHistory(history []StoredMessage) *Conversation {
	c := New()

	for i := range history {
		entry := &history[i]
		switch entry.Role {
		case RoleUser:
			c.turns = append(c.turns, Turn{User: UserMessage{
				Content:      sanitize(entry.Content),
				Timestamp:    entry.Timestamp,
				ImageBase64:  entry.ImageBase64,
				DisplayText:  entry.DisplayText,
				IsQuickInput: entry.IsQuickInput,
			}})

		case RoleAssistant:
			turn := c.LastTurn()
			if turn == nil || turn.HasAssistant() {
				logger.Warn("Chat: Skipping assistant entry without a preceding user message")
				continue
			}
			if entry.Responses == nil {
				// Legacy single-response format. There is no branch metadata
				// to rebuild, so drop the pair rather than guess.
				c.turns = c.turns[:len(c.turns)-1]
				logger.Warn("Chat: Skipping legacy assistant entry without branches (timestamp=%d)", entry.Timestamp)
				continue
			}
			if len(entry.Responses) == 0 {
				// Zero-branch turns are never valid; drop the user half too.
				c.turns = c.turns[:len(c.turns)-1]
				logger.Warn("Chat: Dropped stored turn with zero branches")
				continue
			}

			turn.AssistantTimestamp = entry.Timestamp
			turn.Branches = make([]Branch, 0, len(entry.Responses))
			for _, sb := range entry.Responses {
				status := BranchStatus(sb.Status)
				switch status {
				case BranchLoading, BranchDone, BranchError:
				default:
					logger.Warn("Chat: Branch %s has unknown status %q, treating as error", sb.BranchID, sb.Status)
					status = BranchError
				}
				turn.Branches = append(turn.Branches, Branch{
					ID:           sb.BranchID,
					Model:        sb.Model,
					Content:      sanitize(sb.Content),
					Status:       status,
					ErrorMessage: sb.ErrorMessage,
					UpdatedAt:    sb.UpdatedAt,
				})
			}

		default:
			logger.Warn("Chat: Skipping history entry with unknown role %q", entry.Role)
		}
	}

	return c
}

// MarshalHistory serializes the conversation's history to JSON for storage.
func (c *Conversation) MarshalHistory() ([]byte, error) {
	return json.Marshal(c.History())
}

// UnmarshalHistory rebuilds a conversation from stored JSON.
func UnmarshalHistory(data []byte) (*Conversation, error) {
	if len(data) == 0 {
		return New(), nil
	}
	var history []StoredMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return FromHistory(history), nil
}
