package config

import (
	"slices"

	"github.com/google/uuid"
)

// QuickInput is a user-configured preset button that sends a canned message.
// AutoTrigger inputs fire automatically the first time their tab is visited;
// BranchModelIDs restricts the fan-out to specific models (empty means all
// active models).
type QuickInput struct {
	ID             string   `json:"id"`
	DisplayText    string   `json:"displayText"`
	SendText       string   `json:"sendText"`
	AutoTrigger    bool     `json:"autoTrigger,omitempty"`
	BranchModelIDs []string `json:"branchModelIds,omitempty"`
	IsDeleted      bool     `json:"isDeleted,omitempty"`
	LastModified   int64    `json:"lastModified"`
}

// NewQuickInput creates a quick input with a generated ID.
func NewQuickInput() QuickInput {
	return QuickInput{
		ID:           uuid.New().String(),
		LastModified: Now(),
	}
}

// Clone returns a deep copy (the model-ID slice is shared otherwise).
func (q QuickInput) Clone() QuickInput {
	out := q
	out.BranchModelIDs = slices.Clone(q.BranchModelIDs)
	return out
}

// AllowsModel reports whether the quick input may fan out to the given
// model ID. An empty restriction list allows every model.
func (q *QuickInput) AllowsModel(modelID string) bool {
	if len(q.BranchModelIDs) == 0 {
		return true
	}
	return slices.Contains(q.BranchModelIDs, modelID)
}

// EqualIgnoringStamp compares two quick inputs with ID and LastModified
// masked out.
func (q QuickInput) EqualIgnoringStamp(other QuickInput) bool {
	if q.DisplayText != other.DisplayText ||
		q.SendText != other.SendText ||
		q.AutoTrigger != other.AutoTrigger ||
		q.IsDeleted != other.IsDeleted {
		return false
	}
	return slices.Equal(q.BranchModelIDs, other.BranchModelIDs)
}
