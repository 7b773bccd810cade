package settings

import (
	"sync"

	"github.com/samber/lo"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/logger"
)

// QuickInputManager owns the editable quick-input list. Same lifecycle and
// write rules as ModelManager.
type QuickInputManager struct {
	mu       sync.Mutex
	inputs   []config.QuickInput
	onChange ChangeCallback
}

// NewQuickInputManager creates an empty manager; call Init to hydrate it.
func NewQuickInputManager() *QuickInputManager {
	return &QuickInputManager{}
}

// Init hydrates the working set from config and registers the change callback.
func (m *QuickInputManager) Init(cfg *config.Config, onChange ChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = cfg.GetQuickInputs()
	m.onChange = onChange
	logger.Debug("Settings: QuickInputManager hydrated with %d inputs", len(m.inputs))
}

func (m *QuickInputManager) fire(kind ChangeKind) {
	if m.onChange != nil {
		m.onChange(kind)
	}
}

// All returns every quick input including soft-deleted ones.
func (m *QuickInputManager) All() []config.QuickInput {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]config.QuickInput, len(m.inputs))
	for i, q := range m.inputs {
		out[i] = q.Clone()
	}
	return out
}

// Visible returns non-deleted quick inputs in display order.
func (m *QuickInputManager) Visible() []config.QuickInput {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lo.FilterMap(m.inputs, func(q config.QuickInput, _ int) (config.QuickInput, bool) {
		if q.IsDeleted {
			return config.QuickInput{}, false
		}
		return q.Clone(), true
	})
}

// AutoTriggered returns visible quick inputs flagged for automatic firing.
func (m *QuickInputManager) AutoTriggered() []config.QuickInput {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lo.FilterMap(m.inputs, func(q config.QuickInput, _ int) (config.QuickInput, bool) {
		if q.IsDeleted || !q.AutoTrigger {
			return config.QuickInput{}, false
		}
		return q.Clone(), true
	})
}

// Get returns the quick input with the given ID.
func (m *QuickInputManager) Get(id string) (config.QuickInput, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, q := range m.inputs {
		if q.ID == id {
			return q.Clone(), true
		}
	}
	return config.QuickInput{}, false
}

// Add appends a new quick input and returns it.
func (m *QuickInputManager) Add() config.QuickInput {
	m.mu.Lock()
	q := config.NewQuickInput()
	m.inputs = append(m.inputs, q)
	m.mu.Unlock()

	logger.Info("Settings: Added quick input id=%s", q.ID)
	m.fire(ChangeContent)
	return q
}

// Insert registers a quick input built outside the manager.
func (m *QuickInputManager) Insert(q config.QuickInput) {
	m.mu.Lock()
	m.inputs = append(m.inputs, q.Clone())
	m.mu.Unlock()

	logger.Info("Settings: Inserted quick input id=%s", q.ID)
	m.fire(ChangeContent)
}

// Update replaces the stored quick input with the edited copy, subject to
// the idempotent-write rule.
func (m *QuickInputManager) Update(updated config.QuickInput) bool {
	m.mu.Lock()
	applied := false
	for i := range m.inputs {
		if m.inputs[i].ID != updated.ID {
			continue
		}
		if m.inputs[i].EqualIgnoringStamp(updated) {
			break
		}
		updated.LastModified = config.Now()
		m.inputs[i] = updated.Clone()
		applied = true
		break
	}
	m.mu.Unlock()

	if applied {
		m.fire(ChangeContent)
	}
	return applied
}

// Remove soft-deletes a quick input.
func (m *QuickInputManager) Remove(id string) bool {
	m.mu.Lock()
	applied := false
	for i := range m.inputs {
		if m.inputs[i].ID != id {
			continue
		}
		if !m.inputs[i].IsDeleted {
			m.inputs[i].IsDeleted = true
			m.inputs[i].LastModified = config.Now()
			applied = true
		}
		break
	}
	m.mu.Unlock()

	if applied {
		logger.Info("Settings: Soft-deleted quick input id=%s", id)
		m.fire(ChangeContent)
	}
	return applied
}

// Reorder moves the visible quick input at index from to index to. Fires
// the callback tagged ChangeOrder.
func (m *QuickInputManager) Reorder(from, to int) bool {
	m.mu.Lock()

	visible := []int{}
	for i := range m.inputs {
		if !m.inputs[i].IsDeleted {
			visible = append(visible, i)
		}
	}
	if from < 0 || from >= len(visible) || to < 0 || to >= len(visible) || from == to {
		m.mu.Unlock()
		return false
	}

	srcIdx := visible[from]
	moved := m.inputs[srcIdx]
	m.inputs = append(m.inputs[:srcIdx], m.inputs[srcIdx+1:]...)

	visible = visible[:0]
	for i := range m.inputs {
		if !m.inputs[i].IsDeleted {
			visible = append(visible, i)
		}
	}
	var dstIdx int
	if to >= len(visible) {
		dstIdx = len(m.inputs)
	} else {
		dstIdx = visible[to]
	}

	m.inputs = append(m.inputs[:dstIdx], append([]config.QuickInput{moved}, m.inputs[dstIdx:]...)...)
	m.mu.Unlock()

	m.fire(ChangeOrder)
	return true
}

// CleanupDeleted removes soft-deleted quick inputs from the backing array.
// Only call after a confirmed sync round-trip.
func (m *QuickInputManager) CleanupDeleted() int {
	m.mu.Lock()
	kept := m.inputs[:0]
	removed := 0
	for _, q := range m.inputs {
		if q.IsDeleted {
			removed++
			continue
		}
		kept = append(kept, q)
	}
	m.inputs = kept
	m.mu.Unlock()

	if removed > 0 {
		logger.Info("Settings: Cleaned up %d deleted quick inputs", removed)
		m.fire(ChangeCleanup)
	}
	return removed
}

// Flush writes the working set back into the config.
func (m *QuickInputManager) Flush(cfg *config.Config) {
	m.mu.Lock()
	inputs := make([]config.QuickInput, len(m.inputs))
	for i, q := range m.inputs {
		inputs[i] = q.Clone()
	}
	m.mu.Unlock()

	cfg.SetQuickInputs(inputs)
}
