// Package settings holds the editable working sets behind the options UI:
// the model list and the quick-input list. Managers hydrate from config,
// apply user edits with the idempotent-write rule (a write that changes
// nothing bumps no timestamp and fires no callback), and flush back into
// config on save.
package settings

import (
	"sync"

	"github.com/samber/lo"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/logger"
)

// ChangeKind tags what sort of change a callback reports. Order changes get
// their own timestamp during sync, and cleanup passes must not mark the
// settings dirty.
type ChangeKind string

const (
	ChangeContent ChangeKind = "content"
	ChangeOrder   ChangeKind = "order"
	ChangeCleanup ChangeKind = "cleanup"
)

// ChangeCallback is invoked exactly once per user-visible change.
type ChangeCallback func(kind ChangeKind)

// ModelManager owns the editable model list.
type ModelManager struct {
	mu       sync.Mutex
	models   []config.Model
	onChange ChangeCallback
}

// NewModelManager creates an empty manager; call Init to hydrate it.
func NewModelManager() *ModelManager {
	return &ModelManager{}
}

// Init hydrates the working set from config and registers the change
// callback. Any previous working set is discarded.
func (m *ModelManager) Init(cfg *config.Config, onChange ChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.models = cfg.GetModels()
	m.onChange = onChange
	logger.Debug("Settings: ModelManager hydrated with %d models", len(m.models))
}

func (m *ModelManager) fire(kind ChangeKind) {
	if m.onChange != nil {
		m.onChange(kind)
	}
}

// All returns every model including soft-deleted ones.
func (m *ModelManager) All() []config.Model {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]config.Model, len(m.models))
	copy(out, m.models)
	return out
}

// Active returns enabled, non-deleted models.
func (m *ModelManager) Active() []config.Model {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lo.Filter(m.models, func(mdl config.Model, _ int) bool {
		return mdl.IsActive()
	})
}

// Complete returns active models that have all provider-required fields;
// only these are eligible as default-model or branch candidates.
func (m *ModelManager) Complete() []config.Model {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lo.Filter(m.models, func(mdl config.Model, _ int) bool {
		return mdl.IsActive() && mdl.IsComplete()
	})
}

// Visible returns non-deleted models in display order.
func (m *ModelManager) Visible() []config.Model {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lo.Filter(m.models, func(mdl config.Model, _ int) bool {
		return !mdl.IsDeleted
	})
}

// Get returns the model with the given ID.
func (m *ModelManager) Get(id string) (config.Model, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mdl := range m.models {
		if mdl.ID == id {
			return mdl, true
		}
	}
	return config.Model{}, false
}

// Add appends a new model for the given provider and returns it.
func (m *ModelManager) Add(provider string) config.Model {
	m.mu.Lock()
	mdl := config.NewModel(provider)
	m.models = append(m.models, mdl)
	m.mu.Unlock()

	logger.Info("Settings: Added model id=%s provider=%s", mdl.ID, provider)
	m.fire(ChangeContent)
	return mdl
}

// Insert registers a model built outside the manager, e.g. one confirmed
// through an add form.
func (m *ModelManager) Insert(mdl config.Model) {
	m.mu.Lock()
	m.models = append(m.models, mdl)
	m.mu.Unlock()

	logger.Info("Settings: Inserted model id=%s provider=%s", mdl.ID, mdl.Provider)
	m.fire(ChangeContent)
}

// Copy duplicates a model under a fresh ID.
func (m *ModelManager) Copy(id string) (config.Model, bool) {
	m.mu.Lock()
	var dup config.Model
	found := false
	for _, mdl := range m.models {
		if mdl.ID == id {
			dup = mdl
			dup.ID = config.NewModel(mdl.Provider).ID
			dup.Name = mdl.Name + " (copy)"
			dup.LastModified = config.Now()
			m.models = append(m.models, dup)
			found = true
			break
		}
	}
	m.mu.Unlock()

	if !found {
		return config.Model{}, false
	}
	m.fire(ChangeContent)
	return dup, true
}

// Update replaces the stored model with the edited copy. The write is
// idempotent: identical values leave the timestamp untouched and fire no
// callback. Returns true when a change was applied.
func (m *ModelManager) Update(updated config.Model) bool {
	m.mu.Lock()
	applied := false
	for i := range m.models {
		if m.models[i].ID != updated.ID {
			continue
		}
		if m.models[i].EqualIgnoringStamp(updated) {
			break
		}
		updated.LastModified = config.Now()
		m.models[i] = updated
		applied = true
		break
	}
	m.mu.Unlock()

	if applied {
		m.fire(ChangeContent)
	}
	return applied
}

// SetEnabled toggles a model. No-op (and no callback) when already in the
// requested state.
func (m *ModelManager) SetEnabled(id string, enabled bool) bool {
	m.mu.Lock()
	applied := false
	for i := range m.models {
		if m.models[i].ID != id {
			continue
		}
		if m.models[i].Enabled != enabled {
			m.models[i].Enabled = enabled
			m.models[i].LastModified = config.Now()
			applied = true
		}
		break
	}
	m.mu.Unlock()

	if applied {
		m.fire(ChangeContent)
	}
	return applied
}

// Remove soft-deletes a model: it disappears from rendering but stays in
// the backing array so the deletion propagates through sync.
func (m *ModelManager) Remove(id string) bool {
	m.mu.Lock()
	applied := false
	for i := range m.models {
		if m.models[i].ID != id {
			continue
		}
		if !m.models[i].IsDeleted {
			m.models[i].IsDeleted = true
			m.models[i].LastModified = config.Now()
			applied = true
		}
		break
	}
	m.mu.Unlock()

	if applied {
		logger.Info("Settings: Soft-deleted model id=%s", id)
		m.fire(ChangeContent)
	}
	return applied
}

// Reorder moves the visible model at index from to index to (indices into
// the Visible() ordering) and splices the backing array to match. Fires the
// callback tagged ChangeOrder so the caller can bump the order-specific
// timestamp instead of the content one.
func (m *ModelManager) Reorder(from, to int) bool {
	m.mu.Lock()

	visible := []int{}
	for i := range m.models {
		if !m.models[i].IsDeleted {
			visible = append(visible, i)
		}
	}
	if from < 0 || from >= len(visible) || to < 0 || to >= len(visible) || from == to {
		m.mu.Unlock()
		return false
	}

	srcIdx := visible[from]
	moved := m.models[srcIdx]
	m.models = append(m.models[:srcIdx], m.models[srcIdx+1:]...)

	// Recompute the insertion point after the removal shifted indices.
	visible = visible[:0]
	for i := range m.models {
		if !m.models[i].IsDeleted {
			visible = append(visible, i)
		}
	}
	var dstIdx int
	if to >= len(visible) {
		dstIdx = len(m.models)
	} else {
		dstIdx = visible[to]
	}

	m.models = append(m.models[:dstIdx], append([]config.Model{moved}, m.models[dstIdx:]...)...)
	m.mu.Unlock()

	m.fire(ChangeOrder)
	return true
}

// CleanupDeleted removes soft-deleted models from the backing array. Only
// call after a confirmed sync round-trip. Fires the callback once, tagged
// ChangeCleanup, when anything was removed.
func (m *ModelManager) CleanupDeleted() int {
	m.mu.Lock()
	kept := m.models[:0]
	removed := 0
	for _, mdl := range m.models {
		if mdl.IsDeleted {
			removed++
			continue
		}
		kept = append(kept, mdl)
	}
	m.models = kept
	m.mu.Unlock()

	if removed > 0 {
		logger.Info("Settings: Cleaned up %d deleted models", removed)
		m.fire(ChangeCleanup)
	}
	return removed
}

// Flush writes the working set back into the config.
func (m *ModelManager) Flush(cfg *config.Config) {
	m.mu.Lock()
	models := make([]config.Model, len(m.models))
	copy(models, m.models)
	m.mu.Unlock()

	cfg.SetModels(models)
}
