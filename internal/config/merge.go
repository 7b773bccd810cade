package config

import (
	"github.com/wookiisky/think-bot/internal/logger"
)

// Merge folds a remote config snapshot into the local config using
// last-write-wins on per-entity lastModified stamps. Soft-deleted entries
// participate like any other edit, which is how deletions propagate between
// devices. Returns true when the local config changed.
func (c *Config) Merge(remote *ImportResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false

	if remote.Basic.LastModified > c.Basic.LastModified {
		// Preserve the newer of the two order stamps independently.
		orderStamp := max(c.Basic.ModelOrderModified, remote.Basic.ModelOrderModified)
		c.Basic = remote.Basic
		c.Basic.ModelOrderModified = orderStamp
		changed = true
	} else if remote.Basic.ModelOrderModified > c.Basic.ModelOrderModified {
		c.Basic.ModelOrderModified = remote.Basic.ModelOrderModified
		changed = true
	}

	if mergeModels(&c.LLMModels.Models, remote.Models) {
		changed = true
	}
	if mergeQuickInputs(&c.QuickInputs, remote.QuickInputs) {
		changed = true
	}

	if changed {
		logger.Debug("Config: Merge applied remote changes")
	}
	return changed
}

func mergeModels(local *[]Model, remote []Model) bool {
	changed := false
	index := make(map[string]int, len(*local))
	for i, m := range *local {
		index[m.ID] = i
	}

	for _, rm := range remote {
		if rm.ID == "" {
			continue
		}
		if i, ok := index[rm.ID]; ok {
			if rm.LastModified > (*local)[i].LastModified {
				(*local)[i] = rm
				changed = true
			}
		} else {
			*local = append(*local, rm)
			index[rm.ID] = len(*local) - 1
			changed = true
		}
	}
	return changed
}

func mergeQuickInputs(local *[]QuickInput, remote []QuickInput) bool {
	changed := false
	index := make(map[string]int, len(*local))
	for i, q := range *local {
		index[q.ID] = i
	}

	for _, rq := range remote {
		if rq.ID == "" {
			continue
		}
		if i, ok := index[rq.ID]; ok {
			if rq.LastModified > (*local)[i].LastModified {
				(*local)[i] = rq.Clone()
				changed = true
			}
		} else {
			*local = append(*local, rq.Clone())
			index[rq.ID] = len(*local) - 1
			changed = true
		}
	}
	return changed
}

// CleanupDeleted physically removes soft-deleted models and quick inputs.
// Only call after a confirmed successful sync round-trip; removing earlier
// would lose the deletion marker other devices still need to see.
func (c *Config) CleanupDeleted() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	models := c.LLMModels.Models[:0]
	for _, m := range c.LLMModels.Models {
		if m.IsDeleted {
			removed++
			continue
		}
		models = append(models, m)
	}
	c.LLMModels.Models = models

	inputs := c.QuickInputs[:0]
	for _, q := range c.QuickInputs {
		if q.IsDeleted {
			removed++
			continue
		}
		inputs = append(inputs, q)
	}
	c.QuickInputs = inputs

	if removed > 0 {
		logger.Info("Config: Cleaned up %d soft-deleted entries after sync", removed)
	}
	return removed
}
