// HistoryManager tracks what history pseudo-states resolve to.
// Thread-safe for concurrent access.
package core

import (
	"maps"
	"slices"
	"sync"
)

// HistoryManager tracks history configurations for shallow and deep history states.
// Whenever a child of a region is exited, the region's history states record it:
// Shallow: remembers the exited direct child path.
// Deep: remembers the active leaf paths that were under that child.
// A history target therefore resolves to the state most recently left in its region.
type HistoryManager struct {
	mu      sync.RWMutex
	records map[string][]string // historyStatePath -> recorded state paths
}

// NewHistoryManager creates a new HistoryManager.
func NewHistoryManager() *HistoryManager {
	return &HistoryManager{
		records: make(map[string][]string),
	}
}

// Record stores the configuration to restore for a history state.
// For shallow history paths holds exactly one child path.
func (h *HistoryManager) Record(historyPath string, paths []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[historyPath] = slices.Clone(paths)
}

// Restore returns the recorded configuration for a history state, if available.
func (h *HistoryManager) Restore(historyPath string) ([]string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	paths, ok := h.records[historyPath]
	if !ok || len(paths) == 0 {
		return nil, false
	}
	return slices.Clone(paths), true
}

// Export returns a copy of all records, for persistence.
func (h *HistoryManager) Export() map[string][]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string][]string, len(h.records))
	for k, v := range h.records {
		out[k] = slices.Clone(v)
	}
	return out
}

// Import replaces all records.
func (h *HistoryManager) Import(records map[string][]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = maps.Clone(records)
	if h.records == nil {
		h.records = make(map[string][]string)
	}
}
