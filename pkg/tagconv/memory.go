package tagconv

import (
	"context"
	"sort"
	"sync"
)

// MemorySource is an in-memory Source. It is safe for concurrent use and
// records how many lookups it served, which tests use to assert batching.
type MemorySource struct {
	mu      sync.RWMutex
	entries map[string]Entry
	lookups int
}

// NewMemorySource snapshots entries into a new source.
func NewMemorySource(entries ...Entry) *MemorySource {
	src := &MemorySource{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		src.entries[entry.Tag] = cloneEntry(entry)
	}
	return src
}

// Lookup returns the entries matching tags, sorted by tag.
func (m *MemorySource) Lookup(ctx context.Context, tags []string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.lookups++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(tags))
	for _, tag := range Unique(tags) {
		if entry, ok := m.entries[tag]; ok {
			out = append(out, cloneEntry(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

// Lookups returns the number of Lookup calls served so far.
func (m *MemorySource) Lookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookups
}

func cloneEntry(entry Entry) Entry {
	out := entry
	if entry.ConvertTo != nil {
		out.ConvertTo = make(map[string]string, len(entry.ConvertTo))
		for key, value := range entry.ConvertTo {
			out.ConvertTo[key] = value
		}
	}
	return out
}
