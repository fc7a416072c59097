package worklist

import (
	"sort"
	"sync"
)

// MemoryHistory is the session-scoped HistoryStore: plain maps behind a
// mutex, nothing survives a restart.
type MemoryHistory struct {
	mu      sync.RWMutex
	entries map[string][]Snapshot
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{entries: make(map[string][]Snapshot)}
}

// Latest returns the most recent snapshot for a patient, if any.
func (m *MemoryHistory) Latest(patientID string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hist := m.entries[patientID]
	if len(hist) == 0 {
		return Snapshot{}, false
	}
	return hist[len(hist)-1], true
}

// Append adds a snapshot to the end of a patient's history.
func (m *MemoryHistory) Append(patientID string, s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[patientID] = append(m.entries[patientID], s)
}

// Board is the live triage queue. One entry per patient: re-triaging a
// patient replaces their row.
type Board struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewBoard() *Board {
	return &Board{}
}

// Upsert adds an entry, replacing any existing entry for the same patient.
func (b *Board) Upsert(e *Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.entries[:0]
	for _, existing := range b.entries {
		if existing.PatientID != e.PatientID {
			kept = append(kept, existing)
		}
	}
	b.entries = append(kept, e)
}

// Entries returns the board in display order: highest level first, and
// among equal levels worsening patients before stable ones. The sort is
// stable so equal rows keep arrival order.
func (b *Board) Entries() []*Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].Trend.Worsening() && !out[j].Trend.Worsening()
	})
	return out
}

// Len returns the number of patients on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
