package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used when no database is configured
// and in tests. All operations are guarded by a single mutex, which makes
// the hit-count increment trivially atomic.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[memoryKey]*Entry
}

type memoryKey struct {
	subject string
	typ     string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]*Entry)}
}

func (m *MemoryStore) Get(_ context.Context, subjectKey, analysisType string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[memoryKey{subjectKey, analysisType}]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.HitCount = 0
	m.entries[memoryKey{e.SubjectKey, e.AnalysisType}] = &cp
	return nil
}

func (m *MemoryStore) PutIfAbsent(_ context.Context, e *Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey{e.SubjectKey, e.AnalysisType}
	if _, exists := m.entries[k]; exists {
		return false, nil
	}
	cp := *e
	cp.HitCount = 0
	m.entries[k] = &cp
	return true, nil
}

func (m *MemoryStore) IncrementHits(_ context.Context, subjectKey, analysisType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[memoryKey{subjectKey, analysisType}]; ok {
		e.HitCount++
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, subjectKey, analysisType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, memoryKey{subjectKey, analysisType})
	return nil
}

func (m *MemoryStore) DeleteAll(_ context.Context, subjectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.subject == subjectKey {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for k, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, k)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) Stats(_ context.Context, now time.Time, topN int) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &Stats{}
	var keys []KeyHits
	for k, e := range m.entries {
		stats.TotalEntries++
		stats.TotalHits += e.HitCount
		if e.Expired(now) {
			stats.ExpiredEntries++
		} else {
			stats.ActiveEntries++
		}
		keys = append(keys, KeyHits{SubjectKey: k.subject, AnalysisType: k.typ, HitCount: e.HitCount})
	}

	active := stats.ActiveEntries
	if active < 1 {
		active = 1
	}
	stats.HitRatio = float64(stats.TotalHits) / float64(active)

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].HitCount != keys[j].HitCount {
			return keys[i].HitCount > keys[j].HitCount
		}
		if keys[i].SubjectKey != keys[j].SubjectKey {
			return keys[i].SubjectKey < keys[j].SubjectKey
		}
		return keys[i].AnalysisType < keys[j].AnalysisType
	})
	if len(keys) > topN {
		keys = keys[:topN]
	}
	stats.TopKeys = keys

	return stats, nil
}
