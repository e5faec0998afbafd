package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/promptkeeper/promptkeeper/internal/record"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory Repository used when no MongoDB URI is configured
// and in unit tests. Insertion order stands in for the store's natural order.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []string
	store map[string]*record.Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*record.Record)}
}

func (m *MemoryRepo) Create(_ context.Context, key string, remaining int) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[key]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	r := &record.Record{
		ID:        primitive.NewObjectID(),
		Key:       key,
		Remaining: remaining,
		Prompts:   []record.Prompt{},
	}
	m.store[key] = r
	m.order = append(m.order, key)
	return r.Clone(), nil
}

func (m *MemoryRepo) List(_ context.Context) ([]record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]record.Record, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, *m.store[k].Clone())
	}
	return out, nil
}

func (m *MemoryRepo) Get(_ context.Context, key string) (*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryRepo) Update(_ context.Context, key string, patch record.Patch) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Remaining != nil {
		r.Remaining = *patch.Remaining
	}
	if patch.Prompts != nil {
		r.Prompts = patch.NormalizedPrompts()
	}
	return r.Clone(), nil
}

func (m *MemoryRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[key]; !ok {
		return ErrNotFound
	}
	delete(m.store, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepo) AppendPrompt(_ context.Context, key string, in record.PromptInput) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	r.Prompts = append(r.Prompts, record.NewPrompt(in))
	return r.Clone(), nil
}

func (m *MemoryRepo) RemovePrompt(_ context.Context, key string, promptID string) (*record.Removal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	oid, err := primitive.ObjectIDFromHex(promptID)
	if err != nil {
		return &record.Removal{Record: r.Clone()}, nil
	}
	kept := make([]record.Prompt, 0, len(r.Prompts))
	for _, p := range r.Prompts {
		if p.ID != oid {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(r.Prompts)
	r.Prompts = kept
	return &record.Removal{Record: r.Clone(), Removed: removed}, nil
}

func (m *MemoryRepo) Prompts(ctx context.Context, key string) ([]record.Prompt, error) {
	r, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return r.Prompts, nil
}

func (m *MemoryRepo) MostFrequentIndustry(_ context.Context) (*record.IndustryCount, error) {
	m.mu.RLock()
	counts := map[string]int{}
	for _, r := range m.store {
		for _, p := range r.Prompts {
			if p.Industry != "" {
				counts[p.Industry]++
			}
		}
	}
	m.mu.RUnlock()

	if len(counts) == 0 {
		return nil, nil
	}
	groups := make([]record.IndustryCount, 0, len(counts))
	for industry, n := range counts {
		groups = append(groups, record.IndustryCount{Industry: industry, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Industry < groups[j].Industry
	})
	return &groups[0], nil
}
