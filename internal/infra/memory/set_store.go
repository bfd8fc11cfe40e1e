package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-builder-service/internal/domain"
)

// SetStore is an in-memory document store for sets and categories. A single
// lock covers both collections, so a save is atomic.
type SetStore struct {
	mu         sync.RWMutex
	sets       map[string]domain.CustomSet
	categories map[string]domain.Category
}

func NewSetStore() *SetStore {
	return &SetStore{
		sets:       make(map[string]domain.CustomSet),
		categories: make(map[string]domain.Category),
	}
}

func (s *SetStore) SaveSet(_ context.Context, set domain.CustomSet, categories []domain.Category, orphaned []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range orphaned {
		delete(s.categories, id)
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	s.sets[set.ID] = set.Clone()
	return nil
}

func (s *SetStore) GetSet(_ context.Context, setID string) (domain.CustomSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[setID]
	if !ok {
		return domain.CustomSet{}, domain.ErrSetNotFound
	}
	return set.Clone(), nil
}

func (s *SetStore) GetCategory(_ context.Context, categoryID string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return c, nil
}

func (s *SetStore) DeleteSet(_ context.Context, setID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[setID]; !ok {
		return domain.ErrSetNotFound
	}
	delete(s.sets, setID)
	for id, c := range s.categories {
		if c.SetID == setID {
			delete(s.categories, id)
		}
	}
	return nil
}

func (s *SetStore) ListSets(_ context.Context, ownerID string, status domain.SetStatus) ([]domain.CustomSet, error) {
	wantDraft := status == domain.StatusDraft
	return s.filter(func(set domain.CustomSet) bool {
		return set.OwnerID == ownerID && set.IsDraft == wantDraft
	}), nil
}

func (s *SetStore) SearchSets(_ context.Context, keyword string) ([]domain.CustomSet, error) {
	return s.filter(func(set domain.CustomSet) bool {
		if set.IsDraft || !set.IsPublic {
			return false
		}
		return contains(set.Tags, keyword) || contains(set.CategoryNames, keyword)
	}), nil
}

// filter returns matching sets, most recently updated first.
func (s *SetStore) filter(match func(domain.CustomSet) bool) []domain.CustomSet {
	s.mu.RLock()
	out := make([]domain.CustomSet, 0)
	for _, set := range s.sets {
		if match(set) {
			out = append(out, set.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
