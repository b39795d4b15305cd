package graphstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"memoria/internal/domain"
)

// MemStore is an in-memory Store for tests and cmd/memoryctl's quick-start mode.
type MemStore struct {
	mu        sync.RWMutex
	entities  []domain.Entity
	relations []domain.Relationship
	extractor EntityExtractor
}

// NewMemStore returns an empty MemStore. extractor may be nil.
func NewMemStore(extractor EntityExtractor) *MemStore {
	return &MemStore{extractor: extractor}
}

// EnsureSchema implements Store.
func (m *MemStore) EnsureSchema(_ context.Context) error { return nil }

// SearchEntities implements Store.
func (m *MemStore) SearchEntities(_ context.Context, query string, userIDs []string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	userSet := toSet(userIDs)
	query = strings.ToLower(query)

	var matched []string
	for _, e := range m.entities {
		if !userSet[e.UserID] {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Name), query) {
			continue
		}
		matched = append(matched, e.Name)
	}

	var results []string
	for _, name := range matched {
		for _, r := range m.relations {
			if !userSet[r.UserID] {
				continue
			}
			if r.SourceEntity == name || r.TargetEntity == name {
				results = append(results, fmt.Sprintf("%s → %s → %s", r.SourceEntity, r.Label, r.TargetEntity))
				if len(results) >= limit {
					return results, nil
				}
			}
		}
	}
	return results, nil
}

// AddEntityData implements Store.
func (m *MemStore) AddEntityData(ctx context.Context, text, userID string) error {
	if m.extractor == nil {
		return ErrNoExtractor
	}
	entities, relationships, err := m.extractor.Extract(ctx, text)
	if err != nil {
		return fmt.Errorf("graphstore: extract entities: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		m.entities = append(m.entities, domain.Entity{
			ID:         uuid.NewString(),
			Name:       name,
			EntityType: e.EntityType,
			UserID:     userID,
		})
	}
	for _, r := range relationships {
		label := SanitizeLabel(r.Label)
		if label == "" || r.Source == "" || r.Target == "" {
			continue
		}
		m.relations = append(m.relations, domain.Relationship{
			SourceEntity: r.Source,
			Label:        label,
			TargetEntity: r.Target,
			UserID:       userID,
		})
	}
	return nil
}

// GetAllRelationships implements Store.
func (m *MemStore) GetAllRelationships(_ context.Context, userIDs []string, limit int) ([]domain.Relationship, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	userSet := toSet(userIDs)
	var out []domain.Relationship
	for _, r := range m.relations {
		if !userSet[r.UserID] {
			continue
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// AddRelationshipDirect is a test/seed helper bypassing the extractor.
func (m *MemStore) AddRelationshipDirect(rel domain.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel.Label = SanitizeLabel(rel.Label)
	m.relations = append(m.relations, rel)
}

// AddEntityDirect is a test/seed helper bypassing the extractor.
func (m *MemStore) AddEntityDirect(e domain.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = append(m.entities, e)
}

func toSet(ss []string) map[string]bool {
	set := make(map[string]bool, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set
}
