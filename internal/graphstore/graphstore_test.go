package graphstore

import (
	"context"
	"testing"

	"memoria/internal/domain"
)

func TestSanitizeLabel(t *testing.T) {
	cases := map[string]string{
		"likes":       "LIKES",
		"works at":    "WORKSAT",
		"co-worker_of": "COWORKER_OF",
		"":            "",
	}
	for in, want := range cases {
		if got := SanitizeLabel(in); got != want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMemStoreSearchEntitiesOneHop(t *testing.T) {
	m := NewMemStore(nil)
	m.AddEntityDirect(domain.Entity{ID: "1", Name: "Alice", EntityType: domain.EntityPerson, UserID: "u1"})
	m.AddEntityDirect(domain.Entity{ID: "2", Name: "Bob", EntityType: domain.EntityPerson, UserID: "u1"})
	m.AddRelationshipDirect(domain.Relationship{SourceEntity: "Alice", Label: "knows", TargetEntity: "Bob", UserID: "u1"})

	results, err := m.SearchEntities(context.Background(), "ali", []string{"u1"}, 10)
	if err != nil {
		t.Fatalf("SearchEntities: %v", err)
	}
	if len(results) != 1 || results[0] != "Alice → KNOWS → Bob" {
		t.Fatalf("unexpected results: %v", results)
	}
}

func TestMemStoreSearchEntitiesScopedByUser(t *testing.T) {
	m := NewMemStore(nil)
	m.AddEntityDirect(domain.Entity{ID: "1", Name: "Alice", EntityType: domain.EntityPerson, UserID: "u1"})
	m.AddRelationshipDirect(domain.Relationship{SourceEntity: "Alice", Label: "knows", TargetEntity: "Carol", UserID: "u1"})

	results, err := m.SearchEntities(context.Background(), "ali", []string{"u2"}, 10)
	if err != nil {
		t.Fatalf("SearchEntities: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no cross-user leakage, got %v", results)
	}
}

func TestAddEntityDataWithoutExtractorErrors(t *testing.T) {
	m := NewMemStore(nil)
	if err := m.AddEntityData(context.Background(), "some text", "u1"); err != ErrNoExtractor {
		t.Errorf("want ErrNoExtractor, got %v", err)
	}
}
