package vectorstore

import (
	"context"
	"testing"
)

func TestMemStoreInsertAndGet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.Insert(ctx, "m1", []float32{1, 0, 0}, "hello", map[string]string{"user_id": "u1"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec, ok, err := s.Get(ctx, "m1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if rec.Content != "hello" {
		t.Errorf("content = %q, want hello", rec.Content)
	}
}

func TestMemStoreSearchRanksByCosineSimilarity(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_ = s.Insert(ctx, "close", []float32{1, 0, 0}, "close", map[string]string{"user_id": "u1"})
	_ = s.Insert(ctx, "far", []float32{0, 1, 0}, "far", map[string]string{"user_id": "u1"})

	hits, err := s.Search(ctx, []float32{1, 0, 0}, map[string]string{"user_id": "u1"}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("want 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "close" {
		t.Errorf("want closest hit first, got %q", hits[0].ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not sorted descending: %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestMemStoreSearchFiltersByPayload(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_ = s.Insert(ctx, "mine", []float32{1, 0}, "mine", map[string]string{"user_id": "u1"})
	_ = s.Insert(ctx, "theirs", []float32{1, 0}, "theirs", map[string]string{"user_id": "u2"})

	hits, err := s.Search(ctx, []float32{1, 0}, map[string]string{"user_id": "u1"}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "mine" {
		t.Fatalf("filter did not isolate u1's record: %+v", hits)
	}
}

func TestMemStoreDelete(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.Insert(ctx, "m1", []float32{1}, "x", nil)
	if err := s.Delete(ctx, "m1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "m1"); ok {
		t.Error("record still present after Delete")
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing id should not error, got %v", err)
	}
}
