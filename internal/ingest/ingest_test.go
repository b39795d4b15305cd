package ingest

import (
	"context"
	"testing"

	"memoria/internal/contradiction"
	"memoria/internal/domain"
	"memoria/internal/vectorstore"
)

// fakeEmbedder returns a fixed vector regardless of input, unless seeded
// with a per-text override.
type fakeEmbedder struct {
	overrides map[string][]float32
	fallback  []float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.overrides[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

// scriptedDetector returns a fixed verdict regardless of input.
type scriptedDetector struct {
	verdict contradiction.Verdict
}

func (d *scriptedDetector) Detect(ctx context.Context, newContent, existingContent string, useLLM bool) contradiction.Verdict {
	return d.verdict
}

// fakeDynamics records calls without touching any real repository.
type fakeDynamics struct {
	seeded       []domain.MemoryId
	promoted     []domain.MemoryId
	demoted      []domain.MemoryId
	supersessions int
}

func (f *fakeDynamics) Seed(ctx context.Context, id domain.MemoryId, userID string) {
	f.seeded = append(f.seeded, id)
}

func (f *fakeDynamics) Promote(ctx context.Context, id domain.MemoryId, userIDs []string, grade domain.Grade, signal domain.SignalType) error {
	f.promoted = append(f.promoted, id)
	return nil
}

func (f *fakeDynamics) Demote(ctx context.Context, id domain.MemoryId, userIDs []string) error {
	f.demoted = append(f.demoted, id)
	return nil
}

func (f *fakeDynamics) RecordSupersession(ctx context.Context, oldID, newID domain.MemoryId, userID string, reason domain.SupersessionReason, confidence float64, details string) {
	f.supersessions++
}

func newHarness() (*SmartIngest, *vectorstore.MemStore, *fakeDynamics) {
	store := vectorstore.NewMemStore()
	emb := &fakeEmbedder{fallback: []float32{1, 0, 0, 0}}
	det := &scriptedDetector{verdict: contradiction.Verdict{Type: contradiction.TypeNone}}
	dyn := &fakeDynamics{}
	return New(store, emb, det, dyn), store, dyn
}

// Invariant 7: an empty store always yields Created.
func TestIngestIntoEmptyStoreAlwaysCreates(t *testing.T) {
	si, store, dyn := newHarness()

	result, err := si.Ingest(context.Background(), "likes strawberries", "u1")
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if result.Kind != ResultCreated {
		t.Fatalf("expected Created, got %v", result.Kind)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored record, got %d", store.Len())
	}
	if len(dyn.seeded) != 1 {
		t.Fatalf("expected fsrs state to be seeded once, got %d", len(dyn.seeded))
	}
}

// S1 / invariant 8: re-ingesting an identical fact is a Skip, and never
// mutates the store.
func TestIngestIdenticalFactTwiceSkipsSecondTime(t *testing.T) {
	si, store, _ := newHarness()
	ctx := context.Background()

	first, err := si.Ingest(ctx, "I live in Seattle", "u1")
	if err != nil || first.Kind != ResultCreated {
		t.Fatalf("unexpected first ingest: %+v err=%v", first, err)
	}

	second, err := si.Ingest(ctx, "I live in Seattle", "u1")
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if second.Kind != ResultSkip {
		t.Fatalf("expected Skip on identical re-ingest, got %v", second.Kind)
	}
	if store.Len() != 1 {
		t.Fatalf("Skip must not mutate the store, got %d records", store.Len())
	}
}

// S3: a close restatement with no contradiction reinforces the existing
// memory rather than creating a duplicate.
func TestIngestCloseRestatementReinforces(t *testing.T) {
	store := vectorstore.NewMemStore()
	// Two distinct unit vectors with cosine similarity 0.85: lands in the
	// (0.75, 0.95] reinforce band, not the dedup band.
	emb := &fakeEmbedder{overrides: map[string][]float32{
		"I work at Acme Corp":        {1, 0, 0, 0},
		"I am employed at Acme Corp": {0.85, 0.5268, 0, 0},
	}}
	det := &scriptedDetector{verdict: contradiction.Verdict{Type: contradiction.TypeNone}}
	dyn := &fakeDynamics{}
	si := New(store, emb, det, dyn)
	ctx := context.Background()

	first, err := si.Ingest(ctx, "I work at Acme Corp", "u1")
	if err != nil || first.Kind != ResultCreated {
		t.Fatalf("unexpected first ingest: %+v err=%v", first, err)
	}

	second, err := si.Ingest(ctx, "I am employed at Acme Corp", "u1")
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if second.Kind != ResultReinforced {
		t.Fatalf("expected Reinforced, got %v (reason: %s)", second.Kind, second.Reason)
	}
	if second.ID != first.ID {
		t.Fatalf("reinforced result should reference the original id")
	}
	if len(dyn.promoted) != 1 || dyn.promoted[0] != first.ID {
		t.Fatalf("expected original memory to be promoted, got %+v", dyn.promoted)
	}
	if store.Len() != 1 {
		t.Fatalf("reinforce must not create a new record, got %d", store.Len())
	}
}

// Invariant 9: a detected contradiction above the reinforce band supersedes
// — creating exactly one new memory and demoting (never deleting) the old
// one, plus exactly one supersession record.
func TestIngestContradictionAboveReinforceBandSupersedes(t *testing.T) {
	store := vectorstore.NewMemStore()
	// Cosine similarity 0.85 puts the second fact in the reinforce band
	// (score > 0.75), where a detected contradiction still supersedes
	// unconditionally regardless of its confidence.
	emb := &fakeEmbedder{overrides: map[string][]float32{
		"I love strawberries":               {1, 0, 0, 0},
		"I don't like strawberries anymore": {0.85, 0.5268, 0, 0},
	}}
	det := &scriptedDetector{verdict: contradiction.Verdict{Type: contradiction.TypeNegation, Contradicts: true, Confidence: 0.80}}
	dyn := &fakeDynamics{}
	si := New(store, emb, det, dyn)
	ctx := context.Background()

	first, err := si.Ingest(ctx, "I love strawberries", "u1")
	if err != nil || first.Kind != ResultCreated {
		t.Fatalf("unexpected first ingest: %+v err=%v", first, err)
	}

	second, err := si.Ingest(ctx, "I don't like strawberries anymore", "u1")
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if second.Kind != ResultSuperseded {
		t.Fatalf("expected Superseded, got %v", second.Kind)
	}
	if second.ID == first.ID {
		t.Fatalf("superseded result must carry the NEW memory id")
	}
	if store.Len() != 2 {
		t.Fatalf("supersede creates, never deletes: expected 2 records, got %d", store.Len())
	}
	if len(dyn.demoted) != 1 || dyn.demoted[0] != first.ID {
		t.Fatalf("expected the old memory to be demoted, got %+v", dyn.demoted)
	}
	if dyn.supersessions != 1 {
		t.Fatalf("expected exactly one supersession record, got %d", dyn.supersessions)
	}
}

// Mid-band (0.60-0.75): contradiction must clear the >0.70 confidence gate
// to supersede; below it, Ingest still creates a new memory rather than
// silently dropping the fact.
func TestIngestMidBandLowConfidenceStillCreates(t *testing.T) {
	store := vectorstore.NewMemStore()
	// Distinct but non-orthogonal vectors land the second search hit in the
	// mid (0.60, 0.75] band rather than the high-similarity reinforce band.
	emb := &fakeEmbedder{overrides: map[string][]float32{
		"I grew up in Portland":  {1, 0, 0, 0},
		"I now live in Portland": {0.65, 0.76, 0, 0},
	}}
	det := &scriptedDetector{verdict: contradiction.Verdict{Type: contradiction.TypeSemantic, Contradicts: true, Confidence: 0.50}}
	dyn := &fakeDynamics{}
	si := New(store, emb, det, dyn)
	ctx := context.Background()

	first, err := si.Ingest(ctx, "I grew up in Portland", "u1")
	if err != nil || first.Kind != ResultCreated {
		t.Fatalf("unexpected first ingest: %+v err=%v", first, err)
	}

	second, err := si.Ingest(ctx, "I now live in Portland", "u1")
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if second.Kind != ResultCreated {
		t.Fatalf("expected Created when contradiction confidence does not clear the gate, got %v", second.Kind)
	}
	if dyn.supersessions != 0 {
		t.Fatalf("low-confidence mid-band contradiction must not supersede")
	}
}

func TestClassifyPicksHighestKeywordCount(t *testing.T) {
	cases := []struct {
		fact string
		want domain.Category
	}{
		{"I like coffee in the morning", domain.CategoryPreferences},
		{"I work as a manager at my company", domain.CategoryProfessional},
		{"My goal is to run a marathon, I plan to train daily", domain.CategoryGoals},
		{"I feel anxious and worried today", domain.CategoryEmotional},
		{"Yesterday I went to the store", domain.CategoryTemporal},
	}
	for _, c := range cases {
		if got := classify(c.fact); got != c.want {
			t.Errorf("classify(%q) = %v, want %v", c.fact, got, c.want)
		}
	}
}
