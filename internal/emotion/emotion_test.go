package emotion

import (
	"context"
	"testing"
	"time"

	"memoria/internal/domain"
	"memoria/internal/vectorstore"
)

func entriesOf(scores ...float64) []domain.SentimentEntry {
	now := time.Now()
	out := make([]domain.SentimentEntry, len(scores))
	for i, s := range scores {
		out[i] = domain.SentimentEntry{Score: s, Timestamp: now.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

// Invariant 10: compute_arc is undefined until at least 3 entries exist.
func TestComputeArcRequiresThreeEntries(t *testing.T) {
	if _, ok := computeArc(entriesOf(0.5, 0.5)); ok {
		t.Fatalf("expected no arc with fewer than 3 entries")
	}
	if _, ok := computeArc(entriesOf(0.5, 0.5, 0.5)); !ok {
		t.Fatalf("expected an arc with exactly 3 entries")
	}
}

// S5: [+0.9, -0.9, +0.8, -0.8, +0.7] has variance > 0.3 and is labeled
// volatile, with energy derived from the last-3 mean.
func TestComputeArcS5VolatileWithPositiveEnergy(t *testing.T) {
	arc, ok := computeArc(entriesOf(0.9, -0.9, 0.8, -0.8, 0.7))
	if !ok {
		t.Fatalf("expected an arc")
	}
	if arc.Label != domain.ArcVolatile {
		t.Errorf("expected volatile label, got %v (variance %.4f)", arc.Label, arc.Variance)
	}
	if arc.Variance <= 0.3 {
		t.Errorf("expected variance > 0.3, got %.4f", arc.Variance)
	}
	if arc.Energy != domain.EnergyPositive {
		t.Errorf("expected positive energy from last-3 mean, got %v", arc.Energy)
	}
}

func TestComputeArcStableWhenLowVarianceAndFlat(t *testing.T) {
	arc, ok := computeArc(entriesOf(0.05, 0.06, 0.04, 0.05, 0.06, 0.04))
	if !ok {
		t.Fatalf("expected an arc")
	}
	if arc.Label != domain.ArcStable {
		t.Errorf("got label %v, want stable (start=%.2f end=%.2f var=%.4f)", arc.Label, arc.StartAvg, arc.EndAvg, arc.Variance)
	}
}

func TestComputeArcImprovingAndDeclining(t *testing.T) {
	improving, ok := computeArc(entriesOf(-0.3, -0.3, -0.3, 0.0, 0.0, 0.0))
	if !ok {
		t.Fatalf("expected an arc")
	}
	if improving.Label != domain.ArcImproving {
		t.Errorf("expected improving, got %v (start=%.2f end=%.2f)", improving.Label, improving.StartAvg, improving.EndAvg)
	}

	declining, ok := computeArc(entriesOf(0.3, 0.3, 0.3, 0.0, 0.0, 0.0))
	if !ok {
		t.Fatalf("expected an arc")
	}
	if declining.Label != domain.ArcDeclining {
		t.Errorf("expected declining, got %v (start=%.2f end=%.2f)", declining.Label, declining.StartAvg, declining.EndAvg)
	}
}

func TestScoreSignsAndZeroForUnknownWords(t *testing.T) {
	if s := Score("I am so happy and grateful today!"); s <= 0 {
		t.Errorf("expected positive score, got %.4f", s)
	}
	if s := Score("This is terrible and I feel awful."); s >= 0 {
		t.Errorf("expected negative score, got %.4f", s)
	}
	if s := Score("asdf qwer zxcv"); s != 0 {
		t.Errorf("expected zero score for unknown words, got %.4f", s)
	}
}

func TestScoreBoundedToUnitInterval(t *testing.T) {
	text := "amazing wonderful excellent great thrilled love loved loves happy glad"
	s := Score(text)
	if s <= -1 || s >= 1 {
		t.Errorf("expected score strictly within (-1, 1), got %.4f", s)
	}
}

func TestTrackMessageAppendsToSessionAndArcEmerges(t *testing.T) {
	ec := New(nil, nil)
	ec.TrackMessage("u1", "c1", "I am happy today")
	ec.TrackMessage("u1", "c1", "I am still happy")
	if _, ok := ec.ComputeArc("u1", "c1"); ok {
		t.Fatalf("expected no arc after only 2 messages")
	}
	ec.TrackMessage("u1", "c1", "I feel great")
	if _, ok := ec.ComputeArc("u1", "c1"); !ok {
		t.Fatalf("expected an arc after 3 messages")
	}
}

type fakeEmbedder struct{ vec []float32 }

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) { return f.vec, nil }

type fakeStore struct {
	inserted []string
}

func (f *fakeStore) Insert(ctx context.Context, id string, embedding []float32, content string, payload map[string]string) error {
	f.inserted = append(f.inserted, id)
	return nil
}

func (f *fakeStore) GetAll(ctx context.Context, filters map[string]string, limit int) ([]vectorstore.Record, error) {
	return nil, nil
}

func TestFinalizeSessionPersistsSummaryAndClearsBucket(t *testing.T) {
	store := &fakeStore{}
	ec := New(fakeEmbedder{vec: []float32{1, 0}}, store)
	ec.TrackMessage("u1", "c1", "I am happy")
	ec.TrackMessage("u1", "c1", "I feel great")
	ec.TrackMessage("u1", "c1", "I am thrilled")

	arc, ok := ec.FinalizeSession(context.Background(), "u1", "c1")
	if !ok {
		t.Fatalf("expected an arc on finalize")
	}
	if arc.Summary == "" {
		t.Errorf("expected a non-empty summary")
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected exactly one persisted summary, got %d", len(store.inserted))
	}

	if _, ok := ec.ComputeArc("u1", "c1"); ok {
		t.Fatalf("expected session bucket to be cleared after finalize")
	}
}

func TestFinalizeSessionWithoutEnoughEntriesSkipsPersist(t *testing.T) {
	store := &fakeStore{}
	ec := New(fakeEmbedder{vec: []float32{1, 0}}, store)
	ec.TrackMessage("u1", "c1", "hello")

	if _, ok := ec.FinalizeSession(context.Background(), "u1", "c1"); ok {
		t.Fatalf("expected no arc with only 1 entry")
	}
	if len(store.inserted) != 0 {
		t.Errorf("expected no persisted summary, got %d", len(store.inserted))
	}
}
