package topic

import (
	"context"
	"testing"
	"time"

	"memoria/internal/domain"
	"memoria/internal/vectorstore"
)

type fakeStore struct {
	records []vectorstore.Record
	nextID  int
}

func (f *fakeStore) Insert(ctx context.Context, id string, embedding []float32, content string, payload map[string]string) error {
	f.records = append(f.records, vectorstore.Record{ID: id, Content: content, Embedding: embedding, Payload: payload})
	return nil
}

func (f *fakeStore) GetAll(ctx context.Context, filters map[string]string, limit int) ([]vectorstore.Record, error) {
	var out []vectorstore.Record
	for _, r := range f.records {
		match := true
		for k, v := range filters {
			if r.Payload[k] != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) { return []float32{1, 0}, nil }

func newTestTopic() (*TopicRecurrence, *fakeStore) {
	store := &fakeStore{}
	tr := New(fakeEmbedder{}, store)
	return tr, store
}

func seedMention(tr *TopicRecurrence, store *fakeStore, name string, daysAgo int) {
	id := "m-" + name + "-" + time.Now().Add(-time.Duration(daysAgo)*24*time.Hour).Format(time.RFC3339Nano)
	store.records = append(store.records, vectorstore.Record{
		ID:      id,
		Content: name,
		Payload: map[string]string{
			domain.PayloadUserID:          "u1",
			domain.PayloadMemoryType:      domain.MemoryTypeTopicMention,
			domain.PayloadTopicName:       name,
			domain.PayloadEmotionalWeight: string(domain.WeightModerate),
			domain.PayloadCreatedAt:       time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).Format(time.RFC3339),
		},
	})
}

func TestStoreMentionPersistsWithEmbeddingWhenProvided(t *testing.T) {
	tr, store := newTestTopic()
	mention := domain.TopicMention{Topic: "running", TopicType: domain.TopicTheme, ContextSnippet: "training for a 10k", EmotionalWeight: domain.WeightModerate}

	if err := tr.StoreMention(context.Background(), mention, "u1", []float32{0.2, 0.3}); err != nil {
		t.Fatalf("StoreMention returned error: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 stored mention, got %d", len(store.records))
	}
	if store.records[0].Payload[domain.PayloadTopicName] != "running" {
		t.Errorf("unexpected topic name payload: %+v", store.records[0].Payload)
	}
}

func TestStoreMentionEmbedsWhenEmbeddingOmitted(t *testing.T) {
	tr, store := newTestTopic()
	mention := domain.TopicMention{Topic: "work", TopicType: domain.TopicTheme, ContextSnippet: "busy sprint"}

	if err := tr.StoreMention(context.Background(), mention, "u1", nil); err != nil {
		t.Fatalf("StoreMention returned error: %v", err)
	}
	if len(store.records[0].Embedding) == 0 {
		t.Errorf("expected an embedding to have been generated")
	}
}

func TestRecurringRequiresAtLeastTwoMentionsWithinWindow(t *testing.T) {
	tr, store := newTestTopic()
	seedMention(tr, store, "guitar", 1)

	recurring, err := tr.Recurring(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("Recurring returned error: %v", err)
	}
	if len(recurring) != 0 {
		t.Fatalf("expected no recurring topics with a single mention, got %v", recurring)
	}

	seedMention(tr, store, "guitar", 3)
	recurring, err = tr.Recurring(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("Recurring returned error: %v", err)
	}
	if len(recurring) != 1 {
		t.Fatalf("expected one recurring topic, got %v", recurring)
	}
}

func TestRecurringExcludesMentionsOutsideWindow(t *testing.T) {
	tr, store := newTestTopic()
	seedMention(tr, store, "cooking", 1)
	seedMention(tr, store, "cooking", 20) // outside the 14-day window

	recurring, err := tr.Recurring(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("Recurring returned error: %v", err)
	}
	if len(recurring) != 0 {
		t.Fatalf("expected the old mention to be excluded, got %v", recurring)
	}
}

func TestRecurringOrdersByDescendingCountAndCaps(t *testing.T) {
	tr, store := newTestTopic()
	for i := 0; i < 4; i++ {
		seedMention(tr, store, "gaming", i)
	}
	for i := 0; i < 2; i++ {
		seedMention(tr, store, "books", i)
	}

	recurring, err := tr.Recurring(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("Recurring returned error: %v", err)
	}
	if len(recurring) != 1 {
		t.Fatalf("expected cap of 1, got %d", len(recurring))
	}
}
