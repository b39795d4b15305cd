// Package topic implements TopicRecurrence (spec §4.7/C10): persisting
// topic mentions as memories and surfacing ones that recur within a
// rolling window.
package topic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"memoria/internal/domain"
	"memoria/internal/vectorstore"
)

const (
	// recurrenceWindow bounds how far back a mention counts toward recurrence.
	recurrenceWindow = 14 * 24 * time.Hour
	// recentMentionsScanned caps how many mentions are fetched before the
	// window filter and grouping are applied. Which mentions fill the cap
	// follows the store's GetAll order: newest first on PgStore, no
	// particular order on MemStore and SqvectStore.
	recentMentionsScanned = 100
	// minRecurrenceCount is the lowest mention count considered "recurring".
	minRecurrenceCount = 2
)

// Embedder is the narrow EmbeddingClient capability TopicRecurrence needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the narrow VectorStore capability TopicRecurrence needs.
type Store interface {
	Insert(ctx context.Context, id string, embedding []float32, content string, payload map[string]string) error
	GetAll(ctx context.Context, filters map[string]string, limit int) ([]vectorstore.Record, error)
}

// TopicRecurrence is C10.
type TopicRecurrence struct {
	embedder Embedder
	store    Store
	clock    func() time.Time
	newID    func() string
}

// New builds a TopicRecurrence.
func New(embedder Embedder, store Store) *TopicRecurrence {
	return &TopicRecurrence{embedder: embedder, store: store, clock: time.Now, newID: defaultID}
}

func defaultID() string {
	return fmt.Sprintf("topic:%d", time.Now().UnixNano())
}

// StoreMention embeds (if embedding is nil) and persists a topic mention
// for userID.
func (t *TopicRecurrence) StoreMention(ctx context.Context, mention domain.TopicMention, userID string, embedding []float32) error {
	if embedding == nil {
		text := formatMention(mention)
		vec, err := t.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("topic: embed mention: %w", err)
		}
		embedding = vec
	}

	payload := map[string]string{
		domain.PayloadData:           mention.ContextSnippet,
		domain.PayloadUserID:         userID,
		domain.PayloadMemoryType:     domain.MemoryTypeTopicMention,
		domain.PayloadTopicName:      mention.Topic,
		domain.PayloadTopicType:      string(mention.TopicType),
		domain.PayloadEmotionalWeight: string(mention.EmotionalWeight),
		domain.PayloadCreatedAt:      t.clock().Format(time.RFC3339),
	}
	if err := t.store.Insert(ctx, t.newID(), embedding, formatMention(mention), payload); err != nil {
		return fmt.Errorf("topic: insert mention: %w", err)
	}
	return nil
}

func formatMention(m domain.TopicMention) string {
	return fmt.Sprintf("Topic: %s (%s) - %s", m.Topic, m.TopicType, m.ContextSnippet)
}

// Recurring returns up to maxTopics recurring-topic summaries for userID:
// topic names mentioned at least minRecurrenceCount times within the
// trailing recurrenceWindow, ordered by descending mention count.
func (t *TopicRecurrence) Recurring(ctx context.Context, userID string, maxTopics int) ([]string, error) {
	records, err := t.store.GetAll(ctx, map[string]string{
		domain.PayloadUserID:     userID,
		domain.PayloadMemoryType: domain.MemoryTypeTopicMention,
	}, recentMentionsScanned)
	if err != nil {
		return nil, fmt.Errorf("topic: fetch mentions: %w", err)
	}

	cutoff := t.clock().Add(-recurrenceWindow)
	groups := map[string]*group{}
	var order []string
	for _, r := range records {
		createdAt, ok := parseCreatedAt(r.Payload[domain.PayloadCreatedAt])
		if !ok || createdAt.Before(cutoff) {
			continue
		}
		name := r.Payload[domain.PayloadTopicName]
		if name == "" {
			continue
		}
		g, exists := groups[name]
		if !exists {
			g = &group{name: name, weightVotes: map[domain.EmotionalWeight]int{}}
			groups[name] = g
			order = append(order, name)
		}
		g.count++
		g.weightVotes[domain.EmotionalWeight(r.Payload[domain.PayloadEmotionalWeight])]++
	}

	var recurring []*group
	for _, name := range order {
		g := groups[name]
		if g.count >= minRecurrenceCount {
			recurring = append(recurring, g)
		}
	}
	sort.SliceStable(recurring, func(i, j int) bool { return recurring[i].count > recurring[j].count })
	if len(recurring) > maxTopics {
		recurring = recurring[:maxTopics]
	}

	out := make([]string, 0, len(recurring))
	for _, g := range recurring {
		out = append(out, fmt.Sprintf("%s: mentioned %d times (emotional weight: %s)", g.name, g.count, g.modeWeight()))
	}
	return out, nil
}

type group struct {
	name        string
	count       int
	weightVotes map[domain.EmotionalWeight]int
}

func (g *group) modeWeight() domain.EmotionalWeight {
	if g.weightVotes == nil {
		return domain.WeightLight
	}
	best := domain.WeightLight
	bestCount := -1
	// Deterministic tie-break: prefer the heaviest weight on ties.
	for _, w := range []domain.EmotionalWeight{domain.WeightHeavy, domain.WeightModerate, domain.WeightLight} {
		if c := g.weightVotes[w]; c > bestCount {
			bestCount = c
			best = w
		}
	}
	return best
}

func parseCreatedAt(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
