// Package emotion implements EmotionalContext (spec §4.6/C9): an
// in-memory, per-(user, channel) sentiment session window with a
// lexicon-based scorer and an arc/energy summary on finalize. Session
// state never touches persistent storage until finalize_session embeds
// and inserts the summary.
package emotion

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"memoria/internal/domain"
	"memoria/internal/vectorstore"
)

// Embedder is the narrow EmbeddingClient capability EmotionalContext needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the narrow VectorStore capability EmotionalContext needs.
type Store interface {
	Insert(ctx context.Context, id string, embedding []float32, content string, payload map[string]string) error
	GetAll(ctx context.Context, filters map[string]string, limit int) ([]vectorstore.Record, error)
}

const (
	// maxSessionEntries bounds memory use per (user, channel) pair.
	maxSessionEntries = 256
	// idleTTL evicts a session bucket nobody has touched recently.
	idleTTL = 2 * time.Hour
	// varianceAlpha is the VADER-style compound-score normalization constant.
	varianceAlpha = 15.0
)

type sessionKey struct {
	userID    string
	channelID string
}

type session struct {
	entries      []domain.SentimentEntry
	lastTouchedAt time.Time
}

// EmotionalContext is C9.
type EmotionalContext struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session
	embedder Embedder
	store    Store
	clock    func() time.Time
}

// New builds an EmotionalContext. embedder/store may be nil; finalize_session
// then tracks the arc but skips persisting a summary memory.
func New(embedder Embedder, store Store) *EmotionalContext {
	return &EmotionalContext{
		sessions: make(map[sessionKey]*session),
		embedder: embedder,
		store:    store,
		clock:    time.Now,
	}
}

// TrackMessage scores text with the lexicon and appends it to the
// (userID, channelID) session window, evicting the oldest entry if the
// bounded cap is exceeded.
func (e *EmotionalContext) TrackMessage(userID, channelID, text string) domain.SentimentEntry {
	entry := domain.SentimentEntry{Score: Score(text), Timestamp: e.clock()}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.evictIdleLocked()

	key := sessionKey{userID: userID, channelID: channelID}
	s, ok := e.sessions[key]
	if !ok {
		s = &session{}
		e.sessions[key] = s
	}
	s.entries = append(s.entries, entry)
	if len(s.entries) > maxSessionEntries {
		s.entries = s.entries[len(s.entries)-maxSessionEntries:]
	}
	s.lastTouchedAt = e.clock()
	return entry
}

// evictIdleLocked drops session buckets untouched for longer than idleTTL.
// Caller must hold mu.
func (e *EmotionalContext) evictIdleLocked() {
	now := e.clock()
	for key, s := range e.sessions {
		if now.Sub(s.lastTouchedAt) > idleTTL {
			delete(e.sessions, key)
		}
	}
}

// ComputeArc returns the arc for (userID, channelID), or false if fewer
// than 3 entries have been tracked.
func (e *EmotionalContext) ComputeArc(userID, channelID string) (domain.EmotionalArc, bool) {
	e.mu.Lock()
	s, ok := e.sessions[sessionKey{userID: userID, channelID: channelID}]
	var entries []domain.SentimentEntry
	if ok {
		entries = append(entries, s.entries...)
	}
	e.mu.Unlock()

	return computeArc(entries)
}

func computeArc(entries []domain.SentimentEntry) (domain.EmotionalArc, bool) {
	if len(entries) < 3 {
		return domain.EmotionalArc{}, false
	}

	startAvg := mean(entries[:3])
	endAvg := mean(entries[len(entries)-3:])
	variance := varianceOf(entries)

	var label domain.ArcLabel
	switch {
	case variance > 0.3:
		label = domain.ArcVolatile
	case endAvg-startAvg > 0.2:
		label = domain.ArcImproving
	case startAvg-endAvg > 0.2:
		label = domain.ArcDeclining
	default:
		label = domain.ArcStable
	}

	var energy domain.EnergyLabel
	switch {
	case endAvg > 0.2:
		energy = domain.EnergyPositive
	case endAvg < -0.2:
		energy = domain.EnergyNegative
	default:
		energy = domain.EnergyNeutral
	}

	arc := domain.EmotionalArc{
		Label:    label,
		Energy:   energy,
		Variance: variance,
		StartAvg: startAvg,
		EndAvg:   endAvg,
	}
	arc.Summary = summarize(arc)
	return arc, true
}

func summarize(arc domain.EmotionalArc) string {
	return fmt.Sprintf("Mood was %s and ended %s (variance %.2f, start %.2f -> end %.2f).",
		arc.Label, arc.Energy, arc.Variance, arc.StartAvg, arc.EndAvg)
}

func mean(entries []domain.SentimentEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Score
	}
	return sum / float64(len(entries))
}

func varianceOf(entries []domain.SentimentEntry) float64 {
	m := mean(entries)
	var sq float64
	for _, e := range entries {
		d := e.Score - m
		sq += d * d
	}
	return sq / float64(len(entries))
}

// FinalizeSession computes the session arc, embeds and stores a summary
// memory (if an arc exists and a store/embedder are configured), and
// clears the session bucket regardless. It never returns an error; a
// storage failure simply means the arc is not persisted.
func (e *EmotionalContext) FinalizeSession(ctx context.Context, userID, channelID string) (domain.EmotionalArc, bool) {
	e.mu.Lock()
	key := sessionKey{userID: userID, channelID: channelID}
	s, ok := e.sessions[key]
	var entries []domain.SentimentEntry
	if ok {
		entries = append(entries, s.entries...)
	}
	delete(e.sessions, key)
	e.mu.Unlock()

	arc, ok := computeArc(entries)
	if !ok {
		return domain.EmotionalArc{}, false
	}
	if e.embedder == nil || e.store == nil {
		return arc, true
	}

	embedding, err := e.embedder.Embed(ctx, arc.Summary)
	if err != nil {
		return arc, true
	}
	payload := map[string]string{
		domain.PayloadData:        arc.Summary,
		domain.PayloadUserID:      userID,
		domain.PayloadChannelID:   channelID,
		domain.PayloadMemoryType:  domain.MemoryTypeEmotionalContext,
		domain.PayloadSentimentEnd: formatScore(arc.EndAvg),
		domain.PayloadCreatedAt:   e.clock().Format(time.RFC3339),
	}
	_ = e.store.Insert(ctx, sessionSummaryID(userID, channelID, e.clock()), embedding, arc.Summary, payload)
	return arc, true
}

// Retrieve returns up to n persisted emotional-context summaries for
// userID, or nil if no store is configured or none exist.
func (e *EmotionalContext) Retrieve(ctx context.Context, userID string, n int) ([]vectorstore.Record, error) {
	if e.store == nil {
		return nil, nil
	}
	filters := map[string]string{
		domain.PayloadUserID:     userID,
		domain.PayloadMemoryType: domain.MemoryTypeEmotionalContext,
	}
	return e.store.GetAll(ctx, filters, n)
}

func sessionSummaryID(userID, channelID string, now time.Time) string {
	return fmt.Sprintf("emotional:%s:%s:%d", userID, channelID, now.UnixNano())
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.3f", score)
}

// Score returns the normalized compound sentiment for text in [-1, 1].
func Score(text string) float64 {
	tokens := strings.Fields(strings.ToLower(text))
	var raw float64
	for _, tok := range tokens {
		tok = strings.TrimRight(tok, ".,!?;:")
		if v, ok := lexicon[tok]; ok {
			raw += v
		}
	}
	if raw == 0 {
		return 0
	}
	return raw / math.Sqrt(raw*raw+varianceAlpha)
}
