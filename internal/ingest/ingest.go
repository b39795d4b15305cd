// Package ingest implements SmartIngest (spec §4.4/C8): the dedup/
// reinforce/supersede/create decision pipeline every new fact passes
// through before it becomes (or updates) a persisted Memory.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"memoria/internal/contradiction"
	"memoria/internal/domain"
	"memoria/internal/vectorstore"
)

// Embedder is the narrow EmbeddingClient capability SmartIngest needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ContradictionDetector is the narrow capability SmartIngest needs.
type ContradictionDetector interface {
	Detect(ctx context.Context, newContent, existingContent string, useLLM bool) contradiction.Verdict
}

// Dynamics is the narrow MemoryDynamics capability SmartIngest needs.
type Dynamics interface {
	Seed(ctx context.Context, id domain.MemoryId, userID string)
	Promote(ctx context.Context, id domain.MemoryId, userIDs []string, grade domain.Grade, signal domain.SignalType) error
	Demote(ctx context.Context, id domain.MemoryId, userIDs []string) error
	RecordSupersession(ctx context.Context, oldID, newID domain.MemoryId, userID string, reason domain.SupersessionReason, confidence float64, details string)
}

// ResultKind is the discriminated outcome of Ingest.
type ResultKind string

const (
	ResultCreated    ResultKind = "created"
	ResultSkip       ResultKind = "skip"
	ResultReinforced ResultKind = "reinforced"
	ResultSuperseded ResultKind = "superseded"
)

// IngestResult is what Ingest returns: exactly one of the four kinds, an
// id when one is relevant, and a human-readable reason.
type IngestResult struct {
	Kind   ResultKind
	ID     domain.MemoryId
	Reason string
}

const (
	// Thresholds are bit-exact per spec §4.4; do not collapse them into a
	// single cutoff, the >0.75 and >0.60 bands use different contradiction
	// gates on purpose.
	dedupScoreThreshold     = 0.95
	dedupJaccardThreshold   = 0.90
	reinforceScoreThreshold = 0.75
	createScoreThreshold    = 0.60
	midBandConfidenceGate   = 0.70
	searchLimit             = 5
)

// SmartIngest is C8.
type SmartIngest struct {
	store    vectorstore.Store
	embedder Embedder
	detector ContradictionDetector
	dynamics Dynamics
	clock    func() time.Time
	newID    func() string
}

// New builds a SmartIngest.
func New(store vectorstore.Store, embedder Embedder, detector ContradictionDetector, dynamics Dynamics) *SmartIngest {
	return &SmartIngest{
		store:    store,
		embedder: embedder,
		detector: detector,
		dynamics: dynamics,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
}

// Ingest runs fact through the dedup/reinforce/supersede/create pipeline
// for userID. At most one Create or Supersede persists per call;
// Reinforced and Skip never mutate the vector store.
func (s *SmartIngest) Ingest(ctx context.Context, fact, userID string) (IngestResult, error) {
	embedding, err := s.embedder.Embed(ctx, fact)
	if err != nil {
		return IngestResult{}, fmt.Errorf("ingest: embed fact: %w", err)
	}

	hits, err := s.store.Search(ctx, embedding, map[string]string{domain.PayloadUserID: userID}, searchLimit)
	if err != nil {
		return IngestResult{}, fmt.Errorf("ingest: search existing memories: %w", err)
	}

	if len(hits) == 0 {
		return s.create(ctx, fact, userID, embedding)
	}

	best := hits[0]
	textSim := contradiction.Jaccard(fact, best.Content)

	switch {
	case best.Score > dedupScoreThreshold || textSim > dedupJaccardThreshold:
		return IngestResult{Kind: ResultSkip, ID: best.ID, Reason: "near-duplicate of an existing memory"}, nil

	case best.Score > reinforceScoreThreshold:
		verdict := s.detector.Detect(ctx, fact, best.Content, true)
		if verdict.Contradicts {
			return s.supersede(ctx, fact, userID, embedding, best, verdict)
		}
		if err := s.dynamics.Promote(ctx, best.ID, []string{userID}, domain.Good, domain.SignalImplicitReference); err != nil {
			return IngestResult{}, fmt.Errorf("ingest: reinforce existing memory: %w", err)
		}
		return IngestResult{Kind: ResultReinforced, ID: best.ID, Reason: "implicitly reinforced by a close restatement"}, nil

	case best.Score > createScoreThreshold:
		verdict := s.detector.Detect(ctx, fact, best.Content, true)
		if verdict.Contradicts && verdict.Confidence > midBandConfidenceGate {
			return s.supersede(ctx, fact, userID, embedding, best, verdict)
		}
		return s.create(ctx, fact, userID, embedding)

	default:
		return s.create(ctx, fact, userID, embedding)
	}
}

func (s *SmartIngest) create(ctx context.Context, fact, userID string, embedding []float32) (IngestResult, error) {
	id := s.newID()
	payload := map[string]string{
		domain.PayloadData:      fact,
		domain.PayloadUserID:    userID,
		domain.PayloadCreatedAt: s.clock().Format(time.RFC3339),
		domain.PayloadCategory:  string(classify(fact)),
	}
	if err := s.store.Insert(ctx, id, embedding, fact, payload); err != nil {
		return IngestResult{}, fmt.Errorf("ingest: insert new memory: %w", err)
	}
	s.dynamics.Seed(ctx, id, userID)
	return IngestResult{Kind: ResultCreated, ID: id, Reason: "no sufficiently similar memory existed"}, nil
}

func (s *SmartIngest) supersede(ctx context.Context, fact, userID string, embedding []float32, old vectorstore.Hit, verdict contradiction.Verdict) (IngestResult, error) {
	created, err := s.create(ctx, fact, userID, embedding)
	if err != nil {
		return IngestResult{}, err
	}
	if err := s.dynamics.Demote(ctx, old.ID, []string{userID}); err != nil {
		return IngestResult{}, fmt.Errorf("ingest: demote superseded memory: %w", err)
	}
	s.dynamics.RecordSupersession(ctx, old.ID, created.ID, userID, reasonForVerdict(verdict), verdict.Confidence, verdict.Explanation)
	return IngestResult{
		Kind:   ResultSuperseded,
		ID:     created.ID,
		Reason: fmt.Sprintf("superseded %s: %s", old.ID, verdict.Explanation),
	}, nil
}

func reasonForVerdict(v contradiction.Verdict) domain.SupersessionReason {
	if v.Type == contradiction.TypeTemporal {
		return domain.ReasonUpdate
	}
	return domain.ReasonContradiction
}

// classify assigns the closed-set category by keyword count, the category
// with the most keyword hits wins; ties favor the earlier category below.
func classify(fact string) domain.Category {
	lower := strings.ToLower(fact)

	keywords := []struct {
		category domain.Category
		words    []string
	}{
		{domain.CategoryPreferences, []string{"like", "love", "prefer", "favorite", "enjoy", "hate", "dislike"}},
		{domain.CategoryPersonal, []string{"my name", "i am", "i live", "married", "single", "family", "pet", "birthday"}},
		{domain.CategoryProfessional, []string{"work", "job", "career", "company", "colleague", "manager", "office", "profession"}},
		{domain.CategoryGoals, []string{"goal", "plan to", "want to", "hope to", "trying to", "aim to", "dream"}},
		{domain.CategoryEmotional, []string{"feel", "feeling", "happy", "sad", "angry", "anxious", "excited", "worried"}},
		{domain.CategoryTemporal, []string{"yesterday", "tomorrow", "next week", "last month", "ago", "since", "until"}},
	}

	best := domain.CategoryPersonal
	bestCount := 0
	for _, k := range keywords {
		count := 0
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = k.category
		}
	}
	return best
}
