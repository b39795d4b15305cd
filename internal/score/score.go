// Package score implements CompositeScorer (spec §4.8/C11): blends raw
// vector similarity with FSRS retrievability/importance into a single
// ranking score, with a stable tie-break order.
package score

import (
	"sort"
	"time"

	"memoria/internal/domain"
	"memoria/internal/fsrs"
)

const (
	vectorWeight = 0.5
	memoryWeight = 0.5
	// keyBonus is added to is_key memories, capped at 1.
	keyBonus = 0.1
)

// Candidate is one scoring input: a memory, its vector-store similarity,
// and its FSRS state (zero-value FsrsState degrades to the documented
// freshly-seeded defaults).
type Candidate struct {
	Memory      domain.Memory
	VectorScore float64
	FsrsState   domain.FsrsState
	IsKey       bool
}

// Scored is a Candidate with its composite score attached.
type Scored struct {
	Candidate
	CompositeScore float64
}

// CompositeScorer is C11.
type CompositeScorer struct {
	engine fsrs.Engine
	clock  func() time.Time
}

// New builds a CompositeScorer using the default FSRS engine.
func New() *CompositeScorer {
	return &CompositeScorer{engine: fsrs.New(), clock: time.Now}
}

// Score computes the composite score for a single candidate.
func (s *CompositeScorer) Score(c Candidate) float64 {
	now := s.clock()
	state := c.FsrsState
	if state.Stability == 0 && state.LastAccessedAt.IsZero() {
		state = domain.NewFsrsState(c.Memory.ID, c.Memory.UserID, now)
	}
	elapsedDays := daysBetween(state.LastAccessedAt, now)
	r := s.engine.Retrievability(elapsedDays, state.Stability)
	memScore := fsrs.MemoryScore(r, state.StorageStrength, importanceOrDefault(state))

	composite := vectorWeight*c.VectorScore + memoryWeight*memScore
	if c.IsKey {
		composite += keyBonus
	}
	if composite > 1 {
		composite = 1
	}
	return composite
}

func importanceOrDefault(state domain.FsrsState) float64 {
	if state.ImportanceWeight == 0 {
		return 1.0
	}
	return state.ImportanceWeight
}

func daysBetween(last, now time.Time) float64 {
	if last.IsZero() {
		return 0
	}
	d := now.Sub(last).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// Rank scores every candidate and returns them ordered by descending
// composite score, then descending created_at, then ascending id — a
// fully deterministic order even across ties.
func (s *CompositeScorer) Rank(candidates []Candidate) []Scored {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Candidate: c, CompositeScore: s.Score(c)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompositeScore != out[j].CompositeScore {
			return out[i].CompositeScore > out[j].CompositeScore
		}
		if !out[i].Memory.CreatedAt.Equal(out[j].Memory.CreatedAt) {
			return out[i].Memory.CreatedAt.After(out[j].Memory.CreatedAt)
		}
		return out[i].Memory.ID < out[j].Memory.ID
	})
	return out
}
