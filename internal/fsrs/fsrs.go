// Package fsrs implements the FSRS-6 spaced-repetition core (spec §4.1).
// Every function here is pure: no I/O, no clock reads beyond the `now`
// argument callers pass in, no persistence. MemoryDynamics is the layer
// that bridges this to storage.
package fsrs

import (
	"math"
	"time"

	"memoria/internal/domain"
)

// Engine holds the 21-weight vector the rest of the formulas are parameterized by.
type Engine struct {
	w [21]float64
}

// New returns an Engine using the documented default weights.
func New() Engine {
	return Engine{w: DefaultWeights}
}

// NewWithWeights returns an Engine using caller-supplied weights. Changing
// weights resets the semantics of every previously persisted FsrsState.
func NewWithWeights(w [21]float64) Engine {
	return Engine{w: w}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Retrievability models the probability of successful recall right now,
// given how long it has been since the last review and the memory's stability.
func (e Engine) Retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	if stability <= 0 {
		return 0
	}
	w20 := e.w[20]
	f := math.Pow(0.9, -1/w20) - 1
	r := math.Pow(1+f*elapsedDays/stability, -w20)
	return clamp(r, 0, 1)
}

// InitialStability returns w[grade-1] — the stability assigned to a memory
// on its very first review.
func (e Engine) InitialStability(grade domain.Grade) float64 {
	s := e.w[int(grade)-1]
	if s < 0.1 {
		s = 0.1
	}
	return s
}

// InitialDifficulty computes the difficulty assigned on first review.
func (e Engine) InitialDifficulty(grade domain.Grade) float64 {
	d := e.w[4] - math.Exp(e.w[5]*float64(grade-1)) + 1
	return clamp(d, 1, 10)
}

func (e Engine) meanRevert(x float64) float64 {
	return e.w[13]*e.w[4] + (1-e.w[13])*x
}

// UpdateDifficulty mean-reverts the current difficulty toward w[4] (the
// initial difficulty of an Again review) and clamps it to [1, 10].
func (e Engine) UpdateDifficulty(d float64, grade domain.Grade) float64 {
	d2 := e.meanRevert(d + e.w[11]*(float64(grade)-3))
	return clamp(d2, 1, 10)
}

// UpdateStabilitySuccess grows stability after a Hard/Good/Easy review.
// Result never falls below the previous stability or below the 0.1 floor.
func (e Engine) UpdateStabilitySuccess(s, d, r float64, grade domain.Grade) float64 {
	bonus := 1.0
	switch grade {
	case domain.Hard:
		bonus = e.w[9]
	case domain.Easy:
		bonus = e.w[10]
	}
	growth := math.Exp(e.w[6]) * (11 - d) * math.Pow(s, -e.w[7]) * (math.Exp(e.w[8]*(1-r)) - 1) * bonus
	newS := s * (1 + growth)
	if newS < s {
		newS = s
	}
	if newS < 0.1 {
		newS = 0.1
	}
	return newS
}

// UpdateStabilityFailure shrinks stability after an Again review. Result
// never exceeds the previous stability and never falls below the 0.1 floor.
func (e Engine) UpdateStabilityFailure(s, d, r float64) float64 {
	newS := e.w[14] * math.Pow(d, -e.w[15]) * (math.Pow(s+1, e.w[16]) - 1) * math.Exp(e.w[17]*(1-r))
	if newS > s {
		newS = s
	}
	if newS < 0.1 {
		newS = 0.1
	}
	return newS
}

// UpdateDualStrength applies Bjork's dual-strength decay/reinforcement model
// to retrieval and storage strength, returning both clamped to [0, 1].
func (e Engine) UpdateDualStrength(rs, ss float64, grade domain.Grade, elapsedDays float64) (float64, float64) {
	decayedRS := rs * math.Exp(-0.1*elapsedDays/(1+ss))

	if grade == domain.Again {
		return clamp(0.3, 0, 1), clamp(ss+0.05, 0, 1)
	}

	bonus := math.Max(0, 1-decayedRS)

	var retrievalBoost, storageGain float64
	switch grade {
	case domain.Hard:
		retrievalBoost, storageGain = 0.5, 0.1+0.1*bonus
	case domain.Good:
		retrievalBoost, storageGain = 0.7, 0.15+0.15*bonus
	case domain.Easy:
		retrievalBoost, storageGain = 0.9, 0.1+0.05*bonus
	default:
		retrievalBoost, storageGain = decayedRS, 0
	}

	newRS := clamp(retrievalBoost, 0, 1)
	newSS := clamp(ss+storageGain, 0, 1)
	return newRS, newSS
}

// ReviewResult is the outcome of applying one graded review to an FsrsState.
type ReviewResult struct {
	State              domain.FsrsState
	RetrievabilityBefore float64
	IntervalDays       float64 // new stability, expressed as the days-to-R≈0.9 interval
}

// Review applies a single graded review at time `now`, returning the updated
// state, the retrievability computed just before the update, and the new
// stability expressed as an interval in days.
func (e Engine) Review(state domain.FsrsState, grade domain.Grade, now time.Time) ReviewResult {
	elapsed := daysBetween(state.LastAccessedAt, now)

	rBefore := e.Retrievability(elapsed, state.Stability)

	next := state
	if state.AccessCount == 0 {
		next.Stability = e.InitialStability(grade)
		next.Difficulty = e.InitialDifficulty(grade)
	} else {
		if grade == domain.Again {
			next.Stability = e.UpdateStabilityFailure(state.Stability, state.Difficulty, rBefore)
		} else {
			next.Stability = e.UpdateStabilitySuccess(state.Stability, state.Difficulty, rBefore, grade)
		}
		next.Difficulty = e.UpdateDifficulty(state.Difficulty, grade)
	}

	next.RetrievalStrength, next.StorageStrength = e.UpdateDualStrength(
		state.RetrievalStrength, state.StorageStrength, grade, elapsed,
	)
	next.AccessCount = state.AccessCount + 1
	next.LastAccessedAt = now
	next.UpdatedAt = now

	return ReviewResult{
		State:                next,
		RetrievabilityBefore: rBefore,
		IntervalDays:         next.Stability,
	}
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

// InferGrade maps an access signal to the grade it implies (spec §4.1).
func InferGrade(signal domain.SignalType) domain.Grade {
	switch signal {
	case domain.SignalUsedInResponse:
		return domain.Good
	case domain.SignalMentionedByUser:
		return domain.Easy
	case domain.SignalUserCorrection:
		return domain.Again
	case domain.SignalTaskCompleted:
		return domain.Easy
	case domain.SignalExplicitRecall:
		return domain.Good
	case domain.SignalContradiction:
		return domain.Again
	case domain.SignalImplicitReference:
		return domain.Good
	case domain.SignalPartialRecall:
		return domain.Hard
	default:
		return domain.Good
	}
}

// MemoryScore blends retrievability and storage strength into the ranking
// quantity used throughout scoring and ingestion.
func MemoryScore(r, storageStrength, importance float64) float64 {
	return (0.7*r + 0.3*storageStrength) * importance
}
