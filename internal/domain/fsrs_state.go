package domain

import "time"

// FsrsState is the per-memory spaced-repetition state (spec §3).
// Zero value is not valid; use NewFsrsState for defaults.
type FsrsState struct {
	MemoryID           MemoryId
	UserID             string
	Stability          float64
	Difficulty         float64
	RetrievalStrength  float64
	StorageStrength    float64
	LastAccessedAt     time.Time
	AccessCount        int
	IsKey              bool
	ImportanceWeight   float64
	Category           Category
	Tags               map[string]struct{}
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewFsrsState returns the documented defaults for a memory that has never been reviewed.
func NewFsrsState(memoryID, userID string, now time.Time) FsrsState {
	return FsrsState{
		MemoryID:          memoryID,
		UserID:            userID,
		Stability:         1.0,
		Difficulty:        5.0,
		RetrievalStrength: 1.0,
		StorageStrength:   0.5,
		LastAccessedAt:    now,
		AccessCount:       0,
		ImportanceWeight:  1.0,
		Tags:              map[string]struct{}{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// AccessEvent is an append-only review log entry (spec §3). Never mutated.
type AccessEvent struct {
	ID                     string
	MemoryID               MemoryId
	UserID                 string
	Grade                  Grade
	SignalType             SignalType
	RetrievabilityAtAccess float64
	AccessedAt             time.Time
}

// SupersessionReason is the closed reason set for a Supersession record.
type SupersessionReason string

const (
	ReasonContradiction SupersessionReason = "contradiction"
	ReasonUpdate        SupersessionReason = "update"
	ReasonCorrection    SupersessionReason = "correction"
)

// Supersession is an append-only reconciliation record (spec §3); the old
// memory is demoted, never deleted.
type Supersession struct {
	ID         string
	OldID      MemoryId
	NewID      MemoryId
	UserID     string
	Reason     SupersessionReason
	Confidence float64
	Details    string
	CreatedAt  time.Time
}
