// Package dynamics implements MemoryDynamics (spec §4.2/C5): the bridge
// between the pure Fsrs engine and persistence. Per the documented failure
// policy, read failures degrade to defaults and write failures are logged
// and swallowed — scoring degrades gracefully rather than raising.
package dynamics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memoria/internal/domain"
	"memoria/internal/fsrs"
	"memoria/internal/repository"
)

// MemoryDynamics is C5.
type MemoryDynamics struct {
	repo   repository.FsrsRepository
	engine fsrs.Engine
	clock  func() time.Time
	logger *zap.Logger
}

// New builds a MemoryDynamics over repo using the default FSRS engine.
func New(repo repository.FsrsRepository, logger *zap.Logger) *MemoryDynamics {
	return NewWithEngine(repo, fsrs.New(), logger)
}

// NewWithEngine builds a MemoryDynamics over repo using engine, for
// deployments that supply FSRS_WEIGHTS_OVERRIDE.
func NewWithEngine(repo repository.FsrsRepository, engine fsrs.Engine, logger *zap.Logger) *MemoryDynamics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryDynamics{repo: repo, engine: engine, clock: time.Now, logger: logger}
}

// GetOrCreate returns the persisted state for id/userID, or a
// defaults-initialized transient state if none exists or the read failed.
// The transient state is NOT persisted here; it is persisted on first write
// (Promote/Demote).
func (d *MemoryDynamics) GetOrCreate(ctx context.Context, id domain.MemoryId, userID string) domain.FsrsState {
	state, ok, err := d.repo.GetState(ctx, id, []string{userID})
	if err != nil {
		d.logger.Warn("fsrs state read failed, using defaults", zap.String("memory_id", id), zap.Error(err))
		return domain.NewFsrsState(id, userID, d.clock())
	}
	if !ok {
		return domain.NewFsrsState(id, userID, d.clock())
	}
	return state
}

// Seed persists the documented-default FsrsState for a freshly created
// memory. Write failures are logged and swallowed, matching the rest of
// the write-failure policy.
func (d *MemoryDynamics) Seed(ctx context.Context, id domain.MemoryId, userID string) {
	state := domain.NewFsrsState(id, userID, d.clock())
	if err := d.repo.PutState(ctx, state); err != nil {
		d.logger.Warn("fsrs state seed failed, scoring will degrade", zap.String("memory_id", id), zap.Error(err))
	}
}

// Promote applies a graded review for id, reading state for any of userIDs
// and writing back under the primary (first) user id. Write and log
// failures never propagate; the caller always proceeds.
func (d *MemoryDynamics) Promote(ctx context.Context, id domain.MemoryId, userIDs []string, grade domain.Grade, signal domain.SignalType) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("dynamics: promote requires at least one user id")
	}
	if !grade.Valid() {
		return fmt.Errorf("dynamics: invalid grade %d", grade)
	}
	primary := userIDs[0]

	state, ok, err := d.repo.GetState(ctx, id, userIDs)
	if err != nil {
		d.logger.Warn("fsrs state read failed during promote, using defaults", zap.String("memory_id", id), zap.Error(err))
	}
	if !ok {
		state = domain.NewFsrsState(id, primary, d.clock())
	}

	now := d.clock()
	result := d.engine.Review(state, grade, now)
	result.State.UserID = primary

	if err := d.repo.PutState(ctx, result.State); err != nil {
		d.logger.Warn("fsrs state write failed, scoring will degrade", zap.String("memory_id", id), zap.Error(err))
	}

	event := domain.AccessEvent{
		ID:                     uuid.NewString(),
		MemoryID:               id,
		UserID:                 primary,
		Grade:                  grade,
		SignalType:             signal,
		RetrievabilityAtAccess: result.RetrievabilityBefore,
		AccessedAt:             now,
	}
	if err := d.repo.AppendAccessEvent(ctx, event); err != nil {
		d.logger.Warn("access log write failed", zap.String("memory_id", id), zap.Error(err))
	}
	return nil
}

// Demote is Promote(..., Again, "contradiction_detected").
func (d *MemoryDynamics) Demote(ctx context.Context, id domain.MemoryId, userIDs []string) error {
	return d.Promote(ctx, id, userIDs, domain.Again, domain.SignalContradiction)
}

// BatchGet fetches states for ids visible to userIDs. A read failure
// degrades to an empty map; missing ids are simply absent.
func (d *MemoryDynamics) BatchGet(ctx context.Context, ids []domain.MemoryId, userIDs []string) map[domain.MemoryId]domain.FsrsState {
	states, err := d.repo.BatchGetStates(ctx, ids, userIDs)
	if err != nil {
		d.logger.Warn("fsrs batch read failed, degrading to empty", zap.Error(err))
		return map[domain.MemoryId]domain.FsrsState{}
	}
	return states
}

// RecordSupersession appends an audit record. Write failures are logged and swallowed.
func (d *MemoryDynamics) RecordSupersession(ctx context.Context, oldID, newID domain.MemoryId, userID string, reason domain.SupersessionReason, confidence float64, details string) {
	s := domain.Supersession{
		ID:         uuid.NewString(),
		OldID:      oldID,
		NewID:      newID,
		UserID:     userID,
		Reason:     reason,
		Confidence: confidence,
		Details:    details,
		CreatedAt:  d.clock(),
	}
	if err := d.repo.PutSupersession(ctx, s); err != nil {
		d.logger.Warn("supersession write failed", zap.String("old_id", oldID), zap.String("new_id", newID), zap.Error(err))
	}
}
