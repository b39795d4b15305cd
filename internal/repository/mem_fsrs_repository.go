package repository

import (
	"context"
	"sync"

	"memoria/internal/domain"
)

// MemFsrsRepository is an in-memory FsrsRepository for tests and
// cmd/memoryctl's quick-start mode.
type MemFsrsRepository struct {
	mu             sync.RWMutex
	states         map[domain.MemoryId]domain.FsrsState
	accessLog      []domain.AccessEvent
	supersessions  []domain.Supersession
}

// NewMemFsrsRepository returns an empty MemFsrsRepository.
func NewMemFsrsRepository() *MemFsrsRepository {
	return &MemFsrsRepository{states: make(map[domain.MemoryId]domain.FsrsState)}
}

// GetState implements FsrsRepository.
func (r *MemFsrsRepository) GetState(_ context.Context, id domain.MemoryId, userIDs []string) (domain.FsrsState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[id]
	if !ok || !containsUser(userIDs, state.UserID) {
		return domain.FsrsState{}, false, nil
	}
	return state, true, nil
}

// PutState implements FsrsRepository.
func (r *MemFsrsRepository) PutState(_ context.Context, state domain.FsrsState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.MemoryID] = state
	return nil
}

// BatchGetStates implements FsrsRepository.
func (r *MemFsrsRepository) BatchGetStates(_ context.Context, ids []domain.MemoryId, userIDs []string) (map[domain.MemoryId]domain.FsrsState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.MemoryId]domain.FsrsState, len(ids))
	for _, id := range ids {
		if state, ok := r.states[id]; ok && containsUser(userIDs, state.UserID) {
			out[id] = state
		}
	}
	return out, nil
}

// AppendAccessEvent implements FsrsRepository.
func (r *MemFsrsRepository) AppendAccessEvent(_ context.Context, event domain.AccessEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accessLog = append(r.accessLog, event)
	return nil
}

// PutSupersession implements FsrsRepository.
func (r *MemFsrsRepository) PutSupersession(_ context.Context, s domain.Supersession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supersessions = append(r.supersessions, s)
	return nil
}

// AccessLog returns a snapshot of every appended AccessEvent, for assertions.
func (r *MemFsrsRepository) AccessLog() []domain.AccessEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AccessEvent, len(r.accessLog))
	copy(out, r.accessLog)
	return out
}

// Supersessions returns a snapshot of every recorded Supersession, for assertions.
func (r *MemFsrsRepository) Supersessions() []domain.Supersession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Supersession, len(r.supersessions))
	copy(out, r.supersessions)
	return out
}

func containsUser(userIDs []string, userID string) bool {
	for _, u := range userIDs {
		if u == userID {
			return true
		}
	}
	return false
}
