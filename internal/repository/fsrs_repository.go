// Package repository persists the tables MemoryDynamics depends on:
// memory_dynamics, memory_access_log, memory_supersessions (spec §6).
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/domain"
)

// FsrsRepository is the persistence boundary MemoryDynamics is built on.
type FsrsRepository interface {
	GetState(ctx context.Context, id domain.MemoryId, userIDs []string) (domain.FsrsState, bool, error)
	PutState(ctx context.Context, state domain.FsrsState) error
	BatchGetStates(ctx context.Context, ids []domain.MemoryId, userIDs []string) (map[domain.MemoryId]domain.FsrsState, error)
	AppendAccessEvent(ctx context.Context, event domain.AccessEvent) error
	PutSupersession(ctx context.Context, s domain.Supersession) error
}

// PgFsrsRepository implements FsrsRepository over Postgres.
type PgFsrsRepository struct {
	pool *pgxpool.Pool
}

// NewPgFsrsRepository wraps an existing pool.
func NewPgFsrsRepository(pool *pgxpool.Pool) *PgFsrsRepository {
	return &PgFsrsRepository{pool: pool}
}

// EnsureSchema creates the three tables and their documented indexes.
func (r *PgFsrsRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS memory_dynamics (
			memory_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			stability DOUBLE PRECISION NOT NULL,
			difficulty DOUBLE PRECISION NOT NULL,
			retrieval_strength DOUBLE PRECISION NOT NULL,
			storage_strength DOUBLE PRECISION NOT NULL,
			is_key BOOLEAN NOT NULL DEFAULT false,
			importance_weight DOUBLE PRECISION NOT NULL,
			category TEXT,
			tags TEXT[] NOT NULL DEFAULT '{}',
			last_accessed_at TIMESTAMPTZ NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_memory_dynamics_user_accessed ON memory_dynamics (user_id, last_accessed_at);

		CREATE TABLE IF NOT EXISTS memory_access_log (
			id TEXT PRIMARY KEY,
			memory_id TEXT NOT NULL REFERENCES memory_dynamics (memory_id),
			user_id TEXT NOT NULL,
			grade INTEGER NOT NULL,
			signal_type TEXT NOT NULL,
			retrievability_at_access DOUBLE PRECISION NOT NULL,
			accessed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_memory_access_log_user_accessed ON memory_access_log (user_id, accessed_at);

		CREATE TABLE IF NOT EXISTS memory_supersessions (
			id TEXT PRIMARY KEY,
			old_memory_id TEXT NOT NULL,
			new_memory_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			details TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_memory_supersessions_old ON memory_supersessions (old_memory_id);
		CREATE INDEX IF NOT EXISTS idx_memory_supersessions_new ON memory_supersessions (new_memory_id);
		CREATE INDEX IF NOT EXISTS idx_memory_supersessions_user ON memory_supersessions (user_id);
	`
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("repository: ensure_schema: %w", err)
	}
	return nil
}

// GetState implements FsrsRepository.
func (r *PgFsrsRepository) GetState(ctx context.Context, id domain.MemoryId, userIDs []string) (domain.FsrsState, bool, error) {
	const query = `
		SELECT memory_id, user_id, stability, difficulty, retrieval_strength, storage_strength,
		       is_key, importance_weight, category, tags, last_accessed_at, access_count, created_at, updated_at
		FROM memory_dynamics
		WHERE memory_id = $1 AND user_id = ANY($2)
	`
	var state domain.FsrsState
	var category string
	var tags []string
	err := r.pool.QueryRow(ctx, query, id, userIDs).Scan(
		&state.MemoryID, &state.UserID, &state.Stability, &state.Difficulty,
		&state.RetrievalStrength, &state.StorageStrength, &state.IsKey, &state.ImportanceWeight,
		&category, &tags, &state.LastAccessedAt, &state.AccessCount, &state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.FsrsState{}, false, nil
		}
		return domain.FsrsState{}, false, fmt.Errorf("repository: get_state: %w", err)
	}
	state.Category = domain.Category(category)
	state.Tags = tagsToSet(tags)
	return state, true, nil
}

// PutState implements FsrsRepository.
func (r *PgFsrsRepository) PutState(ctx context.Context, state domain.FsrsState) error {
	const upsert = `
		INSERT INTO memory_dynamics (
			memory_id, user_id, stability, difficulty, retrieval_strength, storage_strength,
			is_key, importance_weight, category, tags, last_accessed_at, access_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (memory_id) DO UPDATE SET
			stability = EXCLUDED.stability,
			difficulty = EXCLUDED.difficulty,
			retrieval_strength = EXCLUDED.retrieval_strength,
			storage_strength = EXCLUDED.storage_strength,
			is_key = EXCLUDED.is_key,
			importance_weight = EXCLUDED.importance_weight,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			last_accessed_at = EXCLUDED.last_accessed_at,
			access_count = EXCLUDED.access_count,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, upsert,
		state.MemoryID, state.UserID, state.Stability, state.Difficulty,
		state.RetrievalStrength, state.StorageStrength, state.IsKey, state.ImportanceWeight,
		string(state.Category), tagsToSlice(state.Tags), state.LastAccessedAt, state.AccessCount,
		state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: put_state: %w", err)
	}
	return nil
}

// BatchGetStates implements FsrsRepository.
func (r *PgFsrsRepository) BatchGetStates(ctx context.Context, ids []domain.MemoryId, userIDs []string) (map[domain.MemoryId]domain.FsrsState, error) {
	result := make(map[domain.MemoryId]domain.FsrsState, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `
		SELECT memory_id, user_id, stability, difficulty, retrieval_strength, storage_strength,
		       is_key, importance_weight, category, tags, last_accessed_at, access_count, created_at, updated_at
		FROM memory_dynamics
		WHERE memory_id = ANY($1) AND user_id = ANY($2)
	`
	rows, err := r.pool.Query(ctx, query, ids, userIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: batch_get: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state domain.FsrsState
		var category string
		var tags []string
		if err := rows.Scan(
			&state.MemoryID, &state.UserID, &state.Stability, &state.Difficulty,
			&state.RetrievalStrength, &state.StorageStrength, &state.IsKey, &state.ImportanceWeight,
			&category, &tags, &state.LastAccessedAt, &state.AccessCount, &state.CreatedAt, &state.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("repository: scan batch state: %w", err)
		}
		state.Category = domain.Category(category)
		state.Tags = tagsToSet(tags)
		result[state.MemoryID] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: batch_get rows: %w", err)
	}
	return result, nil
}

// AppendAccessEvent implements FsrsRepository.
func (r *PgFsrsRepository) AppendAccessEvent(ctx context.Context, event domain.AccessEvent) error {
	const insert = `
		INSERT INTO memory_access_log (id, memory_id, user_id, grade, signal_type, retrievability_at_access, accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, insert,
		event.ID, event.MemoryID, event.UserID, int(event.Grade), string(event.SignalType),
		event.RetrievabilityAtAccess, event.AccessedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: append_access_event: %w", err)
	}
	return nil
}

// PutSupersession implements FsrsRepository.
func (r *PgFsrsRepository) PutSupersession(ctx context.Context, s domain.Supersession) error {
	const insert = `
		INSERT INTO memory_supersessions (id, old_memory_id, new_memory_id, user_id, reason, confidence, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, insert,
		s.ID, s.OldID, s.NewID, s.UserID, string(s.Reason), s.Confidence, s.Details, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: put_supersession: %w", err)
	}
	return nil
}

func tagsToSlice(tags map[string]struct{}) []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	return out
}

func tagsToSet(tags []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[strings.TrimSpace(t)] = struct{}{}
	}
	return out
}
