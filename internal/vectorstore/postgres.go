package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// PgStore is a Store backed by Postgres + pgvector, for deployments that
// already run Postgres for memory_dynamics and want a single datastore.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps an existing pool. Callers must have created the
// `memories` table (id text pk, content text, embedding vector, payload
// jsonb, created_at timestamptz) with a pgvector extension enabled.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Search implements Store.
func (s *PgStore) Search(ctx context.Context, embedding []float32, filters map[string]string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	filterJSON, err := filterToJSONB(filters)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: encode filters: %w", err)
	}

	const query = `
		SELECT id, content, payload, 1 - (embedding <=> $1) AS score
		FROM memories
		WHERE payload @> $2::jsonb
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(embedding), filterJSON, limit)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var id, content string
		var payloadRaw []byte
		var score float64
		if err := rows.Scan(&id, &content, &payloadRaw, &score); err != nil {
			return nil, fmt.Errorf("vectorstore: scan hit: %w", err)
		}
		payload, err := unmarshalPayload(payloadRaw)
		if err != nil {
			return nil, err
		}
		hits = append(hits, Hit{ID: id, Content: content, Score: score, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: search rows: %w", err)
	}
	return hits, nil
}

// Insert implements Store.
func (s *PgStore) Insert(ctx context.Context, id string, embedding []float32, content string, payload map[string]string) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("vectorstore: encode payload: %w", err)
	}
	const query = `
		INSERT INTO memories (id, content, embedding, payload, created_at)
		VALUES ($1, $2, $3, $4::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload
	`
	_, err = s.pool.Exec(ctx, query, id, content, pgvector.NewVector(embedding), payloadJSON)
	if err != nil {
		return fmt.Errorf("vectorstore: insert: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("vectorstore: delete: %w", err)
	}
	return nil
}

// GetAll implements Store.
func (s *PgStore) GetAll(ctx context.Context, filters map[string]string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	filterJSON, err := filterToJSONB(filters)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: encode filters: %w", err)
	}

	const query = `
		SELECT id, content, embedding, payload
		FROM memories
		WHERE payload @> $1::jsonb
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, filterJSON, limit)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: get_all: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var id, content string
		var vec pgvector.Vector
		var payloadRaw []byte
		if err := rows.Scan(&id, &content, &vec, &payloadRaw); err != nil {
			return nil, fmt.Errorf("vectorstore: scan record: %w", err)
		}
		payload, err := unmarshalPayload(payloadRaw)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{ID: id, Content: content, Embedding: vec.Slice(), Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: get_all rows: %w", err)
	}
	return records, nil
}

// Get implements Store.
func (s *PgStore) Get(ctx context.Context, id string) (Record, bool, error) {
	const query = `SELECT id, content, embedding, payload FROM memories WHERE id = $1`
	var rec string
	var content string
	var vec pgvector.Vector
	var payloadRaw []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(&rec, &content, &vec, &payloadRaw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("vectorstore: get: %w", err)
	}
	payload, err := unmarshalPayload(payloadRaw)
	if err != nil {
		return Record{}, false, err
	}
	return Record{ID: rec, Content: content, Embedding: vec.Slice(), Payload: payload}, true, nil
}

func filterToJSONB(filters map[string]string) ([]byte, error) {
	if filters == nil {
		filters = map[string]string{}
	}
	return json.Marshal(filters)
}

func unmarshalPayload(raw []byte) (map[string]string, error) {
	payload := map[string]string{}
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("vectorstore: decode payload: %w", err)
	}
	return payload, nil
}
