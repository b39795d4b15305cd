package graphstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/domain"
)

// PgStore implements Store on top of a `graph_entities` node table and a
// directed `graph_relationships` edge table, following the teacher's character/relationship
// repository shape generalized from a fixed Character schema to arbitrary
// typed entities.
type PgStore struct {
	pool     *pgxpool.Pool
	entities EntityExtractor
}

// NewPgStore wraps an existing pool. entities may be nil; AddEntityData then
// returns ErrNoExtractor instead of calling out.
func NewPgStore(pool *pgxpool.Pool, entities EntityExtractor) *PgStore {
	return &PgStore{pool: pool, entities: entities}
}

// EnsureSchema implements Store.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS graph_entities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_graph_entities_user_name ON graph_entities (user_id, lower(name));

		CREATE TABLE IF NOT EXISTS graph_relationships (
			id TEXT PRIMARY KEY,
			source_entity TEXT NOT NULL,
			label TEXT NOT NULL,
			target_entity TEXT NOT NULL,
			user_id TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_graph_relationships_user ON graph_relationships (user_id);
		CREATE INDEX IF NOT EXISTS idx_graph_relationships_source ON graph_relationships (source_entity);
		CREATE INDEX IF NOT EXISTS idx_graph_relationships_target ON graph_relationships (target_entity);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("graphstore: ensure_schema: %w", err)
	}
	return nil
}

// SearchEntities implements Store.
func (s *PgStore) SearchEntities(ctx context.Context, query string, userIDs []string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	const entityQuery = `
		SELECT name FROM graph_entities
		WHERE user_id = ANY($1) AND name ILIKE '%' || $2 || '%'
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, entityQuery, userIDs, query, limit)
	if err != nil {
		return nil, fmt.Errorf("graphstore: search_entities: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("graphstore: scan entity: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graphstore: search_entities rows: %w", err)
	}

	var results []string
	for _, name := range names {
		hops, err := s.oneHop(ctx, name, userIDs, limit)
		if err != nil {
			return nil, err
		}
		results = append(results, hops...)
		if len(results) >= limit {
			break
		}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *PgStore) oneHop(ctx context.Context, entityName string, userIDs []string, limit int) ([]string, error) {
	const hopQuery = `
		SELECT source_entity, label, target_entity FROM graph_relationships
		WHERE user_id = ANY($1) AND (source_entity = $2 OR target_entity = $2)
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, hopQuery, userIDs, entityName, limit)
	if err != nil {
		return nil, fmt.Errorf("graphstore: one_hop: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var src, label, dst string
		if err := rows.Scan(&src, &label, &dst); err != nil {
			return nil, fmt.Errorf("graphstore: scan relationship: %w", err)
		}
		out = append(out, fmt.Sprintf("%s → %s → %s", src, label, dst))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graphstore: one_hop rows: %w", err)
	}
	return out, nil
}

// ErrNoExtractor is returned by AddEntityData when no EntityExtractor was wired.
var ErrNoExtractor = fmt.Errorf("graphstore: no entity extractor configured")

// AddEntityData implements Store.
func (s *PgStore) AddEntityData(ctx context.Context, text, userID string) error {
	if s.entities == nil {
		return ErrNoExtractor
	}
	entities, relationships, err := s.entities.Extract(ctx, text)
	if err != nil {
		return fmt.Errorf("graphstore: extract entities: %w", err)
	}

	now := time.Now().UTC()
	for _, e := range entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		const upsert = `
			INSERT INTO graph_entities (id, name, entity_type, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+"|"+strings.ToLower(name))).String()
		if _, err := s.pool.Exec(ctx, upsert, id, name, string(e.EntityType), userID, now); err != nil {
			return fmt.Errorf("graphstore: insert entity: %w", err)
		}
	}

	for _, r := range relationships {
		label := SanitizeLabel(r.Label)
		if label == "" || r.Source == "" || r.Target == "" {
			continue
		}
		const insertRel = `
			INSERT INTO graph_relationships (id, source_entity, label, target_entity, user_id)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := s.pool.Exec(ctx, insertRel, uuid.NewString(), r.Source, label, r.Target, userID); err != nil {
			return fmt.Errorf("graphstore: insert relationship: %w", err)
		}
	}
	return nil
}

// GetAllRelationships implements Store.
func (s *PgStore) GetAllRelationships(ctx context.Context, userIDs []string, limit int) ([]domain.Relationship, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT source_entity, label, target_entity, user_id FROM graph_relationships
		WHERE user_id = ANY($1)
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, userIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("graphstore: get_all_relationships: %w", err)
	}
	defer rows.Close()

	var rels []domain.Relationship
	for rows.Next() {
		var rel domain.Relationship
		if err := rows.Scan(&rel.SourceEntity, &rel.Label, &rel.TargetEntity, &rel.UserID); err != nil {
			return nil, fmt.Errorf("graphstore: scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graphstore: get_all_relationships rows: %w", err)
	}
	return rels, nil
}
