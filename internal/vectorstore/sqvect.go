package vectorstore

import (
	"context"
	"fmt"

	sqvect "github.com/liliang-cn/sqvect/v2"
)

// SqvectStore adapts github.com/liliang-cn/sqvect/v2's embeddable
// SQLite+HNSW store to the Store contract, for single-process deployments
// that would rather not stand up Postgres.
type SqvectStore struct {
	db *sqvect.SQLiteStore
}

// NewSqvectStore opens (or creates) a sqvect database at path with the
// given embedding dimension and runs its schema migration.
func NewSqvectStore(ctx context.Context, path string, vectorDim int) (*SqvectStore, error) {
	db, err := sqvect.New(path, vectorDim)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open sqvect store: %w", err)
	}
	if err := db.Init(ctx); err != nil {
		return nil, fmt.Errorf("vectorstore: init sqvect store: %w", err)
	}
	return &SqvectStore{db: db}, nil
}

// Close releases the underlying SQLite connection.
func (s *SqvectStore) Close() error {
	return s.db.Close()
}

// Search implements Store.
func (s *SqvectStore) Search(ctx context.Context, embedding []float32, filters map[string]string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := s.db.Search(ctx, embedding, sqvect.SearchOptions{TopK: limit, Filter: filters})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{ID: r.ID, Content: r.Content, Score: r.Score, Payload: r.Metadata})
	}
	return hits, nil
}

// Insert implements Store.
func (s *SqvectStore) Insert(ctx context.Context, id string, embedding []float32, content string, payload map[string]string) error {
	err := s.db.Upsert(ctx, &sqvect.Embedding{
		ID:       id,
		DocID:    id,
		Vector:   embedding,
		Content:  content,
		Metadata: payload,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: insert: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SqvectStore) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(ctx, id); err != nil {
		return fmt.Errorf("vectorstore: delete: %w", err)
	}
	return nil
}

// GetAll implements Store. sqvect has no native scan-by-filter, so this
// lists every document, loads its embeddings and filters client-side;
// callers that need GetAll at scale should prefer PgStore.
func (s *SqvectStore) GetAll(ctx context.Context, filters map[string]string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	docs, err := s.db.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: list documents: %w", err)
	}

	var records []Record
	for _, docID := range docs {
		embs, err := s.db.GetByDocID(ctx, docID)
		if err != nil {
			return nil, fmt.Errorf("vectorstore: get_by_doc_id: %w", err)
		}
		for _, e := range embs {
			if !matchesFilters(e.Metadata, filters) {
				continue
			}
			records = append(records, Record{ID: e.ID, Content: e.Content, Embedding: e.Vector, Payload: e.Metadata})
			if len(records) >= limit {
				return records, nil
			}
		}
	}
	return records, nil
}

// Get implements Store.
func (s *SqvectStore) Get(ctx context.Context, id string) (Record, bool, error) {
	embs, err := s.db.GetByDocID(ctx, id)
	if err != nil {
		return Record{}, false, fmt.Errorf("vectorstore: get: %w", err)
	}
	for _, e := range embs {
		if e.ID == id {
			return Record{ID: e.ID, Content: e.Content, Embedding: e.Vector, Payload: e.Metadata}, true, nil
		}
	}
	return Record{}, false, nil
}
