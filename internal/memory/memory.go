// Package memory implements MemoryService (spec §4.9/C12): the top-level
// orchestrator that assembles prompt-ready context and routes new
// conversation turns through extraction, ingestion, topic tracking, and
// emotional tracking. Every external call is wrapped; a failure degrades
// the returned context rather than propagating, so fetch_context always
// returns a value.
package memory

import (
	"context"

	"go.uber.org/zap"

	"memoria/internal/domain"
	"memoria/internal/ingest"
	"memoria/internal/score"
	"memoria/internal/vectorstore"
)

const (
	keyMemoriesScanLimit  = 100
	vectorSearchLimit     = 20
	graphSearchLimit      = 10
	emotionalRetrieveLimit = 3
	recurringTopicsLimit  = 3
	rankedTopN            = 10
	relevantTopN           = 5
)

// Embedder is the narrow EmbeddingClient capability MemoryService needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the narrow VectorStore capability MemoryService needs.
type VectorStore interface {
	Search(ctx context.Context, embedding []float32, filters map[string]string, limit int) ([]vectorstore.Hit, error)
	GetAll(ctx context.Context, filters map[string]string, limit int) ([]vectorstore.Record, error)
}

// GraphStore is the narrow GraphStore capability MemoryService needs.
type GraphStore interface {
	SearchEntities(ctx context.Context, query string, userIDs []string, limit int) ([]string, error)
}

// EmotionalContext is the narrow capability MemoryService needs.
type EmotionalContext interface {
	TrackMessage(userID, channelID, text string) domain.SentimentEntry
	FinalizeSession(ctx context.Context, userID, channelID string) (domain.EmotionalArc, bool)
	Retrieve(ctx context.Context, userID string, n int) ([]vectorstore.Record, error)
}

// TopicRecurrence is the narrow capability MemoryService needs.
type TopicRecurrence interface {
	StoreMention(ctx context.Context, mention domain.TopicMention, userID string, embedding []float32) error
	Recurring(ctx context.Context, userID string, maxTopics int) ([]string, error)
}

// FactExtractor is the narrow capability MemoryService needs.
type FactExtractor interface {
	Extract(ctx context.Context, userMsg, assistantMsg string) []string
}

// TopicExtractor is the narrow capability MemoryService needs.
type TopicExtractor interface {
	Extract(ctx context.Context, conversationText string) []domain.TopicMention
}

// Ingester is the narrow SmartIngest capability MemoryService needs.
type Ingester interface {
	Ingest(ctx context.Context, fact, userID string) (ingest.IngestResult, error)
}

// Dynamics is the narrow MemoryDynamics capability MemoryService needs.
type Dynamics interface {
	Promote(ctx context.Context, id domain.MemoryId, userIDs []string, grade domain.Grade, signal domain.SignalType) error
}

// Scorer is the narrow CompositeScorer capability MemoryService needs.
type Scorer interface {
	Rank(candidates []score.Candidate) []score.Scored
}

// FsrsLookup is the narrow capability MemoryService needs to build scoring
// candidates out of raw vector hits.
type FsrsLookup interface {
	BatchGet(ctx context.Context, ids []domain.MemoryId, userIDs []string) map[domain.MemoryId]domain.FsrsState
}

// MemoryService is C12.
type MemoryService struct {
	embedder   Embedder
	vectors    VectorStore
	graph      GraphStore
	emotional  EmotionalContext
	topics     TopicRecurrence
	facts      FactExtractor
	topicExtr  TopicExtractor
	ingester   Ingester
	dynamics   Dynamics
	fsrsLookup FsrsLookup
	scorer     Scorer
	logger     *zap.Logger
}

// New builds a MemoryService. Any dependency may be nil; the
// corresponding section of fetch_context degrades to empty rather than
// panicking.
func New(
	embedder Embedder,
	vectors VectorStore,
	graph GraphStore,
	emotional EmotionalContext,
	topics TopicRecurrence,
	facts FactExtractor,
	topicExtr TopicExtractor,
	ingester Ingester,
	dynamics Dynamics,
	fsrsLookup FsrsLookup,
	scorer Scorer,
	logger *zap.Logger,
) *MemoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryService{
		embedder:   embedder,
		vectors:    vectors,
		graph:      graph,
		emotional:  emotional,
		topics:     topics,
		facts:      facts,
		topicExtr:  topicExtr,
		ingester:   ingester,
		dynamics:   dynamics,
		fsrsLookup: fsrsLookup,
		scorer:     scorer,
		logger:     logger,
	}
}

// FetchContext assembles prompt-ready context for query. The graph search
// covers every id in userIDs; key memories, semantic matches, emotional
// summaries and recurring topics are read for the primary (first) id only.
// It always returns a value, possibly empty; every dependency failure is
// logged and degrades its own section.
func (m *MemoryService) FetchContext(ctx context.Context, query string, userIDs []string) domain.MemoryContext {
	var result domain.MemoryContext
	if len(userIDs) == 0 {
		return result
	}
	primary := userIDs[0]

	result.KeyMemories = m.keyMemories(ctx, primary)

	if ranked := m.rankedSemanticMatches(ctx, query, primary); len(ranked) > 0 {
		if len(ranked) > rankedTopN {
			ranked = ranked[:rankedTopN]
		}
		relevantCount := relevantTopN
		if relevantCount > len(ranked) {
			relevantCount = len(ranked)
		}
		for i, sc := range ranked {
			if i < relevantCount {
				result.RelevantMemories = append(result.RelevantMemories, sc.Memory)
			} else {
				result.KeyMemories = append(result.KeyMemories, sc.Memory)
			}
		}
	}

	result.GraphRelations = m.graphRelations(ctx, query, userIDs)
	result.EmotionalContext = m.emotionalSummaries(ctx, primary)
	result.RecurringTopics = m.recurringTopics(ctx, primary)
	return result
}

func (m *MemoryService) keyMemories(ctx context.Context, userID string) []domain.Memory {
	if m.vectors == nil {
		return nil
	}
	records, err := m.vectors.GetAll(ctx, map[string]string{
		domain.PayloadUserID: userID,
		domain.PayloadIsKey:  "true",
	}, keyMemoriesScanLimit)
	if err != nil {
		m.logger.Warn("key memory scan failed, degrading to none", zap.Error(err))
		return nil
	}
	out := make([]domain.Memory, 0, len(records))
	for _, r := range records {
		out = append(out, recordToMemory(r))
	}
	return out
}

func (m *MemoryService) rankedSemanticMatches(ctx context.Context, query, userID string) []score.Scored {
	if m.embedder == nil || m.vectors == nil {
		return nil
	}
	embedding, err := m.embedder.Embed(ctx, query)
	if err != nil {
		m.logger.Warn("query embedding failed, degrading semantic search", zap.Error(err))
		return nil
	}

	hits, err := m.vectors.Search(ctx, embedding, map[string]string{domain.PayloadUserID: userID}, vectorSearchLimit)
	if err != nil {
		m.logger.Warn("vector search failed, degrading to none", zap.Error(err))
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	candidates := make([]score.Candidate, 0, len(hits))
	var states map[domain.MemoryId]domain.FsrsState
	if m.fsrsLookup != nil {
		ids := make([]domain.MemoryId, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.ID)
		}
		states = m.fsrsLookup.BatchGet(ctx, ids, []string{userID})
	}

	for _, h := range hits {
		candidates = append(candidates, score.Candidate{
			Memory:      hitToMemory(h),
			VectorScore: h.Score,
			FsrsState:   states[h.ID],
			IsKey:       h.Payload[domain.PayloadIsKey] == "true",
		})
	}

	if m.scorer == nil {
		out := make([]score.Scored, len(candidates))
		for i, c := range candidates {
			out[i] = score.Scored{Candidate: c, CompositeScore: c.VectorScore}
		}
		return out
	}
	return m.scorer.Rank(candidates)
}

func (m *MemoryService) graphRelations(ctx context.Context, query string, userIDs []string) []string {
	if m.graph == nil {
		return nil
	}
	relations, err := m.graph.SearchEntities(ctx, query, userIDs, graphSearchLimit)
	if err != nil {
		m.logger.Warn("graph search failed, degrading to none", zap.Error(err))
		return nil
	}
	return relations
}

func (m *MemoryService) emotionalSummaries(ctx context.Context, userID string) []string {
	if m.emotional == nil {
		return nil
	}
	records, err := m.emotional.Retrieve(ctx, userID, emotionalRetrieveLimit)
	if err != nil {
		m.logger.Warn("emotional context retrieve failed, degrading to none", zap.Error(err))
		return nil
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Content)
	}
	return out
}

func (m *MemoryService) recurringTopics(ctx context.Context, userID string) []string {
	if m.topics == nil {
		return nil
	}
	recurring, err := m.topics.Recurring(ctx, userID, recurringTopicsLimit)
	if err != nil {
		m.logger.Warn("recurring topics fetch failed, degrading to none", zap.Error(err))
		return nil
	}
	return recurring
}

// BuildPromptSections renders one markdown-like section per non-empty
// MemoryContext field, in key -> relevant -> graph -> emotional -> topics
// order.
func (m *MemoryService) BuildPromptSections(ctx domain.MemoryContext) []string {
	var sections []string
	if len(ctx.KeyMemories) > 0 {
		sections = append(sections, renderMemorySection("Key memories", ctx.KeyMemories))
	}
	if len(ctx.RelevantMemories) > 0 {
		sections = append(sections, renderMemorySection("Relevant memories", ctx.RelevantMemories))
	}
	if len(ctx.GraphRelations) > 0 {
		sections = append(sections, renderListSection("Known relationships", ctx.GraphRelations))
	}
	if len(ctx.EmotionalContext) > 0 {
		sections = append(sections, renderListSection("Recent emotional context", ctx.EmotionalContext))
	}
	if len(ctx.RecurringTopics) > 0 {
		sections = append(sections, renderListSection("Recurring topics", ctx.RecurringTopics))
	}
	return sections
}

// Add extracts facts and topics from a conversation turn and routes them
// through SmartIngest, TopicRecurrence, and EmotionalContext. Facts are
// ingested one at a time, in order, so a later fact can supersede an
// earlier one from the same batch rather than racing it.
func (m *MemoryService) Add(ctx context.Context, userMsg, assistantMsg, userID, channelID string) {
	if m.facts != nil && m.ingester != nil {
		for _, fact := range m.facts.Extract(ctx, userMsg, assistantMsg) {
			if _, err := m.ingester.Ingest(ctx, fact, userID); err != nil {
				m.logger.Warn("fact ingest failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	if m.topicExtr != nil && m.topics != nil {
		conversation := userMsg + "\n" + assistantMsg
		for _, mention := range m.topicExtr.Extract(ctx, conversation) {
			mention.UserID = userID
			if err := m.topics.StoreMention(ctx, mention, userID, nil); err != nil {
				m.logger.Warn("topic mention store failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	if m.emotional != nil {
		m.emotional.TrackMessage(userID, channelID, userMsg)
	}
}

// FinalizeSession delegates to EmotionalContext.
func (m *MemoryService) FinalizeSession(ctx context.Context, userID, channelID string) (domain.EmotionalArc, bool) {
	if m.emotional == nil {
		return domain.EmotionalArc{}, false
	}
	return m.emotional.FinalizeSession(ctx, userID, channelID)
}

// PromoteUsed records that memoryIDs were used in a response, reinforcing
// their FSRS state.
func (m *MemoryService) PromoteUsed(ctx context.Context, memoryIDs []domain.MemoryId, userIDs []string) {
	if m.dynamics == nil {
		return
	}
	for _, id := range memoryIDs {
		if err := m.dynamics.Promote(ctx, id, userIDs, domain.Good, domain.SignalUsedInResponse); err != nil {
			m.logger.Warn("promote_used failed", zap.String("memory_id", id), zap.Error(err))
		}
	}
}

func recordToMemory(r vectorstore.Record) domain.Memory {
	return domain.Memory{
		ID:        r.ID,
		UserID:    r.Payload[domain.PayloadUserID],
		Content:   r.Content,
		Payload:   r.Payload,
		Embedding: r.Embedding,
		CreatedAt: parseCreatedAt(r.Payload[domain.PayloadCreatedAt]),
	}
}

func hitToMemory(h vectorstore.Hit) domain.Memory {
	return domain.Memory{
		ID:        h.ID,
		UserID:    h.Payload[domain.PayloadUserID],
		Content:   h.Content,
		Payload:   h.Payload,
		CreatedAt: parseCreatedAt(h.Payload[domain.PayloadCreatedAt]),
	}
}
