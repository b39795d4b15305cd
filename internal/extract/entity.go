package extract

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"memoria/internal/domain"
	"memoria/internal/graphstore"
	"memoria/internal/llm"
)

const entityExtractorSystemPrompt = `You extract named entities and the relationships between them from text.
Return only JSON:
{"entities": [{"name": "...", "type": "person|place|thing|concept"}],
 "relationships": [{"source": "...", "label": "...", "target": "..."}]}
Return empty arrays if there is nothing to extract. Never include commentary.`

// EntityExtractor turns free text into graph-store-ready entities and
// relationships. It satisfies graphstore.EntityExtractor.
type EntityExtractor struct {
	client llm.Client
	logger *zap.Logger
}

// NewEntityExtractor builds an EntityExtractor. client may be nil.
func NewEntityExtractor(client llm.Client, logger *zap.Logger) *EntityExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityExtractor{client: client, logger: logger}
}

type entityExtractionResult struct {
	Entities []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"entities"`
	Relationships []struct {
		Source string `json:"source"`
		Label  string `json:"label"`
		Target string `json:"target"`
	} `json:"relationships"`
}

// Extract implements graphstore.EntityExtractor.
func (e *EntityExtractor) Extract(ctx context.Context, text string) ([]graphstore.ExtractedEntity, []graphstore.ExtractedRelationship, error) {
	if e.client == nil {
		return nil, nil, nil
	}

	reply, err := e.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: entityExtractorSystemPrompt},
		{Role: llm.RoleUser, Content: text},
	}, "")
	if err != nil {
		e.logger.Debug("entity extraction LLM call failed", zap.Error(err))
		return nil, nil, nil
	}

	cleaned := llm.CleanJSONResponse(reply)
	obj := llm.ExtractFirstJSONObject(cleaned)
	if obj == "" {
		obj = cleaned
	}

	var result entityExtractionResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		e.logger.Debug("entity extraction JSON parse failed", zap.Error(err))
		return nil, nil, nil
	}

	var entities []graphstore.ExtractedEntity
	for _, raw := range result.Entities {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		entities = append(entities, graphstore.ExtractedEntity{Name: name, EntityType: normalizeEntityType(raw.Type)})
	}

	var relationships []graphstore.ExtractedRelationship
	for _, raw := range result.Relationships {
		if raw.Source == "" || raw.Target == "" {
			continue
		}
		relationships = append(relationships, graphstore.ExtractedRelationship{
			Source: strings.TrimSpace(raw.Source),
			Label:  raw.Label,
			Target: strings.TrimSpace(raw.Target),
		})
	}

	return entities, relationships, nil
}

func normalizeEntityType(s string) domain.EntityType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person":
		return domain.EntityPerson
	case "place":
		return domain.EntityPlace
	case "concept":
		return domain.EntityConcept
	default:
		return domain.EntityThing
	}
}
