package extract

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"memoria/internal/domain"
	"memoria/internal/llm"
)

const topicExtractorSystemPrompt = `You extract up to 3 notable topics (entities or recurring themes) from a
conversation. Return only JSON:
{"topics": [{"name": "...", "type": "entity|theme", "snippet": "...", "weight": "light|moderate|heavy"}]}
Return {"topics": []} if there are none. Never include commentary.`

// TopicExtractor turns conversation text into up to 3 deduplicated topic mentions.
type TopicExtractor struct {
	client llm.Client
	logger *zap.Logger
}

// NewTopicExtractor builds a TopicExtractor. client may be nil.
func NewTopicExtractor(client llm.Client, logger *zap.Logger) *TopicExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicExtractor{client: client, logger: logger}
}

type topicExtractionResult struct {
	Topics []struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Snippet string `json:"snippet"`
		Weight  string `json:"weight"`
	} `json:"topics"`
}

// Extract returns up to 3 TopicMentions, deduplicated by case-folded name.
func (t *TopicExtractor) Extract(ctx context.Context, conversationText string) []domain.TopicMention {
	if t.client == nil {
		return nil
	}

	reply, err := t.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: topicExtractorSystemPrompt},
		{Role: llm.RoleUser, Content: conversationText},
	}, "")
	if err != nil {
		t.logger.Debug("topic extraction LLM call failed", zap.Error(err))
		return nil
	}

	cleaned := llm.CleanJSONResponse(reply)
	obj := llm.ExtractFirstJSONObject(cleaned)
	if obj == "" {
		obj = cleaned
	}

	var result topicExtractionResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		t.logger.Debug("topic extraction JSON parse failed", zap.Error(err))
		return nil
	}

	seen := map[string]bool{}
	var out []domain.TopicMention
	for _, raw := range result.Topics {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		mention := domain.TopicMention{
			Topic:           name,
			TopicType:       normalizeTopicType(raw.Type),
			ContextSnippet:  raw.Snippet,
			EmotionalWeight: normalizeWeight(raw.Weight),
		}
		out = append(out, mention)
		if len(out) >= 3 {
			break
		}
	}
	return out
}

func normalizeTopicType(s string) domain.TopicType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entity":
		return domain.TopicEntity
	default:
		return domain.TopicTheme
	}
}

func normalizeWeight(s string) domain.EmotionalWeight {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heavy":
		return domain.WeightHeavy
	case "moderate":
		return domain.WeightModerate
	default:
		return domain.WeightLight
	}
}
