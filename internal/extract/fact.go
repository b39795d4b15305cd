// Package extract implements FactExtractor, TopicExtractor, and
// EntityExtractor (spec §4.5/C7): LLM-assisted extraction returning strict
// JSON shapes. Every extractor tolerates fenced code blocks and arbitrary
// preamble in the model's reply, and downgrades parse/network failures to
// an empty result rather than raising.
package extract

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"memoria/internal/llm"
)

const factExtractorSystemPrompt = `You extract discrete personal or preferential facts about the user from a
conversation turn. Return only JSON: {"facts": ["fact one", "fact two"]}. If
there are no facts, return {"facts": []}. Never include commentary.`

// FactExtractor turns a user/assistant turn into discrete factual assertions.
type FactExtractor struct {
	client llm.Client
	logger *zap.Logger
}

// NewFactExtractor builds a FactExtractor. client may be nil; Extract then
// always returns an empty slice.
func NewFactExtractor(client llm.Client, logger *zap.Logger) *FactExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactExtractor{client: client, logger: logger}
}

type factExtractionResult struct {
	Facts []string `json:"facts"`
}

// Extract returns discrete facts, or an empty slice on any failure.
func (f *FactExtractor) Extract(ctx context.Context, userMsg, assistantMsg string) []string {
	if f.client == nil {
		return nil
	}

	prompt := "User: " + userMsg + "\nAssistant: " + assistantMsg
	reply, err := f.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: factExtractorSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}, "")
	if err != nil {
		f.logger.Debug("fact extraction LLM call failed", zap.Error(err))
		return nil
	}

	cleaned := llm.CleanJSONResponse(reply)
	obj := llm.ExtractFirstJSONObject(cleaned)
	if obj == "" {
		obj = cleaned
	}

	var result factExtractionResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		f.logger.Debug("fact extraction JSON parse failed", zap.Error(err))
		return nil
	}
	return result.Facts
}
