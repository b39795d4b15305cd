package contradiction

import (
	"context"
	"strings"

	"memoria/internal/llm"
)

const semanticConfidence = 0.85

const semanticPrompt = `You compare two statements about the same person for contradiction.
Reply with exactly one word: CONTRADICT, NO_CONTRADICTION, or UPDATES.`

// detectSemantic is layer 5: an optional LLM judgment. LLM failures (and
// ambiguous replies) downgrade to "no contradiction", never error.
func (d *Detector) detectSemantic(ctx context.Context, newContent, existingContent string) Verdict {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: semanticPrompt},
		{Role: llm.RoleUser, Content: "Existing: " + existingContent + "\nNew: " + newContent},
	}

	reply, err := d.llmClient.Complete(ctx, messages, "")
	if err != nil {
		return Verdict{Type: TypeNone, Explanation: "semantic layer unavailable: " + err.Error()}
	}

	verdict := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.Contains(verdict, "NO_CONTRADICTION"):
		return Verdict{Type: TypeNone}
	case strings.Contains(verdict, "CONTRADICT"):
		return Verdict{Contradicts: true, Type: TypeSemantic, Confidence: semanticConfidence, Explanation: "model judged the statements as contradictory"}
	case strings.Contains(verdict, "UPDATES"):
		return Verdict{Contradicts: true, Type: TypeSemantic, Confidence: semanticConfidence, Explanation: "model judged the new statement as an update"}
	default:
		return Verdict{Type: TypeNone}
	}
}
