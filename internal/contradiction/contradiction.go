// Package contradiction implements ContradictionDetector (spec §4.3/C6): a
// five-layer fast-to-slow verdict engine over two plain-text strings.
// Regex sets are compiled once at package init, never per call, per the
// design notes.
package contradiction

import (
	"context"
	"strings"

	"memoria/internal/llm"
)

// Type is the closed set of contradiction kinds a layer can report.
type Type string

const (
	TypeNegation Type = "negation"
	TypeAntonym  Type = "antonym"
	TypeTemporal Type = "temporal"
	TypeNumeric  Type = "numeric"
	TypeSemantic Type = "semantic"
	TypeNone     Type = "none"
)

// Verdict is the output of Detect.
type Verdict struct {
	Contradicts bool
	Type        Type
	Confidence  float64
	Explanation string
}

var stopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"that": true, "this": true, "was": true, "are": true, "not": true,
	"have": true, "has": true, "had": true, "you": true, "your": true,
	"about": true, "from": true, "they": true, "them": true, "his": true,
	"her": true, "its": true, "any": true, "more": true, "anymore": true,
	"now": true, "still": true, "just": true,
}

// Detector is the ContradictionDetector capability.
type Detector struct {
	llmClient llm.Client
}

// New builds a Detector. llmClient may be nil; then layer 5 is unavailable
// and Detect with useLLM=true simply skips it.
func New(llmClient llm.Client) *Detector {
	return &Detector{llmClient: llmClient}
}

// Detect runs the five layers in order, short-circuiting on the first
// positive one. useLLM gates layer 5.
func (d *Detector) Detect(ctx context.Context, newContent, existingContent string, useLLM bool) Verdict {
	if strings.EqualFold(strings.TrimSpace(newContent), strings.TrimSpace(existingContent)) {
		return Verdict{Type: TypeNone}
	}

	if v, ok := detectNegation(newContent, existingContent); ok {
		return v
	}
	if v, ok := detectAntonym(newContent, existingContent); ok {
		return v
	}
	if v, ok := detectTemporal(newContent, existingContent); ok {
		return v
	}
	if v, ok := detectNumeric(newContent, existingContent); ok {
		return v
	}
	if useLLM && d.llmClient != nil {
		return d.detectSemantic(ctx, newContent, existingContent)
	}
	return Verdict{Type: TypeNone}
}

// HasCommonContext reports whether a and b share at least one non-stopword
// token longer than 2 characters.
func HasCommonContext(a, b string) bool {
	wordsA := contextTokens(a)
	wordsB := contextTokens(b)
	for w := range wordsA {
		if wordsB[w] {
			return true
		}
	}
	return false
}

func contextTokens(s string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.Fields(normalize(s)) {
		tok = strings.Trim(tok, ".,!?;:'\"")
		if len(tok) <= 2 || stopwords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

// Jaccard computes |A∩B|/|A∪B| over lowercased whitespace tokens.
func Jaccard(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	inter, union := 0, len(ta)
	for t := range tb {
		if ta[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		out[tok] = true
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(s)
}
