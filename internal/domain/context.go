package domain

// MemoryContext is the assembled, prompt-ready result of MemoryService.FetchContext.
type MemoryContext struct {
	KeyMemories      []Memory
	RelevantMemories []Memory
	GraphRelations   []string
	EmotionalContext []string
	RecurringTopics  []string
}

// IsEmpty reports whether every field is empty, matching spec §4.9's
// "fetch_context must always return a value (possibly empty)" contract.
func (c MemoryContext) IsEmpty() bool {
	return len(c.KeyMemories) == 0 &&
		len(c.RelevantMemories) == 0 &&
		len(c.GraphRelations) == 0 &&
		len(c.EmotionalContext) == 0 &&
		len(c.RecurringTopics) == 0
}
