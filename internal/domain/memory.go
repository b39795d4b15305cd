package domain

import "time"

// Reserved payload keys, bit-exact for cross-process compatibility (spec §6).
const (
	PayloadData            = "data"
	PayloadUserID           = "user_id"
	PayloadMemoryType       = "memory_type"
	PayloadCategory         = "category"
	PayloadCreatedAt        = "created_at"
	PayloadTopicName        = "topic_name"
	PayloadTopicType        = "topic_type"
	PayloadEmotionalWeight  = "emotional_weight"
	PayloadSentimentEnd     = "sentiment_end"
	PayloadChannelID        = "channel_id"
	PayloadIsKey            = "is_key"
)

// MemoryType values for payload.memory_type.
const (
	MemoryTypeFact             = "fact"
	MemoryTypeEmotionalContext = "emotional_context"
	MemoryTypeTopicMention     = "topic_mention"
)

// Category is the closed classification SmartIngest assigns on Create.
type Category string

const (
	CategoryPreferences  Category = "preferences"
	CategoryPersonal     Category = "personal"
	CategoryProfessional Category = "professional"
	CategoryGoals        Category = "goals"
	CategoryEmotional    Category = "emotional"
	CategoryTemporal     Category = "temporal"
)

// MemoryId is an opaque identity assigned at creation; never reused.
type MemoryId = string

// Memory is the content-addressable unit the rest of the subsystem scores and ranks.
// Its text is immutable except through supersession, which mints a new id.
type Memory struct {
	ID        MemoryId
	UserID    string
	Content   string
	Payload   map[string]string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredMemory pairs a Memory with the vector-store similarity it was retrieved at.
type ScoredMemory struct {
	Memory
	Score float64
}
