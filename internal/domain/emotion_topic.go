package domain

import "time"

// SentimentEntry is an in-memory-only data point in an EmotionalContext session window.
type SentimentEntry struct {
	Score     float64 // [-1, +1]
	Timestamp time.Time
}

// EmotionalWeight is the closed intensity label attached to a TopicMention.
type EmotionalWeight string

const (
	WeightLight    EmotionalWeight = "light"
	WeightModerate EmotionalWeight = "moderate"
	WeightHeavy    EmotionalWeight = "heavy"
)

// TopicType distinguishes a concrete entity mention from a recurring theme.
type TopicType string

const (
	TopicEntity TopicType = "entity"
	TopicTheme  TopicType = "theme"
)

// TopicMention is a single observation of a topic surfacing in conversation.
type TopicMention struct {
	Topic            string
	TopicType        TopicType
	ContextSnippet   string
	EmotionalWeight  EmotionalWeight
	UserID           string
	CreatedAt        time.Time
}

// ArcLabel classifies the trajectory of a sentiment session.
type ArcLabel string

const (
	ArcVolatile   ArcLabel = "volatile"
	ArcImproving  ArcLabel = "improving"
	ArcDeclining  ArcLabel = "declining"
	ArcStable     ArcLabel = "stable"
)

// EnergyLabel classifies the terminal emotional energy of a session.
type EnergyLabel string

const (
	EnergyPositive EnergyLabel = "positive"
	EnergyNegative EnergyLabel = "negative"
	EnergyNeutral  EnergyLabel = "neutral"
)

// EmotionalArc is the result of EmotionalContext.compute_arc.
type EmotionalArc struct {
	Label    ArcLabel
	Energy   EnergyLabel
	Variance float64
	StartAvg float64
	EndAvg   float64
	Summary  string
}
