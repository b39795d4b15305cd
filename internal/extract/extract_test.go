package extract

import (
	"context"
	"testing"

	"memoria/internal/llm"
)

func TestFactExtractorParsesFencedJSON(t *testing.T) {
	mock := &llm.MockClient{Replies: []string{"```json\n{\"facts\": [\"likes coffee\", \"has a dog\"]}\n```"}}
	fe := NewFactExtractor(mock, nil)

	facts := fe.Extract(context.Background(), "I love coffee and have a dog", "Noted!")
	if len(facts) != 2 || facts[0] != "likes coffee" {
		t.Fatalf("unexpected facts: %v", facts)
	}
}

func TestFactExtractorReturnsEmptyOnMalformedJSON(t *testing.T) {
	mock := &llm.MockClient{Replies: []string{"not json at all"}}
	fe := NewFactExtractor(mock, nil)

	facts := fe.Extract(context.Background(), "hello", "hi")
	if len(facts) != 0 {
		t.Errorf("expected empty facts on malformed JSON, got %v", facts)
	}
}

func TestFactExtractorWithoutClientReturnsEmpty(t *testing.T) {
	fe := NewFactExtractor(nil, nil)
	facts := fe.Extract(context.Background(), "hello", "hi")
	if facts != nil {
		t.Errorf("expected nil facts without a client, got %v", facts)
	}
}

func TestTopicExtractorDeduplicatesAndCaps(t *testing.T) {
	reply := `{"topics": [
		{"name": "Work", "type": "theme", "snippet": "busy week", "weight": "moderate"},
		{"name": "work", "type": "theme", "snippet": "dup", "weight": "light"},
		{"name": "Family", "type": "entity", "snippet": "dinner", "weight": "heavy"},
		{"name": "Health", "type": "theme", "snippet": "gym", "weight": "light"},
		{"name": "Travel", "type": "theme", "snippet": "trip", "weight": "light"}
	]}`
	mock := &llm.MockClient{Replies: []string{reply}}
	te := NewTopicExtractor(mock, nil)

	mentions := te.Extract(context.Background(), "conversation text")
	if len(mentions) != 3 {
		t.Fatalf("expected cap of 3, got %d: %+v", len(mentions), mentions)
	}
	if mentions[0].Topic != "Work" || mentions[1].Topic != "Family" {
		t.Fatalf("unexpected dedup/order: %+v", mentions)
	}
}

func TestEntityExtractorParsesEntitiesAndRelationships(t *testing.T) {
	reply := `{"entities": [{"name": "Alice", "type": "person"}], "relationships": [{"source": "Alice", "label": "works at", "target": "Acme"}]}`
	mock := &llm.MockClient{Replies: []string{reply}}
	ee := NewEntityExtractor(mock, nil)

	entities, relationships, err := ee.Extract(context.Background(), "Alice works at Acme")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(entities) != 1 || entities[0].Name != "Alice" {
		t.Fatalf("unexpected entities: %+v", entities)
	}
	if len(relationships) != 1 || relationships[0].Target != "Acme" {
		t.Fatalf("unexpected relationships: %+v", relationships)
	}
}
