package model

import (
	"encoding/json"
	"testing"
)

func TestUsageEventWithoutTutorKeepsNilTutorID(t *testing.T) {
	event := UsageEvent{
		UserID:       "user-1",
		Action:       UsageActionEmbedding,
		APICalls:     1,
		TokensUsed:   10,
		CostEstimate: 0.0000002,
	}

	// The event travels through the queue as JSON before persistence; a
	// missing tutor must survive the round trip as nil so the uuid column
	// receives NULL, never an empty string.
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded UsageEvent
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.TutorID != nil {
		t.Fatalf("tutor id = %q, want nil", *decoded.TutorID)
	}
}

func TestUsageEventTutorIDRoundTrip(t *testing.T) {
	tutorID := "f4b7a2e0-0000-0000-0000-000000000001"
	event := UsageEvent{
		UserID:     "user-1",
		TutorID:    &tutorID,
		Action:     UsageActionCompletion,
		APICalls:   1,
		TokensUsed: 100,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded UsageEvent
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.TutorID == nil || *decoded.TutorID != tutorID {
		t.Fatalf("tutor id not preserved: %v", decoded.TutorID)
	}
}
