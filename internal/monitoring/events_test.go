package monitoring

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewEvent(t *testing.T) {
	userID := uuid.New()
	aggID := uuid.New()

	e := NewEvent(EventRiskDecisionMade, userID, aggID)
	if e.Type != "RISK_DECISION_MADE" {
		t.Errorf("Type = %q", e.Type)
	}
	if e.UserID != userID || e.AggregateID != aggID {
		t.Error("ids not carried through")
	}
	if time.Since(e.Timestamp) > time.Minute {
		t.Error("timestamp should be now")
	}
}

func TestToJSON(t *testing.T) {
	userID := uuid.New()
	aggID := uuid.New()

	e := NewEvent(EventStepUpRequired, userID, aggID).
		With("riskScore", 110).
		With("riskLevel", "HIGH")

	raw, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "STEP_UP_REQUIRED" {
		t.Errorf("type = %v", got["type"])
	}
	if got["userId"] != userID.String() {
		t.Errorf("userId = %v", got["userId"])
	}
	if got["aggregateId"] != aggID.String() {
		t.Errorf("aggregateId = %v", got["aggregateId"])
	}
	if got["riskScore"] != float64(110) {
		t.Errorf("riskScore = %v", got["riskScore"])
	}
	if _, err := time.Parse(time.RFC3339, got["ts"].(string)); err != nil {
		t.Errorf("ts not RFC3339: %v", got["ts"])
	}
}
