package event

import "testing"

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeWorkflowApproved, 42, 7, map[string]interface{}{"stage": 1})

	if evt.ID == "" {
		t.Error("NewEvent() ID is empty")
	}
	if evt.CorrelationID == "" {
		t.Error("NewEvent() CorrelationID is empty")
	}
	if evt.InstanceID != 42 || evt.ExpenseID != 7 {
		t.Errorf("NewEvent() ids = (%d, %d), want (42, 7)", evt.InstanceID, evt.ExpenseID)
	}
	if evt.Timestamp.IsZero() {
		t.Error("NewEvent() Timestamp is zero")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeDecisionRecorded, 1, 1, nil, "corr-123")
	if evt.CorrelationID != "corr-123" {
		t.Errorf("CorrelationID = %q, want corr-123", evt.CorrelationID)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	evt := NewEvent(TypeStageAdvanced, 1, 1, map[string]interface{}{"from": 0})
	updated := evt.WithPayload("to", 1)

	if _, exists := evt.Payload["to"]; exists {
		t.Error("WithPayload() mutated the original event")
	}
	if updated.GetPayloadInt("to") != 1 {
		t.Errorf("GetPayloadInt(to) = %d, want 1", updated.GetPayloadInt("to"))
	}
	if updated.GetPayloadInt("from") != 0 {
		t.Error("WithPayload() dropped existing keys")
	}
	if updated.ID != evt.ID || updated.CorrelationID != evt.CorrelationID {
		t.Error("WithPayload() changed identity fields")
	}
}

func TestType_IsValid(t *testing.T) {
	valid := []Type{
		TypeExpenseSubmitted,
		TypeDecisionRecorded,
		TypeStageAdvanced,
		TypeWorkflowApproved,
		TypeWorkflowRejected,
		TypeWorkflowCancelled,
		TypeWorkflowEscalated,
	}
	for _, typ := range valid {
		if !typ.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", typ)
		}
	}
	if Type("workflow.unknown").IsValid() {
		t.Error("IsValid(workflow.unknown) = true, want false")
	}
}

func TestEvent_PayloadAccessors(t *testing.T) {
	evt := NewEvent(TypeExpenseSubmitted, 1, 1, map[string]interface{}{
		"currency": "EUR",
		"urgent":   true,
		"count":    float64(3), // JSON round-trips numbers as float64
	})

	if got := evt.GetPayloadString("currency"); got != "EUR" {
		t.Errorf("GetPayloadString(currency) = %q, want EUR", got)
	}
	if !evt.GetPayloadBool("urgent") {
		t.Error("GetPayloadBool(urgent) = false, want true")
	}
	if got := evt.GetPayloadInt("count"); got != 3 {
		t.Errorf("GetPayloadInt(count) = %d, want 3", got)
	}
	if got := evt.GetPayloadString("missing"); got != "" {
		t.Errorf("GetPayloadString(missing) = %q, want empty", got)
	}
}
