package event

import "testing"

func validPageView() Event {
	return Event{
		EventID:   "e1",
		ProjectID: "p1",
		ClientID:  "c1",
		SessionID: "s1",
		Type:      TypePageView,
		Timestamp: 1000,
		URL:       "https://example.com/",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validPageView()); err != nil {
		t.Fatalf("Validate: unexpected error: %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cases := []struct {
		name string
		mod  func(e Event) Event
	}{
		{"eventId", func(e Event) Event { e.EventID = ""; return e }},
		{"projectId", func(e Event) Event { e.ProjectID = ""; return e }},
		{"clientId", func(e Event) Event { e.ClientID = ""; return e }},
		{"sessionId", func(e Event) Event { e.SessionID = ""; return e }},
		{"timestamp", func(e Event) Event { e.Timestamp = 0; return e }},
		{"type", func(e Event) Event { e.Type = "bogus"; return e }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.mod(validPageView())); err == nil {
				t.Fatalf("Validate: expected error for missing %s", tc.name)
			}
		})
	}
}

func TestValidateBatch(t *testing.T) {
	b := Batch{BatchID: "b1", Timestamp: 1000, Events: []Event{validPageView()}}
	if err := ValidateBatch(b); err != nil {
		t.Fatalf("ValidateBatch: unexpected error: %v", err)
	}

	b.Events = append(b.Events, Event{})
	if err := ValidateBatch(b); err == nil {
		t.Fatal("ValidateBatch: expected error for invalid event")
	}
}

func TestValidateBatch_MissingID(t *testing.T) {
	b := Batch{Timestamp: 1000}
	if err := ValidateBatch(b); err == nil {
		t.Fatal("ValidateBatch: expected error for missing batchId")
	}
}
