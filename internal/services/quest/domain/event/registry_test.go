package event

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRegistryValidateForAppend_UnknownType(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.ValidateForAppend(Event{
		Type:      Type("challenge.unknown"),
		Timestamp: time.Unix(0, 0).UTC(),
	})
	if !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
}

func TestRegistryValidateForAppend_RequiresTimestamp(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: Type("challenge.created")}); err != nil {
		t.Fatalf("register type: %v", err)
	}
	_, err := registry.ValidateForAppend(Event{Type: Type("challenge.created")})
	if !errors.Is(err, ErrTimestampRequired) {
		t.Fatalf("expected ErrTimestampRequired, got %v", err)
	}
}

func TestRegistryValidateForAppend_CanonicalizesPayloadJSON(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: Type("challenge.joined")}); err != nil {
		t.Fatalf("register type: %v", err)
	}
	evt, err := registry.ValidateForAppend(Event{
		Type:        Type(" challenge.joined "),
		Timestamp:   time.Unix(10, 0),
		ActorID:     " alice ",
		PayloadJSON: []byte(`{ "payment": "5", "id": 1 }`),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if evt.Type != Type("challenge.joined") {
		t.Fatalf("type = %q, want %q", evt.Type, "challenge.joined")
	}
	if evt.ActorID != "alice" {
		t.Fatalf("actor id = %q, want %q", evt.ActorID, "alice")
	}
	if string(evt.PayloadJSON) != `{"id":1,"payment":"5"}` {
		t.Fatalf("payload = %s", evt.PayloadJSON)
	}
}

func TestRegistryValidateForAppend_InvalidPayloadJSON(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: Type("challenge.joined")}); err != nil {
		t.Fatalf("register type: %v", err)
	}
	_, err := registry.ValidateForAppend(Event{
		Type:        Type("challenge.joined"),
		Timestamp:   time.Unix(10, 0),
		PayloadJSON: []byte(`{`),
	})
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestRegistryValidateForAppend_PayloadValidatorSeesCanonicalJSON(t *testing.T) {
	registry := NewRegistry()
	var seen string
	if err := registry.Register(Definition{
		Type: Type("challenge.prize"),
		ValidatePayload: func(raw json.RawMessage) error {
			seen = string(raw)
			return errors.New("nope")
		},
	}); err != nil {
		t.Fatalf("register type: %v", err)
	}
	_, err := registry.ValidateForAppend(Event{
		Type:        Type("challenge.prize"),
		Timestamp:   time.Unix(10, 0),
		PayloadJSON: []byte(`{"b":1, "a":2}`),
	})
	if err == nil {
		t.Fatal("expected validator error")
	}
	if seen != `{"a":2,"b":1}` {
		t.Fatalf("validator saw %s", seen)
	}
}

func TestRegistryRegister_RejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: Type("challenge.created")}); err != nil {
		t.Fatalf("register type: %v", err)
	}
	if err := registry.Register(Definition{Type: Type("challenge.created")}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := registry.Register(Definition{Type: Type("  ")}); !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("expected ErrTypeRequired, got %v", err)
	}
	if got := len(registry.ListDefinitions()); got != 1 {
		t.Fatalf("definitions = %d, want 1", got)
	}
}
