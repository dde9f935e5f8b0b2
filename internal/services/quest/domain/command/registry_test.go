package command

import (
	"encoding/json"
	"errors"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: Type("challenge.join"), Owner: OwnerUser}); err != nil {
		t.Fatalf("register join: %v", err)
	}
	if err := registry.Register(Definition{Type: Type("challenge.execution_end"), Owner: OwnerProgram}); err != nil {
		t.Fatalf("register execution end: %v", err)
	}
	return registry
}

func TestRegistryValidateForDecision_NormalizesEnvelope(t *testing.T) {
	registry := newTestRegistry(t)
	cmd, err := registry.ValidateForDecision(Command{
		Type:        Type(" challenge.join "),
		ActorID:     " alice ",
		RequestID:   " req-1 ",
		PayloadJSON: []byte(`{ "id" : 3 }`),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cmd.Type != Type("challenge.join") {
		t.Fatalf("type = %q, want %q", cmd.Type, "challenge.join")
	}
	if cmd.ActorID != "alice" {
		t.Fatalf("actor id = %q, want %q", cmd.ActorID, "alice")
	}
	if cmd.RequestID != "req-1" {
		t.Fatalf("request id = %q, want %q", cmd.RequestID, "req-1")
	}
	if string(cmd.PayloadJSON) != `{"id":3}` {
		t.Fatalf("payload = %s, want %s", cmd.PayloadJSON, `{"id":3}`)
	}
}

func TestRegistryValidateForDecision_DefaultsEmptyPayload(t *testing.T) {
	registry := newTestRegistry(t)
	cmd, err := registry.ValidateForDecision(Command{Type: Type("challenge.join"), ActorID: "alice"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if string(cmd.PayloadJSON) != "{}" {
		t.Fatalf("payload = %s, want {}", cmd.PayloadJSON)
	}
}

func TestRegistryValidateForDecision_Errors(t *testing.T) {
	registry := newTestRegistry(t)
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{name: "missing type", cmd: Command{ActorID: "alice"}, want: ErrTypeRequired},
		{name: "unknown type", cmd: Command{Type: "challenge.nope", ActorID: "alice"}, want: ErrTypeUnknown},
		{name: "missing actor", cmd: Command{Type: "challenge.join", ActorID: "  "}, want: ErrActorIDRequired},
		{name: "bad payload", cmd: Command{Type: "challenge.join", ActorID: "alice", PayloadJSON: []byte("{")}, want: ErrPayloadInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.ValidateForDecision(tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistryValidateForDecision_PayloadValidatorUsesCanonicalJSON(t *testing.T) {
	registry := NewRegistry()
	var seen string
	if err := registry.Register(Definition{
		Type:  Type("challenge.create"),
		Owner: OwnerUser,
		ValidatePayload: func(raw json.RawMessage) error {
			seen = string(raw)
			return nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := registry.ValidateForDecision(Command{
		Type:        Type("challenge.create"),
		ActorID:     "alice",
		PayloadJSON: []byte(`{"timezone": 2, "name": "read"}`),
	}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if seen != `{"name":"read","timezone":2}` {
		t.Fatalf("validator saw %s", seen)
	}
}

func TestRegistryRegister_RejectsBadDefinitions(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: Type("challenge.join"), Owner: Owner("someone")}); err == nil {
		t.Fatal("expected invalid owner error")
	}
	if err := registry.Register(Definition{Type: Type("challenge.join"), Owner: OwnerUser}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(Definition{Type: Type("challenge.join"), Owner: OwnerUser}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	def, ok := registry.Definition(Type(" challenge.join "))
	if !ok || def.Owner != OwnerUser {
		t.Fatalf("definition = %+v (ok=%v)", def, ok)
	}
}
