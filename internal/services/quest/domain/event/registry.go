package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	coreencoding "github.com/louisbranch/chronoquest/internal/services/quest/core/encoding"
)

var (
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTypeUnknown indicates an unregistered event type.
	ErrTypeUnknown = errors.New("event type is not registered")
	// ErrTimestampRequired indicates an event without a timestamp.
	ErrTimestampRequired = errors.New("event timestamp is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Definition registers metadata for an event type.
type Definition struct {
	Type            Type
	ValidatePayload PayloadValidator
}

// Registry stores event definitions and validates events before append.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a new event type definition.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	def.Type = Type(strings.TrimSpace(string(def.Type)))
	if def.Type == "" {
		return ErrTypeRequired
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("event type already registered: %s", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// ValidateForAppend validates and normalizes an event before it is journaled.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	evt.Type = Type(strings.TrimSpace(string(evt.Type)))
	if evt.Type == "" {
		return Event{}, ErrTypeRequired
	}
	def, ok := r.definitions[evt.Type]
	if !ok {
		return Event{}, ErrTypeUnknown
	}
	if evt.Timestamp.IsZero() {
		return Event{}, ErrTimestampRequired
	}
	evt.Timestamp = evt.Timestamp.UTC()
	evt.ActorID = strings.TrimSpace(evt.ActorID)

	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	}
	if !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	canonical, err := coreencoding.CanonicalJSON(json.RawMessage(evt.PayloadJSON))
	if err != nil {
		return Event{}, fmt.Errorf("canonical payload json: %w", err)
	}
	evt.PayloadJSON = canonical
	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(json.RawMessage(evt.PayloadJSON)); err != nil {
			return Event{}, fmt.Errorf("payload invalid: %w", err)
		}
	}
	return evt, nil
}

// Definition returns the event definition for a given type.
func (r *Registry) Definition(eventType Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[Type(strings.TrimSpace(string(eventType)))]
	return def, ok
}

// ListDefinitions returns a stable, sorted snapshot of registered definitions.
func (r *Registry) ListDefinitions() []Definition {
	if r == nil || len(r.definitions) == 0 {
		return nil
	}
	definitions := make([]Definition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		definitions = append(definitions, definition)
	}
	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Type < definitions[j].Type
	})
	return definitions
}
