package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	coreencoding "github.com/louisbranch/chronoquest/internal/services/quest/core/encoding"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
)

var (
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrActorIDRequired indicates a command without a calling account.
	ErrActorIDRequired = errors.New("actor id is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies the command type string.
type Type string

// Owner identifies who may send a command type.
type Owner string

const (
	// OwnerUser indicates a command any account may send.
	OwnerUser Owner = "user"
	// OwnerProgram indicates a command only the program itself may send, such
	// as scheduled phase transitions.
	OwnerProgram Owner = "program"
)

// Command captures the canonical command envelope.
type Command struct {
	Type Type
	// ActorID is the calling account as identified by the host.
	ActorID string
	// Value is the amount attached to the message.
	Value         amount.Amount
	RequestID     string
	CorrelationID string
	CausationID   string
	PayloadJSON   []byte
}

// Definition registers metadata for a command type.
type Definition struct {
	Type            Type
	Owner           Owner
	ValidatePayload PayloadValidator
}

// PayloadValidator validates a payload JSON document.
type PayloadValidator func(json.RawMessage) error

// Registry stores command definitions and validates commands.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

func trimType(t Type) Type {
	return Type(strings.TrimSpace(string(t)))
}

// Register adds def. Types are unique and need a known owner.
func (r *Registry) Register(def Definition) error {
	if r == nil {
		return errors.New("registry is required")
	}
	if def.Type = trimType(def.Type); def.Type == "" {
		return ErrTypeRequired
	}
	if def.Owner != OwnerUser && def.Owner != OwnerProgram {
		return fmt.Errorf("command %s: owner %q is neither user nor program", def.Type, def.Owner)
	}
	if r.definitions == nil {
		r.definitions = make(map[Type]Definition)
	}
	if _, dup := r.definitions[def.Type]; dup {
		return fmt.Errorf("command %s registered twice", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// ValidateForDecision returns cmd with trimmed identifiers and a canonical
// payload, or the reason it cannot reach a decider.
func (r *Registry) ValidateForDecision(cmd Command) (Command, error) {
	def, ok := r.Definition(cmd.Type)
	switch {
	case trimType(cmd.Type) == "":
		return Command{}, ErrTypeRequired
	case !ok:
		return Command{}, ErrTypeUnknown
	}
	cmd.Type = def.Type
	if cmd.ActorID = strings.TrimSpace(cmd.ActorID); cmd.ActorID == "" {
		return Command{}, ErrActorIDRequired
	}
	cmd.RequestID = strings.TrimSpace(cmd.RequestID)
	cmd.CorrelationID = strings.TrimSpace(cmd.CorrelationID)
	cmd.CausationID = strings.TrimSpace(cmd.CausationID)

	payload, err := normalizePayload(cmd.PayloadJSON)
	if err != nil {
		return Command{}, err
	}
	cmd.PayloadJSON = payload
	if def.ValidatePayload == nil {
		return cmd, nil
	}
	if err := def.ValidatePayload(json.RawMessage(payload)); err != nil {
		return Command{}, fmt.Errorf("%s payload: %w", cmd.Type, err)
	}
	return cmd, nil
}

// normalizePayload treats an empty payload as an empty object.
func normalizePayload(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, ErrPayloadInvalid
	}
	canonical, err := coreencoding.CanonicalJSON(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("canonical payload json: %w", err)
	}
	return canonical, nil
}

// Definition looks up the definition for cmdType.
func (r *Registry) Definition(cmdType Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[trimType(cmdType)]
	return def, ok
}

// ListDefinitions returns the registered definitions ordered by type.
func (r *Registry) ListDefinitions() []Definition {
	if r == nil {
		return nil
	}
	types := slices.Sorted(maps.Keys(r.definitions))
	definitions := make([]Definition, 0, len(types))
	for _, t := range types {
		definitions = append(definitions, r.definitions[t])
	}
	return definitions
}
