package event

import "time"

// Type identifies the event type string.
type Type string

// Event is the canonical event envelope.
type Event struct {
	// Seq is assigned by the journal on append; zero before persistence.
	Seq uint64
	// Hash is the content hash assigned by the journal on append.
	Hash          string
	Type          Type
	ChallengeID   uint64
	Timestamp     time.Time
	ActorID       string
	RequestID     string
	CorrelationID string
	CausationID   string
	PayloadJSON   []byte
}
