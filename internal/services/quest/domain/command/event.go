package command

import (
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

// NewEvent builds an event.Event by copying the shared envelope fields from a
// command. Callers supply the event type, challenge, payload, and timestamp.
func NewEvent(cmd Command, eventType event.Type, challengeID uint64, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		Type:          eventType,
		ChallengeID:   challengeID,
		Timestamp:     now,
		ActorID:       cmd.ActorID,
		RequestID:     cmd.RequestID,
		CorrelationID: cmd.CorrelationID,
		CausationID:   cmd.CausationID,
		PayloadJSON:   payloadJSON,
	}
}
