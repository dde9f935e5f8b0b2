package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

var (
	// ErrChallengeIDOutOfOrder indicates a created event whose id is not the
	// next dense id.
	ErrChallengeIDOutOfOrder = errors.New("challenge id is out of order")
	// ErrChallengeUnknown indicates an event addressed to a missing challenge.
	ErrChallengeUnknown = errors.New("event addresses an unknown challenge")
	// ErrEventTypeUnhandled indicates an event the registry does not fold.
	ErrEventTypeUnhandled = errors.New("event type is not handled by the registry")
)

// Fold applies an event to the registry.
//
// Index maps are updated in place, so a State has a single owner; readers get
// copies through Challenge and Query.
func Fold(state State, evt event.Event) (State, error) {
	state = state.ensureIndexes()
	switch evt.Type {
	case challenge.EventTypeCreated:
		var payload challenge.CreatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		if payload.ID != state.NextID() {
			return state, fmt.Errorf("%w: got %d, want %d", ErrChallengeIDOutOfOrder, payload.ID, state.NextID())
		}
		state.Challenges = append(state.Challenges, challenge.Fold(challenge.State{}, evt))
		state.Created[payload.Creator] = append(state.Created[payload.Creator], payload.ID)
	case challenge.EventTypeJoined,
		challenge.EventTypeSponsored,
		challenge.EventTypeRecruitmentEnded,
		challenge.EventTypeExecutionEnded,
		challenge.EventTypeDailyCompleted,
		challenge.EventTypePrize:
		if evt.ChallengeID >= state.Count() {
			return state, fmt.Errorf("%w: %d", ErrChallengeUnknown, evt.ChallengeID)
		}
		state.Challenges[evt.ChallengeID] = challenge.Fold(state.Challenges[evt.ChallengeID], evt)
		if err := state.index(evt); err != nil {
			return state, err
		}
	default:
		return state, fmt.Errorf("%w: %s", ErrEventTypeUnhandled, evt.Type)
	}
	if evt.Seq > state.LastSeq {
		state.LastSeq = evt.Seq
	}
	return state, nil
}

func (s State) index(evt event.Event) error {
	switch evt.Type {
	case challenge.EventTypeJoined:
		var payload challenge.JoinedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		s.Joined[payload.Account] = append(s.Joined[payload.Account], evt.ChallengeID)
	case challenge.EventTypeSponsored:
		var payload challenge.SponsoredPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		s.Sponsored[payload.Sponsor] = append(s.Sponsored[payload.Sponsor], evt.ChallengeID)
	}
	return nil
}
