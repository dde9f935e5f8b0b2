package challenge

import (
	"encoding/json"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

// Fold applies an event to challenge state.
func Fold(state State, evt event.Event) State {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state = State{
			Created:      true,
			ID:           payload.ID,
			Name:         payload.Name,
			Creator:      payload.Creator,
			EntryFee:     payload.EntryFee,
			Timezone:     payload.Timezone,
			CreationTime: payload.CreationTime,
			StartTime:    payload.StartTime,
			EndTime:      payload.EndTime,
			Status:       StatusRecruiting,
		}
	case EventTypeJoined:
		var payload JoinedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Participants = append(cloneParticipants(state.Participants), Participant{ID: payload.Account, Payment: payload.Payment})
		state.PrizePool, _ = state.PrizePool.Add(payload.Payment)
	case EventTypeSponsored:
		var payload SponsoredPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Sponsors = append(append([]Sponsorship(nil), state.Sponsors...), Sponsorship{Sponsor: payload.Sponsor, Payment: payload.Payment})
		state.PrizePool, _ = state.PrizePool.Add(payload.Payment)
	case EventTypeRecruitmentEnded:
		var payload RecruitmentEndedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		if status, ok := NormalizeStatus(string(payload.Status)); ok {
			state.Status = status
		}
	case EventTypeExecutionEnded:
		state.Status = StatusCompleted
	case EventTypeDailyCompleted:
		var payload DailyCompletedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		i := state.participantIndex(payload.Account)
		if i < 0 || state.Participants[i].HasCompleted(payload.Day) {
			return state
		}
		participants := cloneParticipants(state.Participants)
		participants[i].CompletedDays = append(append([]uint32(nil), participants[i].CompletedDays...), payload.Day)
		state.Participants = participants
	case EventTypePrize:
		var payload PrizePayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Prizes = append(append([]Prize(nil), state.Prizes...), Prize{Account: payload.Account, Prize: payload.Prize})
	}
	return state
}

func cloneParticipants(participants []Participant) []Participant {
	return append([]Participant(nil), participants...)
}
