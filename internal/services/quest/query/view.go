package query

import (
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/daytime"
)

// ChallengeView is the wire shape of a challenge. Amounts are decimal strings.
type ChallengeView struct {
	ID            uint64            `json:"id"`
	Name          string            `json:"name"`
	Creator       string            `json:"creator"`
	EntryFee      string            `json:"entry_fee"`
	Timezone      int8              `json:"timezone"`
	CreationTime  uint64            `json:"creation_time"`
	StartTime     uint64            `json:"start_time"`
	EndTime       uint64            `json:"end_time"`
	StartsAt      string            `json:"starts_at"`
	EndsAt        string            `json:"ends_at"`
	ExecutionDays uint64            `json:"execution_days"`
	PrizePool     string            `json:"prize_pool"`
	Status        string            `json:"status"`
	Participants  []ParticipantView `json:"participants"`
	Sponsors      []SponsorView     `json:"sponsors"`
	Prizes        []PrizeView       `json:"prizes,omitempty"`
}

// ParticipantView is the wire shape of a participant.
type ParticipantView struct {
	Account       string   `json:"account"`
	Payment       string   `json:"payment"`
	CompletedDays []uint32 `json:"completed_days"`
}

// SponsorView is the wire shape of a sponsorship.
type SponsorView struct {
	Sponsor string `json:"sponsor"`
	Payment string `json:"payment"`
}

// PrizeView is the wire shape of a paid prize.
type PrizeView struct {
	Account string `json:"account"`
	Prize   string `json:"prize"`
}

// NewChallengeView converts challenge state to its wire shape.
func NewChallengeView(state challenge.State) ChallengeView {
	view := ChallengeView{
		ID:            state.ID,
		Name:          state.Name,
		Creator:       state.Creator.String(),
		EntryFee:      state.EntryFee.String(),
		Timezone:      state.Timezone,
		CreationTime:  state.CreationTime,
		StartTime:     state.StartTime,
		EndTime:       state.EndTime,
		StartsAt:      daytime.Time(state.StartTime).Format(time.RFC3339),
		EndsAt:        daytime.Time(state.EndTime).Format(time.RFC3339),
		ExecutionDays: state.ExecutionDays(),
		PrizePool:     state.PrizePool.String(),
		Status:        string(state.Status),
		Participants:  make([]ParticipantView, 0, len(state.Participants)),
		Sponsors:      make([]SponsorView, 0, len(state.Sponsors)),
	}
	for _, participant := range state.Participants {
		days := append([]uint32{}, participant.CompletedDays...)
		view.Participants = append(view.Participants, ParticipantView{
			Account:       participant.ID.String(),
			Payment:       participant.Payment.String(),
			CompletedDays: days,
		})
	}
	for _, sponsor := range state.Sponsors {
		view.Sponsors = append(view.Sponsors, SponsorView{Sponsor: sponsor.Sponsor.String(), Payment: sponsor.Payment.String()})
	}
	for _, prize := range state.Prizes {
		view.Prizes = append(view.Prizes, PrizeView{Account: prize.Account.String(), Prize: prize.Prize.String()})
	}
	return view
}

// NewChallengeViews converts a listing.
func NewChallengeViews(states []challenge.State) []ChallengeView {
	views := make([]ChallengeView, 0, len(states))
	for _, state := range states {
		views = append(views, NewChallengeView(state))
	}
	return views
}
