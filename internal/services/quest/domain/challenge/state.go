package challenge

import (
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/daytime"
)

// State captures replayed challenge state.
type State struct {
	// Created indicates the challenge was accepted and journaled.
	Created bool
	// ID is the dense registry index assigned at creation.
	ID   uint64
	Name string
	// Creator is the account that submitted the creation command.
	Creator  account.ID
	EntryFee amount.Amount
	// Timezone is the whole-hour offset used to check day boundaries.
	Timezone     int8
	CreationTime uint64
	StartTime    uint64
	EndTime      uint64
	// PrizePool is the sum of every participant and sponsor payment.
	PrizePool    amount.Amount
	Status       Status
	Participants []Participant
	Sponsors     []Sponsorship
	// Prizes records settlement transfers that succeeded.
	Prizes []Prize
}

// Participant is an account that joined during recruitment.
type Participant struct {
	ID            account.ID
	Payment       amount.Amount
	CompletedDays []uint32
}

// Sponsorship is one contribution to the prize pool.
type Sponsorship struct {
	Sponsor account.ID
	Payment amount.Amount
}

// Prize is one settlement transfer.
type Prize struct {
	Account account.ID
	Prize   amount.Amount
}

// ExecutionDays returns the number of days in the execution window.
func (s State) ExecutionDays() uint64 {
	return daytime.ExecutionDays(s.StartTime, s.EndTime)
}

// Participant returns the participant for an account.
func (s State) Participant(id account.ID) (Participant, bool) {
	if i := s.participantIndex(id); i >= 0 {
		return s.Participants[i], true
	}
	return Participant{}, false
}

func (s State) participantIndex(id account.ID) int {
	for i, participant := range s.Participants {
		if participant.ID == id {
			return i
		}
	}
	return -1
}

// HasCompleted reports whether day is already recorded.
func (p Participant) HasCompleted(day uint32) bool {
	for _, recorded := range p.CompletedDays {
		if recorded == day {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to readers.
func (s State) Clone() State {
	out := s
	if s.Participants != nil {
		out.Participants = make([]Participant, len(s.Participants))
		for i, participant := range s.Participants {
			participant.CompletedDays = append([]uint32(nil), participant.CompletedDays...)
			out.Participants[i] = participant
		}
	}
	out.Sponsors = append([]Sponsorship(nil), s.Sponsors...)
	out.Prizes = append([]Prize(nil), s.Prizes...)
	return out
}
