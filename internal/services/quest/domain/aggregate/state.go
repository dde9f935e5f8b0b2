package aggregate

import (
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
)

// State captures the replayed challenge registry.
type State struct {
	// Challenges is indexed by challenge id.
	Challenges []challenge.State
	// Created maps a creator to the ids it created, in creation order.
	Created map[account.ID][]uint64
	// Joined maps a participant to the ids it joined, in join order.
	Joined map[account.ID][]uint64
	// Sponsored maps a sponsor to one id per sponsorship, in order.
	Sponsored map[account.ID][]uint64
	// LastSeq is the journal sequence of the last folded event.
	LastSeq uint64
}

// NewState returns an empty registry.
func NewState() State {
	return State{
		Created:   make(map[account.ID][]uint64),
		Joined:    make(map[account.ID][]uint64),
		Sponsored: make(map[account.ID][]uint64),
	}
}

// Count returns the number of challenges ever created.
func (s State) Count() uint64 {
	return uint64(len(s.Challenges))
}

// NextID returns the id the next created challenge receives.
func (s State) NextID() uint64 {
	return s.Count()
}

// Challenge returns a copy of the challenge with the given id.
func (s State) Challenge(id uint64) (challenge.State, bool) {
	if id >= s.Count() {
		return challenge.State{}, false
	}
	return s.Challenges[id].Clone(), true
}

func (s State) ensureIndexes() State {
	if s.Created == nil {
		s.Created = make(map[account.ID][]uint64)
	}
	if s.Joined == nil {
		s.Joined = make(map[account.ID][]uint64)
	}
	if s.Sponsored == nil {
		s.Sponsored = make(map[account.ID][]uint64)
	}
	return s
}
