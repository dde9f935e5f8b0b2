package command

import (
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

// Decision represents the pure outcome of handling a command.
//
// Events are committed together. Schedules must all be accepted by the host
// before anything is committed; Payouts run after commit, in order, and stop
// at the first failure.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
	Schedules  []Schedule
	Payouts    []Payout
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code     string
	Message  string
	Metadata map[string]string
}

// Schedule asks the host to deliver Command back to the program no earlier
// than DeliverAt (seconds since epoch).
type Schedule struct {
	DeliverAt uint64
	Command   Command
	// Failure is reported when the host cannot accept the delivery.
	Failure Rejection
}

// Payout asks the host to transfer Value to an account. Event is journaled
// once the transfer succeeds.
type Payout struct {
	To      account.ID
	Value   amount.Amount
	Event   event.Event
	Failure Rejection
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Rejected reports whether the decision carries any rejection.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}
