// Package storage declares the durable records behind the quest runtime: the
// event journal, the queue of self-delivered commands, and the transfer
// ledger.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
)

// ErrNotFound indicates a missing record.
var ErrNotFound = errors.New("record not found")

// EventStore appends and lists journaled events. Sequence numbers start at 1
// and have no gaps.
type EventStore interface {
	Append(ctx context.Context, evt event.Event) (event.Event, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
}

// ScheduleOutcome records what happened to a delivered command.
type ScheduleOutcome string

const (
	// OutcomePending marks a delivery not yet attempted.
	OutcomePending ScheduleOutcome = ""
	// OutcomeAccepted marks a delivery the program accepted.
	OutcomeAccepted ScheduleOutcome = "accepted"
	// OutcomeRejected marks a delivery the program declined.
	OutcomeRejected ScheduleOutcome = "rejected"
)

// ScheduleRecord is one queued self-delivered command.
type ScheduleRecord struct {
	ID          int64
	DueAt       time.Time
	Command     command.Command
	CreatedAt   time.Time
	DeliveredAt time.Time
	Outcome     ScheduleOutcome
	// Detail is the rejection code or error text of the delivery.
	Detail string
}

// ScheduleStore persists the delivery queue.
type ScheduleStore interface {
	EnqueueSchedule(ctx context.Context, record ScheduleRecord) (ScheduleRecord, error)
	ListDueSchedules(ctx context.Context, now time.Time, limit int) ([]ScheduleRecord, error)
	MarkDelivered(ctx context.Context, id int64, outcome ScheduleOutcome, detail string, at time.Time) error
	CountPendingSchedules(ctx context.Context) (int, error)
}

// TransferRecord is one value transfer out of the program.
type TransferRecord struct {
	ID          int64
	ChallengeID uint64
	Account     account.ID
	Value       amount.Amount
	Kind        host.TransferKind
	RequestID   string
	CreatedAt   time.Time
}

// TransferFilter narrows a ledger listing. Zero fields match everything.
type TransferFilter struct {
	Account     account.ID
	ChallengeID *uint64
	Kind        host.TransferKind
	Limit       int
}

// TransferStore persists the transfer ledger.
type TransferStore interface {
	RecordTransfer(ctx context.Context, record TransferRecord) (TransferRecord, error)
	ListTransfers(ctx context.Context, filter TransferFilter) ([]TransferRecord, error)
}
