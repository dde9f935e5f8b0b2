// Package host declares what the challenge program needs from the system that
// runs it: a clock, delayed self-delivery of commands, value transfers, and
// the program's own account id.
package host

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
)

// DefaultUnitSeconds is the host time unit used when none is configured.
const DefaultUnitSeconds = 3

var (
	// ErrSelfIDRequired indicates a missing program account id.
	ErrSelfIDRequired = errors.New("host self id is required")
	// ErrScheduleRejected indicates the host refused a delayed delivery.
	ErrScheduleRejected = errors.New("host rejected scheduled delivery")
	// ErrTransferFailed indicates a value transfer did not go through.
	ErrTransferFailed = errors.New("host transfer failed")
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Scheduler delivers cmd back to the program no earlier than delay host
// units from now, with the program as sender.
type Scheduler interface {
	Schedule(ctx context.Context, delay uint32, cmd command.Command) error
}

// TransferKind labels why value leaves the program.
type TransferKind string

const (
	// TransferPrize is a settlement payout.
	TransferPrize TransferKind = "prize"
	// TransferRefund returns value attached to a rejected command.
	TransferRefund TransferKind = "refund"
)

// Transfer describes one outgoing value transfer.
type Transfer struct {
	ChallengeID uint64
	To          account.ID
	Value       amount.Amount
	Kind        TransferKind
	RequestID   string
}

// Transferer executes value transfers and reports the outcome synchronously.
type Transferer interface {
	Transfer(ctx context.Context, transfer Transfer) error
}

// Config carries host identity and time-unit settings.
type Config struct {
	// SelfID is the program's own account; only it may send internal commands.
	SelfID account.ID
	// UnitSeconds is the length of one host time unit.
	UnitSeconds uint64
}

// Normalize trims SelfID and applies the default unit.
func (c Config) Normalize() (Config, error) {
	c.SelfID = account.ID(strings.TrimSpace(string(c.SelfID)))
	if c.SelfID == "" {
		return Config{}, ErrSelfIDRequired
	}
	if c.UnitSeconds == 0 {
		c.UnitSeconds = DefaultUnitSeconds
	}
	return c, nil
}
