package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/chronoquest/internal/platform/id"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/storage"
)

// storeScheduler queues self-delivered commands in the schedule store.
type storeScheduler struct {
	store       storage.ScheduleStore
	clock       host.Clock
	unitSeconds uint64
}

func newStoreScheduler(store storage.ScheduleStore, clock host.Clock, unitSeconds uint64) *storeScheduler {
	if unitSeconds == 0 {
		unitSeconds = host.DefaultUnitSeconds
	}
	return &storeScheduler{store: store, clock: clock, unitSeconds: unitSeconds}
}

// Schedule implements host.Scheduler.
func (s *storeScheduler) Schedule(ctx context.Context, delay uint32, cmd command.Command) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("%w: schedule store is not configured", host.ErrScheduleRejected)
	}
	if strings.TrimSpace(cmd.RequestID) == "" {
		requestID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate request id: %w", err)
		}
		cmd.RequestID = requestID
	}
	now := s.now()
	dueAt := now.Add(time.Duration(uint64(delay)*s.unitSeconds) * time.Second)
	if _, err := s.store.EnqueueSchedule(ctx, storage.ScheduleRecord{
		DueAt:     dueAt,
		Command:   cmd,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("%w: %v", host.ErrScheduleRejected, err)
	}
	return nil
}

func (s *storeScheduler) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}

// ledgerTransferer settles transfers by writing them to the ledger. The
// ledger is the record of value leaving the program; an external payment
// rail reads it from there.
type ledgerTransferer struct {
	store storage.TransferStore
	clock host.Clock
}

// Transfer implements host.Transferer.
func (t *ledgerTransferer) Transfer(ctx context.Context, transfer host.Transfer) error {
	if t == nil || t.store == nil {
		return fmt.Errorf("%w: transfer ledger is not configured", host.ErrTransferFailed)
	}
	now := time.Now().UTC()
	if t.clock != nil {
		now = t.clock.Now().UTC()
	}
	_, err := t.store.RecordTransfer(ctx, storage.TransferRecord{
		ChallengeID: transfer.ChallengeID,
		Account:     transfer.To,
		Value:       transfer.Value,
		Kind:        transfer.Kind,
		RequestID:   transfer.RequestID,
		CreatedAt:   now,
	})
	if err != nil {
		return errors.Join(host.ErrTransferFailed, err)
	}
	return nil
}

var (
	_ host.Scheduler  = (*storeScheduler)(nil)
	_ host.Transferer = (*ledgerTransferer)(nil)
)
