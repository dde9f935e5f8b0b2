// Package fakehost is an in-memory host with a settable clock, a delayed
// delivery queue, and recorded transfers, for tests and scripted scenarios.
package fakehost

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
)

// Delivery is a queued self-delivered command.
type Delivery struct {
	DueAt   time.Time
	Command command.Command
	order   int
}

// Host implements host.Clock, host.Scheduler, and host.Transferer.
type Host struct {
	mu          sync.Mutex
	now         time.Time
	unitSeconds uint64
	queue       []Delivery
	transfers   []host.Transfer
	next        int

	// ScheduleErr, when set, fails every Schedule call.
	ScheduleErr error
	// TransferErr, when set, decides the outcome of each transfer.
	TransferErr func(host.Transfer) error
}

// New returns a host whose clock starts at start.
func New(start time.Time, unitSeconds uint64) *Host {
	if unitSeconds == 0 {
		unitSeconds = host.DefaultUnitSeconds
	}
	return &Host{now: start.UTC(), unitSeconds: unitSeconds}
}

// Now implements host.Clock.
func (h *Host) Now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

// UnitSeconds returns the configured host unit.
func (h *Host) UnitSeconds() uint64 {
	return h.unitSeconds
}

// Schedule implements host.Scheduler.
func (h *Host) Schedule(_ context.Context, delay uint32, cmd command.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ScheduleErr != nil {
		return h.ScheduleErr
	}
	due := h.now.Add(time.Duration(uint64(delay)*h.unitSeconds) * time.Second)
	h.queue = append(h.queue, Delivery{DueAt: due, Command: cmd, order: h.next})
	h.next++
	return nil
}

// Transfer implements host.Transferer.
func (h *Host) Transfer(_ context.Context, transfer host.Transfer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.TransferErr != nil {
		if err := h.TransferErr(transfer); err != nil {
			return err
		}
	}
	h.transfers = append(h.transfers, transfer)
	return nil
}

// Set moves the clock to at.
func (h *Host) Set(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = at.UTC()
}

// Advance moves the clock forward by d.
func (h *Host) Advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = h.now.Add(d)
}

// TakeDue removes and returns every delivery due at or before the current
// time, earliest first, ties in scheduling order.
func (h *Host) TakeDue() []Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()
	var due, pending []Delivery
	for _, delivery := range h.queue {
		if !delivery.DueAt.After(h.now) {
			due = append(due, delivery)
		} else {
			pending = append(pending, delivery)
		}
	}
	h.queue = pending
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].DueAt.Equal(due[j].DueAt) {
			return due[i].order < due[j].order
		}
		return due[i].DueAt.Before(due[j].DueAt)
	})
	return due
}

// Pending returns a copy of the queued deliveries.
func (h *Host) Pending() []Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Delivery(nil), h.queue...)
}

// Transfers returns a copy of the successful transfers.
func (h *Host) Transfers() []host.Transfer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]host.Transfer(nil), h.transfers...)
}
