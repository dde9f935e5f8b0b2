package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/louisbranch/chronoquest/internal/platform/actor"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/storage"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 32
	outcomeRetry        = "retry"
)

// errRetryLater marks a delivery whose dispatch failed; the schedule stays
// pending and is offered again on a later pass.
var errRetryLater = errors.New("delivery left pending")

var deliveriesMade = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "chronoquest",
	Subsystem: "delivery",
	Name:      "deliveries_total",
	Help:      "Scheduled commands delivered, by command type and outcome.",
}, []string{"type", "outcome"})

// DispatchFunc runs one command and returns its result.
type DispatchFunc func(ctx context.Context, cmd command.Command) (engine.Result, error)

// DeliveryLoop hands due scheduled commands back to the program.
type DeliveryLoop struct {
	Store        storage.ScheduleStore
	Dispatch     DispatchFunc
	Clock        host.Clock
	PollInterval time.Duration
	BatchSize    int
	Logf         func(format string, args ...any)
}

// Run polls until ctx is done.
func (l DeliveryLoop) Run(ctx context.Context) error {
	if l.Store == nil {
		return fmt.Errorf("schedule store is required")
	}
	if l.Dispatch == nil {
		return fmt.Errorf("dispatch is required")
	}
	interval := l.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	if _, err := l.RunOnce(ctx); err != nil {
		l.logf("deliver scheduled commands: %v", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := l.RunOnce(ctx); err != nil {
				l.logf("deliver scheduled commands: %v", err)
			}
		}
	}
}

// RunOnce delivers every schedule due now, batch by batch, and returns how
// many were delivered.
func (l DeliveryLoop) RunOnce(ctx context.Context) (int, error) {
	batchSize := l.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	delivered := 0
	for {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		due, err := l.Store.ListDueSchedules(ctx, l.now(), batchSize)
		if err != nil {
			return delivered, err
		}
		var retry []error
		for _, record := range due {
			err := l.deliver(ctx, record)
			switch {
			case errors.Is(err, errRetryLater):
				retry = append(retry, err)
			case err != nil:
				return delivered, err
			default:
				delivered++
			}
		}
		if len(retry) > 0 {
			// Records left pending stay at the head of the queue until the
			// next pass.
			return delivered, errors.Join(retry...)
		}
		if len(due) < batchSize {
			return delivered, nil
		}
	}
}

func (l DeliveryLoop) deliver(ctx context.Context, record storage.ScheduleRecord) error {
	result, err := l.Dispatch(ctx, record.Command)
	if errors.Is(err, actor.ErrStopped) || ctx.Err() != nil {
		// Left pending for the next run.
		return fmt.Errorf("deliver schedule %d: %w", record.ID, errors.Join(err, ctx.Err()))
	}
	if err != nil {
		deliveriesMade.WithLabelValues(string(record.Command.Type), outcomeRetry).Inc()
		l.logf("schedule %d %s left pending: %v", record.ID, record.Command.Type, err)
		return fmt.Errorf("%w: schedule %d: %w", errRetryLater, record.ID, err)
	}
	outcome := storage.OutcomeAccepted
	detail := ""
	if result.Rejected() {
		detail = result.Rejections[0].Code
		if len(result.Events) == 0 {
			outcome = storage.OutcomeRejected
		}
	}
	deliveriesMade.WithLabelValues(string(record.Command.Type), string(outcome)).Inc()
	if err := l.Store.MarkDelivered(ctx, record.ID, outcome, detail, l.now()); err != nil {
		return fmt.Errorf("mark schedule %d delivered: %w", record.ID, err)
	}
	return nil
}

func (l DeliveryLoop) now() time.Time {
	if l.Clock == nil {
		return time.Now().UTC()
	}
	return l.Clock.Now().UTC()
}

func (l DeliveryLoop) logf(format string, args ...any) {
	if l.Logf != nil {
		l.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}
