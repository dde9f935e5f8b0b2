package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/chronoquest/internal/platform/errors"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/aggregate"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/daytime"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
)

const tracerName = "github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"

const (
	rejectionCodeInvalidCommand   = "INVALID_COMMAND"
	rejectionCodeCalledExternally = "INTERNAL_METHOD_CALLED_EXTERNALLY"
)

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrEventRegistryRequired indicates a missing event registry.
	ErrEventRegistryRequired = errors.New("event registry is required")
	// ErrSchedulerRequired indicates a decision asked for a delivery with no scheduler.
	ErrSchedulerRequired = errors.New("scheduler is required")
	// ErrTransfererRequired indicates a decision asked for a payout with no transferer.
	ErrTransfererRequired = errors.New("transferer is required")
)

// EventJournal appends events to the journal.
type EventJournal interface {
	Append(ctx context.Context, evt event.Event) (event.Event, error)
}

// Handler validates, authorizes, decides, and commits commands.
type Handler struct {
	Commands   *command.Registry
	Events     *event.Registry
	Journal    EventJournal
	Scheduler  host.Scheduler
	Transferer host.Transferer
	Host       host.Config
	Now        func() time.Time
	Logf       func(format string, args ...any)
}

// Result captures execution outcomes.
//
// Events holds what was committed, so a result may carry both events and
// rejections: a recruitment that ended with no participants, or a settlement
// whose payout failed part way.
type Result struct {
	State      aggregate.State
	Events     []event.Event
	Rejections []command.Rejection
	// Refund is the attached value returned to the caller.
	Refund amount.Amount
}

// Rejected reports whether the command was declined in whole or in part.
func (r Result) Rejected() bool {
	return len(r.Rejections) > 0
}

// Err returns the first rejection as a typed error, or nil.
func (r Result) Err() error {
	if len(r.Rejections) == 0 {
		return nil
	}
	rejection := r.Rejections[0]
	return apperrors.WithMetadata(apperrors.Code(rejection.Code), rejection.Message, rejection.Metadata)
}

// Execute runs cmd against state and returns the resulting state.
//
// Returned errors are infrastructure failures; business outcomes are
// reported through Result.Rejections. When an error is returned after a
// commit, Result still carries the state as folded so far.
func (h Handler) Execute(ctx context.Context, state aggregate.State, cmd command.Command) (Result, error) {
	if h.Commands == nil {
		return Result{State: state}, ErrCommandRegistryRequired
	}
	if h.Events == nil {
		return Result{State: state}, ErrEventRegistryRequired
	}
	started := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.Execute",
		trace.WithAttributes(
			attribute.String("command.type", string(cmd.Type)),
			attribute.String("command.request_id", cmd.RequestID),
		))
	defer span.End()

	result, err := h.execute(ctx, state, cmd)

	outcome := outcomeAccepted
	switch {
	case err != nil:
		outcome = outcomeFailed
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	case result.Rejected() && len(result.Events) > 0:
		outcome = outcomeCommitted
	case result.Rejected():
		outcome = outcomeRejected
	}
	for _, rejection := range result.Rejections {
		rejections.WithLabelValues(rejection.Code).Inc()
		span.AddEvent("rejection", trace.WithAttributes(attribute.String("code", rejection.Code)))
	}
	span.SetAttributes(attribute.Int("events.count", len(result.Events)))
	commandsHandled.WithLabelValues(string(cmd.Type), outcome).Inc()
	commandDuration.WithLabelValues(string(cmd.Type)).Observe(time.Since(started).Seconds())
	return result, err
}

func (h Handler) execute(ctx context.Context, state aggregate.State, cmd command.Command) (Result, error) {
	validated, err := h.Commands.ValidateForDecision(cmd)
	if err != nil {
		return h.refund(ctx, Result{State: state, Rejections: []command.Rejection{{
			Code:    rejectionCodeInvalidCommand,
			Message: err.Error(),
		}}}, cmd), nil
	}
	cmd = validated

	if def, ok := h.Commands.Definition(cmd.Type); ok && def.Owner == command.OwnerProgram {
		if h.Host.SelfID.IsZero() || account.ID(cmd.ActorID) != h.Host.SelfID {
			return h.refund(ctx, Result{State: state, Rejections: []command.Rejection{{
				Code:    rejectionCodeCalledExternally,
				Message: "command may only be sent by the program",
			}}}, cmd), nil
		}
	}

	now := h.now()
	decision := aggregate.Decide(state, cmd, func() time.Time { return now })
	result := Result{State: state, Rejections: append([]command.Rejection(nil), decision.Rejections...)}
	if len(decision.Events) == 0 {
		return h.refund(ctx, result, cmd), nil
	}

	for _, schedule := range decision.Schedules {
		if err := h.schedule(ctx, schedule, now); err != nil {
			h.logf("schedule %s: %v", schedule.Command.Type, err)
			result.Rejections = append(result.Rejections, schedule.Failure)
			return h.refund(ctx, result, cmd), nil
		}
		scheduledDeliveries.WithLabelValues(string(schedule.Command.Type)).Inc()
	}

	vetted := make([]event.Event, 0, len(decision.Events))
	for _, evt := range decision.Events {
		checked, err := h.Events.ValidateForAppend(evt)
		if err != nil {
			return result, fmt.Errorf("validate %s: %w", evt.Type, err)
		}
		vetted = append(vetted, checked)
	}
	for _, evt := range vetted {
		if err := h.commit(ctx, &result, evt); err != nil {
			return result, err
		}
	}

	for _, payout := range decision.Payouts {
		if h.Transferer == nil {
			return result, ErrTransfererRequired
		}
		prize, err := h.Events.ValidateForAppend(payout.Event)
		if err != nil {
			return result, fmt.Errorf("validate %s: %w", payout.Event.Type, err)
		}
		err = h.Transferer.Transfer(ctx, host.Transfer{
			ChallengeID: prize.ChallengeID,
			To:          payout.To,
			Value:       payout.Value,
			Kind:        host.TransferPrize,
			RequestID:   cmd.RequestID,
		})
		if err != nil {
			transfersMade.WithLabelValues(string(host.TransferPrize), outcomeFailed).Inc()
			h.logf("prize to %s: %v", payout.To, err)
			result.Rejections = append(result.Rejections, payout.Failure)
			break
		}
		transfersMade.WithLabelValues(string(host.TransferPrize), outcomeAccepted).Inc()
		if err := h.commit(ctx, &result, prize); err != nil {
			return result, err
		}
	}
	return result, nil
}

// commit journals evt and folds it into the result state.
func (h Handler) commit(ctx context.Context, result *Result, evt event.Event) error {
	if h.Journal != nil {
		stored, err := h.Journal.Append(ctx, evt)
		if err != nil {
			return fmt.Errorf("append %s: %w", evt.Type, err)
		}
		evt = stored
	}
	state, err := aggregate.Fold(result.State, evt)
	if err != nil {
		return fmt.Errorf("fold %s: %w", evt.Type, err)
	}
	result.State = state
	result.Events = append(result.Events, evt)
	return nil
}

// schedule hands a follow-up command to the host, converting the remaining
// seconds to host units rounded up.
func (h Handler) schedule(ctx context.Context, schedule command.Schedule, now time.Time) error {
	if h.Scheduler == nil {
		return ErrSchedulerRequired
	}
	nowSeconds := daytime.Unix(now)
	var remaining uint64
	if schedule.DeliverAt > nowSeconds {
		remaining = schedule.DeliverAt - nowSeconds
	}
	units := daytime.CeilUnits(remaining, h.unitSeconds())
	if units > math.MaxUint32 {
		return fmt.Errorf("%w: delay of %d units exceeds host range", host.ErrScheduleRejected, units)
	}
	cmd := schedule.Command
	cmd.ActorID = h.Host.SelfID.String()
	return h.Scheduler.Schedule(ctx, uint32(units), cmd)
}

// refund returns the value attached to a command that committed nothing.
func (h Handler) refund(ctx context.Context, result Result, cmd command.Command) Result {
	if len(result.Events) > 0 || cmd.Value.IsZero() {
		return result
	}
	to, err := account.Parse(cmd.ActorID)
	if err != nil || h.Transferer == nil {
		return result
	}
	err = h.Transferer.Transfer(ctx, host.Transfer{
		ChallengeID: targetID(result.State, cmd),
		To:          to,
		Value:       cmd.Value,
		Kind:        host.TransferRefund,
		RequestID:   cmd.RequestID,
	})
	if err != nil {
		transfersMade.WithLabelValues(string(host.TransferRefund), outcomeFailed).Inc()
		h.logf("refund %s to %s: %v", cmd.Value, to, err)
		return result
	}
	transfersMade.WithLabelValues(string(host.TransferRefund), outcomeAccepted).Inc()
	result.Refund = cmd.Value
	return result
}

// targetID returns the challenge a command addresses. A create addresses the
// id it would have received.
func targetID(state aggregate.State, cmd command.Command) uint64 {
	if cmd.Type == challenge.CommandTypeCreate {
		return state.NextID()
	}
	var target challenge.TargetPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &target)
	return target.ID
}

func (h Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

func (h Handler) unitSeconds() uint64 {
	if h.Host.UnitSeconds == 0 {
		return host.DefaultUnitSeconds
	}
	return h.Host.UnitSeconds
}

func (h Handler) logf(format string, args ...any) {
	if h.Logf != nil {
		h.Logf(format, args...)
	}
}
