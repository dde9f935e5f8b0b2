package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/daytime"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/query"
)

func (r *Runner) runStep(ctx context.Context, run *scenarioRun, step Step) error {
	switch step.Kind {
	case "at":
		return r.runAtStep(run, step.Args)
	case "advance":
		return r.runAdvanceStep(run, step.Args)
	case "to_start", "to_end":
		return r.runJumpStep(run, step.Kind, step.Args)
	case "deliver":
		return r.runDeliverStep(ctx, run, step.Args)
	case "create":
		return r.runCreateStep(ctx, run, step.Args)
	case "join":
		return r.runPaymentStep(ctx, run, challenge.CommandTypeJoin, step.Args)
	case "sponsor":
		return r.runPaymentStep(ctx, run, challenge.CommandTypeSponsor, step.Args)
	case "complete_daily":
		return r.runPaymentStep(ctx, run, challenge.CommandTypeCompleteDaily, step.Args)
	case "send":
		return r.runSendStep(ctx, run, step.Args)
	case "expect":
		return r.runExpectStep(ctx, run, step.Args)
	case "expect_count":
		return r.runExpectCountStep(ctx, run, step.Args)
	case "expect_query":
		return r.runExpectQueryStep(ctx, run, step.Args)
	case "expect_prize":
		return r.runExpectPrizeStep(ctx, run, step.Args)
	case "expect_transfer":
		return r.runExpectTransferStep(run, step.Args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runAtStep(run *scenarioRun, args map[string]any) error {
	if text := stringArg(args, "time"); text != "" {
		at, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return fmt.Errorf("parse time: %w", err)
		}
		run.host.Set(at)
		return nil
	}
	seconds, err := uintArg(args, "unix", 0)
	if err != nil {
		return err
	}
	run.host.Set(daytime.Time(seconds))
	return nil
}

func (r *Runner) runAdvanceStep(run *scenarioRun, args map[string]any) error {
	var total time.Duration
	for _, unit := range []struct {
		key  string
		size time.Duration
	}{
		{"days", 24 * time.Hour},
		{"hours", time.Hour},
		{"minutes", time.Minute},
		{"seconds", time.Second},
	} {
		value, err := intArg(args, unit.key, 0)
		if err != nil {
			return err
		}
		total += time.Duration(value) * unit.size
	}
	if total < 0 {
		return fmt.Errorf("advance must move the clock forward")
	}
	run.host.Advance(total)
	return nil
}

// runJumpStep moves the clock to a challenge boundary plus an optional
// offset in hours.
func (r *Runner) runJumpStep(run *scenarioRun, kind string, args map[string]any) error {
	id, err := run.resolve(args["challenge"])
	if err != nil {
		return err
	}
	state, ok := run.state.Challenge(id)
	if !ok {
		return fmt.Errorf("challenge %d does not exist", id)
	}
	hours, err := intArg(args, "hours", 0)
	if err != nil {
		return err
	}
	boundary := state.StartTime
	if kind == "to_end" {
		boundary = state.EndTime
	}
	run.host.Set(daytime.Time(boundary).Add(time.Duration(hours) * time.Hour))
	return nil
}

// runDeliverStep hands every due scheduled command back to the engine.
func (r *Runner) runDeliverStep(ctx context.Context, run *scenarioRun, args map[string]any) error {
	expectError := stringArg(args, "expect_error")
	due := run.host.TakeDue()
	if want, ok := args["count"]; ok {
		count, err := toUint64(want)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		if uint64(len(due)) != count {
			if err := r.assertions.Failf("delivered %d commands, want %d", len(due), count); err != nil {
				return err
			}
		}
	}
	var rejections []command.Rejection
	for _, delivery := range due {
		result, err := r.execute(ctx, run, delivery.Command)
		if err != nil {
			return err
		}
		rejections = append(rejections, result.Rejections...)
	}
	if expectError != "" {
		if !hasCode(rejections, expectError) {
			return r.assertions.Failf("expected delivery rejection %s, got %v", expectError, rejectionCodes(rejections))
		}
		return nil
	}
	if len(rejections) > 0 {
		return r.assertions.Failf("unexpected delivery rejections %v", rejectionCodes(rejections))
	}
	return nil
}

func (r *Runner) runCreateStep(ctx context.Context, run *scenarioRun, args map[string]any) error {
	actor, err := requiredString(args, "as")
	if err != nil {
		return err
	}
	fee, _, err := amountArg(args, "entry_fee")
	if err != nil {
		return err
	}
	timezone, err := intArg(args, "timezone", 0)
	if err != nil {
		return err
	}
	if timezone < math.MinInt32 || timezone > math.MaxInt32 {
		return fmt.Errorf("timezone %d out of range", timezone)
	}
	// An invalid offset still reaches the program, which rejects it.
	windowZone := int8(0)
	if daytime.ValidTimezone(int(timezone)) {
		windowZone = int8(timezone)
	}
	start, end, err := createWindow(run, args, windowZone)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(challenge.CreatePayload{
		Name:      stringArg(args, "name"),
		EntryFee:  fee,
		Timezone:  int(timezone),
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return fmt.Errorf("encode create payload: %w", err)
	}
	cmd := command.Command{Type: challenge.CommandTypeCreate, ActorID: actor, PayloadJSON: payload}
	if value, ok, err := amountArg(args, "value"); err != nil {
		return err
	} else if ok {
		cmd.Value = value
	}

	result, err := r.execute(ctx, run, cmd)
	if err != nil {
		return err
	}
	for _, evt := range result.Events {
		if evt.Type == challenge.EventTypeCreated {
			run.last = evt.ChallengeID
			run.hasLast = true
			if alias := stringArg(args, "alias"); alias != "" {
				run.aliases[alias] = evt.ChallengeID
			}
		}
	}
	return r.checkOutcome(result, args)
}

// createWindow reads explicit start/end times, or derives them from
// recruit_days and execute_days counted from the current local day.
func createWindow(run *scenarioRun, args map[string]any, timezone int8) (uint64, uint64, error) {
	if _, ok := args["start_time"]; ok {
		start, err := uintArg(args, "start_time", 0)
		if err != nil {
			return 0, 0, err
		}
		end, err := uintArg(args, "end_time", 0)
		if err != nil {
			return 0, 0, err
		}
		return start, end, nil
	}
	recruitDays, err := uintArg(args, "recruit_days", 1)
	if err != nil {
		return 0, 0, err
	}
	executeDays, err := uintArg(args, "execute_days", 1)
	if err != nil {
		return 0, 0, err
	}
	if recruitDays > math.MaxUint32 || executeDays > math.MaxUint32 {
		return 0, 0, fmt.Errorf("window days out of range")
	}
	start := daytime.FutureDayStart(daytime.Unix(run.host.Now()), timezone, uint32(recruitDays))
	end := daytime.FutureDayStart(start, timezone, uint32(executeDays))
	return start, end, nil
}

func (r *Runner) runPaymentStep(ctx context.Context, run *scenarioRun, cmdType command.Type, args map[string]any) error {
	actor, err := requiredString(args, "as")
	if err != nil {
		return err
	}
	cmd, err := targetCommand(run, cmdType, actor, args)
	if err != nil {
		return err
	}
	result, err := r.execute(ctx, run, cmd)
	if err != nil {
		return err
	}
	if want, ok, err := amountArg(args, "expect_refund"); err != nil {
		return err
	} else if ok && !result.Refund.Equal(want) {
		if err := r.assertions.Failf("refund = %s, want %s", result.Refund, want); err != nil {
			return err
		}
	}
	return r.checkOutcome(result, args)
}

// runSendStep sends any command type, typically an internal transition
// from an outside account.
func (r *Runner) runSendStep(ctx context.Context, run *scenarioRun, args map[string]any) error {
	typeName, err := requiredString(args, "type")
	if err != nil {
		return err
	}
	if !strings.Contains(typeName, ".") {
		typeName = "challenge." + typeName
	}
	actor := stringArg(args, "as")
	if actor == "" {
		actor = r.cfg.SelfID
	}
	cmd, err := targetCommand(run, command.Type(typeName), actor, args)
	if err != nil {
		return err
	}
	result, err := r.execute(ctx, run, cmd)
	if err != nil {
		return err
	}
	return r.checkOutcome(result, args)
}

func targetCommand(run *scenarioRun, cmdType command.Type, actor string, args map[string]any) (command.Command, error) {
	id, err := run.resolve(args["challenge"])
	if err != nil {
		return command.Command{}, err
	}
	payload, err := json.Marshal(challenge.TargetPayload{ID: id})
	if err != nil {
		return command.Command{}, fmt.Errorf("encode target payload: %w", err)
	}
	cmd := command.Command{Type: cmdType, ActorID: actor, PayloadJSON: payload}
	value, _, err := amountArg(args, "value")
	if err != nil {
		return command.Command{}, err
	}
	cmd.Value = value
	return cmd, nil
}

// execute runs cmd and echoes committed events to the configured output.
func (r *Runner) execute(ctx context.Context, run *scenarioRun, cmd command.Command) (engine.Result, error) {
	result, err := run.execute(ctx, cmd)
	if r.cfg.Out != nil {
		for _, evt := range result.Events {
			fmt.Fprintf(r.cfg.Out, "%s %s #%d %s\n", evt.Timestamp.UTC().Format(time.RFC3339), evt.Type, evt.ChallengeID, evt.PayloadJSON)
		}
	}
	if err != nil {
		return result, fmt.Errorf("execute %s: %w", cmd.Type, err)
	}
	return result, nil
}

// checkOutcome compares rejections with the optional expect_error code.
func (r *Runner) checkOutcome(result engine.Result, args map[string]any) error {
	expectError := stringArg(args, "expect_error")
	if expectError == "" {
		if result.Rejected() {
			return r.assertions.Failf("unexpected rejection %v: %s", rejectionCodes(result.Rejections), result.Rejections[0].Message)
		}
		return nil
	}
	if !hasCode(result.Rejections, expectError) {
		return r.assertions.Failf("expected rejection %s, got %v", expectError, rejectionCodes(result.Rejections))
	}
	return nil
}

func (r *Runner) runExpectStep(ctx context.Context, run *scenarioRun, args map[string]any) error {
	id, err := run.resolve(args["challenge"])
	if err != nil {
		return err
	}
	state, err := run.queries().Challenge(ctx, id)
	if err != nil {
		return r.assertions.Failf("challenge %d: %v", id, err)
	}
	if want := stringArg(args, "status"); want != "" {
		status, ok := challenge.NormalizeStatus(want)
		if !ok {
			return fmt.Errorf("unknown status %q", want)
		}
		if state.Status != status {
			if err := r.assertions.Failf("challenge %d status = %s, want %s", id, state.Status, status); err != nil {
				return err
			}
		}
	}
	if want, ok, err := amountArg(args, "prize_pool"); err != nil {
		return err
	} else if ok && !state.PrizePool.Equal(want) {
		if err := r.assertions.Failf("challenge %d prize pool = %s, want %s", id, state.PrizePool, want); err != nil {
			return err
		}
	}
	if _, ok := args["participants"]; ok {
		want, err := uintArg(args, "participants", 0)
		if err != nil {
			return err
		}
		if uint64(len(state.Participants)) != want {
			if err := r.assertions.Failf("challenge %d participants = %d, want %d", id, len(state.Participants), want); err != nil {
				return err
			}
		}
	}
	if _, ok := args["sponsors"]; ok {
		want, err := uintArg(args, "sponsors", 0)
		if err != nil {
			return err
		}
		if uint64(len(state.Sponsors)) != want {
			if err := r.assertions.Failf("challenge %d sponsors = %d, want %d", id, len(state.Sponsors), want); err != nil {
				return err
			}
		}
	}
	if completed, ok := args["completed"].(map[string]any); ok {
		for name, value := range completed {
			want, err := toUint64(value)
			if err != nil {
				return fmt.Errorf("completed %s: %w", name, err)
			}
			participant, found := state.Participant(account.ID(name))
			if !found {
				if err := r.assertions.Failf("challenge %d has no participant %s", id, name); err != nil {
					return err
				}
				continue
			}
			if uint64(len(participant.CompletedDays)) != want {
				if err := r.assertions.Failf("participant %s completed days = %v, want %d", name, participant.CompletedDays, want); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Runner) runExpectCountStep(ctx context.Context, run *scenarioRun, args map[string]any) error {
	want, err := uintArg(args, "count", 0)
	if err != nil {
		return err
	}
	count, err := run.queries().TotalChallengeCount(ctx)
	if err != nil {
		return err
	}
	if count != want {
		return r.assertions.Failf("challenge count = %d, want %d", count, want)
	}
	return nil
}

func (r *Runner) runExpectQueryStep(ctx context.Context, run *scenarioRun, args map[string]any) error {
	req := query.ChallengesRequest{
		Filter:  stringArg(args, "filter"),
		Account: stringArg(args, "account"),
	}
	include := listArg(args, "include")
	if include == nil {
		req.IncludeRecruiting, req.IncludeRecruitFail, req.IncludeExecuting, req.IncludeCompleted = true, true, true, true
	}
	for _, value := range include {
		label, _ := value.(string)
		status, ok := challenge.NormalizeStatus(label)
		if !ok {
			return fmt.Errorf("unknown status %q", label)
		}
		switch status {
		case challenge.StatusRecruiting:
			req.IncludeRecruiting = true
		case challenge.StatusRecruitFailed:
			req.IncludeRecruitFail = true
		case challenge.StatusExecuting:
			req.IncludeExecuting = true
		case challenge.StatusCompleted:
			req.IncludeCompleted = true
		}
	}
	var err error
	if req.Offset, err = uintArg(args, "offset", 0); err != nil {
		return err
	}
	if req.Count, err = uintArg(args, "count", math.MaxUint32); err != nil {
		return err
	}

	want := []uint64{}
	for _, ref := range listArg(args, "ids") {
		id, err := run.resolve(ref)
		if err != nil {
			return err
		}
		want = append(want, id)
	}
	states, err := run.queries().Challenges(ctx, req)
	if err != nil {
		return r.assertions.Failf("query challenges: %v", err)
	}
	got := make([]uint64, 0, len(states))
	for _, state := range states {
		got = append(got, state.ID)
	}
	if !slices.Equal(got, want) {
		return r.assertions.Failf("query %s(%s) = %v, want %v", req.Filter, req.Account, got, want)
	}
	return nil
}

// runExpectPrizeStep checks a recorded prize. whole_pool compares it with
// the challenge prize pool.
func (r *Runner) runExpectPrizeStep(ctx context.Context, run *scenarioRun, args map[string]any) error {
	id, err := run.resolve(args["challenge"])
	if err != nil {
		return err
	}
	name, err := requiredString(args, "account")
	if err != nil {
		return err
	}
	state, err := run.queries().Challenge(ctx, id)
	if err != nil {
		return r.assertions.Failf("challenge %d: %v", id, err)
	}
	want, ok, err := amountArg(args, "prize")
	if err != nil {
		return err
	}
	if wholePool, _ := args["whole_pool"].(bool); wholePool {
		want, ok = state.PrizePool, true
	}
	for _, prize := range state.Prizes {
		if prize.Account != account.ID(name) {
			continue
		}
		if ok && !prize.Prize.Equal(want) {
			return r.assertions.Failf("prize for %s = %s, want %s", name, prize.Prize, want)
		}
		return nil
	}
	return r.assertions.Failf("challenge %d has no prize for %s", id, name)
}

func (r *Runner) runExpectTransferStep(run *scenarioRun, args map[string]any) error {
	name, err := requiredString(args, "account")
	if err != nil {
		return err
	}
	kind := host.TransferKind(stringArg(args, "kind"))
	want, hasValue, err := amountArg(args, "value")
	if err != nil {
		return err
	}
	total := amount.Zero
	found := false
	for _, transfer := range run.host.Transfers() {
		if transfer.To != account.ID(name) || (kind != "" && transfer.Kind != kind) {
			continue
		}
		found = true
		total, _ = total.Add(transfer.Value)
	}
	if !found {
		return r.assertions.Failf("no %s transfer to %s", kindLabel(kind), name)
	}
	if hasValue && !total.Equal(want) {
		return r.assertions.Failf("%s transfers to %s = %s, want %s", kindLabel(kind), name, total, want)
	}
	return nil
}

func kindLabel(kind host.TransferKind) string {
	if kind == "" {
		return "any"
	}
	return string(kind)
}
