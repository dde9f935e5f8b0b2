package challenge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

var (
	testNow   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testStart = uint64(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Unix())
	testEnd   = uint64(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC).Unix())
)

func fixedNow(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func secondsToTime(seconds uint64) time.Time {
	return time.Unix(int64(seconds), 0).UTC()
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func createCommand(t *testing.T, payload CreatePayload) command.Command {
	t.Helper()
	return command.Command{
		Type:        CommandTypeCreate,
		ActorID:     "creator",
		RequestID:   "req-create",
		PayloadJSON: mustJSON(t, payload),
	}
}

func targetCommand(t *testing.T, cmdType command.Type, actor string, value uint64, id uint64) command.Command {
	t.Helper()
	return command.Command{
		Type:        cmdType,
		ActorID:     actor,
		Value:       amount.FromUint64(value),
		PayloadJSON: mustJSON(t, TargetPayload{ID: id}),
	}
}

// apply decides cmd and folds every emitted and paid-out event.
func apply(t *testing.T, state State, cmd command.Command, at time.Time) (State, command.Decision) {
	t.Helper()
	decision := Decide(state, cmd, fixedNow(at))
	for _, evt := range decision.Events {
		state = Fold(state, evt)
	}
	for _, payout := range decision.Payouts {
		state = Fold(state, payout.Event)
	}
	return state, decision
}

// recruitingChallenge returns a created challenge with entry fee 10 spanning
// two execution days.
func recruitingChallenge(t *testing.T) State {
	t.Helper()
	state, decision := apply(t, State{ID: 4}, createCommand(t, CreatePayload{
		Name:      "read daily",
		EntryFee:  amount.FromUint64(10),
		StartTime: testStart,
		EndTime:   testEnd,
	}), testNow)
	if decision.Rejected() {
		t.Fatalf("create rejected: %+v", decision.Rejections)
	}
	return state
}

func requireRejection(t *testing.T, decision command.Decision, code string) {
	t.Helper()
	if len(decision.Rejections) != 1 {
		t.Fatalf("rejections = %+v, want one %s", decision.Rejections, code)
	}
	if decision.Rejections[0].Code != code {
		t.Fatalf("rejection code = %s, want %s", decision.Rejections[0].Code, code)
	}
}

func requireEvent(t *testing.T, decision command.Decision, eventType event.Type) event.Event {
	t.Helper()
	if decision.Rejected() {
		t.Fatalf("unexpected rejections: %+v", decision.Rejections)
	}
	if len(decision.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(decision.Events))
	}
	if decision.Events[0].Type != eventType {
		t.Fatalf("event type = %s, want %s", decision.Events[0].Type, eventType)
	}
	return decision.Events[0]
}

func totalPayments(state State) amount.Amount {
	var payments []amount.Amount
	for _, participant := range state.Participants {
		payments = append(payments, participant.Payment)
	}
	for _, sponsorship := range state.Sponsors {
		payments = append(payments, sponsorship.Payment)
	}
	total, _ := amount.Sum(payments...)
	return total
}

func participantIDs(state State) []account.ID {
	ids := make([]account.ID, 0, len(state.Participants))
	for _, participant := range state.Participants {
		ids = append(ids, participant.ID)
	}
	return ids
}
