package aggregate

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

var (
	testNow   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testStart = uint64(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Unix())
	testEnd   = uint64(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC).Unix())
)

func fixedNow() time.Time { return testNow }

func run(t *testing.T, state State, cmd command.Command) (State, command.Decision) {
	t.Helper()
	return runAt(t, state, cmd, testNow)
}

func runAt(t *testing.T, state State, cmd command.Command, at time.Time) (State, command.Decision) {
	t.Helper()
	decision := Decide(state, cmd, func() time.Time { return at })
	for _, evt := range decision.Events {
		var err error
		state, err = Fold(state, evt)
		if err != nil {
			t.Fatalf("fold %s: %v", evt.Type, err)
		}
	}
	return state, decision
}

func create(t *testing.T, state State, creator string) State {
	t.Helper()
	payload, _ := json.Marshal(challenge.CreatePayload{
		Name:      "walk",
		EntryFee:  amount.FromUint64(1),
		StartTime: testStart,
		EndTime:   testEnd,
	})
	state, decision := run(t, state, command.Command{Type: challenge.CommandTypeCreate, ActorID: creator, PayloadJSON: payload})
	if decision.Rejected() {
		t.Fatalf("create rejected: %+v", decision.Rejections)
	}
	return state
}

func target(cmdType command.Type, actor string, value uint64, id uint64) command.Command {
	payload, _ := json.Marshal(challenge.TargetPayload{ID: id})
	return command.Command{Type: cmdType, ActorID: actor, Value: amount.FromUint64(value), PayloadJSON: payload}
}

func ids(challenges []challenge.State) []uint64 {
	out := make([]uint64, 0, len(challenges))
	for _, current := range challenges {
		out = append(out, current.ID)
	}
	return out
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDecideCreate_AssignsDenseIDs(t *testing.T) {
	state := NewState()
	for i := 0; i < 3; i++ {
		state = create(t, state, "alice")
	}
	if state.Count() != 3 {
		t.Fatalf("count = %d, want 3", state.Count())
	}
	for i, current := range state.Challenges {
		if current.ID != uint64(i) {
			t.Fatalf("challenge[%d].ID = %d", i, current.ID)
		}
	}
	if got := state.Created[account.ID("alice")]; !equalIDs(got, []uint64{0, 1, 2}) {
		t.Fatalf("created index = %v, want [0 1 2]", got)
	}
}

func TestDecideCreate_RejectedCreateAppendsNothing(t *testing.T) {
	state := NewState()
	payload, _ := json.Marshal(challenge.CreatePayload{StartTime: testStart + 1, EndTime: testEnd})
	state, decision := run(t, state, command.Command{Type: challenge.CommandTypeCreate, ActorID: "alice", PayloadJSON: payload})
	if !decision.Rejected() || decision.Rejections[0].Code != "INVALID_START_TIME" {
		t.Fatalf("decision = %+v, want INVALID_START_TIME", decision)
	}
	if state.Count() != 0 || len(state.Created) != 0 {
		t.Fatalf("state changed after rejected create: %+v", state)
	}
}

func TestDecide_UnknownChallengeIsNotFound(t *testing.T) {
	state := create(t, NewState(), "alice")
	decision := Decide(state, target(challenge.CommandTypeJoin, "bob", 1, 5), fixedNow)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != "CHALLENGE_NOT_FOUND" {
		t.Fatalf("decision = %+v, want CHALLENGE_NOT_FOUND", decision)
	}
	if _, ok := state.Challenge(5); ok {
		t.Fatal("expected missing challenge")
	}
}

func TestQuery_JoinedReturnsJoinOrder(t *testing.T) {
	state := NewState()
	for i := 0; i < 6; i++ {
		state = create(t, state, "creator")
	}
	state, _ = run(t, state, target(challenge.CommandTypeJoin, "alice", 1, 5))
	state, _ = run(t, state, target(challenge.CommandTypeJoin, "alice", 1, 2))
	state, _ = run(t, state, target(challenge.CommandTypeJoin, "bob", 1, 3))

	got := state.Query(Query{
		Filter:  Filter{Kind: FilterJoined, Account: "alice"},
		Include: AllStatuses(),
		Count:   10,
	})
	if !equalIDs(ids(got), []uint64{5, 2}) {
		t.Fatalf("joined = %v, want [5 2]", ids(got))
	}

	got = state.Query(Query{
		Filter:  Filter{Kind: FilterJoined, Account: "alice"},
		Include: AllStatuses(),
		Offset:  1,
		Count:   10,
	})
	if !equalIDs(ids(got), []uint64{2}) {
		t.Fatalf("joined offset 1 = %v, want [2]", ids(got))
	}

	got = state.Query(Query{
		Filter:  Filter{Kind: FilterJoined, Account: "alice"},
		Include: StatusSet{Executing: true},
		Count:   10,
	})
	if len(got) != 0 {
		t.Fatalf("joined executing = %v, want none", ids(got))
	}

	got = state.Query(Query{
		Filter:  Filter{Kind: FilterJoined, Account: "nobody"},
		Include: AllStatuses(),
		Count:   10,
	})
	if len(got) != 0 {
		t.Fatalf("unknown account = %v, want none", ids(got))
	}
}

func TestQuery_AllWithStatusesAndPagination(t *testing.T) {
	state := NewState()
	for i := 0; i < 5; i++ {
		state = create(t, state, "creator")
	}
	// Challenge 1 fails recruitment.
	state, _ = runAt(t, state, target(challenge.CommandTypeRecruitmentEnd, "program", 0, 1), time.Unix(int64(testStart), 0).UTC())

	got := state.Query(Query{Filter: Filter{Kind: FilterAll}, Include: StatusSet{Recruiting: true}, Offset: 1, Count: 2})
	if !equalIDs(ids(got), []uint64{2, 3}) {
		t.Fatalf("page = %v, want [2 3]", ids(got))
	}
	got = state.Query(Query{Filter: Filter{Kind: FilterAll}, Include: StatusSet{RecruitFailed: true}, Count: 5})
	if !equalIDs(ids(got), []uint64{1}) {
		t.Fatalf("failed = %v, want [1]", ids(got))
	}
	got = state.Query(Query{Filter: Filter{Kind: FilterAll}, Include: AllStatuses(), Offset: 50, Count: 5})
	if len(got) != 0 {
		t.Fatalf("out of range offset = %v, want none", ids(got))
	}
}

func TestQuery_SponsoredListsChallengeOnce(t *testing.T) {
	state := NewState()
	state = create(t, state, "creator")
	state = create(t, state, "creator")
	state, _ = run(t, state, target(challenge.CommandTypeSponsor, "bob", 1, 1))
	state, _ = run(t, state, target(challenge.CommandTypeSponsor, "bob", 2, 1))
	state, _ = run(t, state, target(challenge.CommandTypeSponsor, "bob", 2, 0))

	if got := state.Sponsored[account.ID("bob")]; !equalIDs(got, []uint64{1, 1, 0}) {
		t.Fatalf("sponsored index = %v, want [1 1 0]", got)
	}
	got := state.Query(Query{Filter: Filter{Kind: FilterSponsored, Account: "bob"}, Include: AllStatuses(), Count: 10})
	if !equalIDs(ids(got), []uint64{1, 0}) {
		t.Fatalf("sponsored = %v, want [1 0]", ids(got))
	}
}

func TestQuery_ReturnsCopies(t *testing.T) {
	state := create(t, NewState(), "creator")
	state, _ = run(t, state, target(challenge.CommandTypeJoin, "alice", 1, 0))
	got := state.Query(Query{Filter: Filter{Kind: FilterAll}, Include: AllStatuses(), Count: 1})
	got[0].Participants[0].ID = "mallory"
	if state.Challenges[0].Participants[0].ID != "alice" {
		t.Fatal("query result aliases registry state")
	}
}

func TestFold_RejectsInconsistentJournal(t *testing.T) {
	state := NewState()
	_, err := Fold(state, event.Event{
		Type:        challenge.EventTypeCreated,
		PayloadJSON: []byte(`{"id":3,"creator":"alice"}`),
	})
	if !errors.Is(err, ErrChallengeIDOutOfOrder) {
		t.Fatalf("err = %v, want ErrChallengeIDOutOfOrder", err)
	}
	_, err = Fold(state, event.Event{
		Type:        challenge.EventTypeJoined,
		ChallengeID: 0,
		PayloadJSON: []byte(`{"id":0,"account":"alice","payment":"1"}`),
	})
	if !errors.Is(err, ErrChallengeUnknown) {
		t.Fatalf("err = %v, want ErrChallengeUnknown", err)
	}
	_, err = Fold(state, event.Event{Type: event.Type("challenge.renamed")})
	if !errors.Is(err, ErrEventTypeUnhandled) {
		t.Fatalf("err = %v, want ErrEventTypeUnhandled", err)
	}
}

func TestFold_TracksLastSeq(t *testing.T) {
	state := create(t, NewState(), "creator")
	evt := event.Event{
		Seq:         7,
		Type:        challenge.EventTypeSponsored,
		ChallengeID: 0,
		PayloadJSON: []byte(`{"id":0,"sponsor":"bob","payment":"4"}`),
	}
	state, err := Fold(state, evt)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if state.LastSeq != 7 {
		t.Fatalf("last seq = %d, want 7", state.LastSeq)
	}
	if got := state.Challenges[0].PrizePool.String(); got != "4" {
		t.Fatalf("prize pool = %s, want 4", got)
	}
}

func TestParseFilterKind(t *testing.T) {
	cases := map[string]FilterKind{"": FilterAll, "ALL": FilterAll, " joined ": FilterJoined, "created": FilterCreated, "Sponsored": FilterSponsored}
	for input, want := range cases {
		got, err := ParseFilterKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseFilterKind(%q) = %s, %v; want %s", input, got, err, want)
		}
	}
	if _, err := ParseFilterKind("owned"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}
