package questmcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/aggregate"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/host/fakehost"
	"github.com/louisbranch/chronoquest/internal/services/quest/query"
	"github.com/louisbranch/chronoquest/internal/services/quest/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	testNow   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testStart = uint64(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Unix())
	testEnd   = uint64(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC).Unix())
)

// engineDispatcher runs commands against an in-memory registry.
type engineDispatcher struct {
	mu      sync.RWMutex
	handler engine.Handler
	state   aggregate.State
	last    command.Command
	err     error
}

func newEngineDispatcher(t *testing.T) (*engineDispatcher, *fakehost.Host) {
	t.Helper()
	registries, err := engine.BuildRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	fake := fakehost.New(testNow, 3)
	return &engineDispatcher{
		handler: engine.Handler{
			Commands:   registries.Commands,
			Events:     registries.Events,
			Scheduler:  fake,
			Transferer: fake,
			Host:       host.Config{SelfID: "program", UnitSeconds: 3},
			Now:        fake.Now,
		},
		state: aggregate.NewState(),
	}, fake
}

func (d *engineDispatcher) Dispatch(ctx context.Context, cmd command.Command) (engine.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = cmd
	if d.err != nil {
		return engine.Result{}, d.err
	}
	result, err := d.handler.Execute(ctx, d.state, cmd)
	d.state = result.State
	return result, err
}

func (d *engineDispatcher) Read(_ context.Context, fn func(aggregate.State)) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.state)
	return nil
}

func createChallenge(t *testing.T, dispatcher Dispatcher) CommandResult {
	t.Helper()
	_, result, err := ChallengeCreateHandler(dispatcher)(context.Background(), nil, ChallengeCreateInput{
		Actor:     "alice",
		Name:      "read daily",
		EntryFee:  "10",
		StartTime: testStart,
		EndTime:   testEnd,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("create rejected: %+v", result.Rejections)
	}
	return result
}

func TestChallengeCreateHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		dispatcher, fake := newEngineDispatcher(t)
		toolResult, result, err := ChallengeCreateHandler(dispatcher)(context.Background(), nil, ChallengeCreateInput{
			Actor:     "alice",
			Name:      "read daily",
			EntryFee:  "10",
			StartTime: testStart,
			EndTime:   testEnd,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if toolResult == nil || toolResult.IsError {
			t.Fatalf("tool result = %+v, want success", toolResult)
		}
		if result.ChallengeID == nil || *result.ChallengeID != 0 {
			t.Fatalf("challenge id = %v, want 0", result.ChallengeID)
		}
		if result.RequestID == "" || result.RequestID != dispatcher.last.RequestID {
			t.Fatalf("request id = %q, want %q", result.RequestID, dispatcher.last.RequestID)
		}
		if len(result.Events) != 1 || result.Events[0].Type != "challenge.created" {
			t.Fatalf("events = %+v, want one challenge.created", result.Events)
		}
		if got := len(fake.Pending()); got != 1 {
			t.Fatalf("pending deliveries = %d, want 1", got)
		}
	})

	t.Run("localized rejection", func(t *testing.T) {
		dispatcher, _ := newEngineDispatcher(t)
		toolResult, result, err := ChallengeCreateHandler(dispatcher)(context.Background(), nil, ChallengeCreateInput{
			Actor:     "alice",
			Name:      "read daily",
			EntryFee:  "10",
			Timezone:  13,
			StartTime: testStart,
			EndTime:   testEnd,
			Locale:    "pt-BR",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if toolResult == nil || !toolResult.IsError {
			t.Fatal("expected error tool result")
		}
		if len(result.Rejections) != 1 {
			t.Fatalf("rejections = %+v, want 1", result.Rejections)
		}
		rejection := result.Rejections[0]
		if rejection.Code != "INVALID_TIMEZONE" {
			t.Fatalf("code = %q, want INVALID_TIMEZONE", rejection.Code)
		}
		if rejection.Category != "validation" {
			t.Fatalf("category = %q, want validation", rejection.Category)
		}
		if !strings.Contains(rejection.Message, "fuso horário 13") {
			t.Fatalf("message = %q, want pt-BR text", rejection.Message)
		}
	})

	t.Run("invalid entry fee", func(t *testing.T) {
		dispatcher, _ := newEngineDispatcher(t)
		_, _, err := ChallengeCreateHandler(dispatcher)(context.Background(), nil, ChallengeCreateInput{
			Actor:    "alice",
			EntryFee: "-1",
		})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("dispatch error", func(t *testing.T) {
		dispatcher, _ := newEngineDispatcher(t)
		dispatcher.err = errors.New("mailbox closed")
		_, _, err := ChallengeCreateHandler(dispatcher)(context.Background(), nil, ChallengeCreateInput{
			Actor:    "alice",
			EntryFee: "1",
		})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestChallengeJoinHandlerRefundsShortPayment(t *testing.T) {
	dispatcher, fake := newEngineDispatcher(t)
	createChallenge(t, dispatcher)

	toolResult, result, err := ChallengeJoinHandler(dispatcher)(context.Background(), nil, ChallengePaymentInput{
		Actor: "bob",
		Value: "5",
		ID:    0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !toolResult.IsError {
		t.Fatal("expected error tool result")
	}
	if len(result.Rejections) != 1 || result.Rejections[0].Code != "NOT_ENOUGH_FUNDS" {
		t.Fatalf("rejections = %+v, want NOT_ENOUGH_FUNDS", result.Rejections)
	}
	if got, want := result.Rejections[0].Message, "Not enough funds: expected 10, got 5."; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if result.Refund != "5" {
		t.Fatalf("refund = %q, want 5", result.Refund)
	}
	transfers := fake.Transfers()
	if len(transfers) != 1 || transfers[0].Kind != host.TransferRefund {
		t.Fatalf("transfers = %+v, want one refund", transfers)
	}
}

func TestChallengeSponsorAndCompleteDailyHandlers(t *testing.T) {
	dispatcher, fake := newEngineDispatcher(t)
	createChallenge(t, dispatcher)

	_, sponsored, err := ChallengeSponsorHandler(dispatcher)(context.Background(), nil, ChallengePaymentInput{
		Actor: "carol",
		Value: "10",
		ID:    0,
	})
	if err != nil {
		t.Fatalf("sponsor: %v", err)
	}
	if !sponsored.Accepted {
		t.Fatalf("sponsor rejected: %+v", sponsored.Rejections)
	}

	_, daily, err := ChallengeCompleteDailyHandler(dispatcher)(context.Background(), nil, ChallengeCompleteDailyInput{
		Actor: "bob",
		ID:    0,
	})
	if err != nil {
		t.Fatalf("complete daily: %v", err)
	}
	if len(daily.Rejections) != 1 || daily.Rejections[0].Code != "CHALLENGE_IS_NOT_EXECUTING" {
		t.Fatalf("rejections = %+v, want CHALLENGE_IS_NOT_EXECUTING", daily.Rejections)
	}
	if daily.Refund != "" {
		t.Fatalf("refund = %q, want none", daily.Refund)
	}
	if got := len(fake.Transfers()); got != 0 {
		t.Fatalf("transfers = %d, want 0", got)
	}
}

func TestQueryHandlers(t *testing.T) {
	dispatcher, _ := newEngineDispatcher(t)
	createChallenge(t, dispatcher)
	createChallenge(t, dispatcher)
	queries := query.Service{Reader: dispatcher}

	_, count, err := ChallengeCountHandler(queries)(context.Background(), nil, ChallengeCountInput{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count.Count != 2 {
		t.Fatalf("count = %d, want 2", count.Count)
	}

	_, view, err := ChallengeGetHandler(queries)(context.Background(), nil, ChallengeGetInput{ID: 1})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.ID != 1 || view.Status != "recruiting" || view.EntryFee != "10" {
		t.Fatalf("view = %+v, want recruiting challenge 1 with fee 10", view)
	}

	if _, _, err := ChallengeGetHandler(queries)(context.Background(), nil, ChallengeGetInput{ID: 9}); err == nil {
		t.Fatal("expected not found error")
	}

	_, list, err := ChallengeListHandler(queries)(context.Background(), nil, ChallengeListInput{
		IncludeRecruiting: true,
		Offset:            1,
		Count:             5,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Challenges) != 1 || list.Challenges[0].ID != 1 {
		t.Fatalf("list = %+v, want challenge 1", list.Challenges)
	}

	_, created, err := ChallengeListHandler(queries)(context.Background(), nil, ChallengeListInput{
		Filter:            "created",
		Account:           "nobody",
		IncludeRecruiting: true,
		Count:             5,
	})
	if err != nil {
		t.Fatalf("list created: %v", err)
	}
	if len(created.Challenges) != 0 {
		t.Fatalf("created list = %+v, want empty", created.Challenges)
	}

	if _, _, err := ChallengeListHandler(queries)(context.Background(), nil, ChallengeListInput{Filter: "joined", Count: 1}); err == nil {
		t.Fatal("expected error for joined filter without account")
	}
}

func TestChallengeWindowHandler(t *testing.T) {
	handler := ChallengeWindowHandler(host.ClockFunc(func() time.Time { return testNow }))

	_, window, err := handler(context.Background(), nil, ChallengeWindowInput{RecruitDays: 1, ExecuteDays: 2})
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if window.StartTime != testStart || window.EndTime != testEnd {
		t.Fatalf("window = %d..%d, want %d..%d", window.StartTime, window.EndTime, testStart, testEnd)
	}
	if window.StartsAt != "2026-03-02T00:00:00Z" {
		t.Fatalf("starts_at = %q, want 2026-03-02T00:00:00Z", window.StartsAt)
	}

	_, shifted, err := handler(context.Background(), nil, ChallengeWindowInput{Timezone: 3, RecruitDays: 1, ExecuteDays: 1})
	if err != nil {
		t.Fatalf("window tz: %v", err)
	}
	if want := uint64(time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC).Unix()); shifted.StartTime != want {
		t.Fatalf("start = %d, want %d", shifted.StartTime, want)
	}

	for name, input := range map[string]ChallengeWindowInput{
		"timezone":     {Timezone: -13, RecruitDays: 1, ExecuteDays: 1},
		"recruit days": {ExecuteDays: 1},
		"execute days": {RecruitDays: 1},
	} {
		if _, _, err := handler(context.Background(), nil, input); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

type fakeTransferLister struct {
	filter  storage.TransferFilter
	records []storage.TransferRecord
	err     error
}

func (f *fakeTransferLister) ListTransfers(_ context.Context, filter storage.TransferFilter) ([]storage.TransferRecord, error) {
	f.filter = filter
	return f.records, f.err
}

func TestTransferListHandler(t *testing.T) {
	lister := &fakeTransferLister{records: []storage.TransferRecord{{
		ID:          1,
		ChallengeID: 0,
		Account:     "alice",
		Value:       amount.FromUint64(16),
		Kind:        host.TransferPrize,
		CreatedAt:   testNow,
	}}}
	challengeID := uint64(0)
	_, result, err := TransferListHandler(lister)(context.Background(), nil, TransferListInput{
		Account:     " alice ",
		ChallengeID: &challengeID,
		Kind:        "PRIZE",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if lister.filter.Limit != defaultTransferLimit {
		t.Fatalf("limit = %d, want %d", lister.filter.Limit, defaultTransferLimit)
	}
	if lister.filter.Account != "alice" || lister.filter.Kind != host.TransferPrize {
		t.Fatalf("filter = %+v, want alice prizes", lister.filter)
	}
	if len(result.Transfers) != 1 || result.Transfers[0].Value != "16" {
		t.Fatalf("transfers = %+v, want one of 16", result.Transfers)
	}

	lister.err = errors.New("disk full")
	if _, _, err := TransferListHandler(lister)(context.Background(), nil, TransferListInput{}); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := TransferListHandler(nil)(context.Background(), nil, TransferListInput{}); err == nil {
		t.Fatal("expected error for missing ledger")
	}
}

func TestChallengeResourceHandler(t *testing.T) {
	dispatcher, _ := newEngineDispatcher(t)
	createChallenge(t, dispatcher)
	handler := ChallengeResourceHandler(query.Service{Reader: dispatcher})

	result, err := handler(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "challenge://0"}})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(result.Contents))
	}
	var view query.ChallengeView
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Name != "read daily" {
		t.Fatalf("name = %q, want read daily", view.Name)
	}

	for _, uri := range []string{"campaign://0", "challenge://x", "challenge://7"} {
		if _, err := handler(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}); err == nil {
			t.Fatalf("%s: expected error", uri)
		}
	}
	if _, err := handler(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing request")
	}
}
