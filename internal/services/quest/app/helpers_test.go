package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/host/fakehost"
	questsqlite "github.com/louisbranch/chronoquest/internal/services/quest/storage/sqlite"
)

const (
	testSelfID = "program"
	testUnit   = 3
)

var (
	testNow   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testStart = uint64(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Unix())
	testEnd   = uint64(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC).Unix())
)

func openStoreAt(t *testing.T, path string) *questsqlite.Store {
	t.Helper()
	store, err := questsqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func openTempStore(t *testing.T) *questsqlite.Store {
	t.Helper()
	return openStoreAt(t, filepath.Join(t.TempDir(), "quest.db"))
}

// newStoreService runs a service over store with fake as its clock.
func newStoreService(t *testing.T, ctx context.Context, store *questsqlite.Store, fake *fakehost.Host) *Service {
	t.Helper()
	service, err := NewService(ctx, ServiceConfig{
		Host:       host.Config{SelfID: testSelfID, UnitSeconds: testUnit},
		Journal:    store,
		Scheduler:  newStoreScheduler(store, fake, testUnit),
		Transferer: &ledgerTransferer{store: store, clock: fake},
		Clock:      fake,
		Logf:       t.Logf,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func createCommand(t *testing.T, actor string, fee uint64) command.Command {
	t.Helper()
	return command.Command{
		Type:    challenge.CommandTypeCreate,
		ActorID: actor,
		PayloadJSON: mustJSON(t, challenge.CreatePayload{
			Name:      "read daily",
			EntryFee:  amount.FromUint64(fee),
			StartTime: testStart,
			EndTime:   testEnd,
		}),
	}
}

func targetCommand(t *testing.T, cmdType command.Type, actor string, value uint64, id uint64) command.Command {
	t.Helper()
	return command.Command{
		Type:        cmdType,
		ActorID:     actor,
		Value:       amount.FromUint64(value),
		PayloadJSON: mustJSON(t, challenge.TargetPayload{ID: id}),
	}
}

func mustAccept(t *testing.T, service *Service, cmd command.Command) engine.Result {
	t.Helper()
	result, err := service.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("dispatch %s: %v", cmd.Type, err)
	}
	if result.Rejected() {
		t.Fatalf("dispatch %s rejected: %+v", cmd.Type, result.Rejections)
	}
	return result
}
