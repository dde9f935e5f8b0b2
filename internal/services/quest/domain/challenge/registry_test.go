package challenge

import (
	"testing"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

func TestRegisterCommands_MarksTransitionsProgramOwned(t *testing.T) {
	registry := command.NewRegistry()
	if err := RegisterCommands(registry); err != nil {
		t.Fatalf("register commands: %v", err)
	}
	for _, cmdType := range []command.Type{CommandTypeRecruitmentEnd, CommandTypeExecutionEnd} {
		def, ok := registry.Definition(cmdType)
		if !ok || def.Owner != command.OwnerProgram {
			t.Fatalf("%s owner = %s (ok=%v), want program", cmdType, def.Owner, ok)
		}
	}
	for _, cmdType := range []command.Type{CommandTypeCreate, CommandTypeJoin, CommandTypeSponsor, CommandTypeCompleteDaily} {
		def, ok := registry.Definition(cmdType)
		if !ok || def.Owner != command.OwnerUser {
			t.Fatalf("%s owner = %s (ok=%v), want user", cmdType, def.Owner, ok)
		}
	}
}

func TestRegisterCommands_RejectsNegativeEntryFee(t *testing.T) {
	registry := command.NewRegistry()
	if err := RegisterCommands(registry); err != nil {
		t.Fatalf("register commands: %v", err)
	}
	_, err := registry.ValidateForDecision(command.Command{
		Type:        CommandTypeCreate,
		ActorID:     "alice",
		PayloadJSON: []byte(`{"entry_fee":"-1","start_time":1,"end_time":2}`),
	})
	if err == nil {
		t.Fatal("expected payload error")
	}
}

func TestRegisterEvents_RejectsUnknownRecruitmentStatus(t *testing.T) {
	registry := event.NewRegistry()
	if err := RegisterEvents(registry); err != nil {
		t.Fatalf("register events: %v", err)
	}
	if got := len(registry.ListDefinitions()); got != 7 {
		t.Fatalf("definitions = %d, want 7", got)
	}
	_, err := registry.ValidateForAppend(event.Event{
		Type:        EventTypeRecruitmentEnded,
		Timestamp:   testNow,
		PayloadJSON: []byte(`{"id":1,"status":"completed"}`),
	})
	if err == nil {
		t.Fatal("expected invalid status error")
	}
}
