package engine

import (
	"fmt"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

// Registries holds the command and event definitions the engine validates
// against.
type Registries struct {
	Commands *command.Registry
	Events   *event.Registry
}

// BuildRegistries registers every challenge command and event type.
func BuildRegistries() (Registries, error) {
	commands := command.NewRegistry()
	if err := challenge.RegisterCommands(commands); err != nil {
		return Registries{}, fmt.Errorf("register commands: %w", err)
	}
	events := event.NewRegistry()
	if err := challenge.RegisterEvents(events); err != nil {
		return Registries{}, fmt.Errorf("register events: %w", err)
	}
	return Registries{Commands: commands, Events: events}, nil
}
