package scenario

import (
	"context"
	"fmt"
	"strconv"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/aggregate"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/host/fakehost"
	"github.com/louisbranch/chronoquest/internal/services/quest/query"
)

// scenarioRun is the mutable world of one scenario.
type scenarioRun struct {
	host     *fakehost.Host
	handler  engine.Handler
	state    aggregate.State
	aliases  map[string]uint64
	last     uint64
	hasLast  bool
	requests int
}

func (r *Runner) newRun() *scenarioRun {
	fake := fakehost.New(r.cfg.Start, r.cfg.UnitSeconds)
	return &scenarioRun{
		host: fake,
		handler: engine.Handler{
			Commands:   r.registries.Commands,
			Events:     r.registries.Events,
			Journal:    r.cfg.Journal,
			Scheduler:  fake,
			Transferer: fake,
			Host:       host.Config{SelfID: hostAccount(r.cfg.SelfID), UnitSeconds: r.cfg.UnitSeconds},
			Now:        fake.Now,
			Logf:       r.logf,
		},
		state:   aggregate.NewState(),
		aliases: map[string]uint64{},
	}
}

// Read implements query.Reader.
func (s *scenarioRun) Read(ctx context.Context, fn func(aggregate.State)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn(s.state)
	return nil
}

func (s *scenarioRun) queries() query.Service {
	return query.Service{Reader: s}
}

// execute runs cmd with a scenario-local request id.
func (s *scenarioRun) execute(ctx context.Context, cmd command.Command) (engine.Result, error) {
	s.requests++
	if cmd.RequestID == "" {
		cmd.RequestID = "scenario-" + strconv.Itoa(s.requests)
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = cmd.RequestID
	}
	result, err := s.handler.Execute(ctx, s.state, cmd)
	s.state = result.State
	return result, err
}

// resolve maps a challenge reference (alias, id, or nothing for the last
// created challenge) to an id.
func (s *scenarioRun) resolve(ref any) (uint64, error) {
	switch value := ref.(type) {
	case nil:
		if !s.hasLast {
			return 0, fmt.Errorf("no challenge created yet")
		}
		return s.last, nil
	case string:
		id, ok := s.aliases[value]
		if !ok {
			return 0, fmt.Errorf("unknown challenge alias %q", value)
		}
		return id, nil
	default:
		id, err := toUint64(value)
		if err != nil {
			return 0, fmt.Errorf("challenge reference: %w", err)
		}
		return id, nil
	}
}

func hostAccount(value string) account.ID {
	return account.ID(value)
}
