package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/chronoquest/internal/platform/actor"
	"github.com/louisbranch/chronoquest/internal/platform/id"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/aggregate"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/replay"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/query"
	"github.com/louisbranch/chronoquest/internal/services/quest/storage"
)

// ErrJournalRequired indicates a service configured without an event journal.
var ErrJournalRequired = errors.New("event journal is required")

// ServiceConfig wires the quest service to its host and journal.
type ServiceConfig struct {
	Host       host.Config
	Journal    storage.EventStore
	Scheduler  host.Scheduler
	Transferer host.Transferer
	Clock      host.Clock
	Logf       func(format string, args ...any)
}

// Service owns the challenge registry. Commands run one at a time through an
// actor; reads share a lock with the actor so they never observe a command
// half applied.
type Service struct {
	mu      sync.RWMutex
	state   aggregate.State
	handler engine.Handler
	actor   *actor.Actor[command.Command, engine.Result]
}

// NewService replays the journal and starts the command actor. The actor
// stops when ctx is done.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Journal == nil {
		return nil, ErrJournalRequired
	}
	hostConfig, err := cfg.Host.Normalize()
	if err != nil {
		return nil, err
	}
	registries, err := engine.BuildRegistries()
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}

	replayed, err := replay.Replay(ctx, cfg.Journal, aggregate.Fold, aggregate.NewState(), replay.Options{})
	if err != nil {
		return nil, fmt.Errorf("replay journal: %w", err)
	}
	state := replayed.State

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock.Now
	}
	s := &Service{
		state: state,
		handler: engine.Handler{
			Commands:   registries.Commands,
			Events:     registries.Events,
			Journal:    cfg.Journal,
			Scheduler:  cfg.Scheduler,
			Transferer: cfg.Transferer,
			Host:       hostConfig,
			Now:        now,
			Logf:       cfg.Logf,
		},
	}
	s.actor = actor.New(ctx, s.handle)
	return s, nil
}

// Dispatch runs cmd and waits for its result. A command without a request id
// gets a fresh one, which also becomes its correlation id.
func (s *Service) Dispatch(ctx context.Context, cmd command.Command) (engine.Result, error) {
	if strings.TrimSpace(cmd.RequestID) == "" {
		requestID, err := id.NewID()
		if err != nil {
			return engine.Result{}, fmt.Errorf("generate request id: %w", err)
		}
		cmd.RequestID = requestID
	}
	if strings.TrimSpace(cmd.CorrelationID) == "" {
		cmd.CorrelationID = cmd.RequestID
	}
	return s.actor.Call(ctx, cmd)
}

// Read implements query.Reader.
func (s *Service) Read(ctx context.Context, fn func(aggregate.State)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
	return nil
}

// Queries returns a query service over the live registry.
func (s *Service) Queries() query.Service {
	return query.Service{Reader: s}
}

// Done is closed once the command actor stops.
func (s *Service) Done() <-chan struct{} {
	return s.actor.Done()
}

func (s *Service) handle(ctx context.Context, cmd command.Command) (engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.handler.Execute(ctx, s.state, cmd)
	// Committed events are already folded in place, even when err is set.
	s.state = result.State
	return result, err
}

var _ query.Reader = (*Service)(nil)
