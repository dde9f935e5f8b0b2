// Package scenario runs Lua-scripted challenge scenarios against an
// in-process engine with a simulated clock.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/engine"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
)

// DefaultStart is the simulated clock at the beginning of every scenario.
var DefaultStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// Config controls scenario execution.
type Config struct {
	// Start is the initial simulated time; zero means DefaultStart.
	Start       time.Time
	SelfID      string
	UnitSeconds uint64
	Timeout     time.Duration
	Assertions  AssertionMode
	Verbose     bool
	Logger      *log.Logger
	// Out receives one line per committed event when set.
	Out io.Writer
	// Journal, when set, persists every committed event.
	Journal engine.EventJournal
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Start:       DefaultStart,
		SelfID:      "program",
		UnitSeconds: host.DefaultUnitSeconds,
		Timeout:     10 * time.Second,
		Assertions:  AssertionStrict,
	}
}

// Runner executes scenarios. Each scenario starts from an empty registry.
type Runner struct {
	cfg        Config
	registries engine.Registries
	assertions Assertions
	logger     *log.Logger
	timeout    time.Duration
}

// NewRunner validates cfg and prepares a runner.
func NewRunner(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultStart
	}
	if cfg.SelfID == "" {
		cfg.SelfID = "program"
	}
	hostConfig, err := host.Config{SelfID: hostAccount(cfg.SelfID), UnitSeconds: cfg.UnitSeconds}.Normalize()
	if err != nil {
		return nil, err
	}
	cfg.UnitSeconds = hostConfig.UnitSeconds
	registries, err := engine.BuildRegistries()
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}
	return &Runner{
		cfg:        cfg,
		registries: registries,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		timeout:    timeout,
	}, nil
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	runner, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	run := r.newRun()

	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, run, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.cfg.Verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
