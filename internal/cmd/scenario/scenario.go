// Package scenario parses scenario command flags and runs a Lua script.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/chronoquest/internal/platform/cmd"
	questsqlite "github.com/louisbranch/chronoquest/internal/services/quest/storage/sqlite"
	"github.com/louisbranch/chronoquest/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario    string        `env:"CHRONOQUEST_SCENARIO_FILE"`
	SelfID      string        `env:"CHRONOQUEST_SELF_ID"           envDefault:"program"`
	UnitSeconds uint64        `env:"CHRONOQUEST_UNIT_SECONDS"      envDefault:"3"`
	Start       string        `env:"CHRONOQUEST_SCENARIO_START"`
	JournalPath string        `env:"CHRONOQUEST_SCENARIO_JOURNAL"`
	Assertions  bool          `env:"CHRONOQUEST_SCENARIO_ASSERT"   envDefault:"true"`
	Verbose     bool          `env:"CHRONOQUEST_SCENARIO_VERBOSE"`
	Events      bool          `env:"CHRONOQUEST_SCENARIO_EVENTS"   envDefault:"true"`
	Timeout     time.Duration `env:"CHRONOQUEST_SCENARIO_TIMEOUT"  envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.SelfID, "self-id", cfg.SelfID, "program account id used for scheduled commands")
	fs.Uint64Var(&cfg.UnitSeconds, "unit-seconds", cfg.UnitSeconds, "seconds per host time unit")
	fs.StringVar(&cfg.Start, "start", cfg.Start, "simulated start time (RFC 3339)")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "optional sqlite file to journal events into")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.BoolVar(&cfg.Events, "events", cfg.Events, "print committed events")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Scenario == "" && fs.NArg() > 0 {
		cfg.Scenario = fs.Arg(0)
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if strings.TrimSpace(cfg.Scenario) == "" {
		return errors.New("scenario path is required")
	}

	runnerCfg := scenario.DefaultConfig()
	runnerCfg.SelfID = cfg.SelfID
	runnerCfg.UnitSeconds = cfg.UnitSeconds
	runnerCfg.Timeout = cfg.Timeout
	runnerCfg.Verbose = cfg.Verbose
	runnerCfg.Logger = log.New(errOut, "", 0)
	if !cfg.Assertions {
		runnerCfg.Assertions = scenario.AssertionLogOnly
	}
	if cfg.Events {
		runnerCfg.Out = out
	}
	if cfg.Start != "" {
		start, err := time.Parse(time.RFC3339, cfg.Start)
		if err != nil {
			return fmt.Errorf("parse start time: %w", err)
		}
		runnerCfg.Start = start
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context) error {
		if cfg.JournalPath != "" {
			store, err := questsqlite.Open(cfg.JournalPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()
			runnerCfg.Journal = store
		}
		return scenario.RunFile(ctx, runnerCfg, cfg.Scenario)
	})
}
