// Package quest parses quest command flags and starts the challenge runtime.
package quest

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/louisbranch/chronoquest/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/chronoquest/internal/platform/grpc"
	"github.com/louisbranch/chronoquest/internal/services/quest/api/questmcp"
	server "github.com/louisbranch/chronoquest/internal/services/quest/app"
)

// Config holds quest command configuration.
type Config struct {
	Port         int           `env:"CHRONOQUEST_GRPC_PORT"      envDefault:"8090"`
	DBPath       string        `env:"CHRONOQUEST_DB_PATH"        envDefault:"data/quest.db"`
	SelfID       string        `env:"CHRONOQUEST_SELF_ID"`
	UnitSeconds  uint64        `env:"CHRONOQUEST_UNIT_SECONDS"   envDefault:"3"`
	PollInterval time.Duration `env:"CHRONOQUEST_POLL_INTERVAL"  envDefault:"2s"`
	MetricsAddr  string        `env:"CHRONOQUEST_METRICS_ADDR"`
	MCPTransport string        `env:"CHRONOQUEST_MCP_TRANSPORT"  envDefault:"stdio"`
	MCPHTTPAddr  string        `env:"CHRONOQUEST_MCP_HTTP_ADDR"  envDefault:"localhost:8081"`
	// Probe checks a running server's health instead of starting one.
	Probe        bool
	ProbeTimeout time.Duration `env:"CHRONOQUEST_PROBE_TIMEOUT"  envDefault:"5s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The quest gRPC health port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the quest sqlite database")
	fs.StringVar(&cfg.SelfID, "self-id", cfg.SelfID, "Account id of the program itself")
	fs.Uint64Var(&cfg.UnitSeconds, "unit-seconds", cfg.UnitSeconds, "Seconds per host time unit")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Scheduled delivery poll interval")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus listen address (empty disables)")
	fs.StringVar(&cfg.MCPTransport, "mcp-transport", cfg.MCPTransport, "MCP transport: stdio, http, or none")
	fs.StringVar(&cfg.MCPHTTPAddr, "mcp-http-addr", cfg.MCPHTTPAddr, "MCP HTTP listen address")
	fs.BoolVar(&cfg.Probe, "probe", cfg.Probe, "Check the health of a running quest server and exit")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "How long -probe waits for SERVING")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the quest runtime, or probes a running one.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Probe {
		addr := fmt.Sprintf("localhost:%d", cfg.Port)
		return platformgrpc.Probe(ctx, addr, server.HealthService, cfg.ProbeTimeout, log.Printf)
	}
	transport, err := questmcp.ParseTransportKind(cfg.MCPTransport)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceQuest, func(ctx context.Context) error {
		return server.Run(ctx, server.RuntimeConfig{
			Port:         cfg.Port,
			DBPath:       cfg.DBPath,
			SelfID:       cfg.SelfID,
			UnitSeconds:  cfg.UnitSeconds,
			PollInterval: cfg.PollInterval,
			MetricsAddr:  cfg.MetricsAddr,
			MCPTransport: transport,
			MCPHTTPAddr:  cfg.MCPHTTPAddr,
		})
	})
}
