// Package app wires the challenge program to durable storage and serves it:
// a command actor over the sqlite journal, the scheduled-delivery loop, a
// gRPC health endpoint, Prometheus metrics, and the MCP tool surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	entrypoint "github.com/louisbranch/chronoquest/internal/platform/cmd"
	"github.com/louisbranch/chronoquest/internal/platform/timeouts"
	"github.com/louisbranch/chronoquest/internal/services/quest/api/questmcp"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	questsqlite "github.com/louisbranch/chronoquest/internal/services/quest/storage/sqlite"
)

// HealthService is the gRPC health service name reported by the runtime.
const HealthService = "quest.runtime"

const (
	defaultQuestPort = 8090
	defaultQuestDB   = "data/quest.db"
)

// RuntimeConfig controls quest startup, host identity, and delivery behavior.
type RuntimeConfig struct {
	Port         int
	DBPath       string
	SelfID       string
	UnitSeconds  uint64
	PollInterval time.Duration
	MetricsAddr  string
	MCPTransport questmcp.TransportKind
	MCPHTTPAddr  string
	// Clock overrides wall time; tests use it to travel.
	Clock host.Clock
	// Ready, when set, receives the bound gRPC address once serving.
	Ready func(addr string)
}

// Run opens storage, replays the journal, and serves until ctx is done.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	if strings.TrimSpace(cfg.SelfID) == "" {
		return host.ErrSelfIDRequired
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultQuestPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultQuestDB
	}
	clock := cfg.Clock
	if clock == nil {
		clock = host.ClockFunc(func() time.Time { return time.Now().UTC() })
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create quest storage dir: %w", err)
		}
	}
	store, err := questsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open quest sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close quest sqlite store: %v", closeErr)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	hostConfig := host.Config{SelfID: account.ID(cfg.SelfID), UnitSeconds: cfg.UnitSeconds}
	hostConfig, err = hostConfig.Normalize()
	if err != nil {
		return err
	}
	service, err := NewService(runCtx, ServiceConfig{
		Host:       hostConfig,
		Journal:    store,
		Scheduler:  newStoreScheduler(store, clock, hostConfig.UnitSeconds),
		Transferer: &ledgerTransferer{store: store, clock: clock},
		Clock:      clock,
		Logf:       log.Printf,
	})
	if err != nil {
		return err
	}
	count, err := service.Queries().TotalChallengeCount(runCtx)
	if err != nil {
		return fmt.Errorf("count challenges: %w", err)
	}
	pending, err := store.CountPendingSchedules(runCtx)
	if err != nil {
		return fmt.Errorf("count pending schedules: %w", err)
	}
	log.Printf("quest journal replayed: %d challenges, %d pending deliveries", count, pending)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on quest port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	if strings.TrimSpace(cfg.MetricsAddr) != "" {
		stopMetrics, err := serveMetrics(cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	loop := DeliveryLoop{
		Store:        store,
		Dispatch:     service.Dispatch,
		Clock:        clock,
		PollInterval: cfg.PollInterval,
		Logf:         log.Printf,
	}
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(runCtx)
	}()
	defer func() {
		cancel()
		<-loopDone
	}()

	mcpServer, err := questmcp.NewServer(questmcp.Deps{
		Dispatcher: service,
		Queries:    service.Queries(),
		Transfers:  store,
		Clock:      clock,
	})
	if err != nil {
		return err
	}

	log.Printf("quest server listening at %v (ready in %s)", listener.Addr(), entrypoint.Elapsed(started))
	if cfg.Ready != nil {
		cfg.Ready(listener.Addr().String())
	}

	mcpErr := make(chan error, 1)
	go func() {
		mcpErr <- questmcp.Serve(runCtx, mcpServer, questmcp.Config{
			Transport: cfg.MCPTransport,
			HTTPAddr:  cfg.MCPHTTPAddr,
		})
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-mcpErr:
		// stdio ends when the client disconnects.
		mcpErr <- err
		runErr = err
	case err := <-serveErr:
		serveErr <- err
		runErr = fmt.Errorf("serve quest gRPC: %w", err)
	case <-service.Done():
		if ctx.Err() == nil {
			runErr = errors.New("quest command actor stopped")
		}
	}
	cancel()
	<-mcpErr
	return runErr
}

// serveMetrics exposes the Prometheus registry on addr.
func serveMetrics(addr string) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on metrics address %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: timeouts.ReadHeader}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("serve metrics: %v", err)
		}
	}()
	log.Printf("metrics listening at %v", listener.Addr())
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown metrics: %v", err)
		}
		<-done
	}, nil
}
