package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const testService = "quest.runtime"

// healthFixture is a live health server on a loopback port.
type healthFixture struct {
	addr   string
	health *health.Server
}

func newHealthFixture(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) *healthFixture {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	fixture := &healthFixture{addr: listener.Addr().String(), health: health.NewServer()}
	grpc_health_v1.RegisterHealthServer(server, fixture.health)
	fixture.set(status)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		server.Stop()
		<-done
	})
	return fixture
}

func (f *healthFixture) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	f.health.SetServingStatus("", status)
	f.health.SetServingStatus(testService, status)
}

func (f *healthFixture) conn(t *testing.T) *gogrpc.ClientConn {
	t.Helper()
	conn, err := gogrpc.NewClient(f.addr, ClientOptions()...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type logRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *logRecorder) logf(format string, _ ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, format)
}

func (r *logRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func TestWaitForHealthReturnsWhenServing(t *testing.T) {
	for _, service := range []string{"", testService} {
		fixture := newHealthFixture(t, grpc_health_v1.HealthCheckResponse_SERVING)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		var logs logRecorder
		err := WaitForHealth(ctx, fixture.conn(t), service, logs.logf)
		cancel()
		if err != nil {
			t.Fatalf("wait for %q: %v", service, err)
		}
		if logs.count() == 0 {
			t.Fatalf("no log line for %q once serving", service)
		}
	}
}

func TestWaitForHealthPollsUntilServing(t *testing.T) {
	fixture := newHealthFixture(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	conn := fixture.conn(t)
	time.AfterFunc(250*time.Millisecond, func() {
		fixture.set(grpc_health_v1.HealthCheckResponse_SERVING)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var logs logRecorder
	if err := WaitForHealth(ctx, conn, testService, logs.logf); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if logs.count() < 2 {
		t.Fatalf("log lines = %d, want a waiting line before serving", logs.count())
	}
}

func TestWaitForHealthStopsWithContext(t *testing.T) {
	fixture := newHealthFixture(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := WaitForHealth(ctx, fixture.conn(t), testService, nil)
	if err == nil {
		t.Fatal("expected context error")
	}
	if ctx.Err() == nil {
		t.Fatal("returned before the context ended")
	}
}

func TestWaitForHealthNilConn(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, testService, nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}
