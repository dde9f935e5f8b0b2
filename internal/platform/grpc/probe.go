package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ProbeStage describes where a probe failed.
type ProbeStage string

const (
	// ProbeStageConnect indicates the client could not be built.
	ProbeStageConnect ProbeStage = "connect"
	// ProbeStageHealth indicates the health check never reported SERVING.
	ProbeStageHealth ProbeStage = "health"
)

// ProbeError wraps probe failures with a stage indicator.
type ProbeError struct {
	Stage ProbeStage
	Err   error
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	if e == nil {
		return "gRPC probe error"
	}
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ClientOptions returns dial options for local plaintext clients with trace
// propagation.
func ClientOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Probe connects to addr and waits up to timeout for service to report
// SERVING. It is the container health check for the quest daemon.
func Probe(ctx context.Context, addr, service string, timeout time.Duration, logf func(string, ...any)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return &ProbeError{Stage: ProbeStageConnect, Err: fmt.Errorf("address is required")}
	}
	conn, err := gogrpc.NewClient(addr, ClientOptions()...)
	if err != nil {
		return &ProbeError{Stage: ProbeStageConnect, Err: err}
	}
	defer conn.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := WaitForHealth(ctx, conn, service, logf); err != nil {
		return &ProbeError{Stage: ProbeStageHealth, Err: err}
	}
	return nil
}
