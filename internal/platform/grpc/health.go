// Package grpc holds client-side helpers for the quest gRPC health endpoint.
package grpc

import (
	"context"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	initialHealthBackoff = 200 * time.Millisecond
	maxHealthBackoff     = time.Second
	healthCallTimeout    = time.Second
)

// WaitForHealth blocks until service reports SERVING or the context ends.
// An empty service name checks the server as a whole.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	healthClient := grpc_health_v1.NewHealthClient(conn)
	backoff := initialHealthBackoff
	for {
		callCtx, cancel := context.WithTimeout(ctx, healthCallTimeout)
		response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && response.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			if logf != nil {
				logf("gRPC health check for %q is SERVING", service)
			}
			return nil
		}
		if logf != nil {
			if err != nil {
				logf("waiting for gRPC health: %v", err)
			} else {
				logf("waiting for gRPC health: status %s", response.GetStatus().String())
			}
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, maxHealthBackoff)
	}
}
