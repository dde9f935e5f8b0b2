package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/chronoquest/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("CHRONOQUEST_OTEL_ENDPOINT", "")

	shutdown, err := otel.Setup(context.Background(), "quest-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupNoopWhenDisabled(t *testing.T) {
	t.Setenv("CHRONOQUEST_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("CHRONOQUEST_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "quest-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupRejectsBadSampleRatio(t *testing.T) {
	t.Setenv("CHRONOQUEST_OTEL_SAMPLE_RATIO", "often")
	if _, err := otel.Setup(context.Background(), "quest-test"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	t.Setenv("CHRONOQUEST_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("CHRONOQUEST_OTEL_ENABLED", "true")

	shutdown, err := otel.Setup(context.Background(), "quest-test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
