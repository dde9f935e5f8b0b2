package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCallSerializes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running, maxRunning int
	counter := 0
	a := New(ctx, func(_ context.Context, n int) (int, error) {
		running++
		if running > maxRunning {
			maxRunning = running
		}
		counter += n
		running--
		return counter, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Call(context.Background(), 1); err != nil {
				t.Errorf("call: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := a.Call(context.Background(), 0)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != 50 {
		t.Fatalf("counter = %d, want 50", got)
	}
	if maxRunning != 1 {
		t.Fatalf("max concurrent = %d, want 1", maxRunning)
	}
}

func TestCallReturnsHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	boom := errors.New("boom")
	a := New(ctx, func(context.Context, string) (string, error) { return "", boom })
	if _, err := a.Call(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestCallAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := New(ctx, func(_ context.Context, n int) (int, error) { return n, nil })
	cancel()
	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("actor did not stop")
	}
	if _, err := a.Call(context.Background(), 1); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want %v", err, ErrStopped)
	}
}

func TestCallHonorsCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	release := make(chan struct{})
	a := New(ctx, func(_ context.Context, n int) (int, error) {
		<-release
		return n, nil
	})
	defer close(release)

	callCtx, callCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer callCancel()
	if _, err := a.Call(callCtx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want %v", err, context.DeadlineExceeded)
	}
}
