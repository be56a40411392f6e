package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/resilience"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: 10 * time.Millisecond}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_RetriesOnFailure(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: 10 * time.Millisecond}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		if callCount < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_StopsOnPermanent(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return resilience.Permanent(errors.New("bad request"))
	})

	if !resilience.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_RespectsContext(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("error")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestCall_MapsErrors(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("test")

	got, err := resilience.Call(context.Background(), cb, cfg, "agent", func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q, %v", got, err)
	}

	_, err = resilience.Call(context.Background(), cb, cfg, "agent", func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) || ext.Service != "agent" {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestCall_OpenCircuit(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("trip")

	for i := 0; i < 5; i++ {
		_, _ = resilience.Call(context.Background(), cb, cfg, "agent", func(context.Context) (int, error) {
			return 0, errors.New("down")
		})
	}

	_, err := resilience.Call(context.Background(), cb, cfg, "agent", func(context.Context) (int, error) {
		return 1, nil
	})
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCall_Timeout(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := resilience.Call(ctx, cb, cfg, "price", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	var timeout *domain.ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestBulkhead_AcquireRelease(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := bh.Acquire(ctx); err == nil {
		t.Fatal("expected timeout on third acquire")
	}

	bh.Release()

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}
