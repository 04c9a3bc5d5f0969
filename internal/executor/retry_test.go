package executor

import (
	"errors"
	"testing"

	"github.com/orbit-sync/orbit/daemon/config"
	"github.com/orbit-sync/orbit/internal/orbiterr"
)

func TestWithRetryAbortModeStopsOnFirstError(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ErrorMode = config.ErrorModeAbort
	cfg.RetryAttempts = 3

	attempts := 0
	result, err := withRetry(cfg, nil, func() error {
		attempts++
		return orbiterr.New(orbiterr.Network, "boom", errors.New("boom"))
	})
	if result != outcomeFailed || err == nil {
		t.Fatalf("expected failed outcome, got %v/%v", result, err)
	}
	if attempts != 1 {
		t.Fatalf("abort mode should not retry, got %d attempts", attempts)
	}
}

func TestWithRetryExhaustsAllAttempts(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ErrorMode = config.ErrorModePartial
	cfg.RetryAttempts = 3
	cfg.RetryDelaySecs = 0
	cfg.ExponentialBackoff = false

	attempts := 0
	var retries int
	result, err := withRetry(cfg, func(uint32) { retries++ }, func() error {
		attempts++
		return orbiterr.New(orbiterr.Network, "boom", errors.New("boom"))
	})
	if result != outcomeFailed || err == nil {
		t.Fatalf("expected failed outcome, got %v/%v", result, err)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 attempts (1 + 3 retries), got %d", attempts)
	}
	if retries != 3 {
		t.Fatalf("expected 3 retries recorded, got %d", retries)
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ErrorMode = config.ErrorModePartial
	cfg.RetryAttempts = 3
	cfg.RetryDelaySecs = 0

	attempts := 0
	result, err := withRetry(cfg, nil, func() error {
		attempts++
		if attempts < 3 {
			return orbiterr.New(orbiterr.Network, "boom", errors.New("boom"))
		}
		return nil
	})
	if result != outcomeSuccess || err != nil {
		t.Fatalf("expected success, got %v/%v", result, err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryFatalNeverRetries(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ErrorMode = config.ErrorModePartial
	cfg.RetryAttempts = 5

	attempts := 0
	_, err := withRetry(cfg, nil, func() error {
		attempts++
		return orbiterr.New(orbiterr.Validation, "source not found", nil)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("fatal errors must never retry, got %d attempts", attempts)
	}
}

func TestWithRetryPermanentNonTransientNeverRetriesEvenInPartial(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ErrorMode = config.ErrorModePartial
	cfg.RetryAttempts = 5

	attempts := 0
	_, err := withRetry(cfg, nil, func() error {
		attempts++
		return orbiterr.New(orbiterr.Permission, "denied", nil) // non-transient, non-fatal
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("permanent non-transient errors should stop immediately even in Partial mode, got %d attempts", attempts)
	}
}

func TestWithRetrySkipModeOnPermanentErrorReturnsSkipped(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ErrorMode = config.ErrorModeSkip
	cfg.RetryAttempts = 5

	result, err := withRetry(cfg, nil, func() error {
		return orbiterr.New(orbiterr.Permission, "denied", nil)
	})
	if result != outcomeSkipped || err == nil {
		t.Fatalf("expected skipped outcome, got %v/%v", result, err)
	}
}

func TestBackoffDelayFixedWhenExponentialDisabled(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ExponentialBackoff = false
	cfg.RetryDelaySecs = 2

	d1 := backoffDelay(cfg, 1)
	d2 := backoffDelay(cfg, 2)
	if d1.Seconds() != 2 || d2.Seconds() != 2 {
		t.Fatalf("fixed backoff should not scale with attempt, got %v / %v", d1, d2)
	}
}

func TestBackoffDelayExponentialGrowsAndCaps(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.ExponentialBackoff = true
	cfg.RetryDelaySecs = 100

	d3 := backoffDelay(cfg, 3) // 100*2^2 = 400, capped at 300, plus under 20% (60s) jitter
	if d3.Seconds() < 300 || d3.Seconds() >= 360 {
		t.Fatalf("expected delay capped at 300s plus under 60s jitter, got %v", d3)
	}
}
