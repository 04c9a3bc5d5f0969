package executor

import (
	"math/rand"
	"time"

	"github.com/orbit-sync/orbit/daemon/config"
	"github.com/orbit-sync/orbit/internal/orbiterr"
)

// outcome is what withRetry returns once the operation stops retrying.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeSkipped
	outcomeFailed
)

// withRetry runs op up to retryAttempts+1 times, applying the exact
// ordering from spec §4.8 / §7: fatal errors never retry; non-transient
// ("permanent") errors never retry either, regardless of error_mode, as an
// optimization; otherwise error_mode governs whether to abort, skip, or
// keep retrying. Sleep delay follows §4.8: retry_delay * 2^(attempt-1)
// capped at 5 minutes, plus up to 20% jitter when exponential_backoff is
// set; otherwise a fixed retry_delay.
func withRetry(cfg config.Config, onRetry func(attempt uint32), op func() error) (outcome, error) {
	var lastErr error
	var attempt uint32

	for attempt = 0; attempt <= cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoffDelay(cfg, attempt))
			if onRetry != nil {
				onRetry(attempt)
			}
		}

		err := op()
		if err == nil {
			return outcomeSuccess, nil
		}

		if orbiterr.Fatal(err) {
			return outcomeFailed, err
		}

		if !orbiterr.Transient(err) {
			if cfg.ErrorMode == config.ErrorModeSkip {
				return outcomeSkipped, err
			}
			return outcomeFailed, err
		}

		switch cfg.ErrorMode {
		case config.ErrorModeAbort:
			return outcomeFailed, err
		case config.ErrorModeSkip:
			return outcomeSkipped, err
		case config.ErrorModePartial:
			// fall through to retry
		}

		lastErr = err
	}

	return outcomeFailed, lastErr
}

func backoffDelay(cfg config.Config, attempt uint32) time.Duration {
	if !cfg.ExponentialBackoff {
		return time.Duration(cfg.RetryDelaySecs) * time.Second
	}
	base := cfg.RetryDelaySecs * pow2(attempt-1)
	capped := base
	if capped > 300 {
		capped = 300
	}
	jitterRange := capped * 200 // 20% of capped seconds, in milliseconds
	var jitter uint64
	if jitterRange > 0 {
		jitter = uint64(rand.Int63n(int64(jitterRange)))
	}
	return time.Duration(capped*1000+jitter) * time.Millisecond
}

func pow2(exp uint32) uint64 {
	result := uint64(1)
	for i := uint32(0); i < exp; i++ {
		result *= 2
	}
	return result
}
