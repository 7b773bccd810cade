package extract

import (
	"context"
	"strings"
	"time"

	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/logger"
)

// Policy controls the retry loop around extraction.
type Policy struct {
	// Attempts is the total number of tries.
	Attempts int
	// Backoff returns the wait before retrying after ordinary failures;
	// attempt is 1-based.
	Backoff func(attempt int) time.Duration
	// Settle is the wait after a disconnection-pattern failure, giving the
	// page time to finish loading before the refetch.
	Settle time.Duration
}

// DefaultPolicy: three tries with linear backoff and a 2s reload settle.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		Settle:   2 * time.Second,
	}
}

// Result is a successful extraction plus the method that produced it, which
// can differ from the requested method when the fallback kicked in.
type Result struct {
	Content string
	Method  string
}

// disconnectionPatterns mark transient transport interruptions that warrant
// a settle-and-refetch rather than a user-visible error.
var disconnectionPatterns = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"unexpected EOF",
	"no such host",
}

// IsDisconnection reports whether err matches a transient transport
// interruption. Callers use it to flag a tab as waiting for a reload rather
// than surfacing a hard error.
func IsDisconnection(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range disconnectionPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// isContentFailure reports an extraction that ran but found nothing usable.
// These are the failures worth switching methods over.
func isContentFailure(err error) bool {
	return errors.Is(err, errors.KindExtract) && !IsDisconnection(err)
}

// LoadWithRetry runs the extractor with the policy's retry loop. When the
// primary extractor fails to find content and a fallback is configured, the
// loop switches to the fallback once and stays on it. Restricted pages fail
// immediately; retrying cannot help them.
func LoadWithRetry(ctx context.Context, policy Policy, primary, fallback Extractor, pageURL string) (Result, error) {
	current := primary
	fallbackUsed := fallback == nil

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		content, err := current.Extract(ctx, pageURL)
		if err == nil {
			return Result{Content: content, Method: current.Name()}, nil
		}
		lastErr = err

		if errors.Is(err, errors.KindPermission) {
			return Result{}, err
		}
		if ctx.Err() != nil {
			return Result{}, lastErr
		}

		switch {
		case IsDisconnection(err):
			// The connection dropped mid-fetch; give the page time to
			// settle and refetch instead of surfacing an error.
			logger.Warn("Extract: Disconnection during %s attempt %d for %s, settling %v",
				current.Name(), attempt, pageURL, policy.Settle)
			if !sleep(ctx, policy.Settle) {
				return Result{}, lastErr
			}

		case isContentFailure(err) && !fallbackUsed:
			logger.Info("Extract: %s found no content for %s, falling back to %s",
				current.Name(), pageURL, fallback.Name())
			current = fallback
			fallbackUsed = true

		default:
			if attempt < policy.Attempts {
				wait := policy.Backoff(attempt)
				logger.Debug("Extract: Attempt %d/%d failed for %s, retrying in %v: %v",
					attempt, policy.Attempts, pageURL, wait, err)
				if !sleep(ctx, wait) {
					return Result{}, lastErr
				}
			}
		}
	}
	return Result{}, lastErr
}

// sleep waits for d or until the context is cancelled. Returns false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
