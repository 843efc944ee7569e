package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/lib/pq"
)

const (
	defaultMaxAttempts  = 4
	defaultRetryBackoff = 200 * time.Millisecond
)

// withRetry retries transient store failures (dropped connections, serialization
// failures, deadlocks) using exponential backoff while respecting context cancellation.
func withRetry(ctx context.Context, maxAttempts int, backoff time.Duration, op func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) || attempt == maxAttempts {
			return lastErr
		}

		log.Printf("⚠️  Transient database error (attempt %d/%d), retrying in %v: %v", attempt, maxAttempts, backoff, err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return lastErr
}

// isTransient reports whether err is worth retrying
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08": // connection exception
			return true
		}
		switch pqErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"57P01", // admin_shutdown
			"57P03": // cannot_connect_now
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// TransientError marks a failure that survived all retry attempts
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient store failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// wrap annotates a store error with the operation name
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return &TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
