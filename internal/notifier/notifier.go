package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LPSentinel/internal/logger"
)

const notifyLog = logger.Component("notifier")

// Notifier delivers a fully formatted message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Multi fans a message out to every target. Delivery succeeds if at least
// one target accepted it; otherwise all errors are joined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, text string) error {
	if len(m) == 0 {
		return errors.New("no notification targets configured")
	}
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m) {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		notifyLog.L().Warn().Err(err).Msg("partial delivery failure")
	}
	return nil
}

// Retrying retries a failed send with exponential backoff starting at Base.
type Retrying struct {
	Next    Notifier
	Retries int
	Base    time.Duration
}

// WithRetry wraps n so that each Send is attempted up to retries+1 times.
func WithRetry(n Notifier, retries int, base time.Duration) Notifier {
	if retries <= 0 {
		return n
	}
	return &Retrying{Next: n, Retries: retries, Base: base}
}

func (r *Retrying) Send(ctx context.Context, text string) error {
	var lastErr error
	for i := 0; i <= r.Retries; i++ {
		err := r.Next.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == r.Retries {
			break
		}
		backoff := r.Base * time.Duration(1<<uint(i))
		notifyLog.L().Warn().
			Err(err).
			Int("attempt", i+1).
			Int("attempts", r.Retries+1).
			Dur("backoff", backoff).
			Msg("send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", r.Retries+1, lastErr)
}

// Discard accepts and drops every message. Used by dry runs.
type Discard struct{}

func (Discard) Send(context.Context, string) error { return nil }
