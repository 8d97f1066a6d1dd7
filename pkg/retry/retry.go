package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration
}

// DefaultConfig returns a default retry configuration with 1 minute max timeout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (c Config) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.InitialDelay
	exp.MaxInterval = c.MaxDelay
	exp.Multiplier = c.BackoffFactor
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = c.MaxTotalTimeout
	exp.Reset()

	var b backoff.BackOff = exp
	if c.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(c.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Do executes fn with exponential backoff, logging every failed attempt
// under serviceName. It stops early when ctx is done or fn returns a
// Permanent error.
func Do(ctx context.Context, cfg Config, serviceName string, fn func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		return fn(ctx)
	}
	notify := func(err error, next time.Duration) {
		log.Warn().
			Err(err).
			Str("service", serviceName).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("connection attempt failed")
	}

	if err := backoff.RetryNotify(operation, cfg.policy(ctx), notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: retry aborted after %d attempts: %w (last error: %v)", serviceName, attempt, ctxErr, err)
		}
		return fmt.Errorf("%s: gave up after %d attempts: %w", serviceName, attempt, err)
	}
	return nil
}
