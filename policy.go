package relay

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance.
var validate = validator.New()

// RetryPolicy governs automatic re-invocation of failed operations.
// Delays grow exponentially from BaseDelay by Multiplier per attempt,
// capped at MaxDelay.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations per retry cycle,
	// including the first.
	MaxAttempts int `validate:"gte=1"`

	// BaseDelay is the delay before the first automatic retry.
	BaseDelay time.Duration `validate:"gt=0"`

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64 `validate:"gte=1"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `validate:"gtefield=BaseDelay"`
}

// DefaultPolicy is a reasonable starting point: three attempts, one second
// base delay, doubling, capped at thirty seconds.
var DefaultPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	Multiplier:  2,
	MaxDelay:    30 * time.Second,
}

// Validate checks the policy constraints. Start() rejects subscriptions
// built with an invalid policy.
func (p RetryPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}
	return nil
}

// Delay returns the backoff delay after the given failed attempt (1-based):
// min(BaseDelay * Multiplier^(attempt-1), MaxDelay). Nondecreasing in the
// attempt number.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
		if d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if d >= float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}
