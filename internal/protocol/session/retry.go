package session

import (
	"math/rand"
	"time"
)

// DelayFor returns the wait before reconnect attempt n (1-based). The default
// RetryConfig has multiplier 1.0 and no jitter, so every attempt waits the
// same fixed delay; growth and jitter are opt-in.
func (rc RetryConfig) DelayFor(n int, rng *rand.Rand) time.Duration {
	if rc.InitialDelay <= 0 {
		return 0
	}
	delay := rc.InitialDelay
	for i := 1; i < n && rc.Multiplier > 1.0; i++ {
		delay = time.Duration(float64(delay) * rc.Multiplier)
		if rc.MaxDelay > 0 && delay >= rc.MaxDelay {
			delay = rc.MaxDelay
			break
		}
	}
	if rc.Jitter {
		f := 0.5
		if rng != nil {
			f += rng.Float64()
		}
		delay = time.Duration(float64(delay) * f)
	}
	return delay
}
