package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(d time.Duration) { r.sleeps = append(r.sleeps, d) }

func TestRetryPolicy_Do(t *testing.T) {
	errFlaky := errors.New("flaky")

	t.Run("stops on first success", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		err := RetryPolicy{MaxAttempts: 3, Backoff: ConstantBackoff(time.Second), Sleeper: s}.Do(func(int) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, s.sleeps)
	})

	t.Run("bounded policy gives up", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		err := RetryPolicy{MaxAttempts: 3, Backoff: ConstantBackoff(time.Second), Sleeper: s}.Do(func(int) error {
			calls++
			return errFlaky
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, time.Second}, s.sleeps)
	})

	t.Run("unbounded policy keeps going until success", func(t *testing.T) {
		s := &recordingSleeper{}
		err := RetryPolicy{Backoff: ConstantBackoff(5 * time.Second), Sleeper: s}.Do(func(attempt int) error {
			if attempt < 50 {
				return errFlaky
			}
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, s.sleeps, 49)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		s := &recordingSleeper{}
		calls := 0
		err := RetryPolicy{MaxAttempts: 3, Sleeper: s}.Do(func(int) error {
			calls++
			return Permanent(errFlaky)
		})
		assert.Equal(t, errFlaky, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, s.sleeps)
	})

	t.Run("exponential backoff doubles", func(t *testing.T) {
		s := &recordingSleeper{}
		_ = RetryPolicy{MaxAttempts: 4, Backoff: ExponentialBackoff(time.Second), Sleeper: s}.Do(func(int) error {
			return errFlaky
		})
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, s.sleeps)
	})
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestJitter(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := Jitter(10*time.Second, 20*time.Second)
		assert.GreaterOrEqual(t, d, 10*time.Second)
		assert.LessOrEqual(t, d, 20*time.Second)
		assert.Zero(t, d%time.Second)
	}
	assert.Equal(t, 5*time.Second, Jitter(5*time.Second, 5*time.Second))
	assert.Equal(t, 5*time.Second, Jitter(5*time.Second, time.Second))
}

func TestRandomDelay(t *testing.T) {
	s := &recordingSleeper{}
	d := RandomDelay(s, func(min, _ time.Duration) time.Duration { return min }, 2*time.Second, 4*time.Second)
	assert.Equal(t, 2*time.Second, d)
	assert.Equal(t, []time.Duration{2 * time.Second}, s.sleeps)
}
