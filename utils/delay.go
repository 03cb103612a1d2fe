package utils

import (
	"math/rand"
	"time"
)

// Sleeper blocks the calling goroutine. Production code uses RealSleeper;
// tests record the requested pauses instead of waiting.
type Sleeper interface {
	Sleep(d time.Duration)
}

type SleeperFunc func(d time.Duration)

func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

var RealSleeper Sleeper = SleeperFunc(time.Sleep)

// JitterFunc picks a pause inside [min, max].
type JitterFunc func(min, max time.Duration) time.Duration

// Jitter returns a uniformly random whole-second duration in [min, max], both ends included.
// Randomized pauses keep retries from lining up against the same rate limiter.
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	steps := int64((max - min) / time.Second)
	if steps <= 0 {
		return min
	}
	return min + time.Duration(rand.Int63n(steps+1))*time.Second
}

// RandomDelay sleeps for a random duration between min and max.
func RandomDelay(s Sleeper, jitter JitterFunc, min, max time.Duration) time.Duration {
	if jitter == nil {
		jitter = Jitter
	}
	d := jitter(min, max)
	s.Sleep(d)
	return d
}
