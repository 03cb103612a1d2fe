package avito

import "sync/atomic"

// StopSignal is a cooperative cancellation flag polled between pages and ads.
// A nil *StopSignal is never stopped.
type StopSignal struct {
	stopped atomic.Bool
}

func NewStopSignal() *StopSignal {
	return &StopSignal{}
}

func (s *StopSignal) Stop() {
	s.stopped.Store(true)
}

func (s *StopSignal) Stopped() bool {
	return s != nil && s.stopped.Load()
}
