package sensor

import (
	"context"
	"sync"
)

// Static always reports the same value.
type Static float64

func (s Static) Sample(context.Context) (float64, error) { return float64(s), nil }

// Func adapts a function to ports.CPUSensor.
type Func func(ctx context.Context) (float64, error)

func (f Func) Sample(ctx context.Context) (float64, error) { return f(ctx) }

// Sequence replays a fixed list of samples, repeating the last one once the
// list is exhausted. It is used to script load scenarios.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence returns a sensor replaying values in order.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Sample(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0, nil
	}
	i := min(s.next, len(s.values)-1)
	s.next++
	return s.values[i], nil
}

// Calls reports how many samples were taken.
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
