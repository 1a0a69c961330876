package api

import "sync"

// InFlight counts outstanding calls per operation. Overlapping calls each hold
// their own reference, so one finishing never clears another's status.
type InFlight struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

func NewInFlight() *InFlight {
	return &InFlight{counts: map[string]int{}}
}

// Begin marks op as in flight and returns the func that releases it. The
// release func is safe to call more than once.
func (f *InFlight) Begin(op string) func() {
	f.mu.Lock()
	f.counts[op]++
	f.total++
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.counts[op]--
			if f.counts[op] <= 0 {
				delete(f.counts, op)
			}
			f.total--
		})
	}
}

func (f *InFlight) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total > 0
}

func (f *InFlight) Active(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[op] > 0
}
