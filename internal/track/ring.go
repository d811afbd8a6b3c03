package track

import "sync"

const defaultCapacity = 360

// Ring is a fixed-capacity FIFO buffer of position samples.
// Safe for concurrent use; readers iterate over Snapshot copies, never the
// live backing slice.
type Ring struct {
	mu       sync.Mutex
	samples  []Sample
	capacity int
}

// NewRing creates a Ring holding at most capacity samples.
// Non-positive capacities fall back to the default.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Ring{
		samples:  make([]Sample, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest when the ring is full.
// Samples must arrive in time order: a sample not newer than the current
// newest is rejected and Push returns false. Duplicate ticks from a cached
// feed land here.
func (r *Ring) Push(s Sample) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.samples); n > 0 && !s.Time.After(r.samples[n-1].Time) {
		return false
	}

	if len(r.samples) == r.capacity {
		copy(r.samples, r.samples[1:])
		r.samples = r.samples[:r.capacity-1]
	}
	r.samples = append(r.samples, s)
	return true
}

// Snapshot returns a copy of the buffered samples, oldest first.
// The copy is safe to iterate while the poller keeps pushing.
func (r *Ring) Snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Len returns the current number of buffered samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Capacity returns the configured maximum number of samples.
func (r *Ring) Capacity() int {
	return r.capacity
}

// Latest returns the newest sample, or false when the ring is empty.
func (r *Ring) Latest() (Sample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) == 0 {
		return Sample{}, false
	}
	return r.samples[len(r.samples)-1], true
}
