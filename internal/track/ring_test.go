package track

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleAt(i int) Sample {
	return Sample{
		Time:        t0.Add(time.Duration(i) * 10 * time.Second),
		LatDeg:      float64(i),
		LonDeg:      float64(i) * 2,
		AltitudeKm:  420,
		VelocityKmh: 27600,
	}
}

// TestRingFIFO verifies that pushing capacity+1 samples leaves exactly
// capacity samples with the oldest dropped, for a range of capacities.
func TestRingFIFO(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 10, 100} {
		r := NewRing(capacity)

		for i := 0; i <= capacity; i++ {
			if !r.Push(sampleAt(i)) {
				t.Fatalf("capacity %d: push %d rejected", capacity, i)
			}
		}

		if r.Len() != capacity {
			t.Fatalf("capacity %d: len = %d after capacity+1 pushes", capacity, r.Len())
		}

		snap := r.Snapshot()
		if snap[0].LatDeg != 1 {
			t.Errorf("capacity %d: oldest sample is %v, want sample 1 (sample 0 evicted)", capacity, snap[0].LatDeg)
		}
		if snap[len(snap)-1].LatDeg != float64(capacity) {
			t.Errorf("capacity %d: newest sample is %v, want sample %d", capacity, snap[len(snap)-1].LatDeg, capacity)
		}
	}
}

func TestRingRejectsOutOfOrder(t *testing.T) {
	r := NewRing(10)
	if !r.Push(sampleAt(5)) {
		t.Fatal("first push rejected")
	}

	// Same timestamp: rejected (duplicate feed tick).
	if r.Push(sampleAt(5)) {
		t.Error("duplicate timestamp accepted")
	}
	// Older timestamp: rejected.
	if r.Push(sampleAt(3)) {
		t.Error("older timestamp accepted")
	}
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}

	// Newer timestamp: accepted.
	if !r.Push(sampleAt(6)) {
		t.Error("newer timestamp rejected")
	}
}

func TestRingSnapshotIsCopy(t *testing.T) {
	r := NewRing(5)
	r.Push(sampleAt(0))
	r.Push(sampleAt(1))

	snap := r.Snapshot()
	snap[0].LatDeg = 999

	again := r.Snapshot()
	if again[0].LatDeg == 999 {
		t.Error("mutating a snapshot leaked into the ring")
	}

	// Pushing after a snapshot must not grow the snapshot.
	r.Push(sampleAt(2))
	if len(snap) != 2 {
		t.Errorf("snapshot len changed to %d after push", len(snap))
	}
}

func TestRingOrdering(t *testing.T) {
	r := NewRing(50)
	for i := 0; i < 30; i++ {
		r.Push(sampleAt(i))
	}

	snap := r.Snapshot()
	for i := 1; i < len(snap); i++ {
		if !snap[i].Time.After(snap[i-1].Time) {
			t.Fatalf("snapshot not strictly increasing at index %d", i)
		}
	}
}

func TestRingLatest(t *testing.T) {
	r := NewRing(3)
	if _, ok := r.Latest(); ok {
		t.Error("Latest on empty ring returned ok")
	}

	r.Push(sampleAt(0))
	r.Push(sampleAt(1))
	got, ok := r.Latest()
	if !ok || got.LatDeg != 1 {
		t.Errorf("Latest = %+v ok=%v, want sample 1", got, ok)
	}
}

func TestRingDefaultCapacity(t *testing.T) {
	r := NewRing(0)
	if r.Capacity() != defaultCapacity {
		t.Errorf("capacity = %d, want default %d", r.Capacity(), defaultCapacity)
	}
}
