package feed

import (
	"sync/atomic"
	"time"

	"github.com/issdash/issdash/internal/analytics"
	"github.com/issdash/issdash/internal/track"
)

// Snapshot is the dashboard's complete render state for one refresh pass.
// Immutable once published; readers never see a partially updated view.
type Snapshot struct {
	Position    track.Sample       `json:"position"`
	HasPosition bool               `json:"has_position"`
	Crew        []CrewMember       `json:"crew"`
	Metrics     *analytics.Metrics `json:"metrics"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Stale       bool               `json:"stale"`
	LastError   string             `json:"last_error,omitempty"`
}

// Store provides atomic access to the current snapshot.
type Store struct {
	snapshot atomic.Pointer[Snapshot]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil before the first poll completes.
func (s *Store) Get() *Snapshot {
	return s.snapshot.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(snap *Snapshot) {
	s.snapshot.Store(snap)
}

// AgeSeconds returns the age of the last successful update.
// Returns -1 if no snapshot has been published.
func (s *Store) AgeSeconds() float64 {
	snap := s.snapshot.Load()
	if snap == nil {
		return -1
	}
	return time.Since(snap.UpdatedAt).Seconds()
}

// Ready reports whether a snapshot with position data has been published.
func (s *Store) Ready() bool {
	snap := s.snapshot.Load()
	return snap != nil && snap.HasPosition
}
