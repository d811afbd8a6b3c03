// Package track holds the position-sample history: an immutable Sample type
// and a fixed-capacity FIFO Ring that retains the most recent samples for the
// analytics and visibility code.
package track

import "time"

// Sample is one sub-satellite position from the position feed.
// Immutable once recorded.
type Sample struct {
	Time        time.Time `json:"time"`
	LatDeg      float64   `json:"latitude"`
	LonDeg      float64   `json:"longitude"`
	AltitudeKm  float64   `json:"altitude_km"`
	VelocityKmh float64   `json:"velocity_kmh"`
}
