// Package analytics derives descriptive orbital statistics from the rolling
// sample buffer: mean speed, altitude trend, ground distance covered, and a
// rough orbit-fraction estimate against the nominal orbital period.
package analytics

import (
	"time"

	"github.com/issdash/issdash/internal/geo"
	"github.com/issdash/issdash/internal/track"
)

// NominalOrbitalPeriod is the ISS reference orbital period, 92.68 minutes.
// A configuration constant, never recomputed from samples.
const NominalOrbitalPeriod = 5560800 * time.Millisecond

// Metrics holds the derived statistics for one buffer snapshot.
type Metrics struct {
	SampleCount      int     `json:"sample_count"`
	SpanSeconds      float64 `json:"span_seconds"`
	AvgSpeedKmh      float64 `json:"avg_speed_kmh"`
	MinSpeedKmh      float64 `json:"min_speed_kmh"`
	MaxSpeedKmh      float64 `json:"max_speed_kmh"`
	AltitudeDeltaKm  float64 `json:"altitude_delta_km"`
	GroundDistanceKm float64 `json:"ground_distance_km"`
	OrbitEstimate    float64 `json:"orbit_estimate"`
}

// Aggregate computes Metrics over the ordered samples. Returns nil when the
// buffer holds fewer than two samples; never errors.
func Aggregate(samples []track.Sample, orbitalPeriod time.Duration) *Metrics {
	if len(samples) < 2 {
		return nil
	}
	if orbitalPeriod <= 0 {
		orbitalPeriod = NominalOrbitalPeriod
	}

	first := samples[0]
	last := samples[len(samples)-1]
	span := last.Time.Sub(first.Time)

	m := &Metrics{
		SampleCount:     len(samples),
		SpanSeconds:     span.Seconds(),
		MinSpeedKmh:     first.VelocityKmh,
		MaxSpeedKmh:     first.VelocityKmh,
		AltitudeDeltaKm: last.AltitudeKm - first.AltitudeKm,
		OrbitEstimate:   span.Seconds() / orbitalPeriod.Seconds(),
	}

	var speedSum float64
	for i, s := range samples {
		speedSum += s.VelocityKmh
		if s.VelocityKmh < m.MinSpeedKmh {
			m.MinSpeedKmh = s.VelocityKmh
		}
		if s.VelocityKmh > m.MaxSpeedKmh {
			m.MaxSpeedKmh = s.VelocityKmh
		}
		if i > 0 {
			prev := samples[i-1]
			m.GroundDistanceKm += geo.GroundDistanceKm(prev.LatDeg, prev.LonDeg, s.LatDeg, s.LonDeg)
		}
	}
	m.AvgSpeedKmh = speedSum / float64(len(samples))

	return m
}
