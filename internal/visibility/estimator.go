// Package visibility turns a time series of sub-satellite points into the
// windows during which the satellite sits above an observer's horizon.
//
// Visibility here is geometric line-of-sight only: a sample is visible when
// the observer-relative elevation angle exceeds the configured minimum.
// There is no eclipse or brightness modeling.
package visibility

import (
	"time"

	"github.com/issdash/issdash/internal/geo"
	"github.com/issdash/issdash/internal/track"
)

// Point is one sub-satellite position during a window, annotated with the
// observer-relative elevation.
type Point struct {
	Time      time.Time `json:"time"`
	LatDeg    float64   `json:"latitude"`
	LonDeg    float64   `json:"longitude"`
	Elevation float64   `json:"elevation"` // degrees above observer's horizon
}

// Window is a contiguous interval of above-threshold samples.
// A single visible sample yields Start == End.
type Window struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	DurationSeconds  float64   `json:"duration_seconds"`
	MaxElevation     float64   `json:"max_elevation_deg"`
	MaxElevationTime time.Time `json:"max_elevation_time"`
	Track            []Point   `json:"track"`
}

// Estimate scans the ordered samples and groups consecutive visible ones
// into windows. Samples are visible when their elevation as seen from obs
// exceeds minElevationDeg. Returns an empty slice when nothing is visible;
// never errors.
func Estimate(obs geo.Location, samples []track.Sample, minElevationDeg float64) []Window {
	var windows []Window
	var cur *Window

	for _, s := range samples {
		sep := geo.AngularSeparation(obs.LatDeg, obs.LonDeg, s.LatDeg, s.LonDeg)
		el := geo.ElevationAngle(sep, s.AltitudeKm)

		// Visible means strictly above the threshold.
		if el <= minElevationDeg {
			if cur != nil {
				windows = append(windows, *cur)
				cur = nil
			}
			continue
		}

		pt := Point{Time: s.Time, LatDeg: s.LatDeg, LonDeg: s.LonDeg, Elevation: el}

		if cur == nil {
			cur = &Window{
				Start:            s.Time,
				End:              s.Time,
				MaxElevation:     el,
				MaxElevationTime: s.Time,
				Track:            []Point{pt},
			}
			continue
		}

		cur.End = s.Time
		cur.DurationSeconds = cur.End.Sub(cur.Start).Seconds()
		cur.Track = append(cur.Track, pt)
		if el > cur.MaxElevation {
			cur.MaxElevation = el
			cur.MaxElevationTime = s.Time
		}
	}

	if cur != nil {
		windows = append(windows, *cur)
	}

	return windows
}
