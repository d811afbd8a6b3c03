package visibility

import (
	"time"

	"github.com/issdash/issdash/internal/geo"
	"github.com/issdash/issdash/internal/track"
)

// Status is the at-a-glance visibility summary shown on the dashboard:
// whether the sub-point is near the observer, whether it is dark at the
// observer, and the combined "worth stepping outside" verdict.
type Status struct {
	Nearby       bool    `json:"nearby"`
	Dark         bool    `json:"dark"`
	LookUp       bool    `json:"look_up"`
	Elevation    float64 `json:"elevation_deg"`
	SeparationKm float64 `json:"separation_km"`
}

// StatusAt evaluates the current sample against the observer.
// toleranceDeg is the angular separation within which the satellite counts
// as nearby. sunrise/sunset may be zero when the day/night feed is
// unavailable, in which case Dark stays false.
func StatusAt(obs geo.Location, s track.Sample, toleranceDeg float64, sunrise, sunset, now time.Time) Status {
	sep := geo.AngularSeparation(obs.LatDeg, obs.LonDeg, s.LatDeg, s.LonDeg)

	st := Status{
		Nearby:       sep <= toleranceDeg,
		Dark:         NightAt(sunrise, sunset, now),
		Elevation:    geo.ElevationAngle(sep, s.AltitudeKm),
		SeparationKm: geo.GroundDistanceKm(obs.LatDeg, obs.LonDeg, s.LatDeg, s.LonDeg),
	}
	st.LookUp = st.Nearby && st.Dark
	return st
}

// NightAt reports whether now falls outside the sunrise..sunset daylight
// interval. Handles the polar/offset case where sunset precedes sunrise.
// Zero sunrise or sunset means unknown and reports false.
func NightAt(sunrise, sunset, now time.Time) bool {
	if sunrise.IsZero() || sunset.IsZero() {
		return false
	}
	if sunset.After(sunrise) {
		return now.Before(sunrise) || now.After(sunset)
	}
	return now.After(sunset) && now.Before(sunrise)
}
