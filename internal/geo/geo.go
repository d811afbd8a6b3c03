// Package geo provides the spherical-Earth geometry used by the visibility
// estimator: validated observer locations, haversine angular separation, and
// observer-relative elevation angles for a satellite sub-point at a known
// orbital altitude.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for all spherical geometry.
const EarthRadiusKm = 6371.0

// Location is a ground observer's position.
type Location struct {
	LatDeg     float64 `json:"latitude"`
	LonDeg     float64 `json:"longitude"`
	ElevationM float64 `json:"elevation_m"`
}

// NewLocation creates a validated observer Location.
// Latitude must be in [-90, 90], longitude in [-180, 180].
func NewLocation(latDeg, lonDeg, elevationM float64) (Location, error) {
	loc := Location{LatDeg: latDeg, LonDeg: lonDeg, ElevationM: elevationM}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks coordinate ranges and rejects NaN/Inf inputs.
func (l Location) Validate() error {
	if math.IsNaN(l.LatDeg) || math.IsInf(l.LatDeg, 0) || l.LatDeg < -90 || l.LatDeg > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", l.LatDeg)
	}
	if math.IsNaN(l.LonDeg) || math.IsInf(l.LonDeg, 0) || l.LonDeg < -180 || l.LonDeg > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", l.LonDeg)
	}
	if math.IsNaN(l.ElevationM) || math.IsInf(l.ElevationM, 0) {
		return fmt.Errorf("elevation %v is not a finite number", l.ElevationM)
	}
	return nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }

func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// AngularSeparation returns the great-circle central angle in degrees between
// two ground points, computed with the haversine formula. Symmetric in its
// arguments.
func AngularSeparation(lat1Deg, lon1Deg, lat2Deg, lon2Deg float64) float64 {
	lat1 := radians(lat1Deg)
	lat2 := radians(lat2Deg)
	dLat := radians(lat2Deg - lat1Deg)
	dLon := radians(lon2Deg - lon1Deg)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Clamp against rounding before the square roots.
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}

	return degrees(2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)))
}

// GroundDistanceKm returns the great-circle surface distance in km between
// two ground points.
func GroundDistanceKm(lat1Deg, lon1Deg, lat2Deg, lon2Deg float64) float64 {
	return radians(AngularSeparation(lat1Deg, lon1Deg, lat2Deg, lon2Deg)) * EarthRadiusKm
}

// ElevationAngle returns the elevation in degrees at which a satellite at
// altitudeKm appears above the horizon of an observer whose ground point is
// separationDeg of central angle away from the satellite's sub-point.
//
// Geometry: with k = R/(R+h), the observer-to-satellite line makes an angle
// el with the local horizontal where tan(el) = (cos γ − k) / sin γ.
// γ = 0 (sub-point at the observer) is the overhead case and returns 90.
// Negative values mean the satellite is below the geometric horizon.
func ElevationAngle(separationDeg, altitudeKm float64) float64 {
	gamma := radians(separationDeg)
	k := EarthRadiusKm / (EarthRadiusKm + altitudeKm)

	sinGamma := math.Sin(gamma)
	if sinGamma < 1e-12 {
		return 90.0
	}

	return degrees(math.Atan2(math.Cos(gamma)-k, sinGamma))
}
