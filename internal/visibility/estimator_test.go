package visibility

import (
	"math"
	"testing"
	"time"

	"github.com/issdash/issdash/internal/geo"
	"github.com/issdash/issdash/internal/track"
)

var (
	start  = time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	london = geo.Location{LatDeg: 51.5, LonDeg: -0.1}
)

const passAltKm = 420.0

// separationFor inverts geo.ElevationAngle by bisection: the central angle at
// which a satellite at altKm appears at elevDeg above the horizon.
func separationFor(t *testing.T, elevDeg, altKm float64) float64 {
	t.Helper()

	lo, hi := 1e-6, 30.0
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if geo.ElevationAngle(mid, altKm) > elevDeg {
			lo = mid
		} else {
			hi = mid
		}
	}
	sep := (lo + hi) / 2
	if got := geo.ElevationAngle(sep, altKm); math.Abs(got-elevDeg) > 1e-6 {
		t.Fatalf("separationFor(%v) converged to %v giving elevation %v", elevDeg, sep, got)
	}
	return sep
}

// samplesAtElevations builds one sample per requested elevation, spaced 10s
// apart, with sub-points placed on the observer's meridian so the haversine
// separation is exactly the latitude offset.
func samplesAtElevations(t *testing.T, obs geo.Location, elevations []float64) []track.Sample {
	t.Helper()

	samples := make([]track.Sample, len(elevations))
	for i, el := range elevations {
		sep := separationFor(t, el, passAltKm)
		samples[i] = track.Sample{
			Time:        start.Add(time.Duration(i) * 10 * time.Second),
			LatDeg:      obs.LatDeg - sep, // south of the observer, well inside [-90, 90]
			LonDeg:      obs.LonDeg,
			AltitudeKm:  passAltKm,
			VelocityKmh: 27600,
		}
	}
	return samples
}

func TestEstimateAllBelowThreshold(t *testing.T) {
	samples := samplesAtElevations(t, london, []float64{1, 3, 5, 7, 9, 7, 3})

	windows := Estimate(london, samples, 10)
	if len(windows) != 0 {
		t.Fatalf("expected no windows, got %d", len(windows))
	}
}

func TestEstimateEmptyInput(t *testing.T) {
	if windows := Estimate(london, nil, 10); len(windows) != 0 {
		t.Fatalf("expected no windows for empty input, got %d", len(windows))
	}
}

// TestEstimateThresholdBoundary pins the strictness of the cutoff: a sample
// exactly at the threshold is not visible, one just above it is.
func TestEstimateThresholdBoundary(t *testing.T) {
	const sep = 10.0
	samples := []track.Sample{{
		Time:       start,
		LatDeg:     london.LatDeg - sep,
		LonDeg:     london.LonDeg,
		AltitudeKm: passAltKm,
	}}

	// Recompute the elevation exactly as the estimator will, so the
	// threshold comparison is bit-for-bit at the boundary.
	sepActual := geo.AngularSeparation(london.LatDeg, london.LonDeg, samples[0].LatDeg, samples[0].LonDeg)
	el := geo.ElevationAngle(sepActual, passAltKm)

	if windows := Estimate(london, samples, el); len(windows) != 0 {
		t.Fatalf("sample exactly at threshold counted as visible, got %d windows", len(windows))
	}
	if windows := Estimate(london, samples, el-0.01); len(windows) != 1 {
		t.Fatalf("sample above threshold not counted, got %d windows", len(windows))
	}
}

// TestEstimateSinglePass is the reference scenario: a five-sample pass with
// elevations [2, 15, 45, 20, 3] at a 10 degree threshold yields exactly one
// window covering samples 1..3 with max elevation 45.
func TestEstimateSinglePass(t *testing.T) {
	samples := samplesAtElevations(t, london, []float64{2, 15, 45, 20, 3})

	windows := Estimate(london, samples, 10)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}

	w := windows[0]
	if !w.Start.Equal(samples[1].Time) {
		t.Errorf("window start = %v, want %v", w.Start, samples[1].Time)
	}
	if !w.End.Equal(samples[3].Time) {
		t.Errorf("window end = %v, want %v", w.End, samples[3].Time)
	}
	if math.Abs(w.MaxElevation-45) > 1e-6 {
		t.Errorf("max elevation = %v, want 45", w.MaxElevation)
	}
	if !w.MaxElevationTime.Equal(samples[2].Time) {
		t.Errorf("max elevation time = %v, want %v", w.MaxElevationTime, samples[2].Time)
	}
	if w.DurationSeconds != 20 {
		t.Errorf("duration = %v s, want 20", w.DurationSeconds)
	}
	if len(w.Track) != 3 {
		t.Errorf("track points = %d, want 3", len(w.Track))
	}
}

// TestEstimateMidBufferWindow pins the window to samples[2..4] of a larger
// buffer and checks the true maximum among exactly those three.
func TestEstimateMidBufferWindow(t *testing.T) {
	samples := samplesAtElevations(t, london, []float64{4, 8, 12, 30, 18, 6, 2})

	windows := Estimate(london, samples, 10)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}

	w := windows[0]
	if !w.Start.Equal(samples[2].Time) || !w.End.Equal(samples[4].Time) {
		t.Errorf("window = [%v, %v], want [%v, %v]", w.Start, w.End, samples[2].Time, samples[4].Time)
	}
	if math.Abs(w.MaxElevation-30) > 1e-6 {
		t.Errorf("max elevation = %v, want 30", w.MaxElevation)
	}
}

func TestEstimateSingleVisibleSample(t *testing.T) {
	samples := samplesAtElevations(t, london, []float64{2, 40, 3})

	windows := Estimate(london, samples, 10)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}

	w := windows[0]
	if !w.Start.Equal(w.End) {
		t.Errorf("single-sample window: start %v != end %v", w.Start, w.End)
	}
	if w.DurationSeconds != 0 {
		t.Errorf("single-sample duration = %v, want 0", w.DurationSeconds)
	}
}

func TestEstimateTwoPasses(t *testing.T) {
	samples := samplesAtElevations(t, london, []float64{15, 25, 5, 4, 12, 18})

	windows := Estimate(london, samples, 10)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if !windows[0].Start.Equal(samples[0].Time) || !windows[0].End.Equal(samples[1].Time) {
		t.Errorf("first window = [%v, %v]", windows[0].Start, windows[0].End)
	}
	if !windows[1].Start.Equal(samples[4].Time) || !windows[1].End.Equal(samples[5].Time) {
		t.Errorf("second window = [%v, %v]", windows[1].Start, windows[1].End)
	}
}

// TestEstimateBufferEndsVisible verifies a window still open at the end of
// the buffer closes at the final sample.
func TestEstimateBufferEndsVisible(t *testing.T) {
	samples := samplesAtElevations(t, london, []float64{3, 14, 28})

	windows := Estimate(london, samples, 10)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if !windows[0].End.Equal(samples[2].Time) {
		t.Errorf("window end = %v, want final sample %v", windows[0].End, samples[2].Time)
	}
}

func TestEstimateOverheadSample(t *testing.T) {
	// Sub-point exactly at the observer: 90 degrees, the boundary sanity check.
	samples := []track.Sample{{
		Time:       start,
		LatDeg:     london.LatDeg,
		LonDeg:     london.LonDeg,
		AltitudeKm: 400,
	}}

	windows := Estimate(london, samples, 10)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0].MaxElevation != 90 {
		t.Errorf("overhead max elevation = %v, want 90", windows[0].MaxElevation)
	}
}
