package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/issdash/issdash/internal/track"
)

// DefaultPositionURL serves the current ISS position including altitude and
// velocity (NORAD 25544).
const DefaultPositionURL = "https://api.wheretheiss.at/v1/satellites/25544"

// PositionClient fetches the current sub-satellite position.
type PositionClient struct {
	url        string
	httpClient *http.Client
}

// NewPositionClient creates a PositionClient for the given URL.
// An empty URL selects the default feed.
func NewPositionClient(url string, timeout time.Duration) *PositionClient {
	if url == "" {
		url = DefaultPositionURL
	}
	return &PositionClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL returns the configured feed URL.
func (c *PositionClient) URL() string {
	return c.url
}

type positionResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Velocity  float64 `json:"velocity"`
	Timestamp int64   `json:"timestamp"`
}

// Fetch performs one HTTP GET against the position feed and returns the
// decoded sample. Schema violations return ErrMalformed; transport and
// status failures return ErrUnavailable.
func (c *PositionClient) Fetch(ctx context.Context) (track.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return track.Sample{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return track.Sample{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return track.Sample{}, fmt.Errorf("%w: unexpected status %d from %s", ErrUnavailable, resp.StatusCode, c.url)
	}

	var payload positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return track.Sample{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if payload.Latitude < -90 || payload.Latitude > 90 {
		return track.Sample{}, fmt.Errorf("%w: latitude %v out of range", ErrMalformed, payload.Latitude)
	}
	if payload.Longitude < -180 || payload.Longitude > 180 {
		return track.Sample{}, fmt.Errorf("%w: longitude %v out of range", ErrMalformed, payload.Longitude)
	}
	if payload.Altitude < 0 || payload.Velocity < 0 {
		return track.Sample{}, fmt.Errorf("%w: negative altitude or velocity", ErrMalformed)
	}

	// A missing timestamp degrades to the local clock rather than failing
	// the whole sample.
	ts := time.Now().UTC()
	if payload.Timestamp > 0 {
		ts = time.Unix(payload.Timestamp, 0).UTC()
	}

	return track.Sample{
		Time:        ts,
		LatDeg:      payload.Latitude,
		LonDeg:      payload.Longitude,
		AltitudeKm:  payload.Altitude,
		VelocityKmh: payload.Velocity,
	}, nil
}
