package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultSunURL serves sunrise/sunset instants for a location.
const DefaultSunURL = "https://api.sunrise-sunset.org/json"

// sunCacheTTL bounds how long sunrise/sunset times are reused per location.
const sunCacheTTL = time.Hour

// maxSunEntries caps the location cache. Keys come from user-supplied
// coordinates, so without a cap a scanner sweeping /api/v1/status could
// grow it without limit.
const maxSunEntries = 256

// SunTimes holds the daylight interval for an observer location.
type SunTimes struct {
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

// SunClient fetches sunrise/sunset times with a per-location TTL cache.
// The dashboard queries this per observer, so lookups for the same rounded
// coordinates within the TTL are served from memory.
type SunClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]sunEntry
}

type sunEntry struct {
	times     SunTimes
	fetchedAt time.Time
}

// NewSunClient creates a SunClient for the given base URL.
// An empty URL selects the default feed.
func NewSunClient(baseURL string, timeout time.Duration) *SunClient {
	if baseURL == "" {
		baseURL = DefaultSunURL
	}
	return &SunClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: make(map[string]sunEntry),
	}
}

type sunResponse struct {
	Results struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
	Status string `json:"status"`
}

// TimesFor returns sunrise/sunset for the coordinates, from cache when a
// fresh entry exists.
func (c *SunClient) TimesFor(ctx context.Context, latDeg, lonDeg float64) (SunTimes, error) {
	key := fmt.Sprintf("%.2f,%.2f", latDeg, lonDeg)

	c.mu.Lock()
	if e, ok := c.cache[key]; ok {
		if time.Since(e.fetchedAt) < sunCacheTTL {
			c.mu.Unlock()
			return e.times, nil
		}
		delete(c.cache, key)
	}
	c.mu.Unlock()

	times, err := c.fetch(ctx, latDeg, lonDeg)
	if err != nil {
		return SunTimes{}, err
	}

	c.storeEntry(key, times)
	return times, nil
}

// storeEntry caches times under key, keeping the map bounded: once full,
// expired entries are swept, and if every entry is still fresh one is
// dropped arbitrarily to make room.
func (c *SunClient) storeEntry(key string, times SunTimes) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if len(c.cache) >= maxSunEntries {
		for k, e := range c.cache {
			if now.Sub(e.fetchedAt) >= sunCacheTTL {
				delete(c.cache, k)
			}
		}
		for k := range c.cache {
			if len(c.cache) < maxSunEntries {
				break
			}
			delete(c.cache, k)
		}
	}
	c.cache[key] = sunEntry{times: times, fetchedAt: now}
}

func (c *SunClient) fetch(ctx context.Context, latDeg, lonDeg float64) (SunTimes, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", latDeg))
	q.Set("lng", fmt.Sprintf("%.6f", lonDeg))
	q.Set("formatted", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return SunTimes{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SunTimes{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SunTimes{}, fmt.Errorf("%w: unexpected status %d from %s", ErrUnavailable, resp.StatusCode, c.baseURL)
	}

	var payload sunResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SunTimes{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if payload.Status != "OK" {
		return SunTimes{}, fmt.Errorf("%w: status %q", ErrMalformed, payload.Status)
	}

	sunrise, err := time.Parse(time.RFC3339, payload.Results.Sunrise)
	if err != nil {
		return SunTimes{}, fmt.Errorf("%w: sunrise %q: %v", ErrMalformed, payload.Results.Sunrise, err)
	}
	sunset, err := time.Parse(time.RFC3339, payload.Results.Sunset)
	if err != nil {
		return SunTimes{}, fmt.Errorf("%w: sunset %q: %v", ErrMalformed, payload.Results.Sunset, err)
	}

	return SunTimes{Sunrise: sunrise, Sunset: sunset}, nil
}
