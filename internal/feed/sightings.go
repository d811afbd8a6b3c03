package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

func newFeedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// sightingsCacheTTL matches the roughly-hourly publication cadence of
// sighting feeds; no point hammering them on every dashboard refresh.
const sightingsCacheTTL = time.Hour

// maxSightings bounds how many upcoming opportunities the dashboard shows.
const maxSightings = 10

// Sighting is one upcoming viewing opportunity from an RSS sightings feed
// (e.g. NASA Spot the Station for a configured region).
type Sighting struct {
	Title     string    `json:"title"`
	Published time.Time `json:"published"`
	Summary   string    `json:"summary"`
}

// SightingsClient fetches and caches an RSS feed of upcoming sightings.
// Optional: a zero-value URL disables it and Fetch returns an empty list.
type SightingsClient struct {
	url    string
	parser *gofeed.Parser

	mu        sync.Mutex
	cached    []Sighting
	fetchedAt time.Time
}

// NewSightingsClient creates a SightingsClient for the given RSS URL.
// An empty URL produces a disabled client.
func NewSightingsClient(url string, timeout time.Duration) *SightingsClient {
	p := gofeed.NewParser()
	p.Client = newFeedHTTPClient(timeout)
	return &SightingsClient{
		url:    url,
		parser: p,
	}
}

// Enabled reports whether a feed URL is configured.
func (c *SightingsClient) Enabled() bool {
	return c.url != ""
}

// Fetch returns the upcoming sightings, newest first, from cache when fresh.
// A disabled client returns an empty list and no error.
func (c *SightingsClient) Fetch(ctx context.Context) ([]Sighting, error) {
	if !c.Enabled() {
		return []Sighting{}, nil
	}

	c.mu.Lock()
	if c.cached != nil && time.Since(c.fetchedAt) < sightingsCacheTTL {
		out := c.cached
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	parsed, err := c.parser.ParseURLWithContext(c.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sightings := make([]Sighting, 0, maxSightings)
	for _, item := range parsed.Items {
		if len(sightings) == maxSightings {
			break
		}
		s := Sighting{
			Title:   item.Title,
			Summary: item.Description,
		}
		if item.PublishedParsed != nil {
			s.Published = item.PublishedParsed.UTC()
		}
		sightings = append(sightings, s)
	}

	c.mu.Lock()
	c.cached = sightings
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return sightings, nil
}
