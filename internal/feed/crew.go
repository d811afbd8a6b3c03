package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultCrewURL serves the current humans-in-space roster.
const DefaultCrewURL = "http://api.open-notify.org/astros.json"

// CrewMember is one person aboard a craft. Snapshot per poll; no identity
// tracking across polls.
type CrewMember struct {
	Name  string `json:"name"`
	Craft string `json:"craft"`
}

// CrewClient fetches the current crew roster.
type CrewClient struct {
	url        string
	httpClient *http.Client
}

// NewCrewClient creates a CrewClient for the given URL.
// An empty URL selects the default feed.
func NewCrewClient(url string, timeout time.Duration) *CrewClient {
	if url == "" {
		url = DefaultCrewURL
	}
	return &CrewClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type crewResponse struct {
	People  []CrewMember `json:"people"`
	Number  int          `json:"number"`
	Message string       `json:"message"`
}

// Fetch performs one HTTP GET against the crew feed.
func (c *CrewClient) Fetch(ctx context.Context) ([]CrewMember, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrUnavailable, resp.StatusCode, c.url)
	}

	var payload crewResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if payload.People == nil {
		return nil, fmt.Errorf("%w: missing people field", ErrMalformed)
	}
	for i, p := range payload.People {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: person %d has no name", ErrMalformed, i)
		}
	}

	return payload.People, nil
}
