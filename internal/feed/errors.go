// Package feed contains the HTTP clients for the public ISS feeds and the
// poller that drives the refresh pipeline: poll feeds, append to the rolling
// buffer, aggregate metrics, publish a dashboard snapshot.
package feed

import "errors"

// Feed failures split into two recoverable classes. Both degrade the
// dashboard to last-known-good data; neither is ever fatal.
var (
	// ErrUnavailable covers transport errors, timeouts, and non-2xx responses.
	ErrUnavailable = errors.New("feed unavailable")

	// ErrMalformed covers responses that decode but fail the schema contract.
	ErrMalformed = errors.New("malformed feed response")
)

// Outcome maps a poll error to its metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "unavailable"
	}
}
