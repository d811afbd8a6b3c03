package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPositionFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"latitude":-47.27,"longitude":151.06,"altitude":421.4,"velocity":27571.9,"timestamp":1772366400}`))
	}))
	defer server.Close()

	client := NewPositionClient(server.URL, 5*time.Second)
	sample, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sample.LatDeg != -47.27 || sample.LonDeg != 151.06 {
		t.Errorf("position = (%v, %v), want (-47.27, 151.06)", sample.LatDeg, sample.LonDeg)
	}
	if sample.AltitudeKm != 421.4 {
		t.Errorf("altitude = %v, want 421.4", sample.AltitudeKm)
	}
	if sample.VelocityKmh != 27571.9 {
		t.Errorf("velocity = %v, want 27571.9", sample.VelocityKmh)
	}
	want := time.Unix(1772366400, 0).UTC()
	if !sample.Time.Equal(want) {
		t.Errorf("time = %v, want %v", sample.Time, want)
	}
}

func TestPositionFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewPositionClient(server.URL, 5*time.Second)
	_, err := client.Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for 502, got %v", err)
	}
	if Outcome(err) != "unavailable" {
		t.Errorf("outcome = %q, want unavailable", Outcome(err))
	}
}

func TestPositionFetchMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>maintenance</html>`},
		{"latitude out of range", `{"latitude":120,"longitude":0,"altitude":420,"velocity":27000,"timestamp":1}`},
		{"longitude out of range", `{"latitude":0,"longitude":-200,"altitude":420,"velocity":27000,"timestamp":1}`},
		{"negative altitude", `{"latitude":0,"longitude":0,"altitude":-1,"velocity":27000,"timestamp":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewPositionClient(server.URL, 5*time.Second)
			_, err := client.Fetch(context.Background())
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if Outcome(err) != "malformed" {
				t.Errorf("outcome = %q, want malformed", Outcome(err))
			}
		})
	}
}

func TestPositionFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewPositionClient(server.URL, 50*time.Millisecond)
	_, err := client.Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestPositionFetchMissingTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latitude":10,"longitude":20,"altitude":420,"velocity":27000}`))
	}))
	defer server.Close()

	client := NewPositionClient(server.URL, 5*time.Second)
	before := time.Now().Add(-time.Second)
	sample, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sample.Time.Before(before) {
		t.Errorf("missing timestamp should fall back to now, got %v", sample.Time)
	}
}

func TestPositionClientDefaultURL(t *testing.T) {
	client := NewPositionClient("", 5*time.Second)
	if client.URL() != DefaultPositionURL {
		t.Errorf("URL = %q, want default", client.URL())
	}
}
