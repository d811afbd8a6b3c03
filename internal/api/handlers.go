package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/issdash/issdash/internal/feed"
	"github.com/issdash/issdash/internal/geo"
	"github.com/issdash/issdash/internal/track"
	"github.com/issdash/issdash/internal/visibility"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already out; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseObserver reads lat, lon and optional elev_m query parameters.
func parseObserver(r *http.Request) (geo.Location, error) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return geo.Location{}, errBadParam("lat")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return geo.Location{}, errBadParam("lon")
	}
	var elev float64
	if raw := q.Get("elev_m"); raw != "" {
		elev, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return geo.Location{}, errBadParam("elev_m")
		}
	}
	return geo.NewLocation(lat, lon, elev)
}

type paramError string

func errBadParam(name string) error { return paramError(name) }

func (e paramError) Error() string {
	return "missing or malformed query parameter: " + string(e)
}

func positionHandler(store *feed.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Get()
		if snap == nil || !snap.HasPosition {
			writeJSON(w, http.StatusOK, map[string]any{"available": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"available":  true,
			"position":   snap.Position,
			"stale":      snap.Stale,
			"updated_at": snap.UpdatedAt,
		})
	}
}

func crewHandler(store *feed.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Get()
		crew := []feed.CrewMember{}
		var updatedAt time.Time
		stale := false
		if snap != nil {
			if snap.Crew != nil {
				crew = snap.Crew
			}
			updatedAt = snap.UpdatedAt
			stale = snap.Stale
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":      len(crew),
			"crew":       crew,
			"stale":      stale,
			"updated_at": updatedAt,
		})
	}
}

func trackHandler(ring *track.Ring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		samples := ring.Snapshot()
		if samples == nil {
			samples = []track.Sample{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   len(samples),
			"samples": samples,
		})
	}
}

func analyticsHandler(store *feed.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Get()
		if snap == nil || snap.Metrics == nil {
			writeJSON(w, http.StatusOK, map[string]any{"available": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"available":  true,
			"metrics":    snap.Metrics,
			"stale":      snap.Stale,
			"updated_at": snap.UpdatedAt,
		})
	}
}

func stateHandler(store *feed.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := store.Get()
		if snap == nil {
			writeJSON(w, http.StatusOK, map[string]any{"available": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"available": true,
			"state":     snap,
		})
	}
}

func visibilityHandler(ring *track.Ring, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obs, err := parseObserver(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		minElevation := cfg.MinElevationDeg
		if raw := r.URL.Query().Get("min_elevation"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v < 0 || v > 90 {
				writeError(w, http.StatusBadRequest, "min_elevation must be a number between 0 and 90")
				return
			}
			minElevation = v
		}

		windows := visibility.Estimate(obs, ring.Snapshot(), minElevation)
		if windows == nil {
			windows = []visibility.Window{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"observer":          obs,
			"min_elevation_deg": minElevation,
			"window_count":      len(windows),
			"windows":           windows,
		})
	}
}

func statusHandler(store *feed.Store, sun *feed.SunClient, cfg Config, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obs, err := parseObserver(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		snap := store.Get()
		if snap == nil || !snap.HasPosition {
			writeJSON(w, http.StatusOK, map[string]any{"available": false})
			return
		}

		// Day/night is advisory: if the sun feed is down the status
		// still renders, with Dark pinned false.
		var times feed.SunTimes
		sunAvailable := false
		if sun != nil {
			times, err = sun.TimesFor(r.Context(), obs.LatDeg, obs.LonDeg)
			if err != nil {
				logger.Warn("sun feed lookup failed",
					"component", "api",
					"error", err)
			} else {
				sunAvailable = true
			}
		}

		st := visibility.StatusAt(obs, snap.Position, cfg.NearbyToleranceDeg, times.Sunrise, times.Sunset, time.Now().UTC())
		writeJSON(w, http.StatusOK, map[string]any{
			"available":     true,
			"observer":      obs,
			"status":        st,
			"sun_available": sunAvailable,
			"stale":         snap.Stale,
			"updated_at":    snap.UpdatedAt,
		})
	}
}

func sightingsHandler(client *feed.SightingsClient, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil || !client.Enabled() {
			writeJSON(w, http.StatusOK, map[string]any{
				"enabled":   false,
				"sightings": []feed.Sighting{},
			})
			return
		}
		sightings, err := client.Fetch(r.Context())
		if err != nil {
			logger.Warn("sightings feed fetch failed",
				"component", "api",
				"error", err)
			writeError(w, http.StatusBadGateway, "sightings feed unavailable")
			return
		}
		if sightings == nil {
			sightings = []feed.Sighting{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled":   true,
			"count":     len(sightings),
			"sightings": sightings,
		})
	}
}
