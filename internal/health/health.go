package health

import (
	"net/http"

	"github.com/issdash/issdash/internal/feed"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readyz returns 200 "ready\n" once the first successful poll has published
// position data, 503 before that.
func Readyz(store *feed.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if !store.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("waiting for first poll\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}
