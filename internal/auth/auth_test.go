package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protected(cfg Config) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(cfg)(inner)
}

func TestMiddlewareDisabled(t *testing.T) {
	h := protected(Config{Enabled: false})
	req := httptest.NewRequest("GET", "/api/v1/position", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("disabled auth: status = %d, want 200", w.Code)
	}
}

func TestMiddlewareEnforced(t *testing.T) {
	cfg := Config{Enabled: true, Token: "secret-token"}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/api/v1/position", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/position", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "/api/v1/position", "Basic secret-token", http.StatusUnauthorized},
		{"valid token", "/api/v1/position", "Bearer secret-token", http.StatusOK},
		{"healthz exempt", "/healthz", "", http.StatusOK},
		{"readyz exempt", "/readyz", "", http.StatusOK},
		{"metrics exempt", "/metrics", "", http.StatusOK},
		{"dashboard exempt", "/", "", http.StatusOK},
		{"asset exempt", "/app.js", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			protected(cfg).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
