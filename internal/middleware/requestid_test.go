package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "propagates incoming", incoming: "abc-123", keep: true},
		{name: "generates when missing"},
		{name: "replaces oversized", incoming: strings.Repeat("x", 200)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set("X-Request-ID", tc.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Header().Get("X-Request-ID") != seen {
				t.Fatalf("header %q does not match context %q", rec.Header().Get("X-Request-ID"), seen)
			}
			if tc.keep {
				if seen != tc.incoming {
					t.Fatalf("expected %q, got %q", tc.incoming, seen)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Fatalf("expected generated uuid, got %q", seen)
			}
		})
	}
}
