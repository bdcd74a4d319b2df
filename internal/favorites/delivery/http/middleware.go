package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
)

// APIKeyHeader carries the pre-shared key on protected calls
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware rejects requests whose X-API-Key header does not match
// the configured key. The comparison is constant-time and the rejection is
// uniform; clients learn nothing about why the key was refused.
func APIKeyMiddleware(apiKey string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				respondError(w, http.StatusUnauthorized, domain.KindUnauthorized, "Invalid or missing API key")
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

// Helper function for error responses
func respondError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
