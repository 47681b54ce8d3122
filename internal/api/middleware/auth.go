package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/allermedia/allerai-event-scorer/internal/api/response"
)

// Auth middleware validates the static x-api-key header against the
// configured key.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("x-api-key")
			if got == "" {
				response.RespondUnauthorized(w, "Missing x-api-key header")

				return
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				response.RespondUnauthorized(w, "Invalid API key")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
