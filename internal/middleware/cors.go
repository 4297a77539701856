package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// EnableCORS wraps next with CORS handling for the given origins. An empty
// list or "*" allows any origin without credentials.
func EnableCORS(origins []string, next http.Handler) http.Handler {
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, ProcessTimeHeader},
	}
	if allowAll {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return cors.New(opts).Handler(next)
}
