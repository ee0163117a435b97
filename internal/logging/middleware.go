package logging

import (
	"log/slog"
	"net/http"
)

// NewRequestLoggerMiddleware attaches a request-scoped logger to the request
// context, annotated with the target player (when present) and user agent.
func NewRequestLoggerMiddleware(logger *slog.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			playerUUID := r.PathValue("uuid")
			if playerUUID == "" {
				playerUUID = "<missing>"
			}

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			requestLogger := logger.With(
				slog.String("playerUUID", playerUUID),
				slog.String("userAgent", userAgent),
				slog.String("path", r.URL.Path),
			)

			next(w, r.WithContext(AddToContext(r.Context(), requestLogger)))
		}
	}
}
