// Package ports exposes the progression engine over HTTP.
package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	e "github.com/pathways-mc/pathways/internal/errors"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/ratelimiting"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, payload any) {
	marshalled, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(marshalled)
}

// MakeListPathsHandler serves the full set of configured paths.
func MakeListPathsHandler(
	manager *pathing.Manager,
	logger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(logger),
		sentryMiddleware,
		buildMetricsMiddleware(),
		newStandardIPRateLimitMiddleware(ratelimiting.RefillPerSecond(2), ratelimiting.BurstSize(120)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		paths := manager.AllPaths()
		response := make([]pathResponse, 0, len(paths))
		for _, path := range paths {
			response = append(response, pathToResponse(path))
		}
		writeJSONResponse(w, http.StatusOK, response)
	}

	return middleware(handler)
}

// MakeGetPathHandler serves a single path by name, case-insensitively.
func MakeGetPathHandler(
	manager *pathing.Manager,
	logger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(logger),
		sentryMiddleware,
		buildMetricsMiddleware(),
		newStandardIPRateLimitMiddleware(ratelimiting.RefillPerSecond(2), ratelimiting.BurstSize(120)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		path := manager.FindPathByDisplayName(name, false)
		if path == nil {
			writeErrorResponse(r.Context(), w, fmt.Errorf("%w: no path named '%s'", e.APINotFoundError, name))
			return
		}

		writeJSONResponse(w, http.StatusOK, pathToResponse(path))
	}

	return middleware(handler)
}
