package ports

import (
	"log/slog"
	"net/http"

	"github.com/pathways-mc/pathways/internal/debug"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/ratelimiting"
)

// MakeDebugHandler serves the support dump.
func MakeDebugHandler(
	reporter *debug.Reporter,
	logger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(logger),
		sentryMiddleware,
		buildMetricsMiddleware(),
		newStandardIPRateLimitMiddleware(ratelimiting.RefillPerSecond(1), ratelimiting.BurstSize(10)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, reporter.Report())
	}

	return middleware(handler)
}
