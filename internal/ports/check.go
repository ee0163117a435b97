package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pathways-mc/pathways/internal/checker"
	e "github.com/pathways-mc/pathways/internal/errors"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/ratelimiting"
	"github.com/pathways-mc/pathways/internal/reporting"
	"github.com/pathways-mc/pathways/internal/strutils"
)

type checkPathResponse struct {
	Name           string `json:"name"`
	NewlyCompleted []int  `json:"newlyCompleted,omitempty"`
	Completed      bool   `json:"completed"`
}

type checkResponse struct {
	Activated []string            `json:"activated,omitempty"`
	Paths     []checkPathResponse `json:"paths"`
}

// MakeCheckPlayerHandler runs an on-demand evaluation pass for the player,
// outside the periodic schedule.
func MakeCheckPlayerHandler(
	chk *checker.Checker,
	logger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(logger),
		sentryMiddleware,
		buildMetricsMiddleware(),
		newStandardIPRateLimitMiddleware(ratelimiting.RefillPerSecond(1), ratelimiting.BurstSize(30)),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		playerUUID, err := strutils.NormalizeUUID(r.PathValue("uuid"))
		if err != nil {
			writeErrorResponse(ctx, w, fmt.Errorf("%w: invalid uuid", e.APIClientError))
			return
		}
		ctx = reporting.SetPlayerUUIDInContext(ctx, playerUUID)

		report, err := chk.Evaluate(ctx, playerUUID)
		if err != nil {
			reporting.Report(ctx, err)
			writeErrorResponse(ctx, w, fmt.Errorf("%w: evaluation failed", e.APIServerError))
			return
		}

		response := checkResponse{Paths: make([]checkPathResponse, 0, len(report.Paths))}
		for _, activated := range report.Activated {
			response.Activated = append(response.Activated, activated.DisplayName())
		}
		for _, evaluation := range report.Paths {
			response.Paths = append(response.Paths, checkPathResponse{
				Name:           evaluation.Path.DisplayName(),
				NewlyCompleted: evaluation.NewlyCompleted,
				Completed:      evaluation.Completed,
			})
		}

		writeJSONResponse(w, http.StatusOK, response)
	}

	return middleware(handler)
}
