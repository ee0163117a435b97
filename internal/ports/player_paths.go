package ports

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pathways-mc/pathways/internal/checker"
	"github.com/pathways-mc/pathways/internal/domain"
	e "github.com/pathways-mc/pathways/internal/errors"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/pathing"
	"github.com/pathways-mc/pathways/internal/ratelimiting"
	"github.com/pathways-mc/pathways/internal/reporting"
	"github.com/pathways-mc/pathways/internal/strutils"
)

type playerPathResponse struct {
	Name            string                `json:"name"`
	Status          string                `json:"status"`
	TimesCompleted  int                   `json:"timesCompleted,omitempty"`
	LastCompletedAt *time.Time            `json:"lastCompletedAt,omitempty"`
	Requirements    []requirementResponse `json:"requirements,omitempty"`
}

// MakeGetPlayerPathsHandler serves the player's view of the path roster:
// every visible path with its status, and per-requirement progress for the
// active ones.
func MakeGetPlayerPathsHandler(
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
		ctx := r.Context()

		playerUUID, err := strutils.NormalizeUUID(r.PathValue("uuid"))
		if err != nil {
			writeErrorResponse(ctx, w, fmt.Errorf("%w: invalid uuid", e.APIClientError))
			return
		}
		ctx = reporting.SetPlayerUUIDInContext(ctx, playerUUID)

		response := make([]playerPathResponse, 0)
		for _, path := range manager.VisiblePaths(ctx, playerUUID) {
			progress, err := manager.ProgressFor(ctx, playerUUID, path)
			if err != nil {
				writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to load progress", e.APIServerError))
				return
			}

			pathEntry := playerPathResponse{
				Name:            path.DisplayName(),
				Status:          string(progress.Status),
				TimesCompleted:  progress.TimesCompleted,
				LastCompletedAt: progress.LastCompletedAt,
			}

			if progress.Status == domain.StatusActive {
				views, err := checker.FormatRequirements(ctx, manager, playerUUID, path)
				if err != nil {
					writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to format requirements", e.APIServerError))
					return
				}
				pathEntry.Requirements = requirementViewsToResponse(views)
			}

			response = append(response, pathEntry)
		}

		writeJSONResponse(w, http.StatusOK, response)
	}

	return middleware(handler)
}

// MakeActivatePathHandler activates a path for a player. The optional request
// body may set force to bypass prerequisite and concurrency checks.
func MakeActivatePathHandler(
	manager *pathing.Manager,
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

		name := r.PathValue("name")
		path := manager.FindPathByDisplayName(name, false)
		if path == nil {
			writeErrorResponse(ctx, w, fmt.Errorf("%w: no path named '%s'", domain.ErrPathNotFound, name))
			return
		}

		request := struct {
			Force bool `json:"force"`
		}{}
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to read request body", e.APIClientError))
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &request); err != nil {
				writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to parse request body", e.APIClientError))
				return
			}
		}

		err = manager.ActivatePath(ctx, playerUUID, path, pathing.ActivateOptions{Force: request.Force})
		if err != nil {
			if !isClientActivationError(err) {
				reporting.Report(ctx, err, map[string]string{"path": path.DisplayName()})
			}
			statusCode := writeErrorResponse(ctx, w, err)
			logging.FromContext(ctx).InfoContext(ctx, "Returning response", "statusCode", statusCode, "path", path.DisplayName())
			return
		}

		writeJSONResponse(w, http.StatusOK, struct {
			Success bool   `json:"success"`
			Path    string `json:"path"`
			Status  string `json:"status"`
		}{
			Success: true,
			Path:    path.DisplayName(),
			Status:  string(domain.StatusActive),
		})
	}

	return middleware(handler)
}

func isClientActivationError(err error) bool {
	return errors.Is(err, domain.ErrPathAlreadyActive) ||
		errors.Is(err, domain.ErrPathAlreadyCompleted) ||
		errors.Is(err, domain.ErrPrerequisitesNotMet) ||
		errors.Is(err, domain.ErrTooManyActivePaths)
}
