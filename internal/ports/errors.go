package ports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pathways-mc/pathways/internal/domain"
	e "github.com/pathways-mc/pathways/internal/errors"
	"github.com/pathways-mc/pathways/internal/logging"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

// writeErrorResponse maps the error onto an HTTP status and writes a JSON
// error body. Returns the status code for logging.
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, responseError error) int {
	w.Header().Set("Content-Type", "application/json")

	statusCode := http.StatusInternalServerError

	switch {
	case errors.Is(responseError, domain.ErrPathNotFound),
		errors.Is(responseError, e.APINotFoundError):
		statusCode = http.StatusNotFound
	case errors.Is(responseError, domain.ErrPathAlreadyActive),
		errors.Is(responseError, domain.ErrPathAlreadyCompleted),
		errors.Is(responseError, domain.ErrPrerequisitesNotMet),
		errors.Is(responseError, domain.ErrTooManyActivePaths):
		statusCode = http.StatusConflict
	case errors.Is(responseError, e.APIClientError):
		statusCode = http.StatusBadRequest
	case errors.Is(responseError, e.RatelimitExceededError):
		statusCode = http.StatusTooManyRequests
	case errors.Is(responseError, e.APIServerError):
		statusCode = http.StatusInternalServerError
	}

	errorBytes, err := json.Marshal(errorResponse{
		Success: false,
		Cause:   responseError.Error(),
	})
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to marshal error response", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return http.StatusInternalServerError
	}

	w.WriteHeader(statusCode)
	w.Write(errorBytes)
	return statusCode
}
