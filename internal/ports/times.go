package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pathways-mc/pathways/internal/domain"
	e "github.com/pathways-mc/pathways/internal/errors"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/playtime"
	"github.com/pathways-mc/pathways/internal/ratelimiting"
	"github.com/pathways-mc/pathways/internal/reporting"
	"github.com/pathways-mc/pathways/internal/strutils"
)

// MakeGetPlayerTimesHandler serves the player's accrued playtime per bucket,
// in minutes.
func MakeGetPlayerTimesHandler(
	playTimes *playtime.Manager,
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

		buckets := domain.AllTimeBuckets()
		if rawBucket := r.URL.Query().Get("bucket"); rawBucket != "" {
			bucket, ok := domain.ParseTimeBucket(rawBucket)
			if !ok {
				writeErrorResponse(ctx, w, fmt.Errorf("%w: unknown bucket '%s'", e.APIClientError, rawBucket))
				return
			}
			buckets = []domain.TimeBucket{bucket}
		}

		response := make(map[string]int, len(buckets))
		for _, bucket := range buckets {
			minutes, err := playTimes.PlayTime(ctx, playerUUID, bucket)
			if err != nil {
				reporting.Report(ctx, err, map[string]string{"bucket": string(bucket)})
				writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to load playtime", e.APIServerError))
				return
			}
			response[string(bucket)] = minutes
		}

		writeJSONResponse(w, http.StatusOK, response)
	}

	return middleware(handler)
}

type setPlayerTimeRequest struct {
	Bucket  string `json:"bucket"`
	Minutes int    `json:"minutes"`
	// Mode is "set" (default) or "add".
	Mode string `json:"mode"`
}

// MakeSetPlayerTimeHandler overwrites or credits a player's playtime counter
// in one bucket. Admin surface for corrections and imports.
func MakeSetPlayerTimeHandler(
	playTimes *playtime.Manager,
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

		var request setPlayerTimeRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeErrorResponse(ctx, w, fmt.Errorf("%w: malformed request body", e.APIClientError))
			return
		}

		bucket, ok := domain.ParseTimeBucket(request.Bucket)
		if !ok {
			writeErrorResponse(ctx, w, fmt.Errorf("%w: unknown bucket '%s'", e.APIClientError, request.Bucket))
			return
		}

		switch request.Mode {
		case "", "set":
			if request.Minutes < 0 {
				writeErrorResponse(ctx, w, fmt.Errorf("%w: minutes must not be negative", e.APIClientError))
				return
			}
			err = playTimes.SetPlayTime(ctx, playerUUID, bucket, request.Minutes)
		case "add":
			if request.Minutes <= 0 {
				writeErrorResponse(ctx, w, fmt.Errorf("%w: minutes must be positive", e.APIClientError))
				return
			}
			err = playTimes.AddPlayTime(ctx, playerUUID, bucket, request.Minutes)
		default:
			writeErrorResponse(ctx, w, fmt.Errorf("%w: unknown mode '%s'", e.APIClientError, request.Mode))
			return
		}
		if err != nil {
			reporting.Report(ctx, err, map[string]string{"bucket": string(bucket)})
			writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to update playtime", e.APIServerError))
			return
		}

		minutes, err := playTimes.PlayTime(ctx, playerUUID, bucket)
		if err != nil {
			reporting.Report(ctx, err, map[string]string{"bucket": string(bucket)})
			writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to load playtime", e.APIServerError))
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]any{
			"success": true,
			"bucket":  string(bucket),
			"minutes": minutes,
		})
	}

	return middleware(handler)
}

type topTimeResponse struct {
	UUID    string `json:"uuid"`
	Minutes int    `json:"minutes"`
}

const (
	defaultTopTimesLimit = 10
	maxTopTimesLimit     = 100
)

// MakeTopTimesHandler serves the playtime leaderboard for one bucket, most
// minutes first.
func MakeTopTimesHandler(
	playTimes *playtime.Manager,
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

		bucket := domain.BucketTotal
		if rawBucket := r.URL.Query().Get("bucket"); rawBucket != "" {
			parsed, ok := domain.ParseTimeBucket(rawBucket)
			if !ok {
				writeErrorResponse(ctx, w, fmt.Errorf("%w: unknown bucket '%s'", e.APIClientError, rawBucket))
				return
			}
			bucket = parsed
		}

		limit := defaultTopTimesLimit
		if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
			parsed, err := strconv.Atoi(rawLimit)
			if err != nil || parsed <= 0 || parsed > maxTopTimesLimit {
				writeErrorResponse(ctx, w, fmt.Errorf("%w: limit must be between 1 and %d", e.APIClientError, maxTopTimesLimit))
				return
			}
			limit = parsed
		}

		entries, err := playTimes.TopPlayTimes(ctx, bucket, limit)
		if err != nil {
			reporting.Report(ctx, err, map[string]string{"bucket": string(bucket)})
			writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to load leaderboard", e.APIServerError))
			return
		}

		response := make([]topTimeResponse, 0, len(entries))
		for _, entry := range entries {
			response = append(response, topTimeResponse{
				UUID:    entry.PlayerUUID,
				Minutes: entry.Minutes,
			})
		}

		writeJSONResponse(w, http.StatusOK, response)
	}

	return middleware(handler)
}
