package ports

import (
	"net/http"

	e "github.com/pathways-mc/pathways/internal/errors"
	"github.com/pathways-mc/pathways/internal/logging"
	"github.com/pathways-mc/pathways/internal/ratelimiting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				logger := logging.FromContext(r.Context())
				statusCode := writeErrorResponse(r.Context(), w, e.RatelimitExceededError)
				logger.Info("Returning response", "statusCode", statusCode, "reason", "ratelimit exceeded", "key", rateLimiter.KeyFor(r))
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

// newStandardIPRateLimitMiddleware is the default per-IP limit applied to
// every public endpoint.
func newStandardIPRateLimitMiddleware(refillPerSecond ratelimiting.RefillPerSecond, burstSize ratelimiting.BurstSize) func(http.HandlerFunc) http.HandlerFunc {
	rateLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(refillPerSecond, burstSize)
	return NewRateLimitMiddleware(
		ratelimiting.NewRequestBasedRateLimiter(rateLimiter, ratelimiting.IPKeyFunc),
	)
}
