// Package errors holds the API-level error classes the HTTP surface maps
// responses onto. Domain-specific sentinels live in internal/domain.
package errors

import "errors"

var (
	APIServerError         = errors.New("server error")
	APIClientError         = errors.New("client error")
	RatelimitExceededError = errors.New("ratelimit exceeded")
	APINotFoundError       = errors.New("not found")
)
