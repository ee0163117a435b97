package domaintest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pathways-mc/pathways/internal/strutils"
)

// NewUUID returns a fresh player uuid in normalized (dashless, lowercase)
// form.
func NewUUID(t *testing.T) string {
	id, err := uuid.NewRandom()
	require.NoError(t, err)

	normalized, err := strutils.NormalizeUUID(id.String())
	require.NoError(t, err)
	return normalized
}
