package strutils

import (
	"fmt"
	"strings"
	"unicode"
)

const strippedUUIDLength = 32

// NormalizeUUID removes dashes and lower-cases the UUID. Player UUIDs are
// stored and compared in this form everywhere in the engine.
func NormalizeUUID(uuid string) (string, error) {
	var normalized strings.Builder
	normalized.Grow(strippedUUIDLength)

	for _, char := range uuid {
		switch {
		case char == '-':
			continue
		case strings.ContainsRune("0123456789abcdefABCDEF", char):
			normalized.WriteRune(unicode.ToLower(char))
		default:
			return "", fmt.Errorf("invalid character in UUID. input: '%s'", uuid)
		}
	}
	if normalized.Len() != strippedUUIDLength {
		return "", fmt.Errorf("normalized UUID has incorrect length. input: '%s'", uuid)
	}
	return normalized.String(), nil
}

func UUIDIsNormalized(uuid string) bool {
	normalized, err := NormalizeUUID(uuid)
	if err != nil {
		return false
	}
	return normalized == uuid
}
