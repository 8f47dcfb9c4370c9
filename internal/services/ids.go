package services

import (
	"strings"

	"github.com/google/uuid"
)

// IDGenerator returns candidate task ids
type IDGenerator func() string

// ShortUUID returns a generator of length-character ids taken from a random
// UUID with its dashes removed. length is capped at 32.
func ShortUUID(length int) IDGenerator {
	if length <= 0 || length > 32 {
		length = 32
	}
	return func() string {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:length]
	}
}
