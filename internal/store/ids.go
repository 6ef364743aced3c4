package store

import (
	"strings"

	"github.com/google/uuid"
)

// newID returns prefix-<12 hex chars> taken from a random UUID (48 bits).
func newID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:12]
}
