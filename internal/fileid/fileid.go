// Package fileid derives constitution identifiers from source files and API requests.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	filePrefix = "file-"
	apiPrefix  = "api-"
	hashLen    = 16
)

// ForPath returns the id of the constitution imported from absolutePath.
// The same cleaned path always yields the same id, so re-importing a file
// replaces its articles instead of adding a second corpus.
func ForPath(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return filePrefix + hex.EncodeToString(hash[:])[:hashLen]
}

// New returns a random id for a constitution created through the API.
func New() string {
	return apiPrefix + uuid.NewString()
}

// FromFile reports whether id was derived from a file path.
func FromFile(id string) bool {
	return strings.HasPrefix(id, filePrefix)
}
