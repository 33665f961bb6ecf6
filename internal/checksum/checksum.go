// Package checksum produces content digests used to detect replica drift.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/starford/laguz/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Canvas returns the hex-encoded SHA-256 digest of a set of lines.
// Lines are serialized in id order, so two replicas holding the same
// content produce the same digest regardless of input order.
func Canvas(lines []models.Line) string {
	sorted := make([]models.Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	data, _ := json.Marshal(sorted)
	return Sum(data)
}
