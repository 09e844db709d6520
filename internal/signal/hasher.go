// Package signal hashes sensitive risk signals (device ids) so raw identifiers
// never reach durable storage or logs.
package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashDeviceID returns the lowercase hex SHA-256 of the trimmed raw device id.
func HashDeviceID(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
