package journey

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// PausePrefix links a pause control to its tracked journey by key.
const PausePrefix = "pause_"

// DeriveKey returns a stable content-based identifier for a tracked route.
// The hash covers origin, destination and the line filter in original
// order, so display names and delays never change an entity's identity.
// Incomplete input falls back to a positional key; such entities cannot be
// reconciled across reorders.
func DeriveKey(origin, destination string, lines []string, fallbackIndex int) string {
	if origin == "" || destination == "" {
		return fmt.Sprintf("journey_%d", fallbackIndex)
	}
	sum := md5.Sum([]byte(origin + "_" + destination + "_" + strings.Join(lines, ",")))
	return hex.EncodeToString(sum[:])
}

// WindowKey returns the composite identifier for a window-scan entry. The
// journeylist prefix namespaces these away from point-to-point keys.
func WindowKey(origin, destination, start, end, relatesTo string, index int) string {
	return fmt.Sprintf("journeylist_%s_%s_%s_%s_%s_%d", origin, destination, start, end, relatesTo, index)
}

// PauseKey returns the identity of the pause control linked to key.
func PauseKey(key string) string {
	return PausePrefix + key
}
