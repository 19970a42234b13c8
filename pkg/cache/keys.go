package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// LayoutKey derives the cache key for a computed layout. The
// fingerprint already encodes the node set, so spacing is the only
// other input that changes the artifact.
func LayoutKey(fingerprint uint64, sx, sy float64) string {
	return hashKey("layout", fmt.Sprintf("%x|%g|%g", fingerprint, sx, sy))
}

// FrameKey derives the cache key for a terminal materialized frame.
func FrameKey(fingerprint uint64, expandedHash string, chunk int) string {
	return hashKey("frame", fmt.Sprintf("%x|%s|%d", fingerprint, expandedHash, chunk))
}

// ExpandedHash produces an order-independent digest of an expanded id
// set, for use in FrameKey.
func ExpandedHash(ids []string) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(sum[:])
}

// hashKey generates a collision-resistant key of the form
// prefix:sha256(payload).
func hashKey(prefix, payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
