package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// hashPrefixLen truncates the hex digest, matching the rest of the
// ecosystem's use of a short content fingerprint rather than a full digest.
const hashPrefixLen = 16

// ContentHash computes the dedup fingerprint for a fetched item:
// truncated SHA-256 of lowercase(title + content[:500]).
func ContentHash(title, content string) string {
	if len(content) > 500 {
		content = content[:500]
	}
	sum := sha256.Sum256([]byte(strings.ToLower(title + content)))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}
