package importer

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// normalize cleans the entry's parts before hashing: lowercase, trimmed
// whitespace, unix line endings. Parts join with a newline so adjacent
// fields cannot collide into each other.
func normalize(e Entry) string {
	part := func(p string) string {
		p = strings.ToLower(p)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}
	return strings.Join([]string{part(e.Language), part(e.Word), part(e.Explanation)}, "\n")
}

// Fingerprint returns the SHA-256 hash of the normalized entry as a hex
// string. Imports use it to skip entries that have not changed since
// the previous run.
func Fingerprint(e Entry) string {
	sum := sha256.Sum256([]byte(normalize(e)))
	return fmt.Sprintf("%x", sum)
}
