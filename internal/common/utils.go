package common

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
)

// ContentHash returns the hex-encoded SHA-256 of data.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// ShortHash returns a short stable hash of s, used to key debug artifacts.
func ShortHash(s string) string {
	hash := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", hash[:4])
}

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste
// issues: edge whitespace, trailing punctuation, markdown link syntax, and
// unencoded spaces.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Extract the target from a markdown link like [text](url).
	if open := strings.LastIndex(cleaned, "]("); open != -1 && strings.HasSuffix(cleaned, ")") {
		cleaned = cleaned[open+2 : len(cleaned)-1]
	}

	cleaned = strings.TrimRight(cleaned, ".,;:")
	cleaned = strings.ReplaceAll(cleaned, " ", "%20")
	return cleaned
}

// ValidURL reports whether s parses as an absolute http(s) URL.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
