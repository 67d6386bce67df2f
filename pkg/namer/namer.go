// Package namer derives on-disk filenames from response headers, caller
// fallbacks, and sniffed extensions.
package namer

import (
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

const maxNameLen = 150

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespace   = regexp.MustCompile(`\s+`)

	// Fallbacks for disposition headers mime.ParseMediaType rejects,
	// e.g. unquoted filenames containing spaces.
	extFilenameRE   = regexp.MustCompile(`(?i)filename\*\s*=\s*(?:utf-8|iso-8859-1)''([^;]+)`)
	plainFilenameRE = regexp.MustCompile(`(?i)filename\s*=\s*"?([^";]+)"?`)
)

// FromHeaders derives the final filename for a saved artifact. A filename
// supplied by Content-Disposition (extended form checked first) wins over
// the fallback base name; the sniffed extension is appended when the chosen
// name carries none. The result is deterministic and never empty.
func FromHeaders(h http.Header, fallback, ext string) string {
	name := fromDisposition(h.Get("Content-Disposition"))
	if name == "" {
		name = fallback
	}
	name = Sanitize(name)
	if filepath.Ext(name) == "" {
		name += ext
	}
	return name
}

func fromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		// ParseMediaType decodes filename* into the filename key already,
		// preferring the extended form per RFC 6266.
		if v := params["filename"]; v != "" {
			return v
		}
	}
	if m := extFilenameRE.FindStringSubmatch(disposition); m != nil {
		if decoded, err := url.QueryUnescape(m[1]); err == nil {
			return decoded
		}
		return m[1]
	}
	if m := plainFilenameRE.FindStringSubmatch(disposition); m != nil {
		return m[1]
	}
	return ""
}

// Sanitize strips filesystem-illegal characters, collapses whitespace, and
// caps the length. It never returns an empty string.
func Sanitize(name string) string {
	name = illegalChars.ReplaceAllString(name, "_")
	name = whitespace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " ._")
	if runes := []rune(name); len(runes) > maxNameLen {
		name = string(runes[:maxNameLen])
		name = strings.TrimRight(name, " ._")
	}
	if name == "" {
		return "artifact"
	}
	return name
}
