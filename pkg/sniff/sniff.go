// Package sniff classifies response bodies by their leading bytes,
// falling back to the declared content type when no magic matches.
package sniff

import (
	"bytes"
	"strings"
)

// PeekSize is how many leading bytes callers should feed Detect.
const PeekSize = 16 * 1024

// Result is a pure classification of a byte prefix plus declared content type.
// IsPayload is false for HTML interstitials and unrecognized content.
type Result struct {
	Extension string
	IsPayload bool
}

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

const (
	mimePDF  = "application/pdf"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimePPT  = "application/vnd.ms-powerpoint"
)

// Detect classifies a body prefix and declared content type.
// Magic bytes win over the declared type; an unrecognized combination
// comes back as {".bin", false} so callers never save garbage under a
// wrong extension.
func Detect(prefix []byte, contentType string) Result {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	if bytes.HasPrefix(prefix, pdfMagic) {
		return Result{Extension: ".pdf", IsPayload: true}
	}
	if bytes.HasPrefix(prefix, zipMagic) {
		// OOXML presentations are ZIP containers; trust the declared type
		// to tell them apart from plain archives.
		if strings.Contains(ct, "presentation") || strings.Contains(ct, "officedocument") {
			return Result{Extension: ".pptx", IsPayload: true}
		}
		return Result{Extension: ".zip", IsPayload: true}
	}

	switch {
	case strings.HasPrefix(ct, mimePDF):
		return Result{Extension: ".pdf", IsPayload: true}
	case strings.HasPrefix(ct, mimePPTX):
		return Result{Extension: ".pptx", IsPayload: true}
	case strings.HasPrefix(ct, mimePPT):
		return Result{Extension: ".ppt", IsPayload: true}
	case strings.HasPrefix(ct, "text/html"):
		return Result{Extension: ".html", IsPayload: false}
	}

	return Result{Extension: ".bin", IsPayload: false}
}
