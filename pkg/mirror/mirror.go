// Package mirror normalizes cloud storage share links into direct-download
// URLs and orders primary/alternate candidates for one artifact.
package mirror

import (
	"context"
	"regexp"
	"strings"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
)

// Provider identifies the hosting service behind a candidate URL.
type Provider string

const (
	GDrive  Provider = "gdrive"
	Dropbox Provider = "dropbox"
	Direct  Provider = "direct"
)

// ParseProvider maps a preference token to a Provider. Unknown tokens
// default to GDrive.
func ParseProvider(token string) Provider {
	if strings.EqualFold(strings.TrimSpace(token), string(Dropbox)) {
		return Dropbox
	}
	return GDrive
}

// Detect identifies the provider hosting a URL.
func Detect(rawURL string) Provider {
	switch {
	case strings.Contains(rawURL, "drive.google.com"), strings.Contains(rawURL, "docs.google.com"):
		return GDrive
	case strings.Contains(rawURL, "dropbox.com"):
		return Dropbox
	default:
		return Direct
	}
}

var driveIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
}

// Normalize rewrites a share/viewer URL into its provider's content-serving
// form. The rewrite is purely string based; malformed or unrecognized inputs
// pass through unchanged.
func Normalize(rawURL string) string {
	switch Detect(rawURL) {
	case GDrive:
		for _, re := range driveIDPatterns {
			if m := re.FindStringSubmatch(rawURL); m != nil {
				return "https://drive.google.com/uc?export=download&id=" + m[1]
			}
		}
		return rawURL
	case Dropbox:
		if strings.Contains(rawURL, "dl=0") {
			return strings.Replace(rawURL, "dl=0", "dl=1", 1)
		}
		if strings.Contains(rawURL, "dl=1") {
			return rawURL
		}
		if strings.Contains(rawURL, "?") {
			return rawURL + "&dl=1"
		}
		return rawURL + "?dl=1"
	default:
		return rawURL
	}
}

// Candidate is one normalized fetch target.
type Candidate struct {
	URL      string
	Provider Provider
}

// Plan orders the candidate URLs for one artifact.
type Plan struct {
	Primary   Candidate
	Alternate Candidate

	HasPrimary   bool
	HasAlternate bool
}

// Build normalizes the raw candidate URLs and orders them so the preferred
// provider's URL is primary when present. With a single URL that one is
// primary regardless of preference.
func Build(prefer Provider, rawPrimary, rawAlternate string) Plan {
	var cands []Candidate
	for _, raw := range []string{rawPrimary, rawAlternate} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		cands = append(cands, Candidate{URL: Normalize(raw), Provider: Detect(raw)})
	}

	switch len(cands) {
	case 0:
		return Plan{}
	case 1:
		return Plan{Primary: cands[0], HasPrimary: true}
	}

	first, second := cands[0], cands[1]
	if second.Provider == prefer && first.Provider != prefer {
		first, second = second, first
	}
	return Plan{Primary: first, Alternate: second, HasPrimary: true, HasAlternate: true}
}

// FetchFunc runs a full retry chain against one candidate.
type FetchFunc func(ctx context.Context, url string, provider Provider) models.FetchOutcome

// Run drives fetch against the primary and, only on primary failure and only
// when present, the alternate. The reported used URL is the alternate iff the
// alternate attempt succeeded; otherwise it is the primary even when the
// primary failed, so failure records still show what was attempted first.
func (p Plan) Run(ctx context.Context, fetch FetchFunc) (models.FetchOutcome, string) {
	if !p.HasPrimary {
		return models.Failed(models.FailNoLink, models.FailNoLink), ""
	}

	outcome := fetch(ctx, p.Primary.URL, p.Primary.Provider)
	if outcome.OK || !p.HasAlternate {
		return outcome, p.Primary.URL
	}

	alt := fetch(ctx, p.Alternate.URL, p.Alternate.Provider)
	if alt.OK {
		return alt, p.Alternate.URL
	}
	return outcome, p.Primary.URL
}
