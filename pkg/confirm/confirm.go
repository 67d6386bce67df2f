// Package confirm extracts follow-up download URLs from cloud storage
// interstitial pages (the "can't scan for viruses" warning Google Drive
// serves in place of large files).
package confirm

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Resolve searches an interstitial HTML body for a confirmation link and
// returns it as an absolute URL. baseURL is the URL the interstitial was
// served from; relative hrefs and form actions resolve against it.
//
// It returns ok=false when neither a confirm anchor nor a confirm form is
// present, meaning the page is a genuine dead end (permission denied, quota
// page) rather than a recoverable interstitial.
func Resolve(html, baseURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	// Preferred form: an anchor carrying the confirm token directly.
	if href, found := findConfirmAnchor(doc); found {
		return absolute(base, href), true
	}

	// Newer interstitials put the token in a hidden form field instead.
	if action, found := findConfirmForm(doc); found {
		return absolute(base, action), true
	}

	return "", false
}

func findConfirmAnchor(doc *goquery.Document) (string, bool) {
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if strings.Contains(h, "confirm=") {
			href = h
			return false
		}
		return true
	})
	return href, href != ""
}

func findConfirmForm(doc *goquery.Document) (string, bool) {
	var action string
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		input := form.Find(`input[name="confirm"]`)
		if input.Length() == 0 {
			return true
		}
		token, _ := input.Attr("value")
		act, _ := form.Attr("action")
		if act == "" {
			return true
		}
		sep := "?"
		if strings.Contains(act, "?") {
			sep = "&"
		}
		action = act + sep + "confirm=" + url.QueryEscape(token)
		return false
	})
	return action, action != ""
}

// absolute resolves ref against base; malformed refs pass through unchanged.
func absolute(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() || base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
