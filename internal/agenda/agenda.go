// Package agenda extracts the download worklist from a summit agenda page:
// presentation links grouped under track headings.
package agenda

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/internal/common"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/mirror"
)

const fetchTimeout = 30 * time.Second

var directExtensions = []string{".pdf", ".pptx", ".ppt", ".zip"}

// Fetch retrieves the agenda page body over HTTP.
func Fetch(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: fetchTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build agenda request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agenda: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch agenda, status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Load reads the agenda from a local HTML file.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agenda file: %w", err)
	}
	return data, nil
}

// Parse walks the agenda document in order: each h1/h2/h3 heading opens a
// group, and every downloadable anchor below it becomes a WorkItem. Two
// provider links sharing a title within a group fold into one item, the
// second link becoming the alternate mirror.
func Parse(html []byte) ([]models.WorkItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse agenda HTML: %w", err)
	}

	var items []models.WorkItem
	// Index of the open item per (group, title), for mirror folding.
	open := make(map[string]int)
	group := "Ungrouped"

	doc.Find("h1, h2, h3, a[href]").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "a" {
			if heading := cleanText(s.Text()); heading != "" {
				group = heading
			}
			return
		}

		href, _ := s.Attr("href")
		href = common.SanitizeURL(href)
		if !downloadable(href) {
			return
		}

		title := cleanText(s.Text())
		if title == "" {
			title = href
		}

		key := group + "\x00" + title
		if idx, ok := open[key]; ok && items[idx].AlternateURL == "" &&
			mirror.Detect(items[idx].PrimaryURL) != mirror.Detect(href) {
			items[idx].AlternateURL = href
			return
		}

		items = append(items, models.WorkItem{
			Group:      group,
			Title:      title,
			PrimaryURL: href,
		})
		open[key] = len(items) - 1
	})

	return items, nil
}

// downloadable accepts cloud storage share links and direct file links.
func downloadable(href string) bool {
	if !common.ValidURL(href) {
		return false
	}
	if mirror.Detect(href) != mirror.Direct {
		return true
	}
	lower := strings.ToLower(href)
	for _, ext := range directExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
