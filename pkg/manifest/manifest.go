package manifest

// SummaryManifest is a lightweight JSON overview of one run: totals plus
// per-item status, written next to the CSV manifest.
type SummaryManifest struct {
	GeneratedAt string        `json:"generated_at"`
	TotalItems  int           `json:"total_items"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	Results     []ItemSummary `json:"results"`
}

// ItemSummary is summary information for a single artifact.
type ItemSummary struct {
	Group       string `json:"group"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
	SavedPath   string `json:"saved_path,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}
