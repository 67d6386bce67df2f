package fetch

import (
	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
)

// Job is one dispatched artifact. DestDir and FallbackBase are fixed before
// dispatch so concurrent workers share no mutable state.
type Job struct {
	ItemID       int64
	Item         models.WorkItem
	DestDir      string
	FallbackBase string
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalItems       int     `json:"total_items"`
	Successful       int     `json:"successful"`
	Failed           int     `json:"failed"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
}
