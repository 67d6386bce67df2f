// Package models defines data structures for configuration and results.
package models

// WorkItem is one artifact to retrieve, as extracted from the agenda.
// Immutable once built by the agenda stage.
type WorkItem struct {
	Group        string `yaml:"group"`
	Title        string `yaml:"title"`
	PrimaryURL   string `yaml:"primary_url"`
	AlternateURL string `yaml:"alternate_url,omitempty"`
}

// Item statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Failure kinds carried in a record's note.
const (
	FailNoLink      = "no_link"
	FailHTMLNotFile = "html_not_file"
	FailZeroByte    = "zero_byte"
	FailTransport   = "transport_error"
)

// FetchOutcome is the terminal result of one retrieval attempt chain.
// Never retried after being returned to the caller.
type FetchOutcome struct {
	OK          bool
	Kind        string // one of the Fail* kinds when !OK
	Note        string
	SavedPath   string
	SavedName   string
	ContentType string
}

// Failed builds a failure outcome with the given kind and note.
func Failed(kind, note string) FetchOutcome {
	return FetchOutcome{Kind: kind, Note: note}
}

// ResultRecord is written exactly once per WorkItem.
// SavedPath is non-empty iff Status == StatusOK.
type ResultRecord struct {
	Group        string `json:"group"`
	Title        string `json:"title"`
	PrimaryURL   string `json:"primary_url"`
	AlternateURL string `json:"alternate_url,omitempty"`
	UsedURL      string `json:"used_url,omitempty"`
	SavedName    string `json:"saved_name,omitempty"`
	SavedPath    string `json:"saved_path,omitempty"`
	Status       string `json:"status"`
	Note         string `json:"note,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
}
