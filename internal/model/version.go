package model

// DateLayout is the calendar-day format used for version partitions.
const DateLayout = "2006-01-02"

// VersionRecord describes one archived HTML version.
// For a given domain and date, sequences are contiguous starting at 0.
type VersionRecord struct {
	// Date is the partition key (YYYY-MM-DD).
	Date string `json:"date"`

	// Sequence is 0 for <date>.html and n for <date>_n.html.
	Sequence int `json:"sequence"`

	// ContentHash is the hex-encoded SHA3-256 digest of the file.
	ContentHash string `json:"content_hash"`

	// Path is the file location on disk.
	Path string `json:"path"`
}

// StoreResult is returned by the content store for every save call.
type StoreResult struct {
	// SavedFile is the base name of the written file, or empty when nothing was written.
	SavedFile string `json:"saved_file,omitempty"`

	// TotalVersions is the number of files in today's partition.
	TotalVersions int `json:"total_versions"`

	// Record describes the written version. Nil when nothing was written.
	Record *VersionRecord `json:"record,omitempty"`
}

// Saved reports whether a new version was written.
func (r StoreResult) Saved() bool {
	return r.SavedFile != ""
}
