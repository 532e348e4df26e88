// Package database provides SQLite-based run history for sitecheck.
//
// The HistoryDB stores, per run:
//   - a run row keyed by a random UUID
//   - one site report per checked site (score, grade and the full report as JSON)
//   - the archived version record, when the run wrote a new HTML version
//
// It backs the history command (score trend and delta between runs). The
// archived HTML itself stays in the flat file archive; only metadata lives here.
//
// SQLite is provided by modernc.org/sqlite, so the binary stays CGO-free and
// the database is a single file in the XDG data directory.
package database
