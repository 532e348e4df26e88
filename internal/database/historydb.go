package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitecheck/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "sitecheck.db"

// timeLayout is fixed-width so that stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// HistoryDB stores run history in SQLite.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per invocation of the scan command
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		site_count INTEGER DEFAULT 0
	);

	-- Site reports store the full result of one site in one run
	CREATE TABLE IF NOT EXISTS site_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		site TEXT NOT NULL,
		url TEXT NOT NULL,
		checked_at TEXT NOT NULL,
		online INTEGER NOT NULL,
		score INTEGER NOT NULL,
		grade TEXT NOT NULL,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_site ON site_reports(site);
	CREATE INDEX IF NOT EXISTS idx_reports_checked_at ON site_reports(checked_at);

	-- Versions mirror the records written to the HTML archive
	CREATE TABLE IF NOT EXISTS versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		site TEXT NOT NULL,
		date TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		path TEXT NOT NULL,
		UNIQUE(site, date, sequence)
	);

	CREATE INDEX IF NOT EXISTS idx_versions_site_date ON versions(site, date);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one scan invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	SiteCount  int
}

// BeginRun records the start of a run and returns its ID.
func (hdb *HistoryDB) BeginRun(ctx context.Context, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := hdb.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		id, formatTime(startedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	return id, nil
}

// FinishRun marks the run finished with the number of sites it checked.
func (hdb *HistoryDB) FinishRun(ctx context.Context, runID string, finishedAt time.Time, siteCount int) error {
	result, err := hdb.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, site_count = ? WHERE id = ?`,
		formatTime(finishedAt), siteCount, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: unknown run %s", runID)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil when the run does not exist.
func (hdb *HistoryDB) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	err := hdb.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, site_count FROM runs WHERE id = ?`, runID,
	).Scan(&run.ID, &startedAt, &finishedAt, &run.SiteCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &run, nil
}

// SaveSiteReport stores a site report under runID. When the report carries a
// newly archived version, the version record is stored in the same transaction.
func (hdb *HistoryDB) SaveSiteReport(ctx context.Context, runID string, report *model.SiteReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO site_reports (run_id, site, url, checked_at, online, score, grade, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		report.Target.Domain,
		report.Target.URL,
		formatTime(report.CheckedAt),
		report.Reachability.Online,
		report.Score,
		report.Grade,
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save site report: %w", err)
	}

	if rec := report.Store.Record; rec != nil {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO versions (run_id, site, date, sequence, content_hash, path)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(site, date, sequence) DO UPDATE SET
			run_id = excluded.run_id,
			content_hash = excluded.content_hash,
			path = excluded.path
		`,
			runID,
			report.Target.Domain,
			rec.Date,
			rec.Sequence,
			rec.ContentHash,
			rec.Path,
		)
		if err != nil {
			return fmt.Errorf("failed to save version record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit site report: %w", err)
	}
	return nil
}

// ReportMetadata summarizes a stored site report without loading its JSON.
type ReportMetadata struct {
	// ID is the unique identifier of the site report in the database.
	ID int64 `json:"id"`

	// RunID is the run the report belongs to.
	RunID string `json:"run_id"`

	// Site is the domain key of the checked site.
	Site string `json:"site"`

	// URL is the checked URL.
	URL string `json:"url"`

	// CheckedAt is when the pipeline started for the site.
	CheckedAt time.Time `json:"checked_at"`

	Online bool   `json:"online"`
	Score  int    `json:"score"`
	Grade  string `json:"grade"`

	// Error is the pipeline error, empty for a complete run.
	Error string `json:"error,omitempty"`
}

// GetHistory returns report metadata for site, newest first.
// A limit of zero or less returns every report.
func (hdb *HistoryDB) GetHistory(ctx context.Context, site string, limit int) ([]ReportMetadata, error) {
	query := `
	SELECT id, run_id, site, url, checked_at, online, score, grade, error
	FROM site_reports
	WHERE site = ?
	ORDER BY checked_at DESC, id DESC
	`
	args := []any{site}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var checkedAt string
		var errText sql.NullString

		if err := rows.Scan(&meta.ID, &meta.RunID, &meta.Site, &meta.URL, &checkedAt,
			&meta.Online, &meta.Score, &meta.Grade, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		meta.CheckedAt = parseTimestamp(checkedAt)
		meta.Error = errText.String
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetLatestReport retrieves the most recent report for site, or nil when none exists.
func (hdb *HistoryDB) GetLatestReport(ctx context.Context, site string) (*model.SiteReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, `
	SELECT report_json FROM site_reports
	WHERE site = ?
	ORDER BY checked_at DESC, id DESC
	LIMIT 1
	`, site).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site report: %w", err)
	}
	return decodeReport(reportJSON)
}

// GetReportByID retrieves a site report by its database ID, or nil when none exists.
func (hdb *HistoryDB) GetReportByID(ctx context.Context, id int64) (*model.SiteReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM site_reports WHERE id = ?`, id,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site report: %w", err)
	}
	return decodeReport(reportJSON)
}

// ListSites returns every site with at least one stored report, sorted.
func (hdb *HistoryDB) ListSites(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT site FROM site_reports ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// ScoreDelta compares the two most recent reports of a site.
type ScoreDelta struct {
	Current  ReportMetadata  `json:"current"`
	Previous *ReportMetadata `json:"previous,omitempty"`
}

// Change returns the score difference, zero without a previous report.
func (d ScoreDelta) Change() int {
	if d.Previous == nil {
		return 0
	}
	return d.Current.Score - d.Previous.Score
}

// GetScoreDelta returns the delta between the last two reports of site,
// or nil when the site has no reports.
func (hdb *HistoryDB) GetScoreDelta(ctx context.Context, site string) (*ScoreDelta, error) {
	history, err := hdb.GetHistory(ctx, site, 2)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}

	delta := &ScoreDelta{Current: history[0]}
	if len(history) > 1 {
		delta.Previous = &history[1]
	}
	return delta, nil
}

// ListVersions returns the recorded archive versions of site on date, by sequence.
func (hdb *HistoryDB) ListVersions(ctx context.Context, site, date string) ([]model.VersionRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT date, sequence, content_hash, path
	FROM versions
	WHERE site = ? AND date = ?
	ORDER BY sequence
	`, site, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var records []model.VersionRecord
	for rows.Next() {
		var rec model.VersionRecord
		if err := rows.Scan(&rec.Date, &rec.Sequence, &rec.ContentHash, &rec.Path); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func decodeReport(reportJSON string) (*model.SiteReport, error) {
	var report model.SiteReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
