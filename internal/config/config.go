package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitecheck"

	// DefaultTimeout bounds every network probe.
	DefaultTimeout = 10 * time.Second

	// DefaultBatchSize of 1 checks sites strictly one after another.
	DefaultBatchSize = 1

	// DefaultDebounce is the minimum age of the latest archived version
	// before a new one is written.
	DefaultDebounce = 10 * time.Minute

	// DefaultSnapshotTimeout bounds one snapshot render.
	DefaultSnapshotTimeout = 20 * time.Second

	// DefaultUserAgent identifies sitecheck in HTTP requests.
	DefaultUserAgent = "sitecheck/1.0 (+https://github.com/nao1215/sitecheck)"

	// DefaultMaxBodySize limits the response body read per request.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// archiveDirName is the archive subdirectory of the XDG data directory.
	archiveDirName = "archive"
)

// DefaultErrorKeywords are searched for in each fetched page.
var DefaultErrorKeywords = []string{"404", "not found", "error", "503", "maintenance"}

// Config holds all configuration options for sitecheck.
// It is populated from CLI flags and the optional config file and passed
// through the application rather than kept in global state.
type Config struct {
	// Timeout is the per-probe network timeout.
	Timeout time.Duration

	// BatchSize is the number of sites checked concurrently.
	// 1 keeps the sequential per-site ordering.
	BatchSize int

	// Rate limits how many sites start per second. 0 means unlimited.
	Rate float64

	// ArchiveDir is the root of the HTML version archive.
	// Defaults to the XDG data directory.
	ArchiveDir string

	// Debounce is the minimum age of the latest archived version before a
	// new one is considered.
	Debounce time.Duration

	// Snapshot enables visual snapshots with headless Chrome.
	Snapshot bool

	// SnapshotTimeout bounds one snapshot render.
	SnapshotTimeout time.Duration

	// ChromePath is the Chrome binary for snapshots. Empty searches PATH.
	ChromePath string

	// ProxyAddress routes all probe traffic through a SOCKS5 proxy (host:port).
	ProxyAddress string

	// UserAgent is the User-Agent header sent with plain probe requests.
	UserAgent string

	// ErrorKeywords are the keywords searched for in fetched pages.
	ErrorKeywords []string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .sitecheck is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds the config file contents, if any.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Tee also prints the text report to stdout when ReportFile is set.
	Tee bool

	// ListFile is a file of site URLs, one per line.
	ListFile string

	// Targets is the list of site URLs to check, in order.
	Targets []string

	// AbortOnError stops the batch at the first site whose pipeline fails.
	// By default the site is reported as failed and the batch continues.
	AbortOnError bool

	// DBDir is the directory of the SQLite history database.
	DBDir string

	// SaveToDB records each run in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeout,
		BatchSize:       DefaultBatchSize,
		ArchiveDir:      DefaultArchiveDir(),
		Debounce:        DefaultDebounce,
		Snapshot:        true,
		SnapshotTimeout: DefaultSnapshotTimeout,
		UserAgent:       DefaultUserAgent,
		ErrorKeywords:   append([]string(nil), DefaultErrorKeywords...),
		MaxBodySize:     DefaultMaxBodySize,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
	}
}

// XDGDataDir returns the XDG data directory for sitecheck.
// On Linux: ~/.local/share/sitecheck
// On macOS: ~/Library/Application Support/sitecheck
// On Windows: %LOCALAPPDATA%\sitecheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitecheck.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultArchiveDir returns <XDG data dir>/archive.
func DefaultArchiveDir() string {
	return filepath.Join(XDGDataDir(), archiveDirName)
}

// Validate checks if the configuration is valid and returns the first problem found.
// It is called once after flag parsing, before any site is checked.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Rate < 0 {
		return ErrInvalidRate
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Debounce < 0 {
		return ErrInvalidDebounce
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Snapshot && c.SnapshotTimeout <= 0 {
		return ErrInvalidSnapshotTimeout
	}
	return nil
}
