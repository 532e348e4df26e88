package archive

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/sitecheck/internal/model"
	"golang.org/x/crypto/sha3"
)

// DefaultDebounce is the minimum age of the latest version before a new one is considered.
const DefaultDebounce = 10 * time.Minute

const (
	htmlExt          = ".html"
	snapshotDir      = "screenshots"
	snapshotFilename = "screenshot.png"
	dirPerm          = 0o750
	filePerm         = 0o640
)

// ErrStore wraps every filesystem failure returned by Store.
var ErrStore = errors.New("content store failure")

// Store is a date-partitioned, deduplicated HTML archive.
type Store struct {
	root     string
	debounce time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets the debounce window. Zero disables debouncing.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithClock sets the time source used for the date partition, the
// debounce check and file modification times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store rooted at root. The directory is created on first write.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:     root,
		debounce: DefaultDebounce,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the archive root directory.
func (s *Store) Root() string {
	return s.root
}

// Save archives body as a new version for target unless it is debounced
// or identical to the latest version of the day.
//
// TotalVersions is always the number of files in today's partition,
// whether or not this call wrote one. Filesystem errors are wrapped in ErrStore.
func (s *Store) Save(ctx context.Context, target model.Target, body string) (model.StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return model.StoreResult{}, err
	}

	unlock := s.lock(target.Domain)
	defer unlock()

	dir, err := s.domainDir(target)
	if err != nil {
		return model.StoreResult{}, err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return model.StoreResult{}, fmt.Errorf("%w: failed to create %s: %w", ErrStore, dir, err)
	}

	now := s.now()
	date := now.Format(model.DateLayout)

	files, err := listPartition(dir, date)
	if err != nil {
		return model.StoreResult{}, err
	}
	result := model.StoreResult{TotalVersions: len(files)}

	digest := digestBytes([]byte(body))
	next := 0
	if len(files) > 0 {
		latest := files[len(files)-1]
		next = latest.seq + 1

		info, err := os.Stat(latest.path)
		if err != nil {
			return model.StoreResult{}, fmt.Errorf("%w: %w", ErrStore, err)
		}
		if age := now.Sub(info.ModTime()); age < s.debounce {
			s.logger.Debug("archive write debounced", "domain", target.Domain, "latest", filepath.Base(latest.path), "age", age)
			return result, nil
		}

		latestDigest, err := digestFile(latest.path)
		if err != nil {
			return model.StoreResult{}, err
		}
		if latestDigest == digest {
			s.logger.Debug("archive content unchanged", "domain", target.Domain, "latest", filepath.Base(latest.path))
			return result, nil
		}
	}

	path := filepath.Join(dir, versionFilename(date, next))
	if err := writeAtomic(path, []byte(body), now); err != nil {
		return model.StoreResult{}, err
	}
	s.logger.Debug("archived new version", "domain", target.Domain, "file", filepath.Base(path))

	result.SavedFile = filepath.Base(path)
	result.TotalVersions++
	result.Record = &model.VersionRecord{
		Date:        date,
		Sequence:    next,
		ContentHash: digest,
		Path:        path,
	}
	return result, nil
}

// Versions lists the archived versions of target for date (YYYY-MM-DD),
// ordered by sequence. An unknown domain yields an empty list.
func (s *Store) Versions(target model.Target, date string) ([]model.VersionRecord, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	dir, err := s.domainDir(target)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return []model.VersionRecord{}, nil
	}

	files, err := listPartition(dir, date)
	if err != nil {
		return nil, err
	}

	records := make([]model.VersionRecord, 0, len(files))
	for _, f := range files {
		digest, err := digestFile(f.path)
		if err != nil {
			return nil, err
		}
		records = append(records, model.VersionRecord{
			Date:        date,
			Sequence:    f.seq,
			ContentHash: digest,
			Path:        f.path,
		})
	}
	return records, nil
}

// SnapshotPath returns the fixed snapshot image path for target and makes
// sure its directory exists.
func (s *Store) SnapshotPath(target model.Target) (string, error) {
	base, err := s.domainDir(target)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, snapshotDir)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("%w: failed to create %s: %w", ErrStore, dir, err)
	}
	return filepath.Join(dir, snapshotFilename), nil
}

// domainDir returns the partition directory of target, which must be a
// direct child of the archive root.
func (s *Store) domainDir(target model.Target) (string, error) {
	dir := filepath.Join(s.root, target.Domain)
	if rel, err := filepath.Rel(s.root, dir); err != nil || rel != filepath.Base(dir) || rel == "." || rel == ".." {
		return "", fmt.Errorf("%w: domain %q escapes %s", ErrStore, target.Domain, s.root)
	}
	return dir, nil
}

// lock serializes writers of one domain.
func (s *Store) lock(domain string) func() {
	s.mu.Lock()
	m, ok := s.locks[domain]
	if !ok {
		m = &sync.Mutex{}
		s.locks[domain] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// versionFile is one file of a date partition.
type versionFile struct {
	seq  int
	path string
}

// versionFilename returns <date>.html for sequence 0 and <date>_<n>.html otherwise.
func versionFilename(date string, seq int) string {
	if seq == 0 {
		return date + htmlExt
	}
	return date + "_" + strconv.Itoa(seq) + htmlExt
}

// parseSequence extracts the sequence from a file name of the date partition.
func parseSequence(name, date string) (int, bool) {
	if !strings.HasPrefix(name, date) || !strings.HasSuffix(name, htmlExt) {
		return 0, false
	}
	mid := strings.TrimSuffix(strings.TrimPrefix(name, date), htmlExt)
	if mid == "" {
		return 0, true
	}
	if !strings.HasPrefix(mid, "_") {
		return 0, false
	}
	n, err := strconv.Atoi(mid[1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// listPartition returns the files of date in dir ordered by ascending sequence.
func listPartition(dir, date string) ([]versionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrStore, dir, err)
	}

	var files []versionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if seq, ok := parseSequence(e.Name(), date); ok {
			files = append(files, versionFile{seq: seq, path: filepath.Join(dir, e.Name())})
		}
	}
	slices.SortFunc(files, func(a, b versionFile) int { return a.seq - b.seq })
	return files, nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place, then stamps it with modTime.
func writeAtomic(path string, data []byte, modTime time.Time) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".version-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", ErrStore, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) } //nolint:errcheck // best effort

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck
		cleanup()
		return fmt.Errorf("%w: failed to write %s: %w", ErrStore, path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck
		cleanup()
		return fmt.Errorf("%w: failed to sync %s: %w", ErrStore, path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to close %s: %w", ErrStore, path, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to rename into %s: %w", ErrStore, path, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

func digestBytes(b []byte) string {
	sum := sha3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func digestFile(path string) (string, error) {
	b, err := os.ReadFile(path) //nolint:gosec // path comes from the archive listing
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %w", ErrStore, path, err)
	}
	return digestBytes(b), nil
}
