package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/sitecheck/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in batch output.
	version string

	now func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the sitecheck version in batch output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// WithJSONClock sets the clock used for the batch timestamp.
func WithJSONClock(now func() time.Time) JSONWriterOption {
	return func(w *JSONWriter) {
		w.now = now
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one site report in JSON format.
func (w *JSONWriter) Write(report *model.SiteReport) (int, error) {
	return w.writeJSON(report)
}

// BatchReport is the JSON document for a whole run.
type BatchReport struct {
	// Version is the sitecheck version that generated this report.
	Version string `json:"version,omitempty"`

	// GeneratedAt is when the document was written.
	GeneratedAt time.Time `json:"generated_at"`

	Summary Summary            `json:"summary"`
	Sites   []model.SiteReport `json:"sites"`
}

// WriteBatch outputs every report wrapped with a summary.
func (w *JSONWriter) WriteBatch(reports []model.SiteReport) (int, error) {
	if reports == nil {
		reports = []model.SiteReport{}
	}
	return w.writeJSON(BatchReport{
		Version:     w.version,
		GeneratedAt: w.now(),
		Summary:     Summarize(reports),
		Sites:       reports,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
