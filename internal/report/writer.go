package report

import (
	"errors"
	"io"

	"github.com/nao1215/sitecheck/internal/model"
)

// Writer renders site reports.
type Writer interface {
	// Write renders the report of one site and returns the bytes written.
	Write(report *model.SiteReport) (int, error)

	// WriteBatch renders the reports of a whole run, in input order,
	// followed or preceded by a summary depending on the format.
	WriteBatch(reports []model.SiteReport) (int, error)
}

// MultiWriter renders the same reports through several Writers, for example
// a text report on the terminal and a JSON file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter returns a MultiWriter over writers. Nil entries are skipped.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	m := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// Write renders report through every writer.
func (m *MultiWriter) Write(report *model.SiteReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteBatch renders reports through every writer.
func (m *MultiWriter) WriteBatch(reports []model.SiteReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBatch(reports) })
}

// each calls fn for every writer, even after a failure, so one broken
// destination does not cost the others their report. Errors are joined.
func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// baseWriter holds the destination shared by the concrete writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
