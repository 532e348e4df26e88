package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/nao1215/sitecheck/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Color is off unless enabled with WithColor, so piped output stays plain.
type SimpleWriter struct {
	baseWriter

	// verbose adds the reachability attempts and the score breakdown.
	verbose bool

	colorize bool
	now      func() time.Time

	good *color.Color
	warn *color.Color
	bad  *color.Color
	bold *color.Color
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithColor enables ANSI colors.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.colorize = enabled
	}
}

// WithClock sets the reference time for relative dates.
func WithClock(now func() time.Time) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.now = now
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
		good:       color.New(color.FgGreen),
		warn:       color.New(color.FgYellow),
		bad:        color.New(color.FgRed),
		bold:       color.New(color.Bold),
	}

	for _, opt := range opts {
		opt(w)
	}

	for _, c := range []*color.Color{w.good, w.warn, w.bad, w.bold} {
		if w.colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return w
}

// Write outputs one site report in human-readable format.
func (w *SimpleWriter) Write(report *model.SiteReport) (int, error) {
	var sb strings.Builder
	w.writeSite(&sb, report)
	return io.WriteString(w.output, sb.String())
}

// WriteBatch outputs every site followed by the run summary.
func (w *SimpleWriter) WriteBatch(reports []model.SiteReport) (int, error) {
	var sb strings.Builder
	for i := range reports {
		w.writeSite(&sb, &reports[i])
	}
	w.writeSummary(&sb, Summarize(reports))
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeSite(sb *strings.Builder, report *model.SiteReport) {
	w.writeHeader(sb, report)
	w.writeProbes(sb, report)
	if w.verbose && len(report.Breakdown) > 0 {
		w.writeBreakdown(sb, report.Breakdown)
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeHeader writes the report header with site information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SiteReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(w.bold.Sprint("                         SITECHECK REPORT"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:           %s\n", report.Target.URL)
	fmt.Fprintf(sb, "Checked:        %s (took %s)\n",
		checkedText(report), report.Duration.Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:         %s\n", w.statusColor(report).Sprint(statusText(report)))
	fmt.Fprintf(sb, "Score:          %s\n", w.gradeColor(report.Grade).Sprint(scoreText(report)))
	sb.WriteString("\n")
}

// writeProbes writes one line per probe result.
func (w *SimpleWriter) writeProbes(sb *strings.Builder, report *model.SiteReport) {
	writeSection(sb, "PROBES")

	rows := [][2]string{
		{"Reachability", yesNo(report.Reachability.Online, "online", "offline")},
	}
	if w.verbose {
		rows = append(rows, [2]string{"Attempts", attemptsText(report.Reachability)})
	}
	rows = append(rows,
		[2]string{"Response time", responseTimeText(report)},
		[2]string{"Redirects", redirectText(report.Redirects)},
		[2]string{"TLS", tlsText(report.TLS, w.now())},
		[2]string{"DNS", dnsText(report.DNS)},
		[2]string{"Ping", yesNo(report.Ping, "ok", "no reply")},
		[2]string{"Content type", report.ContentType},
		[2]string{"Title", report.Title},
		[2]string{"Error scan", errorScanText(report.ErrorScan)},
		[2]string{"robots.txt", yesNo(report.Robots, "found", "missing")},
		[2]string{"sitemap.xml", yesNo(report.Sitemap, "found", "missing")},
		[2]string{"Meta refresh", metaRefreshText(report.MetaRefresh)},
		[2]string{"Platform", platformText(report.Platform)},
		[2]string{"Archive", archiveText(report.Store)},
		[2]string{"Snapshot", snapshotText(report.Snapshot)},
	)

	for _, row := range rows {
		fmt.Fprintf(sb, "  %-15s %s\n", row[0]+":", row[1])
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeBreakdown(sb *strings.Builder, breakdown []model.ScoreComponent) {
	writeSection(sb, "SCORE BREAKDOWN")
	for _, c := range breakdown {
		line := fmt.Sprintf("  %-15s %2d/%d", c.Signal, c.Points, c.Max)
		switch {
		case c.Points == c.Max:
			sb.WriteString(w.good.Sprint(line))
		case c.Points == 0:
			sb.WriteString(w.bad.Sprint(line))
		default:
			sb.WriteString(w.warn.Sprint(line))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	sb.WriteString("\n")
	writeSection(sb, "SUMMARY")
	fmt.Fprintf(sb, "  Sites:          %d\n", s.Total)
	fmt.Fprintf(sb, "  Online:         %s\n", w.good.Sprint(s.Online))
	fmt.Fprintf(sb, "  Offline:        %s\n", w.countColor(s.Offline).Sprint(s.Offline))
	fmt.Fprintf(sb, "  Failed:         %s\n", w.countColor(s.Failed).Sprint(s.Failed))
	fmt.Fprintf(sb, "  Average score:  %.1f\n", s.AverageScore)
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) statusColor(report *model.SiteReport) *color.Color {
	switch {
	case report.Failed():
		return w.bad
	case report.Reachability.Online:
		return w.good
	default:
		return w.bad
	}
}

func (w *SimpleWriter) gradeColor(grade string) *color.Color {
	switch grade {
	case "A", "B":
		return w.good
	case "C":
		return w.warn
	case "":
		return w.bold
	default:
		return w.bad
	}
}

func (w *SimpleWriter) countColor(n int) *color.Color {
	if n == 0 {
		return w.good
	}
	return w.bad
}
