package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitecheck/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter

	now func() time.Time
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownClock sets the reference time for relative dates.
func WithMarkdownClock(now func() time.Time) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.now = now
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one site report in Markdown format.
func (w *MarkdownWriter) Write(report *model.SiteReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Site Health Report")
	md.PlainText("")
	w.writeSite(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a summary table followed by every site.
func (w *MarkdownWriter) WriteBatch(reports []model.SiteReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Site Health Report")
	md.PlainText("")
	w.writeSummary(md, reports)
	for i := range reports {
		w.writeSite(md, &reports[i])
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes one row per site and the run totals.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, reports []model.SiteReport) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		rows = append(rows, []string{
			"`" + r.Target.URL + "`",
			w.statusEmoji(r),
			scoreText(r),
			responseTimeText(r),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Status", "Score", "Response time"},
		Rows:   rows,
	})
	md.PlainText("")

	s := Summarize(reports)
	md.PlainTextf("%d site(s): %d online, %d offline, %d failed. Average score %.1f.",
		s.Total, s.Online, s.Offline, s.Failed, s.AverageScore)
	md.PlainText("")
}

// writeSite writes the probe table, the score breakdown and an alert for one site.
func (w *MarkdownWriter) writeSite(md *markdown.Markdown, report *model.SiteReport) {
	md.H2(report.Target.URL)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Checked", checkedText(report)},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
			{"Status", w.statusEmoji(report)},
			{"Score", scoreText(report)},
			{"Reachability", attemptsText(report.Reachability)},
			{"Response time", responseTimeText(report)},
			{"Redirects", redirectText(report.Redirects)},
			{"TLS", tlsText(report.TLS, w.now())},
			{"DNS", dnsText(report.DNS)},
			{"Ping", yesNo(report.Ping, "ok", "no reply")},
			{"Content type", report.ContentType},
			{"Title", report.Title},
			{"Error scan", errorScanText(report.ErrorScan)},
			{"robots.txt", yesNo(report.Robots, "found", "missing")},
			{"sitemap.xml", yesNo(report.Sitemap, "found", "missing")},
			{"Meta refresh", metaRefreshText(report.MetaRefresh)},
			{"Platform", platformText(report.Platform)},
			{"Archive", archiveText(report.Store)},
			{"Snapshot", snapshotText(report.Snapshot)},
		},
	})
	md.PlainText("")

	if len(report.Breakdown) > 0 {
		w.writeBreakdown(md, report.Breakdown)
	}
	w.writeAlert(md, report)
}

func (w *MarkdownWriter) writeBreakdown(md *markdown.Markdown, breakdown []model.ScoreComponent) {
	md.H3("Score Breakdown")
	md.PlainText("")

	rows := make([][]string, len(breakdown))
	for i, c := range breakdown {
		rows[i] = []string{c.Signal, strconv.Itoa(c.Points), strconv.Itoa(c.Max)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Points", "Max"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, breakdown)
}

// writePieChart writes a mermaid pie chart of earned points per signal.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, breakdown []model.ScoreComponent) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Score Points by Signal"),
		piechart.WithShowData(true),
	)

	earned := 0
	for _, c := range breakdown {
		if c.Points > 0 {
			chart.LabelAndIntValue(c.Signal, uint64(c.Points))
			earned++
		}
	}
	if earned == 0 {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the grade.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SiteReport) {
	switch {
	case report.Failed():
		md.Cautionf("Check did not complete: %s", report.Error)
	case !report.Reachability.Online:
		md.Caution("Site is offline.")
	case report.Grade == "A":
		md.Tip("Site is healthy.")
	case report.Grade == "B":
		md.Note("Site is mostly healthy.")
	case report.Grade == "C":
		md.Importantf("Site health is degraded (score %d).", report.Score)
	default:
		md.Warningf("Site health is poor (score %d).", report.Score)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) statusEmoji(report *model.SiteReport) string {
	switch {
	case report.Failed():
		return "❌ Error"
	case report.Reachability.Online:
		return "✅ Online"
	default:
		return "🔴 Offline"
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText(fmt.Sprintf("*Report generated by [sitecheck](https://github.com/nao1215/sitecheck) at %s*",
		w.now().Format(dateTimeLayout)))
}
