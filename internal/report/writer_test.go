package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/sitecheck/internal/model"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// healthyReport creates a fully populated report of an https site.
func healthyReport(t *testing.T) *model.SiteReport {
	t.Helper()

	target, err := model.ParseTarget("https://example.com")
	if err != nil {
		t.Fatalf("ParseTarget: %v", err)
	}
	rt := 0.25
	r := model.NewSiteReport(target, testNow)
	r.Duration = 1500 * time.Millisecond
	r.Reachability = model.Reachability{
		Online: true,
		Attempts: []model.AttemptResult{
			{Kind: model.AttemptGet, OK: true, StatusCode: 200},
			{Kind: model.AttemptTCP, OK: true},
		},
	}
	r.ResponseTime = &rt
	r.Redirects = model.RedirectChain{Hops: []string{}, Resolved: true}
	r.TLS = model.TLSInfo{
		Checked: true,
		Valid:   true,
		Expiry:  testNow.Add(90 * 24 * time.Hour),
		Issuer:  "Test CA",
	}
	r.DNS = []string{"93.184.216.34"}
	r.Ping = true
	r.ContentType = "text/html; charset=utf-8"
	r.Title = "Example Domain"
	r.ErrorScan = model.ErrorScan{Known: true, Matches: []string{}}
	r.Robots = true
	r.Sitemap = true
	r.MetaRefresh = model.MetaRefresh{Known: true}
	r.Platform = model.PlatformFingerprint{WPContent: true, WPJSON: true}
	r.Store = model.StoreResult{SavedFile: "2026-03-14.html", TotalVersions: 1}
	r.Score = 100
	r.Grade = "A"
	r.Breakdown = []model.ScoreComponent{
		{Signal: "online", Points: 20, Max: 20},
		{Signal: "response_time", Points: 10, Max: 10},
		{Signal: "ping", Points: 0, Max: 5},
	}
	return r
}

func offlineReport(t *testing.T) *model.SiteReport {
	t.Helper()

	target, err := model.ParseTarget("http://down.example")
	if err != nil {
		t.Fatalf("ParseTarget: %v", err)
	}
	r := model.NewSiteReport(target, testNow)
	r.Score = 5
	r.Grade = "F"
	return r
}

func failedReport(t *testing.T) *model.SiteReport {
	t.Helper()

	r := offlineReport(t)
	r.Reachability.Online = true
	r.Score = 0
	r.Grade = ""
	r.Error = "store stage: permission denied"
	return r
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	reports := []model.SiteReport{*healthyReport(t), *offlineReport(t), *failedReport(t)}
	got := Summarize(reports)
	want := Summary{Total: 3, Online: 2, Offline: 1, Failed: 1, AverageScore: 52.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", empty)
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and probe lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithClock(fixedClock))
		if _, err := w.Write(healthyReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"SITECHECK REPORT",
			"https://example.com",
			"ONLINE",
			"100/100 (A)",
			"0.250s",
			"Redirects:      none",
			"expires 2026-06-12 (3 months from now), issuer Test CA",
			"93.184.216.34",
			"Example Domain",
			"Error scan:     clean",
			"WordPress (2/5 signals: wp-content, wp-json)",
			"saved 2026-03-14.html (1 version today)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "\x1b[") {
			t.Error("expected no ANSI escapes without WithColor")
		}
		if strings.Contains(output, "SCORE BREAKDOWN") {
			t.Error("breakdown is verbose-only")
		}
	})

	t.Run("verbose adds attempts and breakdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true), WithClock(fixedClock))
		if _, err := w.Write(healthyReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"get 200, tcp ok", "SCORE BREAKDOWN", "online          20/20", "ping             0/5"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("offline site uses sentinels", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithClock(fixedClock))
		if _, err := w.Write(offlineReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"OFFLINE",
			"Response time:  N/A",
			"Redirects:      unresolved",
			"TLS:            not https",
			"no A records",
			"Error scan:     unknown (no body)",
			"WordPress not detected",
			"unchanged (0 versions today)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("failed site shows error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(failedReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "ERROR - store stage: permission denied") {
			t.Errorf("expected error status\n%s", output)
		}
		if !strings.Contains(output, "not scored") {
			t.Errorf("expected unscored site\n%s", output)
		}
	})

	t.Run("color adds ANSI escapes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithColor(true))
		if _, err := w.Write(healthyReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\x1b[") {
			t.Error("expected ANSI escapes with WithColor(true)")
		}
	})

	t.Run("batch ends with summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		n, err := w.WriteBatch([]model.SiteReport{*healthyReport(t), *offlineReport(t)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, wrote %d", n, buf.Len())
		}

		output := buf.String()
		first := strings.Index(output, "https://example.com")
		second := strings.Index(output, "http://down.example")
		summary := strings.Index(output, "SUMMARY")
		if first < 0 || second < first || summary < second {
			t.Errorf("unexpected section order\n%s", output)
		}
		if !strings.Contains(output, "Average score:  52.5") {
			t.Errorf("expected average score\n%s", output)
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("single report is valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(healthyReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got model.SiteReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Score != 100 || got.Target.Domain != "example.com" {
			t.Errorf("unexpected decoded report: %+v", got)
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("sentinels are serialized", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(offlineReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{`"response_time":null`, `"title":"N/A"`, `"dns":[]`, `"hops":[]`} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %s in %s", want, output)
			}
		}
	})

	t.Run("skipped site omits checked time", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		skipped := &model.SiteReport{Target: offlineReport(t).Target, Error: "context canceled"}
		if _, err := NewJSONWriter(&buf).Write(skipped); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "checked_at") {
			t.Errorf("unexpected checked_at in %s", buf.String())
		}
		if !strings.Contains(buf.String(), `"error":"context canceled"`) {
			t.Errorf("expected error in %s", buf.String())
		}
	})

	t.Run("batch carries version and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("v1.2.3"), WithJSONClock(fixedClock))
		if _, err := w.WriteBatch([]model.SiteReport{*healthyReport(t), *offlineReport(t)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got BatchReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Version != "v1.2.3" || !got.GeneratedAt.Equal(testNow) {
			t.Errorf("unexpected metadata: %+v", got)
		}
		if got.Summary.Total != 2 || len(got.Sites) != 2 {
			t.Errorf("unexpected batch: %+v", got.Summary)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented output")
		}
	})

	t.Run("empty batch has empty sites array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteBatch(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"sites":[]`) {
			t.Errorf("expected empty sites array, got %s", buf.String())
		}
	})
}

func TestWithIndent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(offlineReport(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n>\t\"target\"") {
		t.Errorf("expected prefixed, tab-indented output, got %s", buf.String())
	}
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("single site", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf, WithMarkdownClock(fixedClock))
		if _, err := w.Write(healthyReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Site Health Report",
			"## https://example.com",
			"Example Domain",
			"### Score Breakdown",
			"```mermaid",
			"pie",
			"Site is healthy.",
			"sitecheck",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("chart omitted without points", func(t *testing.T) {
		t.Parallel()

		r := offlineReport(t)
		r.Breakdown = []model.ScoreComponent{{Signal: "online", Points: 0, Max: 20}}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart when no points were earned")
		}
		if !strings.Contains(output, "Site is offline.") {
			t.Errorf("expected offline alert\n%s", output)
		}
	})

	t.Run("batch has summary table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		if _, err := w.WriteBatch([]model.SiteReport{*healthyReport(t), *failedReport(t)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"## Summary",
			"https://example.com",
			"❌ Error",
			"2 site(s): 2 online, 0 offline, 1 failed. Average score 100.0.",
			"Check did not complete: store stage: permission denied",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})
}

// TestMultiWriter tests writing to several writers at once.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var simple, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&simple), NewJSONWriter(&js))

	n, err := mw.Write(healthyReport(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != simple.Len()+js.Len() {
		t.Errorf("expected %d bytes, got %d", simple.Len()+js.Len(), n)
	}
	if simple.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}

	simple.Reset()
	js.Reset()
	if _, err := mw.WriteBatch([]model.SiteReport{*offlineReport(t)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(simple.String(), "SUMMARY") || !strings.Contains(js.String(), `"summary"`) {
		t.Error("expected batch output from both writers")
	}
}

// failingWriter always fails.
type failingWriter struct{}

func (failingWriter) Write(*model.SiteReport) (int, error) { return 0, errFailingWriter }
func (failingWriter) WriteBatch([]model.SiteReport) (int, error) { return 0, errFailingWriter }

var errFailingWriter = errors.New("disk full")

// TestMultiWriterKeepsGoing tests that one failing writer does not starve the others.
func TestMultiWriterKeepsGoing(t *testing.T) {
	t.Parallel()

	var js bytes.Buffer
	mw := NewMultiWriter(failingWriter{}, nil, NewJSONWriter(&js))

	n, err := mw.Write(healthyReport(t))
	if !errors.Is(err, errFailingWriter) {
		t.Errorf("expected joined writer error, got %v", err)
	}
	if n != js.Len() || js.Len() == 0 {
		t.Errorf("expected JSON output despite failure, got %d bytes (%d written)", n, js.Len())
	}
}

func TestDescribeHelpers(t *testing.T) {
	t.Parallel()

	t.Run("redirects", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			chain model.RedirectChain
			want  string
		}{
			{model.RedirectChain{}, "unresolved"},
			{model.RedirectChain{Resolved: true}, "none"},
			{model.RedirectChain{Resolved: true, Hops: []string{"https://a/"}}, "1 hop: https://a/"},
			{model.RedirectChain{Resolved: true, Hops: []string{"https://a/", "https://b/"}}, "2 hops: https://a/ -> https://b/"},
		}
		for _, tt := range tests {
			if got := redirectText(tt.chain); got != tt.want {
				t.Errorf("redirectText(%+v) = %q, want %q", tt.chain, got, tt.want)
			}
		}
	})

	t.Run("expired certificate", func(t *testing.T) {
		t.Parallel()
		info := model.TLSInfo{Checked: true, Valid: true, Expiry: testNow.Add(-48 * time.Hour)}
		got := tlsText(info, testNow)
		if !strings.Contains(got, "EXPIRED 2026-03-12 (2 days ago)") {
			t.Errorf("unexpected text %q", got)
		}
	})

	t.Run("meta refresh", func(t *testing.T) {
		t.Parallel()
		if got := metaRefreshText(model.MetaRefresh{Known: true, Present: true}); got != "present" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("checked time", func(t *testing.T) {
		t.Parallel()
		if got := checkedText(offlineReport(t)); got != testNow.Format(dateTimeLayout) {
			t.Errorf("got %q", got)
		}
		skipped := &model.SiteReport{Target: offlineReport(t).Target, Error: "context canceled"}
		if got := checkedText(skipped); got != "not checked" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("error matches", func(t *testing.T) {
		t.Parallel()
		got := errorScanText(model.ErrorScan{Known: true, Matches: []string{"404", "not found"}})
		if got != "matches: 404, not found" {
			t.Errorf("got %q", got)
		}
	})
}
