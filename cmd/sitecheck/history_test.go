package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/sitecheck/internal/archive"
	"github.com/nao1215/sitecheck/internal/database"
	"github.com/nao1215/sitecheck/internal/model"
)

// seedHistory records one report per score for target, oldest first.
func seedHistory(t *testing.T, dbDir string, target model.Target, base time.Time, scores ...int) {
	t.Helper()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i, score := range scores {
		checkedAt := base.Add(time.Duration(i) * time.Hour)
		runID, err := db.BeginRun(ctx, checkedAt)
		if err != nil {
			t.Fatalf("failed to begin run: %v", err)
		}
		rep := model.NewSiteReport(target, checkedAt)
		rep.Reachability.Online = true
		rep.Score = score
		rep.Grade = "B"
		if err := db.SaveSiteReport(ctx, runID, rep); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
	}
}

func mustTarget(t *testing.T, raw string) model.Target {
	t.Helper()
	target, err := model.ParseTarget(raw)
	if err != nil {
		t.Fatalf("ParseTarget(%q): %v", raw, err)
	}
	return target
}

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if cmd.Use != "history [url]" {
		t.Errorf("expected use 'history [url]', got %q", cmd.Use)
	}
	for _, name := range []string{"list-sites", "limit", "date", "archive-dir", "db-dir", "json"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// TestRunHistoryCmd tests the history command execution.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)

	t.Run("requires a site", func(t *testing.T) {
		t.Parallel()
		_, err := runHistory(t, "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "site URL is required") {
			t.Errorf("expected missing site error, got %v", err)
		}
	})

	t.Run("rejects invalid date", func(t *testing.T) {
		t.Parallel()
		_, err := runHistory(t, "--db-dir", t.TempDir(), "--date", "31/01/2025", "example.com")
		if err == nil || !strings.Contains(err.Error(), "invalid date format") {
			t.Errorf("expected invalid date error, got %v", err)
		}
	})

	t.Run("lists sites", func(t *testing.T) {
		t.Parallel()
		dbDir := t.TempDir()
		seedHistory(t, dbDir, mustTarget(t, "example.com"), base, 80)
		seedHistory(t, dbDir, mustTarget(t, "example.org:8080"), base, 60)

		out, err := runHistory(t, "--db-dir", dbDir, "--list-sites")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Recorded sites (2)") {
			t.Errorf("expected site count, got %q", out)
		}
		if !strings.Contains(out, "example.com") || !strings.Contains(out, "example.org_8080") {
			t.Errorf("expected both sites, got %q", out)
		}
	})

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()
		out, err := runHistory(t, "--db-dir", t.TempDir(), "--list-sites")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No sites found") {
			t.Errorf("expected empty message, got %q", out)
		}
	})

	t.Run("no history for site", func(t *testing.T) {
		t.Parallel()
		out, err := runHistory(t, "--db-dir", t.TempDir(), "--archive-dir", t.TempDir(), "example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No history found for example.com") {
			t.Errorf("expected empty history message, got %q", out)
		}
	})

	t.Run("shows checks and score change", func(t *testing.T) {
		t.Parallel()
		dbDir := t.TempDir()
		seedHistory(t, dbDir, mustTarget(t, "example.com"), base, 70, 85)

		out, err := runHistory(t, "--db-dir", dbDir, "--archive-dir", t.TempDir(),
			"--date", "2025-01-31", "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"History for example.com (2 checks)",
			"2025-01-31 09:00:00",
			"Score: 70 -> 85 (+15, improved)",
			"Versions archived on 2025-01-31: 0",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("json output with archived versions", func(t *testing.T) {
		t.Parallel()
		dbDir := t.TempDir()
		archiveDir := t.TempDir()
		target := mustTarget(t, "example.com")
		seedHistory(t, dbDir, target, base, 90, 40, 50)

		store := archive.New(archiveDir,
			archive.WithDebounce(0),
			archive.WithClock(func() time.Time { return base }),
		)
		for _, body := range []string{"<p>one</p>", "<p>two</p>"} {
			if _, err := store.Save(context.Background(), target, body); err != nil {
				t.Fatalf("failed to archive: %v", err)
			}
		}

		out, err := runHistory(t, "--db-dir", dbDir, "--archive-dir", archiveDir,
			"--date", "2025-01-31", "--limit", "2", "--json", "example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got SiteHistory
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(got.Checks) != 2 {
			t.Errorf("expected 2 checks with limit, got %d", len(got.Checks))
		}
		wantChange := &ScoreChange{Previous: 40, Current: 50, Delta: 10, Direction: scoreDirectionImproved}
		if diff := cmp.Diff(wantChange, got.ScoreChange); diff != "" {
			t.Errorf("score change mismatch (-want +got):\n%s", diff)
		}
		var files []string
		for _, v := range got.Versions {
			files = append(files, filepath.Base(v.Path))
		}
		if diff := cmp.Diff([]string{"2025-01-31.html", "2025-01-31_1.html"}, files); diff != "" {
			t.Errorf("versions mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestNewScoreChange tests the score direction.
func TestNewScoreChange(t *testing.T) {
	t.Parallel()

	meta := func(score int) database.ReportMetadata {
		return database.ReportMetadata{Score: score}
	}
	prev := func(score int) *database.ReportMetadata {
		m := meta(score)
		return &m
	}

	tests := []struct {
		name  string
		delta *database.ScoreDelta
		want  *ScoreChange
	}{
		{name: "no history", delta: nil, want: nil},
		{name: "single check", delta: &database.ScoreDelta{Current: meta(50)}, want: nil},
		{
			name:  "improved",
			delta: &database.ScoreDelta{Current: meta(60), Previous: prev(50)},
			want:  &ScoreChange{Previous: 50, Current: 60, Delta: 10, Direction: scoreDirectionImproved},
		},
		{
			name:  "worsened",
			delta: &database.ScoreDelta{Current: meta(30), Previous: prev(50)},
			want:  &ScoreChange{Previous: 50, Current: 30, Delta: -20, Direction: scoreDirectionWorsened},
		},
		{
			name:  "unchanged",
			delta: &database.ScoreDelta{Current: meta(50), Previous: prev(50)},
			want:  &ScoreChange{Previous: 50, Current: 50, Delta: 0, Direction: scoreDirectionUnchanged},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, newScoreChange(tt.delta)); diff != "" {
				t.Errorf("newScoreChange() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
