package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitecheck/internal/archive"
	"github.com/nao1215/sitecheck/internal/config"
	"github.com/nao1215/sitecheck/internal/database"
	"github.com/nao1215/sitecheck/internal/model"
)

// Constants for score direction.
const (
	scoreDirectionImproved  = "improved"
	scoreDirectionWorsened  = "worsened"
	scoreDirectionUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// This command shows recorded check results and archived HTML versions.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show recorded check results for a site",
		Long: `History displays the results recorded by previous scans.

For a site it shows:
- the most recent check results, newest first
- how the health score changed between the last two checks
- the HTML versions archived on the selected day

Use 'sitecheck scan' to check sites and record results.

Examples:
  # Show the history of a site
  sitecheck history https://example.com

  # Show the last 5 checks and the versions archived on a given day
  sitecheck history --limit 5 --date 2025-01-31 example.com

  # Output the history in JSON format
  sitecheck history --json example.com

  # List every site in the database
  sitecheck history --list-sites`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sites", "L", false,
		"List all sites recorded in the database")
	cmd.Flags().IntP("limit", "n", 10,
		"Maximum number of checks to show (0 = all)")
	cmd.Flags().String("date", "",
		"Day whose archived versions are listed (format: YYYY-MM-DD, default: today)")
	cmd.Flags().String("archive-dir", config.DefaultArchiveDir(),
		"Directory of the HTML version archive")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	listSites  bool
	limit      int
	date       string
	archiveDir string
	dbDir      string
	jsonOutput bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var target model.Target
	if !opts.listSites {
		if len(args) == 0 {
			return errors.New("site URL is required (use --list-sites to see recorded sites)")
		}
		target, err = model.ParseTarget(args[0])
		if err != nil {
			return fmt.Errorf("invalid site URL: %w", err)
		}
	}
	if opts.date == "" {
		opts.date = time.Now().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, opts.date); err != nil {
		return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if opts.listSites {
		return listSites(ctx, out, db)
	}
	return showHistory(ctx, out, db, target, opts)
}

func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var opts historyOptions
	var err error
	flags := cmd.Flags()
	if opts.listSites, err = flags.GetBool("list-sites"); err != nil {
		return opts, err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return opts, err
	}
	if opts.date, err = flags.GetString("date"); err != nil {
		return opts, err
	}
	if opts.archiveDir, err = flags.GetString("archive-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.limit < 0 {
		return opts, fmt.Errorf("limit must not be negative: %d", opts.limit)
	}
	return opts, nil
}

// listSites lists all sites that have check results in the database.
func listSites(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Fprintln(out, "No sites found in the database.")
		fmt.Fprintln(out, "\nUse 'sitecheck scan <url>' to check a site.")
		return nil
	}

	fmt.Fprintf(out, "Recorded sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  • %s\n", site)
	}
	fmt.Fprintln(out, "\nUse 'sitecheck history <url>' to see the history of a site.")
	return nil
}

// SiteHistory is the history of one site.
type SiteHistory struct {
	// Site is the archive key of the site.
	Site string `json:"site"`

	// Checks holds the recorded checks, newest first.
	Checks []database.ReportMetadata `json:"checks"`

	// ScoreChange describes the change between the last two checks.
	ScoreChange *ScoreChange `json:"score_change,omitempty"`

	// Date is the day Versions belong to.
	Date string `json:"date"`

	// Versions are the HTML versions archived on Date.
	Versions []model.VersionRecord `json:"versions"`
}

// ScoreChange describes the score difference between two checks.
type ScoreChange struct {
	Previous  int    `json:"previous"`
	Current   int    `json:"current"`
	Delta     int    `json:"delta"`
	Direction string `json:"direction"`
}

// showHistory prints the checks, score change and versions of target.
func showHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, target model.Target, opts historyOptions) error {
	history, err := collectHistory(ctx, db, target, opts)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(history); err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		return nil
	}
	writeHistoryText(out, history, time.Now())
	return nil
}

func collectHistory(ctx context.Context, db *database.HistoryDB, target model.Target, opts historyOptions) (*SiteHistory, error) {
	checks, err := db.GetHistory(ctx, target.Domain, opts.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	history := &SiteHistory{
		Site:   target.Domain,
		Checks: checks,
		Date:   opts.date,
	}
	if history.Checks == nil {
		history.Checks = []database.ReportMetadata{}
	}

	delta, err := db.GetScoreDelta(ctx, target.Domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get score change: %w", err)
	}
	history.ScoreChange = newScoreChange(delta)

	// The archive on disk is authoritative; the database only knows about
	// versions written by recorded runs.
	versions, err := archive.New(opts.archiveDir).Versions(target, opts.date)
	if err != nil || len(versions) == 0 {
		versions, err = db.ListVersions(ctx, target.Domain, opts.date)
		if err != nil {
			return nil, fmt.Errorf("failed to list versions: %w", err)
		}
	}
	if versions == nil {
		versions = []model.VersionRecord{}
	}
	history.Versions = versions
	return history, nil
}

func newScoreChange(delta *database.ScoreDelta) *ScoreChange {
	if delta == nil || delta.Previous == nil {
		return nil
	}
	change := &ScoreChange{
		Previous: delta.Previous.Score,
		Current:  delta.Current.Score,
		Delta:    delta.Change(),
	}
	switch {
	case change.Delta > 0:
		change.Direction = scoreDirectionImproved
	case change.Delta < 0:
		change.Direction = scoreDirectionWorsened
	default:
		change.Direction = scoreDirectionUnchanged
	}
	return change
}

func writeHistoryText(out io.Writer, h *SiteHistory, now time.Time) {
	if len(h.Checks) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", h.Site)
		fmt.Fprintln(out, "\nUse 'sitecheck scan' to check this site.")
		return
	}

	fmt.Fprintf(out, "History for %s (%d checks):\n\n", h.Site, len(h.Checks))
	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-5s  %-5s  %s\n", "ID", "Date", "Status", "Score", "Grade", "When")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))
	for _, c := range h.Checks {
		status := "online"
		if !c.Online {
			status = "offline"
		}
		if c.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-8s  %-5d  %-5s  %s\n",
			c.ID,
			c.CheckedAt.Format("2006-01-02 15:04:05"),
			status,
			c.Score,
			c.Grade,
			humanize.RelTime(c.CheckedAt, now, "ago", "from now"),
		)
	}

	if h.ScoreChange != nil {
		fmt.Fprintf(out, "\nScore: %d -> %d (%+d, %s)\n",
			h.ScoreChange.Previous, h.ScoreChange.Current, h.ScoreChange.Delta, h.ScoreChange.Direction)
	}

	fmt.Fprintf(out, "\nVersions archived on %s: %s\n", h.Date, humanize.Comma(int64(len(h.Versions))))
	for _, v := range h.Versions {
		fmt.Fprintf(out, "  %-3d %s  %s\n", v.Sequence, shortHash(v.ContentHash), v.Path)
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
