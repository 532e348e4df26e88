package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nao1215/sitecheck/internal/archive"
	"github.com/nao1215/sitecheck/internal/config"
	"github.com/nao1215/sitecheck/internal/database"
	"github.com/nao1215/sitecheck/internal/log"
	"github.com/nao1215/sitecheck/internal/model"
	"github.com/nao1215/sitecheck/internal/pipeline"
	"github.com/nao1215/sitecheck/internal/probe"
	"github.com/nao1215/sitecheck/internal/report"
	"github.com/nao1215/sitecheck/internal/snapshot"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Check the health of one or more websites",
		Long: `Scan runs every check against each site, in order, one site after another.

For each site it:
- tries GET, HEAD, a browser-like GET, a trailing-slash GET and a TCP connect
- measures response time, follows redirects by hand and reads the TLS certificate
- resolves DNS, pings the host and inspects the HTML (title, error keywords, meta refresh)
- looks for robots.txt, sitemap.xml and WordPress markers
- archives the HTML when it changed, scores the site and renders a snapshot

A URL without a scheme is checked over http.

Examples:
  # Check a single site
  sitecheck scan https://example.com

  # Check every site listed in a file (one URL per line, # for comments)
  sitecheck scan --list sites.txt

  # Check four sites at a time, at most two new sites per second
  sitecheck scan --batch 4 --rate 2 --list sites.txt

  # Write a Markdown report without snapshots
  sitecheck scan --markdown --no-snapshot -o report.md https://example.com

  # Route every probe through a SOCKS5 proxy
  sitecheck scan --proxy 127.0.0.1:1080 https://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringP("list", "l", "",
		"File with one site URL per line")

	// Probe flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each network probe")
	cmd.Flags().String("proxy", "",
		"Route all probes through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent for plain probe requests")
	cmd.Flags().StringSlice("error-keywords", config.DefaultErrorKeywords,
		"Keywords that mark a page as showing an error")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites checked concurrently")
	cmd.Flags().Float64("rate", 0,
		"Maximum number of sites started per second (0 = unlimited)")
	cmd.Flags().Bool("abort-on-error", false,
		"Stop at the first site whose check fails instead of continuing")

	// Archive and snapshot flags
	cmd.Flags().String("archive-dir", config.DefaultArchiveDir(),
		"Directory of the HTML version archive")
	cmd.Flags().Duration("debounce", config.DefaultDebounce,
		"Minimum age of the latest version before a new one is archived (0 disables)")
	cmd.Flags().Bool("no-snapshot", false,
		"Do not render page snapshots")
	cmd.Flags().Duration("snapshot-timeout", config.DefaultSnapshotTimeout,
		"Timeout for rendering one snapshot")
	cmd.Flags().String("chrome", "",
		"Chrome executable for snapshots (default: search PATH)")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not record this run in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecheck in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the text report to stdout")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose,
		log.WithRedactedKeys(cfg.SiteConfigs.HeaderNames()...))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	noColor := getGlobalBool(cmd, "no-color")
	s := &scanner{
		cfg:      cfg,
		logger:   logger,
		stdout:   cmd.OutOrStdout(),
		progress: newProgressPrinter(cmd.ErrOrStderr(), !noColor && isTerminal(cmd.ErrOrStderr())),
		colorize: !noColor && isTerminal(cmd.OutOrStdout()),
	}
	return s.run(ctx)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getGlobalBool(cmd, "verbose")
}

// getGlobalBool reads a persistent root flag, false when it is not defined.
func getGlobalBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from cobra command flags, the list file and
// the configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ListFile, err = flags.GetString("list"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ErrorKeywords, err = flags.GetStringSlice("error-keywords"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.Rate, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.AbortOnError, err = flags.GetBool("abort-on-error"); err != nil {
		return nil, err
	}
	if cfg.ArchiveDir, err = flags.GetString("archive-dir"); err != nil {
		return nil, err
	}
	if cfg.Debounce, err = flags.GetDuration("debounce"); err != nil {
		return nil, err
	}
	noSnapshot, err := flags.GetBool("no-snapshot")
	if err != nil {
		return nil, err
	}
	cfg.Snapshot = !noSnapshot
	if cfg.SnapshotTimeout, err = flags.GetDuration("snapshot-timeout"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Tee, err = flags.GetBool("tee"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)
	if cfg.ListFile != "" {
		listed, err := config.LoadTargetsFile(cfg.ListFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// loadSiteConfigs loads the configuration file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise an empty configuration is used when no file is found.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		return file, nil
	case explicitPath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
	default:
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}
}

// scanner wires the probe, archive, snapshot and history components for one run.
type scanner struct {
	cfg      *config.Config
	logger   *slog.Logger
	stdout   io.Writer
	progress pipeline.Observer
	// colorize enables color for the text report on stdout.
	colorize bool

	// renderer overrides the Chrome renderer; nil uses Chrome when snapshots are on.
	renderer snapshot.Renderer
	// proberOpts are appended to the options derived from cfg.
	proberOpts []probe.Option
	now        func() time.Time
}

func (s *scanner) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// run checks every target and writes the report.
func (s *scanner) run(ctx context.Context) error {
	cfg := s.cfg

	targets, err := config.ParseTargets(cfg.Targets)
	if err != nil {
		return err
	}

	s.logger.Info("starting scan",
		"targets", len(targets),
		"batchSize", cfg.BatchSize,
		"archiveDir", cfg.ArchiveDir,
		"snapshot", cfg.Snapshot,
		"saveToDB", cfg.SaveToDB,
	)

	base, err := s.newProber(ctx)
	if err != nil {
		return err
	}

	store := archive.New(cfg.ArchiveDir,
		archive.WithDebounce(cfg.Debounce),
		archive.WithLogger(s.logger),
	)

	renderer := s.renderer
	if renderer == nil && cfg.Snapshot {
		renderer = snapshot.NewChromeRenderer(
			snapshot.WithTimeout(cfg.SnapshotTimeout),
			snapshot.WithExecPath(cfg.ChromePath),
			snapshot.WithProxy(cfg.ProxyAddress),
		)
	}

	var db *database.HistoryDB
	var runID string
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		runID, err = db.BeginRun(ctx, s.clock())
		if err != nil {
			return err
		}
		s.logger.Info("database opened", "path", db.Path(), "run", runID)
	}

	factory := func(target model.Target) *pipeline.Pipeline {
		site := cfg.SiteConfigs.ForTarget(target)
		var siteRenderer snapshot.Renderer
		if site.SnapshotEnabled(cfg.Snapshot) {
			siteRenderer = renderer
		}
		return pipeline.DefaultPipeline(
			base.Derive(siteProberOptions(site)...),
			store,
			siteRenderer,
			pipeline.WithLogger(s.logger),
			pipeline.WithObserver(s.progress),
		)
	}

	batchOpts := []pipeline.BatchOption{
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(s.logger),
		pipeline.WithAbortOnError(cfg.AbortOnError),
	}
	if cfg.Rate > 0 {
		batchOpts = append(batchOpts, pipeline.WithRateLimit(cfg.Rate, 1))
	}
	bp := pipeline.NewBatchProcessor(factory, batchOpts...)

	// Finished sites are recorded even when the run is interrupted.
	saveCtx := context.WithoutCancel(ctx)

	var mu sync.Mutex
	reports := make([]model.SiteReport, len(targets))
	checked := 0
	batchErr := bp.ProcessBatchWithCallback(ctx, targets, func(result pipeline.Result, index int) {
		rep := result.Report
		started := !rep.CheckedAt.IsZero()
		mu.Lock()
		reports[index] = rep
		if started {
			checked++
		}
		mu.Unlock()

		if !started {
			// skipped before its pipeline started; reported, not recorded
			return
		}

		if db != nil {
			if err := db.SaveSiteReport(saveCtx, runID, &rep); err != nil {
				s.logger.Error("failed to save site report", "site", rep.Target.URL, "error", err)
			}
		}
	})

	if db != nil {
		if err := db.FinishRun(saveCtx, runID, s.clock(), checked); err != nil {
			s.logger.Error("failed to finish run", "run", runID, "error", err)
		}
	}

	if err := s.writeReport(reports); err != nil {
		return err
	}
	return batchErr
}

// newProber builds the shared prober from the global configuration.
func (s *scanner) newProber(ctx context.Context) (*probe.Prober, error) {
	cfg := s.cfg
	opts := []probe.Option{
		probe.WithTimeout(cfg.Timeout),
		probe.WithMaxBodySize(cfg.MaxBodySize),
		probe.WithUserAgent(cfg.UserAgent),
		probe.WithErrorKeywords(cfg.ErrorKeywords),
		probe.WithLogger(s.logger),
	}

	if cfg.ProxyAddress != "" {
		if err := probe.CheckProxy(ctx, cfg.ProxyAddress); err != nil {
			return nil, fmt.Errorf("proxy check failed for %s: %w", cfg.ProxyAddress, err)
		}
		dialer, err := probe.NewDialer(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, probe.WithDialer(dialer))
		s.logger.Info("SOCKS5 proxy verified", "address", cfg.ProxyAddress)
	}

	if cfg.Verbose {
		opts = append(opts, probe.WithTransportWrapper(log.TransportWrapper(s.logger)))
	}

	opts = append(opts, s.proberOpts...)
	return probe.NewProber(opts...), nil
}

// siteProberOptions converts per-site overrides into prober options.
func siteProberOptions(site config.SiteConfig) []probe.Option {
	var opts []probe.Option
	if len(site.Headers) > 0 {
		opts = append(opts, probe.WithHeaders(site.Headers))
	}
	if site.UserAgent != "" {
		opts = append(opts, probe.WithUserAgent(site.UserAgent))
	}
	if len(site.ErrorKeywords) > 0 {
		opts = append(opts, probe.WithErrorKeywords(site.ErrorKeywords))
	}
	return opts
}

// writeReport writes the report in the requested format.
// A single site is written on its own, several sites as a batch with a summary.
func (s *scanner) writeReport(reports []model.SiteReport) error {
	output, closeOutput, err := s.openOutput()
	if err != nil {
		return err
	}
	defer closeOutput()

	var w report.Writer = s.newReportWriter(output)
	if s.cfg.Tee && s.cfg.ReportFile != "" {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(s.stdout,
			report.WithVerbose(s.cfg.Verbose),
			report.WithColor(s.colorize),
		))
	}
	if len(reports) == 1 {
		_, err = w.Write(&reports[0])
	} else {
		_, err = w.WriteBatch(reports)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (s *scanner) newReportWriter(output io.Writer) report.Writer {
	switch {
	case s.cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case s.cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output,
			report.WithVerbose(s.cfg.Verbose),
			report.WithColor(s.colorize && s.cfg.ReportFile == ""),
		)
	}
}

// openOutput returns the report destination: the report file when set,
// stdout otherwise.
func (s *scanner) openOutput() (io.Writer, func(), error) {
	if s.cfg.ReportFile == "" {
		return s.stdout, func() {}, nil
	}

	dir := filepath.Dir(s.cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports can contain URLs with credentials, keep them owner-readable.
	f, err := os.OpenFile(s.cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// isTerminal reports whether w is a terminal and color is not disabled.
func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
