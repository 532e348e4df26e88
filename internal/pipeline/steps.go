package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/sitecheck/internal/model"
	"github.com/nao1215/sitecheck/internal/probe"
	"github.com/nao1215/sitecheck/internal/score"
	"github.com/nao1215/sitecheck/internal/snapshot"
)

// Saver archives a fetched body. *archive.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, target model.Target, body string) (model.StoreResult, error)
}

// Archive is the content store used by the default pipeline.
// *archive.Store satisfies it.
type Archive interface {
	Saver
	SnapshotPath(target model.Target) (string, error)
}

// ReachabilityStep runs the reachability attempts and captures the body
// reused by the content stages.
type ReachabilityStep struct {
	prober *probe.Prober
}

// NewReachabilityStep creates a reachability step.
func NewReachabilityStep(p *probe.Prober) *ReachabilityStep {
	return &ReachabilityStep{prober: p}
}

// Stage returns model.StageReachability.
func (s *ReachabilityStep) Stage() model.Stage { return model.StageReachability }

// Do runs the reachability probe.
func (s *ReachabilityStep) Do(ctx context.Context, st *State) error {
	reach, fetch := s.prober.Reachability(ctx, st.Target)
	st.Report.Reachability = reach
	st.SetFetch(fetch)
	return nil
}

// TimingStep measures the response time.
type TimingStep struct {
	prober *probe.Prober
}

// NewTimingStep creates a timing step.
func NewTimingStep(p *probe.Prober) *TimingStep {
	return &TimingStep{prober: p}
}

// Stage returns model.StageTiming.
func (s *TimingStep) Stage() model.Stage { return model.StageTiming }

// Do runs the timing probe.
func (s *TimingStep) Do(ctx context.Context, st *State) error {
	st.Report.ResponseTime = s.prober.ResponseTime(ctx, st.Target)
	return nil
}

// RedirectStep walks the redirect chain.
type RedirectStep struct {
	prober *probe.Prober
}

// NewRedirectStep creates a redirect step.
func NewRedirectStep(p *probe.Prober) *RedirectStep {
	return &RedirectStep{prober: p}
}

// Stage returns model.StageRedirects.
func (s *RedirectStep) Stage() model.Stage { return model.StageRedirects }

// Do runs the redirect probe.
func (s *RedirectStep) Do(ctx context.Context, st *State) error {
	st.Report.Redirects = s.prober.Redirects(ctx, st.Target)
	return nil
}

// TLSStep reads the peer certificate.
type TLSStep struct {
	prober *probe.Prober
}

// NewTLSStep creates a TLS step.
func NewTLSStep(p *probe.Prober) *TLSStep {
	return &TLSStep{prober: p}
}

// Stage returns model.StageTLS.
func (s *TLSStep) Stage() model.Stage { return model.StageTLS }

// Do runs the TLS probe.
func (s *TLSStep) Do(ctx context.Context, st *State) error {
	st.Report.TLS = s.prober.TLS(ctx, st.Target)
	return nil
}

// DNSStep resolves A records.
type DNSStep struct {
	prober *probe.Prober
}

// NewDNSStep creates a DNS step.
func NewDNSStep(p *probe.Prober) *DNSStep {
	return &DNSStep{prober: p}
}

// Stage returns model.StageDNS.
func (s *DNSStep) Stage() model.Stage { return model.StageDNS }

// Do runs the DNS probe.
func (s *DNSStep) Do(ctx context.Context, st *State) error {
	st.Report.DNS = s.prober.DNS(ctx, st.Target)
	return nil
}

// PingStep sends one ICMP echo.
type PingStep struct {
	prober *probe.Prober
}

// NewPingStep creates a ping step.
func NewPingStep(p *probe.Prober) *PingStep {
	return &PingStep{prober: p}
}

// Stage returns model.StagePing.
func (s *PingStep) Stage() model.Stage { return model.StagePing }

// Do runs the ping probe.
func (s *PingStep) Do(ctx context.Context, st *State) error {
	st.Report.Ping = s.prober.Ping(ctx, st.Target)
	return nil
}

// ContentTypeStep copies the content type of the captured body.
type ContentTypeStep struct{}

// Stage returns model.StageContentType.
func (ContentTypeStep) Stage() model.Stage { return model.StageContentType }

// Do records the content type.
func (ContentTypeStep) Do(_ context.Context, st *State) error {
	st.Report.ContentType = st.Content().ContentType()
	return nil
}

// TitleStep extracts the page title.
type TitleStep struct{}

// Stage returns model.StageTitle.
func (TitleStep) Stage() model.Stage { return model.StageTitle }

// Do records the title.
func (TitleStep) Do(_ context.Context, st *State) error {
	st.Report.Title = st.Content().Title()
	return nil
}

// ErrorScanStep scans the body for error keywords.
type ErrorScanStep struct {
	prober *probe.Prober
}

// NewErrorScanStep creates an error scan step using the prober's keyword list.
func NewErrorScanStep(p *probe.Prober) *ErrorScanStep {
	return &ErrorScanStep{prober: p}
}

// Stage returns model.StageErrorScan.
func (s *ErrorScanStep) Stage() model.Stage { return model.StageErrorScan }

// Do records the keyword matches.
func (s *ErrorScanStep) Do(_ context.Context, st *State) error {
	st.Report.ErrorScan = s.prober.ErrorScan(st.Content())
	return nil
}

// RobotsStep checks /robots.txt.
type RobotsStep struct {
	prober *probe.Prober
}

// NewRobotsStep creates a robots.txt step.
func NewRobotsStep(p *probe.Prober) *RobotsStep {
	return &RobotsStep{prober: p}
}

// Stage returns model.StageRobots.
func (s *RobotsStep) Stage() model.Stage { return model.StageRobots }

// Do runs the robots.txt probe.
func (s *RobotsStep) Do(ctx context.Context, st *State) error {
	st.Report.Robots = s.prober.Robots(ctx, st.Target)
	return nil
}

// SitemapStep checks /sitemap.xml.
type SitemapStep struct {
	prober *probe.Prober
}

// NewSitemapStep creates a sitemap.xml step.
func NewSitemapStep(p *probe.Prober) *SitemapStep {
	return &SitemapStep{prober: p}
}

// Stage returns model.StageSitemap.
func (s *SitemapStep) Stage() model.Stage { return model.StageSitemap }

// Do runs the sitemap.xml probe.
func (s *SitemapStep) Do(ctx context.Context, st *State) error {
	st.Report.Sitemap = s.prober.Sitemap(ctx, st.Target)
	return nil
}

// MetaRefreshStep detects <meta http-equiv="refresh">.
type MetaRefreshStep struct{}

// Stage returns model.StageMetaRefresh.
func (MetaRefreshStep) Stage() model.Stage { return model.StageMetaRefresh }

// Do records meta refresh presence.
func (MetaRefreshStep) Do(_ context.Context, st *State) error {
	st.Report.MetaRefresh = st.Content().MetaRefresh()
	return nil
}

// PlatformStep fingerprints WordPress.
type PlatformStep struct {
	prober *probe.Prober
}

// NewPlatformStep creates a platform fingerprint step.
func NewPlatformStep(p *probe.Prober) *PlatformStep {
	return &PlatformStep{prober: p}
}

// Stage returns model.StagePlatform.
func (s *PlatformStep) Stage() model.Stage { return model.StagePlatform }

// Do runs the platform fingerprint.
func (s *PlatformStep) Do(ctx context.Context, st *State) error {
	st.Report.Platform = s.prober.Platform(ctx, st.Target, st.Content())
	return nil
}

// StoreStep archives the captured body. Its failure stops the pipeline.
type StoreStep struct {
	saver Saver
}

// NewStoreStep creates a store step.
func NewStoreStep(saver Saver) *StoreStep {
	return &StoreStep{saver: saver}
}

// Stage returns model.StageStore.
func (s *StoreStep) Stage() model.Stage { return model.StageStore }

// Do saves the body (empty when nothing was captured).
func (s *StoreStep) Do(ctx context.Context, st *State) error {
	res, err := s.saver.Save(ctx, st.Target, st.Fetch.Body)
	if err != nil {
		return err
	}
	st.Report.Store = res
	return nil
}

// ScoreStep derives the health score and grade.
type ScoreStep struct{}

// Stage returns model.StageScore.
func (ScoreStep) Stage() model.Stage { return model.StageScore }

// Do computes the score from the report collected so far.
func (ScoreStep) Do(_ context.Context, st *State) error {
	signals := score.FromReport(st.Report)
	st.Report.Breakdown = score.Breakdown(signals)
	st.Report.Score = score.Score(signals)
	st.Report.Grade = score.Grade(st.Report.Score)
	return nil
}

// SnapshotStep renders a visual snapshot. Failures leave Snapshot empty.
type SnapshotStep struct {
	renderer snapshot.Renderer
	archive  Archive
	logger   *slog.Logger
}

// NewSnapshotStep creates a snapshot step. A nil renderer disables rendering.
func NewSnapshotStep(renderer snapshot.Renderer, archive Archive, logger *slog.Logger) *SnapshotStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStep{renderer: renderer, archive: archive, logger: logger}
}

// Stage returns model.StageSnapshot.
func (s *SnapshotStep) Stage() model.Stage { return model.StageSnapshot }

// Do renders the page of an online site into the archive's snapshot path.
func (s *SnapshotStep) Do(ctx context.Context, st *State) error {
	if s.renderer == nil || s.archive == nil || !st.Report.Reachability.Online {
		return nil
	}

	path, err := s.archive.SnapshotPath(st.Target)
	if err != nil {
		s.logger.Warn("snapshot path unavailable", "site", st.Target.URL, "error", err)
		return nil
	}
	if err := s.renderer.Render(ctx, st.Target.URL, path); err != nil {
		s.logger.Warn("snapshot failed", "site", st.Target.URL, "error", err)
		return nil
	}
	st.Report.Snapshot = path
	return nil
}

// DefaultPipeline creates a pipeline with every stage in order:
// reachability, timing, redirects, tls, dns, ping, content type, title,
// error scan, robots, sitemap, meta refresh, platform, store, score, snapshot.
// A nil renderer keeps the snapshot stage but renders nothing.
func DefaultPipeline(prober *probe.Prober, archive Archive, renderer snapshot.Renderer, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewReachabilityStep(prober),
		NewTimingStep(prober),
		NewRedirectStep(prober),
		NewTLSStep(prober),
		NewDNSStep(prober),
		NewPingStep(prober),
		ContentTypeStep{},
		TitleStep{},
		NewErrorScanStep(prober),
		NewRobotsStep(prober),
		NewSitemapStep(prober),
		MetaRefreshStep{},
		NewPlatformStep(prober),
		NewStoreStep(archive),
		ScoreStep{},
		NewSnapshotStep(renderer, archive, p.logger),
	)
	return p
}
