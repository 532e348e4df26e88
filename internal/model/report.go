package model

import (
	"slices"
	"time"
)

// ScoreComponent is the contribution of one signal to the health score.
type ScoreComponent struct {
	Signal string `json:"signal"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// SiteReport is the consolidated result of one pipeline run for one site.
// The pipeline builds it once and hands out copies; see Clone.
type SiteReport struct {
	// === Identity ===

	// Target is the site that was checked.
	Target Target `json:"target"`

	// CheckedAt is when the pipeline started for this site. It is zero for
	// a site that was skipped before its pipeline started.
	CheckedAt time.Time `json:"checked_at,omitzero"`

	// Duration is the wall time of the whole pipeline.
	Duration time.Duration `json:"duration"`

	// === Probe Results ===

	Reachability Reachability `json:"reachability"`

	// ResponseTime is the elapsed seconds of one GET, nil when unavailable.
	ResponseTime *float64 `json:"response_time"`

	Redirects RedirectChain `json:"redirects"`
	TLS       TLSInfo       `json:"tls"`

	// DNS holds resolved IPv4 addresses, empty on failure.
	DNS []string `json:"dns"`

	Ping bool `json:"ping"`

	// ContentType is NotAvailable when unknown.
	ContentType string `json:"content_type"`

	// Title is NotAvailable when absent or unparseable.
	Title string `json:"title"`

	ErrorScan   ErrorScan           `json:"error_scan"`
	Robots      bool                `json:"robots"`
	Sitemap     bool                `json:"sitemap"`
	MetaRefresh MetaRefresh         `json:"meta_refresh"`
	Platform    PlatformFingerprint `json:"platform"`

	// === Derived ===

	Store StoreResult `json:"store"`

	// Score is the 0-100 health score.
	Score int `json:"score"`

	// Grade is the letter grade for Score.
	Grade string `json:"grade"`

	// Breakdown lists the points earned per signal.
	Breakdown []ScoreComponent `json:"breakdown,omitempty"`

	// Snapshot is the path of the rendered image, empty when unavailable.
	Snapshot string `json:"snapshot,omitempty"`

	// Stages lists the stages that ran, in order.
	Stages []string `json:"stages"`

	// Error is set when the pipeline stopped early (for example a store
	// failure) or the site was skipped after an abort or interrupt.
	Error string `json:"error,omitempty"`
}

// NewSiteReport returns a report with every probe field set to its failure sentinel.
func NewSiteReport(target Target, checkedAt time.Time) *SiteReport {
	return &SiteReport{
		Target:      target,
		CheckedAt:   checkedAt,
		DNS:         []string{},
		ContentType: NotAvailable,
		Title:       NotAvailable,
		Redirects:   RedirectChain{Hops: []string{}},
		ErrorScan:   ErrorScan{Matches: []string{}},
		Stages:      []string{},
	}
}

// Failed reports whether the pipeline stopped before completing.
func (r SiteReport) Failed() bool {
	return r.Error != ""
}

// ResponseSeconds returns the response time and whether it is available.
func (r SiteReport) ResponseSeconds() (float64, bool) {
	if r.ResponseTime == nil {
		return 0, false
	}
	return *r.ResponseTime, true
}

// Clone returns a deep copy so the caller cannot alias pipeline state.
func (r SiteReport) Clone() SiteReport {
	c := r
	if r.ResponseTime != nil {
		v := *r.ResponseTime
		c.ResponseTime = &v
	}
	c.Reachability.Attempts = slices.Clone(r.Reachability.Attempts)
	c.Redirects.Hops = slices.Clone(r.Redirects.Hops)
	c.DNS = slices.Clone(r.DNS)
	c.ErrorScan.Matches = slices.Clone(r.ErrorScan.Matches)
	c.Breakdown = slices.Clone(r.Breakdown)
	c.Stages = slices.Clone(r.Stages)
	if r.Store.Record != nil {
		rec := *r.Store.Record
		c.Store.Record = &rec
	}
	return c
}
