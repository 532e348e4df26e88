package score

import (
	"strings"

	"github.com/nao1215/sitecheck/internal/model"
)

// Signal names used in Breakdown.
const (
	SignalReachability = "reachability"
	SignalTiming       = "timing"
	SignalRedirects    = "redirects"
	SignalTLS          = "tls"
	SignalDNS          = "dns"
	SignalPing         = "ping"
	SignalContentType  = "content_type"
	SignalTitle        = "title"
	SignalErrorScan    = "error_scan"
	SignalRobots       = "robots"
	SignalSitemap      = "sitemap"
	SignalMetaRefresh  = "meta_refresh"
)

// Maximum attainable score.
const Max = 100

// Signals are the scorer inputs.
type Signals struct {
	Online       bool
	ResponseTime *float64
	Redirects    model.RedirectChain
	HTTPS        bool
	TLSValid     bool
	DNS          []string
	Ping         bool
	ContentType  string
	Title        string
	ErrorScan    model.ErrorScan
	Robots       bool
	Sitemap      bool
	MetaRefresh  model.MetaRefresh
}

// FromReport extracts the scorer inputs from a site report.
func FromReport(r *model.SiteReport) Signals {
	return Signals{
		Online:       r.Reachability.Online,
		ResponseTime: r.ResponseTime,
		Redirects:    r.Redirects,
		HTTPS:        r.Target.IsHTTPS(),
		TLSValid:     r.TLS.Valid,
		DNS:          r.DNS,
		Ping:         r.Ping,
		ContentType:  r.ContentType,
		Title:        r.Title,
		ErrorScan:    r.ErrorScan,
		Robots:       r.Robots,
		Sitemap:      r.Sitemap,
		MetaRefresh:  r.MetaRefresh,
	}
}

// Score returns the health score in [0, 100].
//
// A site whose probes all fail scores 0 over https and 5 over plain http:
// the 5-point TLS credit for http depends only on the scheme, not on any
// probe result.
func Score(s Signals) int {
	total := 0
	for _, c := range Breakdown(s) {
		total += c.Points
	}
	return min(max(total, 0), Max)
}

// Breakdown returns the points earned per signal, in table order.
func Breakdown(s Signals) []model.ScoreComponent {
	return []model.ScoreComponent{
		{Signal: SignalReachability, Points: award(s.Online, 30), Max: 30},
		{Signal: SignalTiming, Points: timingPoints(s.ResponseTime), Max: 10},
		{Signal: SignalRedirects, Points: redirectPoints(s.Redirects), Max: 10},
		{Signal: SignalTLS, Points: tlsPoints(s.HTTPS, s.TLSValid), Max: tlsMax(s.HTTPS)},
		{Signal: SignalDNS, Points: award(len(s.DNS) > 0, 5), Max: 5},
		{Signal: SignalPing, Points: award(s.Ping, 5), Max: 5},
		{Signal: SignalContentType, Points: award(strings.Contains(strings.ToLower(s.ContentType), "text/html"), 5), Max: 5},
		{Signal: SignalTitle, Points: award(s.Title != "" && s.Title != model.NotAvailable, 5), Max: 5},
		{Signal: SignalErrorScan, Points: award(s.ErrorScan.Clean(), 5), Max: 5},
		{Signal: SignalRobots, Points: award(s.Robots, 5), Max: 5},
		{Signal: SignalSitemap, Points: award(s.Sitemap, 5), Max: 5},
		{Signal: SignalMetaRefresh, Points: award(s.MetaRefresh.Known && !s.MetaRefresh.Present, 5), Max: 5},
	}
}

func award(ok bool, points int) int {
	if ok {
		return points
	}
	return 0
}

func timingPoints(rt *float64) int {
	switch {
	case rt == nil || *rt < 0:
		return 0
	case *rt < 1:
		return 10
	case *rt < 3:
		return 5
	default:
		return 0
	}
}

// redirectPoints awards nothing for an unresolved chain.
func redirectPoints(chain model.RedirectChain) int {
	if !chain.Resolved {
		return 0
	}
	switch n := chain.Len(); {
	case n == 0:
		return 10
	case n <= 2:
		return 5
	default:
		return 0
	}
}

// tlsPoints never penalizes plain http for missing TLS, but caps it at 5.
func tlsPoints(https, valid bool) int {
	if !https {
		return 5
	}
	return award(valid, 10)
}

func tlsMax(https bool) int {
	if https {
		return 10
	}
	return 5
}
