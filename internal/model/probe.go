package model

import "time"

// NotAvailable is the sentinel for string probe results that could not be determined.
const NotAvailable = "N/A"

// AttemptKind names one reachability strategy.
type AttemptKind string

const (
	// AttemptGet is a plain GET.
	AttemptGet AttemptKind = "get"
	// AttemptHead is a HEAD request.
	AttemptHead AttemptKind = "head"
	// AttemptBrowserGet is a GET with a browser-like User-Agent.
	AttemptBrowserGet AttemptKind = "browser_get"
	// AttemptSlashGet is a GET against the URL with an enforced trailing slash.
	AttemptSlashGet AttemptKind = "slash_get"
	// AttemptTCP is a raw TCP connect.
	AttemptTCP AttemptKind = "tcp"
)

// AttemptResult is the outcome of one reachability strategy.
type AttemptResult struct {
	Kind       AttemptKind `json:"kind"`
	OK         bool        `json:"ok"`
	StatusCode int         `json:"status_code,omitempty"`
}

// Reachability aggregates the five reachability attempts.
// Online is true if any attempt succeeded.
type Reachability struct {
	Online   bool            `json:"online"`
	Attempts []AttemptResult `json:"attempts"`
}

// Fetch is the body captured by the first successful GET-class attempt.
// It is passed from stage to stage so the body is downloaded once.
// HasBody is false when no GET-class attempt succeeded; downstream probes
// treat that as unknown rather than as a failure.
type Fetch struct {
	Body        string
	HasBody     bool
	ContentType string
	StatusCode  int
	FinalURL    string
}

// RedirectChain is the list of Location targets followed from the site URL.
// Resolved is false when no response was received at all.
type RedirectChain struct {
	Hops     []string `json:"hops"`
	Resolved bool     `json:"resolved"`
}

// Len returns the number of hops.
func (r RedirectChain) Len() int {
	return len(r.Hops)
}

// TLSInfo is the result of the certificate probe.
// Checked is false for plain http targets.
// Valid means a peer certificate was presented; trust and expiry are not verified.
type TLSInfo struct {
	Checked bool      `json:"checked"`
	Valid   bool      `json:"valid"`
	Expiry  time.Time `json:"expiry,omitzero"`
	Issuer  string    `json:"issuer,omitempty"`
	Subject string    `json:"subject,omitempty"`
}

// Expired reports whether the presented certificate is past its NotAfter at t.
func (i TLSInfo) Expired(t time.Time) bool {
	return i.Valid && !i.Expiry.IsZero() && t.After(i.Expiry)
}

// ErrorScan lists the error keywords found in the body, in keyword-list order.
// Known is false when there was no body to scan.
type ErrorScan struct {
	Known   bool     `json:"known"`
	Matches []string `json:"matches"`
}

// Clean reports whether the body was scanned and nothing matched.
func (e ErrorScan) Clean() bool {
	return e.Known && len(e.Matches) == 0
}

// MetaRefresh reports whether the body carries <meta http-equiv="refresh">.
// Known is false when there was no body to parse.
type MetaRefresh struct {
	Known   bool `json:"known"`
	Present bool `json:"present"`
}

// PlatformFingerprint holds the independent WordPress indicators.
type PlatformFingerprint struct {
	WPContent     bool `json:"wp_content"`
	WPIncludes    bool `json:"wp_includes"`
	MetaGenerator bool `json:"meta_generator"`
	WPJSON        bool `json:"wp_json"`
	WPAdmin       bool `json:"wp_admin"`
}

// Detected reports whether any indicator fired.
func (p PlatformFingerprint) Detected() bool {
	return p.WPContent || p.WPIncludes || p.MetaGenerator || p.WPJSON || p.WPAdmin
}

// Count returns the number of indicators that fired.
func (p PlatformFingerprint) Count() int {
	n := 0
	for _, b := range []bool{p.WPContent, p.WPIncludes, p.MetaGenerator, p.WPJSON, p.WPAdmin} {
		if b {
			n++
		}
	}
	return n
}
