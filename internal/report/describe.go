package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/sitecheck/internal/model"
)

const dateTimeLayout = "2006-01-02 15:04:05 MST"

func statusText(r *model.SiteReport) string {
	switch {
	case r.Failed():
		return "ERROR - " + r.Error
	case r.Reachability.Online:
		return "ONLINE"
	default:
		return "OFFLINE"
	}
}

func checkedText(r *model.SiteReport) string {
	if r.CheckedAt.IsZero() {
		return "not checked"
	}
	return r.CheckedAt.Format(dateTimeLayout)
}

func attemptsText(reach model.Reachability) string {
	if len(reach.Attempts) == 0 {
		return "not checked"
	}
	parts := make([]string, 0, len(reach.Attempts))
	for _, a := range reach.Attempts {
		switch {
		case a.StatusCode != 0:
			parts = append(parts, fmt.Sprintf("%s %d", a.Kind, a.StatusCode))
		case a.OK:
			parts = append(parts, fmt.Sprintf("%s ok", a.Kind))
		default:
			parts = append(parts, fmt.Sprintf("%s failed", a.Kind))
		}
	}
	return strings.Join(parts, ", ")
}

func responseTimeText(r *model.SiteReport) string {
	secs, ok := r.ResponseSeconds()
	if !ok {
		return model.NotAvailable
	}
	return strconv.FormatFloat(secs, 'f', 3, 64) + "s"
}

func redirectText(chain model.RedirectChain) string {
	switch {
	case !chain.Resolved:
		return "unresolved"
	case chain.Len() == 0:
		return "none"
	case chain.Len() == 1:
		return "1 hop: " + chain.Hops[0]
	default:
		return fmt.Sprintf("%d hops: %s", chain.Len(), strings.Join(chain.Hops, " -> "))
	}
}

func tlsText(info model.TLSInfo, now time.Time) string {
	switch {
	case !info.Checked:
		return "not https"
	case !info.Valid:
		return "no certificate"
	}

	var sb strings.Builder
	sb.WriteString("certificate presented")
	if !info.Expiry.IsZero() {
		state := "expires"
		if info.Expired(now) {
			state = "EXPIRED"
		}
		fmt.Fprintf(&sb, ", %s %s (%s)", state, info.Expiry.Format(model.DateLayout),
			humanize.RelTime(info.Expiry, now, "ago", "from now"))
	}
	if info.Issuer != "" {
		sb.WriteString(", issuer " + info.Issuer)
	}
	return sb.String()
}

func dnsText(records []string) string {
	if len(records) == 0 {
		return "no A records"
	}
	return strings.Join(records, ", ")
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func errorScanText(scan model.ErrorScan) string {
	switch {
	case !scan.Known:
		return "unknown (no body)"
	case scan.Clean():
		return "clean"
	default:
		return "matches: " + strings.Join(scan.Matches, ", ")
	}
}

func metaRefreshText(m model.MetaRefresh) string {
	switch {
	case !m.Known:
		return "unknown (no body)"
	case m.Present:
		return "present"
	default:
		return "none"
	}
}

func platformText(p model.PlatformFingerprint) string {
	if !p.Detected() {
		return "WordPress not detected"
	}
	signals := make([]string, 0, 5)
	for _, s := range []struct {
		on   bool
		name string
	}{
		{p.WPContent, "wp-content"},
		{p.WPIncludes, "wp-includes"},
		{p.MetaGenerator, "generator"},
		{p.WPJSON, "wp-json"},
		{p.WPAdmin, "wp-admin"},
	} {
		if s.on {
			signals = append(signals, s.name)
		}
	}
	return fmt.Sprintf("WordPress (%d/5 signals: %s)", p.Count(), strings.Join(signals, ", "))
}

func archiveText(store model.StoreResult) string {
	versions := humanize.Comma(int64(store.TotalVersions)) + " " + plural(store.TotalVersions, "version", "versions") + " today"
	if store.Saved() {
		return fmt.Sprintf("saved %s (%s)", store.SavedFile, versions)
	}
	return fmt.Sprintf("unchanged (%s)", versions)
}

func snapshotText(path string) string {
	if path == "" {
		return "none"
	}
	return path
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func scoreText(r *model.SiteReport) string {
	if r.Grade == "" {
		return "not scored"
	}
	return fmt.Sprintf("%d/100 (%s)", r.Score, r.Grade)
}
