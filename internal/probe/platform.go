package probe

import (
	"context"
	"net/http"
	"strings"

	"github.com/nao1215/sitecheck/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WordPress markers.
const (
	markerWPContent  = "wp-content"
	markerWPIncludes = "wp-includes"
	generatorName    = "wordpress"
	adminLoginMarker = "login"
)

// Platform fingerprints WordPress. The first three indicators come from the
// captured body; /wp-json/ and /wp-admin/ are probed live. Each indicator is
// independent and network failures resolve to false.
func (p *Prober) Platform(ctx context.Context, target model.Target, content *Content) model.PlatformFingerprint {
	fp := model.PlatformFingerprint{
		WPContent:     content.contains(markerWPContent),
		WPIncludes:    content.contains(markerWPIncludes),
		MetaGenerator: strings.Contains(cases.Lower(language.Und).String(content.Generator()), generatorName),
	}
	fp.WPJSON = p.statusIs(ctx, target.Origin()+"/wp-json/", http.StatusOK)
	fp.WPAdmin = p.wpAdmin(ctx, target.Origin()+"/wp-admin/")
	return fp
}

// wpAdmin reports a 200 or 302 whose body mentions "login".
// The following client lands on the login page when /wp-admin/ redirects.
func (p *Prober) wpAdmin(ctx context.Context, rawURL string) bool {
	resp, err := p.get(ctx, rawURL, true)
	if err != nil {
		p.logger.Debug("wp-admin probe failed", "url", rawURL, "error", err)
		return false
	}
	if resp.statusCode != http.StatusOK && resp.statusCode != http.StatusFound {
		return false
	}
	return strings.Contains(cases.Lower(language.Und).String(resp.body), adminLoginMarker)
}
