package probe

import (
	"context"
	"net/http"

	"github.com/nao1215/sitecheck/internal/model"
)

// Robots reports whether <origin>/robots.txt answers exactly 200.
func (p *Prober) Robots(ctx context.Context, target model.Target) bool {
	return p.statusIs(ctx, target.Origin()+"/robots.txt", http.StatusOK)
}

// Sitemap reports whether <origin>/sitemap.xml answers exactly 200.
func (p *Prober) Sitemap(ctx context.Context, target model.Target) bool {
	return p.statusIs(ctx, target.Origin()+"/sitemap.xml", http.StatusOK)
}

// statusIs issues a GET (following redirects) and compares the final status.
func (p *Prober) statusIs(ctx context.Context, rawURL string, want int) bool {
	resp, err := p.get(ctx, rawURL, false)
	if err != nil {
		p.logger.Debug("well-known probe failed", "url", rawURL, "error", err)
		return false
	}
	return resp.statusCode == want
}
