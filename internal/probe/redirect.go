package probe

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nao1215/sitecheck/internal/model"
)

// MaxRedirectHops caps the manual redirect walk.
const MaxRedirectHops = 10

// Redirects walks the redirect chain by hand: HEAD with redirects
// disabled, resolve Location against the current URL, repeat. It stops
// at a non-3xx response, a missing Location, an error, or after
// MaxRedirectHops hops, and returns the targets visited.
// Resolved is false only when no response was received at all.
func (p *Prober) Redirects(ctx context.Context, target model.Target) model.RedirectChain {
	chain := model.RedirectChain{Hops: []string{}}
	current := target.URL

	for len(chain.Hops) < MaxRedirectHops {
		resp, err := p.do(ctx, p.noRedirect, http.MethodHead, current, p.userAgent, false)
		if err != nil {
			p.logger.Debug("redirect probe stopped", "url", current, "error", err)
			break
		}
		chain.Resolved = true

		if !isRedirect(resp.statusCode) || resp.location == "" {
			break
		}
		next, err := resolveLocation(current, resp.location)
		if err != nil {
			break
		}
		chain.Hops = append(chain.Hops, next)
		current = next
	}
	return chain
}

func isRedirect(code int) bool {
	return code >= http.StatusMultipleChoices && code < http.StatusBadRequest
}

func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
