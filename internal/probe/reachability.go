package probe

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/nao1215/sitecheck/internal/model"
	"github.com/samber/lo"
)

// Reachability runs five independent attempts against the target:
// GET, HEAD, GET with a browser User-Agent, GET with a trailing slash,
// and a raw TCP connect. The site is online if any attempt succeeds.
//
// The body of the first successful GET-class attempt is returned as the
// Fetch value reused by later probes. Fetch.HasBody is false when no
// GET-class attempt succeeded.
func (p *Prober) Reachability(ctx context.Context, target model.Target) (model.Reachability, model.Fetch) {
	var fetch model.Fetch
	attempts := make([]model.AttemptResult, 0, 5)

	httpAttempt := func(kind model.AttemptKind, method, rawURL, ua string) {
		isGet := method == http.MethodGet
		resp, err := p.do(ctx, p.client, method, rawURL, ua, isGet)
		if err != nil {
			p.logger.Debug("reachability attempt failed", "url", rawURL, "kind", kind, "error", err)
			attempts = append(attempts, model.AttemptResult{Kind: kind})
			return
		}

		ok := resp.statusCode < http.StatusBadRequest
		attempts = append(attempts, model.AttemptResult{Kind: kind, OK: ok, StatusCode: resp.statusCode})
		if ok && isGet && !fetch.HasBody {
			fetch = model.Fetch{
				Body:        resp.body,
				HasBody:     true,
				ContentType: resp.contentType,
				StatusCode:  resp.statusCode,
				FinalURL:    resp.finalURL,
			}
		}
	}

	httpAttempt(model.AttemptGet, http.MethodGet, target.URL, p.userAgent)
	httpAttempt(model.AttemptHead, http.MethodHead, target.URL, p.userAgent)
	httpAttempt(model.AttemptBrowserGet, http.MethodGet, target.URL, p.browserUserAgent)
	httpAttempt(model.AttemptSlashGet, http.MethodGet, withTrailingSlash(target.URL), p.userAgent)
	attempts = append(attempts, model.AttemptResult{Kind: model.AttemptTCP, OK: p.tcpConnect(ctx, target)})

	online := lo.SomeBy(attempts, func(a model.AttemptResult) bool { return a.OK })
	return model.Reachability{Online: online, Attempts: attempts}, fetch
}

// tcpConnect tries the explicit URL port, then each fallback port.
func (p *Prober) tcpConnect(ctx context.Context, target model.Target) bool {
	ports := p.fallbackPorts
	if target.Port != "" {
		ports = append([]string{target.Port}, ports...)
	}

	for _, port := range lo.Uniq(ports) {
		dctx, cancel := context.WithTimeout(ctx, p.timeout)
		conn, err := p.dialer.DialContext(dctx, "tcp", net.JoinHostPort(target.Host, port))
		cancel()
		if err == nil {
			_ = conn.Close() //nolint:errcheck // probe connection
			return true
		}
	}
	return false
}

// withTrailingSlash appends "/" to the URL path unless it already ends with one.
// Query and fragment are preserved.
func withTrailingSlash(rawURL string) string {
	base, rest := rawURL, ""
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		base, rest = rawURL[:i], rawURL[i:]
	}
	if strings.HasSuffix(base, "/") {
		return rawURL
	}
	return base + "/" + rest
}
