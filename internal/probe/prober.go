package probe

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultTimeout bounds every network probe.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// DefaultUserAgent identifies plain probe requests.
	DefaultUserAgent = "sitecheck/1.0 (+https://github.com/nao1215/sitecheck)"

	// DefaultBrowserUserAgent is sent by the browser-like reachability attempt.
	DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// DefaultErrorKeywords is the keyword list used by ErrorScan.
var DefaultErrorKeywords = []string{"404", "not found", "error", "503", "maintenance"}

// defaultFallbackPorts are tried by the raw TCP reachability attempt after
// the explicit URL port, if any.
var defaultFallbackPorts = []string{"80", "443"}

// Resolver looks up IP addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Prober runs the probe set against a target.
// A Prober is safe for concurrent use once constructed.
type Prober struct {
	// client follows redirects (up to 10).
	client *http.Client

	// noRedirect returns 3xx responses unchanged for the manual redirect walk.
	noRedirect *http.Client

	// dialer is used for raw TCP and TLS probes. It is a SOCKS5 dialer
	// when a proxy is configured.
	dialer proxy.ContextDialer

	resolver Resolver
	pinger   Pinger

	timeout          time.Duration
	maxBodySize      int64
	userAgent        string
	browserUserAgent string
	headers          map[string]string
	errorKeywords    []string
	fallbackPorts    []string

	// wrapTransport decorates the HTTP transport (verbose request logging).
	wrapTransport func(http.RoundTripper) http.RoundTripper

	logger *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-probe network timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(p *Prober) {
		if n > 0 {
			p.maxBodySize = n
		}
	}
}

// WithUserAgent sets the User-Agent for plain requests.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithBrowserUserAgent sets the User-Agent of the browser-like attempt.
func WithBrowserUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.browserUserAgent = ua
		}
	}
}

// WithHeaders adds headers to every HTTP request.
func WithHeaders(h map[string]string) Option {
	return func(p *Prober) {
		p.headers = h
	}
}

// WithErrorKeywords replaces the ErrorScan keyword list.
// Result order follows the order given here.
func WithErrorKeywords(keywords []string) Option {
	return func(p *Prober) {
		if len(keywords) > 0 {
			p.errorKeywords = keywords
		}
	}
}

// WithDialer sets the dialer used for all connections.
// Use NewDialer to build a SOCKS5 dialer.
func WithDialer(d proxy.ContextDialer) Option {
	return func(p *Prober) {
		if d != nil {
			p.dialer = d
		}
	}
}

// WithResolver sets the DNS resolver.
func WithResolver(r Resolver) Option {
	return func(p *Prober) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithPinger sets the ping implementation.
func WithPinger(pinger Pinger) Option {
	return func(p *Prober) {
		if pinger != nil {
			p.pinger = pinger
		}
	}
}

// WithFallbackPorts sets the ports tried by the raw TCP attempt after the
// explicit URL port.
func WithFallbackPorts(ports ...string) Option {
	return func(p *Prober) {
		p.fallbackPorts = ports
	}
}

// WithTransportWrapper decorates the HTTP transport, for example with a
// request logger.
func WithTransportWrapper(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(p *Prober) {
		p.wrapTransport = wrap
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber creates a Prober with the given options.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		timeout:          DefaultTimeout,
		maxBodySize:      DefaultMaxBodySize,
		userAgent:        DefaultUserAgent,
		browserUserAgent: DefaultBrowserUserAgent,
		errorKeywords:    DefaultErrorKeywords,
		fallbackPorts:    defaultFallbackPorts,
		resolver:         net.DefaultResolver,
		pinger:           NewExecPinger(),
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dialer == nil {
		p.dialer = &net.Dialer{Timeout: p.timeout}
	}

	p.client = newHTTPClient(p.dialer, p.timeout, true, p.wrapTransport)
	p.noRedirect = newHTTPClient(p.dialer, p.timeout, false, p.wrapTransport)
	return p
}

// Timeout returns the per-probe network timeout.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// ErrorKeywords returns the keyword list used by ErrorScan.
func (p *Prober) ErrorKeywords() []string {
	return p.errorKeywords
}

// response is a drained HTTP response.
type response struct {
	statusCode  int
	contentType string
	location    string
	body        string
	finalURL    string
}

// do issues one request and drains at most maxBodySize bytes of the body.
// A nil response means no HTTP response was received.
func (p *Prober) do(ctx context.Context, client *http.Client, method, rawURL, userAgent string, readBody bool) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	r := &response{
		statusCode:  resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		location:    resp.Header.Get("Location"),
		finalURL:    resp.Request.URL.String(),
	}
	if readBody {
		b, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
		if err != nil {
			return nil, err
		}
		r.body = string(b)
	}
	return r, nil
}

// get is a GET through the following client with the default User-Agent.
func (p *Prober) get(ctx context.Context, rawURL string, readBody bool) (*response, error) {
	return p.do(ctx, p.client, http.MethodGet, rawURL, p.userAgent, readBody)
}

// Derive returns a copy of p with opts applied, for per-site overrides such
// as headers, User-Agent or error keywords. The HTTP clients are shared
// unless the timeout or dialer changed.
func (p *Prober) Derive(opts ...Option) *Prober {
	d := *p
	for _, opt := range opts {
		opt(&d)
	}
	if d.timeout != p.timeout || d.dialer != p.dialer {
		d.client = newHTTPClient(d.dialer, d.timeout, true, d.wrapTransport)
		d.noRedirect = newHTTPClient(d.dialer, d.timeout, false, d.wrapTransport)
	}
	return &d
}
