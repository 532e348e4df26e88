package log

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// MaskValue replaces every redacted value.
const MaskValue = "***REDACTED***"

// defaultSensitiveKeys are attribute keys (lowercase) whose values are always masked.
var defaultSensitiveKeys = []string{
	// request and response headers
	"authorization", "proxy-authorization", "cookie", "set-cookie",
	"x-api-key", "x-auth-token", "x-csrf-token",

	// credentials
	"password", "passwd", "secret", "token", "api_key", "apikey", "api-key",
	"access_token", "refresh_token", "private_key", "secret_key",
	"credential", "credentials", "auth", "proxy_password",

	// sessions
	"session", "session_id", "sessionid", "sid", "jsessionid", "phpsessid",
}

// sensitiveKeywords mask any key that contains them. The bare word "key" is
// not listed: it would hide keys such as "site_key" or "keywords".
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// sensitivePatterns mask string values regardless of their key.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`), // AWS access key ID
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`), // opaque API keys
}

// contentDigest matches the sha3-256 hex digests the archive logs.
// They look like API keys but are safe and useful to show.
var contentDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// sensitiveQueryParams are masked inside logged URLs.
var sensitiveQueryParams = []string{
	"token", "access_token", "api_key", "apikey", "key", "secret",
	"password", "sig", "signature", "auth", "session", "sid",
}

// SecureHandler wraps an slog.Handler and masks credentials before records
// reach it. Values are masked by key (exact or by keyword), by value shape,
// and URLs keep their shape but lose userinfo passwords and token-like
// query parameters.
type SecureHandler struct {
	handler slog.Handler
	keys    map[string]struct{}
}

// HandlerOption configures a SecureHandler.
type HandlerOption func(*SecureHandler)

// WithSensitiveKeys masks the values of additional attribute keys, compared
// case-insensitively. Custom request header names from the configuration
// file are the typical use.
func WithSensitiveKeys(keys ...string) HandlerOption {
	return func(h *SecureHandler) {
		for _, k := range keys {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				h.keys[k] = struct{}{}
			}
		}
	}
}

// NewSecureHandler creates a SecureHandler wrapping handler.
// A nil handler falls back to slog.Default().Handler().
func NewSecureHandler(handler slog.Handler, opts ...HandlerOption) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &SecureHandler{
		handler: handler,
		keys:    make(map[string]struct{}, len(defaultSensitiveKeys)),
	}
	WithSensitiveKeys(defaultSensitiveKeys...)(h)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs masks attrs before handing them to the wrapped handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return h.derive(h.handler.WithAttrs(sanitized))
}

// WithGroup returns a handler that nests attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return h.derive(h.handler.WithGroup(name))
}

func (h *SecureHandler) derive(next slog.Handler) *SecureHandler {
	return &SecureHandler{handler: next, keys: maps.Clone(h.keys)}
}

// sanitizeAttr masks a single attribute, descending into groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		sanitized := make([]slog.Attr, len(group))
		for i, ga := range group {
			sanitized[i] = h.sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if h.isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if isSensitiveValue(s) {
		return slog.String(a.Key, MaskValue)
	}
	if redacted, ok := redactURL(s); ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

func (h *SecureHandler) isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := h.keys[key]; ok {
		return true
	}
	return containsSensitiveKeyword(key)
}

// containsSensitiveKeyword reports whether key contains a sensitive keyword.
func containsSensitiveKeyword(key string) bool {
	return slices.ContainsFunc(sensitiveKeywords, func(kw string) bool {
		return strings.Contains(key, kw)
	})
}

// isSensitiveValue reports whether value looks like a credential.
func isSensitiveValue(value string) bool {
	if contentDigest.MatchString(value) {
		return false
	}
	return slices.ContainsFunc(sensitivePatterns, func(p *regexp.Regexp) bool {
		return p.MatchString(value)
	})
}

// redactURL masks the userinfo password and sensitive query parameters of an
// absolute http(s) URL. It reports false when the value is not such a URL or
// nothing needed masking.
func redactURL(value string) (string, bool) {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil {
		return "", false
	}

	changed := false
	var user string
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.User(u.User.Username())
			user = u.User.String()
			changed = true
		}
	}
	if u.RawQuery != "" {
		pairs := strings.Split(u.RawQuery, "&")
		for i, pair := range pairs {
			name, _, _ := strings.Cut(pair, "=")
			if decoded, err := url.QueryUnescape(name); err == nil {
				name = decoded
			}
			if slices.Contains(sensitiveQueryParams, strings.ToLower(name)) {
				pairs[i] = name + "=" + MaskValue
				changed = true
			}
		}
		// u.String would escape the mask, so the query is rebuilt by hand.
		u.RawQuery = strings.Join(pairs, "&")
	}
	if !changed {
		return "", false
	}
	out := u.String()
	if user != "" {
		out = strings.Replace(out, "//"+user+"@", "//"+user+":"+MaskValue+"@", 1)
	}
	return out, true
}

// LoggerOption configures NewSecureLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	json     bool
	handlers []HandlerOption
}

// WithJSON switches the logger to JSON lines for log aggregation.
func WithJSON() LoggerOption {
	return func(o *loggerOptions) { o.json = true }
}

// WithRedactedKeys masks the values of additional attribute keys.
func WithRedactedKeys(keys ...string) LoggerOption {
	return func(o *loggerOptions) {
		o.handlers = append(o.handlers, WithSensitiveKeys(keys...))
	}
}

// NewSecureLogger returns a logger that writes masked text records to w.
// verbose lowers the level from Warn to Debug.
func NewSecureLogger(w io.Writer, verbose bool, opts ...LoggerOption) *slog.Logger {
	var o loggerOptions
	for _, opt := range opts {
		opt(&o)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if o.json {
		base = slog.NewJSONHandler(w, handlerOpts)
	} else {
		base = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewSecureHandler(base, o.handlers...))
}
