package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidTarget is returned when a site URL cannot be parsed into a Target.
var ErrInvalidTarget = errors.New("invalid target URL")

// Target is one site to verify. It is read-only after ParseTarget.
type Target struct {
	// URL is the normalized site URL used for every probe.
	URL string `json:"url"`

	// Scheme is "http" or "https".
	Scheme string `json:"scheme"`

	// Host is the hostname without port.
	Host string `json:"host"`

	// Port is the explicit port from the URL, or empty.
	Port string `json:"port,omitempty"`

	// Domain is the archive partition key: the hostname, followed by
	// "_<port>" when the URL names a non-default port.
	Domain string `json:"domain"`
}

// ParseTarget parses a site URL. A URL without a scheme is treated as http.
//
// Accepted forms:
//   - example.com
//   - http://example.com
//   - https://example.com:8443/path
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty", ErrInvalidTarget)
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: %v", ErrInvalidTarget, raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, u.Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("%w: %q has no host", ErrInvalidTarget, raw)
	}
	if host := u.Hostname(); host == "." || host == ".." || strings.ContainsAny(host, `/\`) {
		return Target{}, fmt.Errorf("%w: %q is not a host name", ErrInvalidTarget, host)
	}
	u.Scheme = scheme

	t := Target{
		URL:    u.String(),
		Scheme: scheme,
		Host:   strings.ToLower(u.Hostname()),
		Port:   u.Port(),
	}
	t.Domain = t.Host
	if t.Port != "" && t.Port != t.DefaultPort() {
		t.Domain = t.Host + "_" + t.Port
	}
	return t, nil
}

// IsHTTPS reports whether the target uses TLS.
func (t Target) IsHTTPS() bool {
	return t.Scheme == "https"
}

// DefaultPort returns the well-known port for the target scheme.
func (t Target) DefaultPort() string {
	if t.IsHTTPS() {
		return "443"
	}
	return "80"
}

// Address returns host:port, using the explicit port or the scheme default.
func (t Target) Address() string {
	port := t.Port
	if port == "" {
		port = t.DefaultPort()
	}
	return net.JoinHostPort(t.Host, port)
}

// Origin returns "<scheme>://<host>[:port]" without path or query.
func (t Target) Origin() string {
	host := t.Host
	if t.Port != "" {
		host = net.JoinHostPort(t.Host, t.Port)
	}
	return t.Scheme + "://" + host
}

// String returns the target URL.
func (t Target) String() string {
	return t.URL
}
