// Package probe implements the site checks run by the sitecheck pipeline.
//
// Every probe takes a model.Target (and, where needed, the model.Fetch
// captured by the reachability probe) and returns a typed result. Probes
// never return errors: network timeouts, DNS failures, TLS handshake
// failures, 4xx/5xx statuses and parse failures all collapse into the
// result's failure sentinel (false, an empty slice, model.NotAvailable or nil).
//
// A single Prober owns the HTTP clients, the dialer (direct or SOCKS5),
// the DNS resolver and the pinger, so all probes of a run share the same
// timeout, User-Agent and proxy settings.
//
// Probe list:
//   - Reachability: five independent attempts, OR-ed together
//   - ResponseTime: one timed GET
//   - Redirects: manual redirect walk, capped at MaxRedirectHops
//   - TLS: peer certificate presence and expiry (trust is not verified)
//   - DNS: IPv4 addresses
//   - Ping: one ICMP echo via the platform ping command
//   - ContentType, Title, ErrorScan, MetaRefresh: derived from the captured body
//   - Robots, Sitemap: well-known file presence
//   - Platform: WordPress fingerprint
package probe
