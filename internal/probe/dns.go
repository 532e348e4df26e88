package probe

import (
	"context"
	"net"

	"github.com/nao1215/sitecheck/internal/model"
	"github.com/samber/lo"
)

// DNS resolves the target host to its IPv4 addresses.
// The result is deduplicated and empty on any failure.
func (p *Prober) DNS(ctx context.Context, target model.Target) []string {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ips, err := p.resolver.LookupIP(ctx, "ip4", target.Host)
	if err != nil {
		p.logger.Debug("dns lookup failed", "host", target.Host, "error", err)
		return []string{}
	}
	return lo.Uniq(lo.Map(ips, func(ip net.IP, _ int) string { return ip.String() }))
}
