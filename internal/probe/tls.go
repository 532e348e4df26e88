package probe

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/nao1215/sitecheck/internal/model"
)

// TLS reads the peer certificate of an https target.
// The port is the explicit URL port, or 443.
//
// Trust is not verified, and neither is expiry: a host presenting an
// expired certificate reports Valid=true with the past Expiry. Valid is
// false only when no certificate could be read. Plain http targets return
// a zero TLSInfo with Checked=false.
func (p *Prober) TLS(ctx context.Context, target model.Target) model.TLSInfo {
	if !target.IsHTTPS() {
		return model.TLSInfo{}
	}
	info := model.TLSInfo{Checked: true}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		p.logger.Debug("tls dial failed", "address", target.Address(), "error", err)
		return info
	}
	defer raw.Close()

	conn := tls.Client(raw, &tls.Config{
		ServerName:         serverName(target.Host),
		InsecureSkipVerify: true, //nolint:gosec // only presence and expiry are reported
	})
	if err := conn.HandshakeContext(ctx); err != nil {
		p.logger.Debug("tls handshake failed", "address", target.Address(), "error", err)
		return info
	}

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return info
	}
	leaf := certs[0]
	info.Valid = true
	info.Expiry = leaf.NotAfter
	info.Issuer = leaf.Issuer.CommonName
	info.Subject = leaf.Subject.CommonName
	return info
}

// serverName returns host for SNI, or empty for IP literals.
func serverName(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	return host
}
