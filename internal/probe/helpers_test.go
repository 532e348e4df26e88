package probe

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/sitecheck/internal/model"
)

// fakeResolver returns fixed IPs or an error.
type fakeResolver struct {
	ips []net.IP
	err error
}

func (f fakeResolver) LookupIP(_ context.Context, _, _ string) ([]net.IP, error) {
	return f.ips, f.err
}

// newTestProber returns a prober that never touches real DNS, ICMP or
// well-known ports.
func newTestProber(opts ...Option) *Prober {
	base := []Option{
		WithTimeout(2 * time.Second),
		WithFallbackPorts(),
		WithResolver(fakeResolver{ips: []net.IP{net.ParseIP("127.0.0.1")}}),
		WithPinger(PingerFunc(func(context.Context, string, time.Duration) bool { return false })),
	}
	return NewProber(append(base, opts...)...)
}

func mustTarget(t *testing.T, raw string) model.Target {
	t.Helper()

	target, err := model.ParseTarget(raw)
	if err != nil {
		t.Fatalf("ParseTarget(%q): %v", raw, err)
	}
	return target
}

// closedURL returns the URL of a server that is no longer listening.
func closedURL(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(nil)
	u := srv.URL
	srv.Close()
	return u
}

// selfSignedCert builds a certificate for 127.0.0.1 valid in [notBefore, notAfter].
func selfSignedCert(t *testing.T, notBefore, notAfter time.Time) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "sitecheck.test"},
		Issuer:       pkix.Name{CommonName: "sitecheck.test"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}
