package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
)

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:9050", true},
		{"proxy.local:1080", true},
		{"[::1]:1080", true},
		{"127.0.0.1", false},
		{":1080", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:70000", false},
		{"127.0.0.1:abc", false},
	}

	for _, tt := range tests {
		if got := isValidProxyAddress(tt.addr); got != tt.want {
			t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestNewDialer(t *testing.T) {
	t.Parallel()

	if d, err := NewDialer("", 0); err != nil || d == nil {
		t.Errorf("direct dialer: got %v, %v", d, err)
	}
	if d, err := NewDialer("127.0.0.1:1080", 0); err != nil || d == nil {
		t.Errorf("socks5 dialer: got %v, %v", d, err)
	}
	if _, err := NewDialer("bad", 0); !errors.Is(err, ErrInvalidProxyAddress) {
		t.Errorf("got %v, want ErrInvalidProxyAddress", err)
	}
}

// serveOnce accepts one connection, reads the greeting and writes reply.
func serveOnce(t *testing.T, reply []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() }) //nolint:errcheck

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 3)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		_, _ = conn.Write(reply) //nolint:errcheck
	}()
	return ln.Addr().String()
}

func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("socks5 proxy", func(t *testing.T) {
		t.Parallel()

		addr := serveOnce(t, []byte{socks5Version, socks5AuthNone})
		if err := CheckProxy(context.Background(), addr); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("proxy requiring authentication", func(t *testing.T) {
		t.Parallel()

		addr := serveOnce(t, []byte{socks5Version, socks5AuthNoAccept})
		if err := CheckProxy(context.Background(), addr); !errors.Is(err, ErrProxyNotSOCKS5) {
			t.Errorf("got %v, want ErrProxyNotSOCKS5", err)
		}
	})

	t.Run("not a socks5 proxy", func(t *testing.T) {
		t.Parallel()

		addr := serveOnce(t, []byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
		if err := CheckProxy(context.Background(), addr); !errors.Is(err, ErrProxyNotSOCKS5) {
			t.Errorf("got %v, want ErrProxyNotSOCKS5", err)
		}
	})

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		addr := ln.Addr().String()
		_ = ln.Close() //nolint:errcheck

		if err := CheckProxy(context.Background(), addr); !errors.Is(err, ErrProxyCannotConnect) {
			t.Errorf("got %v, want ErrProxyCannotConnect", err)
		}
	})
}

func TestDeriveSharesClients(t *testing.T) {
	t.Parallel()

	p := newTestProber()

	d := p.Derive(WithHeaders(map[string]string{"X-A": "1"}), WithErrorKeywords([]string{"x"}))
	if d.client != p.client {
		t.Error("expected shared client when only headers change")
	}
	if len(p.ErrorKeywords()) != len(DefaultErrorKeywords) {
		t.Error("Derive must not modify the parent")
	}

	d2 := p.Derive(WithTimeout(p.Timeout() * 2))
	if d2.client == p.client {
		t.Error("expected a new client when the timeout changes")
	}
}
