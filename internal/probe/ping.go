package probe

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/nao1215/sitecheck/internal/model"
)

// Pinger sends a single ICMP echo to host.
type Pinger interface {
	Ping(ctx context.Context, host string, timeout time.Duration) bool
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context, host string, timeout time.Duration) bool

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context, host string, timeout time.Duration) bool {
	return f(ctx, host, timeout)
}

// ExecPinger runs the platform ping command.
type ExecPinger struct {
	goos string
	path string
}

// NewExecPinger returns a pinger for the current platform.
func NewExecPinger() *ExecPinger {
	return &ExecPinger{goos: runtime.GOOS, path: "ping"}
}

// Args returns the ping command line for one echo with the given timeout.
// The reply wait flag differs per platform: Windows and the BSD family
// take milliseconds, Linux and OpenBSD take whole seconds.
func (e *ExecPinger) Args(host string, timeout time.Duration) []string {
	millis := strconv.FormatInt(max(timeout.Milliseconds(), 1), 10)
	secs := strconv.Itoa(max(int(timeout/time.Second), 1))

	switch e.goos {
	case "windows":
		return []string{"-n", "1", "-w", millis, host}
	case "darwin", "ios", "freebsd", "netbsd", "dragonfly":
		return []string{"-c", "1", "-W", millis, host}
	case "openbsd":
		return []string{"-c", "1", "-w", secs, host}
	default:
		return []string{"-c", "1", "-W", secs, host}
	}
}

// Ping reports whether the ping command exited successfully.
func (e *ExecPinger) Ping(ctx context.Context, host string, timeout time.Duration) bool {
	// One second of slack for process startup on top of the echo timeout.
	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.path, e.Args(host, timeout)...) //nolint:gosec // host comes from a parsed URL
	return cmd.Run() == nil
}

// Ping sends one ICMP echo to the target host.
func (p *Prober) Ping(ctx context.Context, target model.Target) bool {
	return p.pinger.Ping(ctx, target.Host, p.timeout)
}
