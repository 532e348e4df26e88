package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds one render, independently of the probe timeout.
const DefaultTimeout = 20 * time.Second

// ErrEmptyImage is returned when the browser produced no image data.
var ErrEmptyImage = errors.New("renderer returned an empty image")

// Renderer writes an image of url to path.
type Renderer interface {
	Render(ctx context.Context, url, path string) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, url, path string) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, url, path string) error {
	return f(ctx, url, path)
}

// ChromeRenderer captures full-page PNG screenshots with headless Chrome.
type ChromeRenderer struct {
	timeout  time.Duration
	execPath string
	width    int
	height   int
	proxy    string
}

// ChromeOption configures a ChromeRenderer.
type ChromeOption func(*ChromeRenderer)

// WithTimeout sets the per-render timeout.
func WithTimeout(d time.Duration) ChromeOption {
	return func(r *ChromeRenderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithExecPath sets the Chrome binary. By default chromedp searches PATH.
func WithExecPath(path string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.execPath = path
	}
}

// WithWindowSize sets the browser viewport.
func WithWindowSize(width, height int) ChromeOption {
	return func(r *ChromeRenderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithProxy routes the browser through a SOCKS5 proxy (host:port).
func WithProxy(address string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.proxy = address
	}
}

// NewChromeRenderer creates a renderer with a 1280x800 viewport.
func NewChromeRenderer(opts ...ChromeOption) *ChromeRenderer {
	r := &ChromeRenderer{
		timeout: DefaultTimeout,
		width:   1280,
		height:  800,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render launches a browser, loads url and writes a full-page PNG to path.
func (r *ChromeRenderer) Render(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(r.width, r.height),
		chromedp.Flag("ignore-certificate-errors", true),
	)
	if r.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.execPath))
	}
	if r.proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer("socks5://"+r.proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var buf []byte
	// Quality 100 makes chromedp emit PNG.
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.FullScreenshot(&buf, 100),
	); err != nil {
		return fmt.Errorf("failed to capture %s: %w", url, err)
	}
	if len(buf) == 0 {
		return ErrEmptyImage
	}

	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
