package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultCDPWait = 15 * time.Second

// Config holds browser session configuration.
type Config struct {
	// RemoteURL attaches to an already running browser (http://host:port).
	// Empty launches a local browser process.
	RemoteURL    string
	ExecPath     string
	Headless     bool
	WindowWidth  int
	WindowHeight int
	CDPWait      time.Duration
}

// Session is one browser context and page owned by a single verification run.
type Session struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	remote        bool
	closed        bool
}

// Open acquires a browser and a fresh page. The caller must Close the session
// on every exit path.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.WindowWidth == 0 || cfg.WindowHeight == 0 {
		cfg.WindowWidth, cfg.WindowHeight = 1920, 1080
	}
	if cfg.CDPWait <= 0 {
		cfg.CDPWait = defaultCDPWait
	}

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if cfg.RemoteURL != "" {
		remote := strings.TrimRight(cfg.RemoteURL, "/")
		if err := waitForCDP(ctx, remote, cfg.CDPWait); err != nil {
			return nil, fmt.Errorf("waiting for CDP: %w", err)
		}
		slog.Info("attaching to running browser", "cdp_url", remote)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, remote)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-breakpad", true),
			chromedp.Flag("no-first-run", true),
		)
		if !cfg.Headless {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		if os.Geteuid() == 0 {
			opts = append(opts, chromedp.NoSandbox)
		}
		execPath := cfg.ExecPath
		if execPath == "" {
			if path, err := DetectBrowser(); err == nil {
				execPath = path
			}
		}
		if execPath != "" {
			slog.Info("detected browser", "path", execPath)
			opts = append(opts, chromedp.ExecPath(execPath))
		}
		slog.Info("launching browser", "headless", cfg.Headless)
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			slog.Debug("chromedp error", "detail", fmt.Sprintf(format, args...))
		}),
	)

	// The first Run starts the browser (local mode) and opens the page target.
	if err := chromedp.Run(browserCtx, chromedp.EmulateViewport(int64(cfg.WindowWidth), int64(cfg.WindowHeight))); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	slog.Info("browser session ready", "remote", cfg.RemoteURL != "")
	return &Session{
		ctx:           browserCtx,
		cancelBrowser: browserCancel,
		cancelAlloc:   allocCancel,
		remote:        cfg.RemoteURL != "",
	}, nil
}

// Context returns the page context all actions run against.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close releases the page and, for local sessions, the browser process.
// Calling Close more than once is a no-op.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	var closeErr error
	if s.remote {
		// Close only our tab; the browser belongs to someone else.
		s.cancelBrowser()
	} else {
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			closeErr = fmt.Errorf("close browser: %w", err)
		}
		s.cancelBrowser()
	}
	s.cancelAlloc()
	slog.Info("browser session closed")
	return closeErr
}

// DetectBrowser finds an available Chrome/Chromium binary.
func DetectBrowser() (string, error) {
	candidates := []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "headless-shell"}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(macPath); err == nil {
			return macPath, nil
		}
	}
	return "", fmt.Errorf("no supported browser found (tried %s)", strings.Join(candidates, ", "))
}

// waitForCDP polls the CDP /json/version endpoint until it responds or wait elapses.
func waitForCDP(ctx context.Context, cdpURL string, wait time.Duration) error {
	url := cdpURL + "/json/version"
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{Timeout: time.Second}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("CDP did not become ready within %s at %s", wait, url)
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}
