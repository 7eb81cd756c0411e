// internal/capture/manager.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domsvg/internal/config"
	"github.com/xkilldash9x/domsvg/internal/snapshot"
)

// ErrEmptyResult is returned when the capture script produced nothing.
var ErrEmptyResult = errors.New("capture script returned an empty result")

// Capturer turns a live page into a snapshot document.
type Capturer interface {
	Capture(ctx context.Context, url string, opts Options) (*snapshot.Document, error)
	Shutdown(ctx context.Context) error
}

// Manager owns a headless browser process and captures pages in fresh tabs.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	// allocatorCtx manages the browser process. Every tab derives from it.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// wg tracks in-flight captures for a graceful shutdown.
	wg sync.WaitGroup
}

var _ Capturer = (*Manager)(nil)

// NewManager launches the browser and checks that it responds.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		logger: logger.Named("capture"),
		cfg:    cfg,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(m.cfg)...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	testCtx, cancelTest := context.WithTimeout(allocCtx, 30*time.Second)
	testCtx, cancelTestCtx := chromedp.NewContext(testCtx)
	defer cancelTestCtx()
	defer cancelTest()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// Flags returns the command line switches for cfg, keyed by name without
// the leading dashes. Custom args override the built in switches.
func Flags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":                  cfg.Headless,
		"disable-gpu":               cfg.Headless,
		"ignore-certificate-errors": cfg.IgnoreTLSErrors,
		"disable-extensions":        true,
		"hide-scrollbars":           true,
		"mute-audio":                true,
		"enable-automation":         false,
	}
	if cfg.IgnoreTLSErrors {
		flags["allow-insecure-localhost"] = true
	}
	if cfg.DisableCache {
		flags["disk-cache-size"] = "0"
		flags["media-cache-size"] = "0"
		flags["disable-cache"] = true
	}
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
		flags["disable-setuid-sandbox"] = true
	}
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags[name] = parts[1]
		} else {
			flags[name] = true
		}
	}
	return flags
}

// AllocatorOptions builds the exec allocator options: chromedp's defaults,
// then Flags, then the window size. Later options win, so Flags can turn
// default switches off.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range Flags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return append(opts, chromedp.WindowSize(cfg.ViewportWidth(), cfg.ViewportHeight()))
}

// Capture loads url in a new tab and runs the capture script once the page
// has settled.
func (m *Manager) Capture(ctx context.Context, url string, opts Options) (*snapshot.Document, error) {
	script, err := Script(opts)
	if err != nil {
		return nil, err
	}

	m.wg.Add(1)
	defer m.wg.Done()

	tabCtx, cancelTab := chromedp.NewContext(m.allocatorCtx)
	defer cancelTab()
	// Tabs hang off the allocator, so tie them to the caller by hand.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	runCtx, cancelRun := context.WithTimeout(tabCtx, m.cfg.NavigationTimeout)
	defer cancelRun()

	logger := m.logger.With(zap.String("url", url))
	logger.Info("Capturing page.")
	start := time.Now()

	var raw string
	if err := chromedp.Run(runCtx, m.captureTasks(url, script, &raw)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to capture %s: %w", url, err)
	}

	doc, err := decodeResult(raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("Page captured.", zap.Duration("duration", time.Since(start)), zap.Int("font_faces", len(doc.FontFaces)))
	return doc, nil
}

func (m *Manager) captureTasks(url, script string, raw *string) chromedp.Tasks {
	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(int64(m.cfg.ViewportWidth()), int64(m.cfg.ViewportHeight()), 1, false),
	}
	if m.cfg.DisableCache {
		tasks = append(tasks, network.Enable(), network.SetCacheDisabled(true))
	}
	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if m.cfg.PostLoadWait > 0 {
		tasks = append(tasks, chromedp.Sleep(m.cfg.PostLoadWait))
	}
	return append(tasks, chromedp.Evaluate(script, raw, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
}

func decodeResult(raw string) (*snapshot.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResult
	}
	return snapshot.Decode(strings.NewReader(raw))
}

// Shutdown waits for in-flight captures, up to the deadline of ctx, then
// terminates the browser.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser shutdown initiated. Waiting for active captures to complete...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
	return nil
}
