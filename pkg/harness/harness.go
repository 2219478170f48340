// Package harness provides the shared browser-test layer for the demo
// page suites: per-test isolated pages, console and page-error capture,
// automatic dialog resolution, and polling waits.
//
// Listeners are attached before navigation, so every console message,
// page error, and dialog raised between Open and test end is observed.
// Pages are strict by default: a cleanup fails the test if any console
// error or page error was captured. Suites covering deliberately broken
// pages opt out with ExpectErrors and assert the specific failure via
// RequirePageError.
package harness

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

// Options configures browser launch.
type Options struct {
	Headless      bool
	SlowMo        float64 // delay between driver actions in milliseconds, 0 disables
	ActionTimeout float64 // default per-action timeout in milliseconds, 0 uses the package default
}

// Browser owns the playwright driver and a launched chromium instance.
// One Browser serves a whole test binary; pages are created per test.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options

	closeOnce sync.Once
	closeErr  error
}

// Launch installs the chromium driver if needed, starts playwright, and
// launches the browser.
func Launch(opts Options) (*Browser, error) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("run playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(opts.SlowMo)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Browser{pw: pw, browser: browser, opts: opts}, nil
}

// Close shuts the browser and the driver down. Safe to call more than
// once, later calls return the first result.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if b.browser != nil {
			if err := b.browser.Close(); err != nil {
				b.closeErr = fmt.Errorf("close browser: %w", err)
			}
		}
		if b.pw != nil {
			if err := b.pw.Stop(); err != nil && b.closeErr == nil {
				b.closeErr = fmt.Errorf("stop playwright: %w", err)
			}
		}
	})
	return b.closeErr
}

// Option configures page construction.
type Option func(*pageSettings)

type pageSettings struct {
	expectErrors  bool
	actionTimeout float64
}

// ExpectErrors disables the strict zero-error cleanup for pages that are
// supposed to fail. Suites using it assert the specific error with
// RequirePageError or WaitForPageError.
func ExpectErrors() Option {
	return func(s *pageSettings) { s.expectErrors = true }
}

// WithActionTimeout overrides the default per-action timeout (ms).
func WithActionTimeout(ms float64) Option {
	return func(s *pageSettings) { s.actionTimeout = ms }
}

// NewPage creates a page in a fresh browser context so tests stay
// isolated (separate cookies, storage, listeners). Event listeners are
// attached here, before any navigation. The context is closed via
// t.Cleanup; strict pages also register the zero-error check, which runs
// before the close.
func (b *Browser) NewPage(t *testing.T, opts ...Option) *Page {
	t.Helper()

	settings := pageSettings{actionTimeout: b.opts.ActionTimeout}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.actionTimeout <= 0 {
		settings.actionTimeout = defaultActionTimeout
	}

	ctx, err := b.browser.NewContext()
	require.NoError(t, err, "create browser context")

	pg, err := ctx.NewPage()
	require.NoError(t, err, "create page")
	pg.SetDefaultTimeout(settings.actionTimeout)

	p := &Page{
		t:       t,
		pw:      pg,
		ctx:     ctx,
		id:      uuid.NewString()[:8],
		timeout: settings.actionTimeout,
		dialogs: &dialogLog{},
		events:  &eventLog{},
	}

	// listeners go on before any navigation so nothing is missed
	pg.OnConsole(func(msg playwright.ConsoleMessage) {
		p.events.addConsole(ConsoleRecord{Type: msg.Type(), Text: msg.Text()})
	})
	pg.OnPageError(func(pageErr error) {
		p.events.addPageError(normalizeError(pageErr))
	})
	pg.OnDialog(func(dialog playwright.Dialog) {
		p.handleDialog(dialog)
	})

	t.Cleanup(func() {
		_ = pg.Close()
		_ = ctx.Close()
	})
	if !settings.expectErrors {
		// registered after the close cleanup so it runs first (LIFO)
		t.Cleanup(p.RequireNoErrors)
	}

	return p
}
