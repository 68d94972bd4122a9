// Package browser owns the live browser session: lifecycle, element lookup
// with Selenium-style strategies, interaction primitives, screenshots, and
// the visibility probe consumed by page summaries.
package browser

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/helmlabs/helmsman/internal/logging"
)

// Kinds lists the launchable browser kinds. chrome and msedge are branded
// chromium channels and need the matching browser installed on the host.
var Kinds = []string{"chromium", "firefox", "webkit", "chrome", "msedge"}

// ValidKind reports whether kind is launchable.
func ValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

var (
	pwOnce     sync.Once
	pwInstance *playwright.Playwright
	pwErr      error
)

// getPlaywright returns the process-wide driver instance, installing the
// browser binaries on first use.
func getPlaywright() (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		if err := playwright.Install(); err != nil {
			pwErr = fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		pw, err := playwright.Run()
		if err != nil {
			pwErr = fmt.Errorf("failed to start playwright: %w", err)
			return
		}
		pwInstance = pw
	})
	return pwInstance, pwErr
}

// Options configures a session before it starts.
type Options struct {
	Kind     string
	Headless bool
	Timeout  time.Duration // default locator wait

	// Undetected slows interactions down to a human pace and trims the
	// more obvious automation fingerprints from the launched browser.
	Undetected   bool
	PaceOffset   time.Duration
	PaceVariance time.Duration
}

// Session is a single browser plus the one page all operations act on. It is
// driven by a sequential tool dispatcher, so no internal locking.
type Session struct {
	kind       string
	headless   bool
	timeout    time.Duration
	undetected bool

	paceOffset   time.Duration
	paceVariance time.Duration
	rng          *rand.Rand

	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// New creates a stopped session. The browser launches on Start or on the
// first operation that needs a page.
func New(opts Options) *Session {
	kind := opts.Kind
	if !ValidKind(kind) {
		kind = "chromium"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Session{
		kind:         kind,
		headless:     opts.Headless,
		timeout:      timeout,
		undetected:   opts.Undetected,
		paceOffset:   opts.PaceOffset,
		paceVariance: opts.PaceVariance,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Kind returns the configured browser kind.
func (s *Session) Kind() string { return s.kind }

// Running reports whether a browser is up.
func (s *Session) Running() bool { return s.page != nil }

// Timeout returns the default locator wait.
func (s *Session) Timeout() time.Duration { return s.timeout }

// SetTimeout replaces the default locator wait. Non-positive values are
// ignored so a bad request cannot disable waiting entirely.
func (s *Session) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Start launches the browser and opens its page. Starting a running session
// is a no-op.
func (s *Session) Start() error {
	if s.Running() {
		return nil
	}
	pw, err := getPlaywright()
	if err != nil {
		return err
	}
	s.pw = pw

	browserType := pw.Chromium
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.headless),
	}
	switch s.kind {
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	case "chrome", "msedge":
		launch.Channel = playwright.String(s.kind)
	}
	if s.undetected && browserType == pw.Chromium {
		launch.Args = append(launch.Args, "--disable-blink-features=AutomationControlled")
	}

	b, err := browserType.Launch(launch)
	if err != nil {
		return fmt.Errorf("failed to launch %s: %w", s.kind, err)
	}
	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		return fmt.Errorf("failed to open page: %w", err)
	}

	s.browser = b
	s.page = page
	logging.Infof("Started %s browser", s.kind)
	return nil
}

// Quit closes the browser. Quitting a stopped session returns ErrNotRunning.
func (s *Session) Quit() error {
	if !s.Running() {
		return ErrNotRunning
	}
	err := s.browser.Close()
	s.browser = nil
	s.page = nil
	if err != nil {
		return fmt.Errorf("failed to quit browser: %w", err)
	}
	logging.Infof("Quit %s browser", s.kind)
	return nil
}

// ChangeKind switches the browser kind, quitting any running browser first.
// The next operation launches the new kind.
func (s *Session) ChangeKind(kind string) error {
	if !ValidKind(kind) {
		return fmt.Errorf("unknown browser %q (supported: %v)", kind, Kinds)
	}
	if s.Running() {
		if err := s.Quit(); err != nil {
			return err
		}
	}
	s.kind = kind
	return nil
}

// ensureStarted launches the browser lazily so every operation works without
// an explicit start.
func (s *Session) ensureStarted() error {
	if s.Running() {
		return nil
	}
	return s.Start()
}

// Pace sleeps for a randomized human-scale interval in undetected mode and
// returns immediately otherwise. Interaction primitives call it before they
// touch the page.
func (s *Session) Pace() {
	if !s.undetected {
		return
	}
	d := s.paceOffset + time.Duration(s.rng.Float64()*float64(s.paceVariance))
	if d > 0 {
		time.Sleep(d)
	}
}
