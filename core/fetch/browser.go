package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/core"
)

const (
	defaultNavTimeout = 90 * time.Second
	defaultSettleWait = 3 * time.Second
)

var (
	installOnce sync.Once
	installErr  error
)

// ensureBrowsers installs the playwright driver and Chromium once per
// process.
func ensureBrowsers() error {
	installOnce.Do(func() {
		installErr = playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
		})
	})
	return installErr
}

// BrowserFetcher renders pages in Chromium. The profile directory is
// persistent, so session and cookie state survives across runs; a gate
// passed once in a headed run stays passed for later headless runs.
type BrowserFetcher struct {
	ProfileDir string
	Headless   bool
	NavTimeout time.Duration
	SettleWait time.Duration

	log *zap.Logger
}

// NewBrowser creates a BrowserFetcher using the given profile directory.
func NewBrowser(profileDir string, headless bool, log *zap.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		ProfileDir: profileDir,
		Headless:   headless,
		NavTimeout: defaultNavTimeout,
		SettleWait: defaultSettleWait,
		log:        log,
	}
}

// Fetch renders the page and returns its DOM content after a short
// settle wait. Navigation beyond NavTimeout maps to ErrFetchTimeout.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ensureBrowsers(); err != nil {
		return nil, fmt.Errorf("installing browser: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	defer pw.Stop()

	f.log.Debug("launching chromium",
		zap.String("profile_dir", f.ProfileDir),
		zap.Bool("headless", f.Headless))

	browserCtx, err := pw.Chromium.LaunchPersistentContext(f.ProfileDir,
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(f.Headless),
		})
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(f.NavTimeout.Milliseconds())),
	}); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("rendering %s: %w", url, ErrFetchTimeout)
		}
		return nil, fmt.Errorf("rendering %s: %w", url, err)
	}

	// Give late scripts a moment to fill the DOM.
	page.WaitForTimeout(float64(f.SettleWait.Milliseconds()))

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("reading rendered page: %w", err)
	}

	return &core.FetchResult{
		URL:      url,
		FinalURL: page.URL(),
		HTML:     html,
		Strategy: core.StrategyBrowser,
	}, nil
}
