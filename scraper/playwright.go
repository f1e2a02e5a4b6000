package scraper

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	jsIsStale   = "el => !el.isConnected"
	jsActivate  = "el => el.click()"
	jsAttribute = "(el, name) => { const v = el[name]; return typeof v === 'string' ? v : (el.getAttribute(name) || '') }"
)

// PlaywrightPage drives Chromium through playwright. Downloads are saved by
// an OnDownload handler into the folder set with SetDownloadTarget.
type PlaywrightPage struct {
	Pw      *playwright.Playwright
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	mu    sync.Mutex
	dir   string
	saves sync.WaitGroup
	log   *Logger
}

func NewPlaywrightPage(config ScraperConfig, log *Logger) (*PlaywrightPage, error) {
	pw, err := playwright.Run(&playwright.RunOptions{
		Verbose: config.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(config.Headless),
		Args:     []string{"--start-maximized", "--log-level=3"},
	}

	browser, err := pw.Chromium.Launch(launchOptions)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
		NoViewport:      playwright.Bool(true),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, err
	}

	page, err := context.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, err
	}

	p := &PlaywrightPage{Pw: pw, Browser: browser, Context: context, Page: page, dir: config.DownloadDir, log: log}
	page.OnDownload(p.onDownload)

	return p, nil
}

// savedDownload is the part of playwright.Download the save path needs.
type savedDownload interface {
	SuggestedFilename() string
	SaveAs(path string) error
}

// onDownload runs on playwright's dispatcher, so the save happens elsewhere.
func (p *PlaywrightPage) onDownload(download playwright.Download) {
	p.save(download)
}

// save stores download in the folder current when the download started.
func (p *PlaywrightPage) save(download savedDownload) {
	p.mu.Lock()
	dir := p.dir
	p.mu.Unlock()

	target := filepath.Join(dir, download.SuggestedFilename())
	p.saves.Add(1)
	go func() {
		defer p.saves.Done()
		if err := download.SaveAs(target); err != nil {
			p.log.Errorf("could not save %s: %v", target, err)
			return
		}
		p.log.Infof("saved %s", target)
	}()
}

func (p *PlaywrightPage) Navigate(url string) error {
	if _, err := p.Page.Goto(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

// Find resolves the first match right away and also keeps its handle, so
// WaitStale can tell when that node leaves the page.
func (p *PlaywrightPage) Find(selector string) (Element, error) {
	locator := p.Page.Locator(selector).First()
	count, err := locator.Count()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}

	handle, err := locator.ElementHandle(playwright.LocatorElementHandleOptions{
		Timeout: milliseconds(time.Second),
	})
	if err != nil {
		return nil, playwrightError(selector, err)
	}
	return &playwrightElement{locator: locator, handle: handle}, nil
}

func (p *PlaywrightPage) FindAll(selector string) ([]Element, error) {
	locators, err := p.Page.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}

	elements := make([]Element, 0, len(locators))
	for _, l := range locators {
		elements = append(elements, &playwrightElement{locator: l})
	}
	return elements, nil
}

// WaitClickable waits for the first match to be visible and then enabled,
// both within timeout.
func (p *PlaywrightPage) WaitClickable(selector string, timeout time.Duration) (Element, error) {
	deadline := time.Now().Add(timeout)
	locator := p.Page.Locator(selector).First()

	err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		return nil, playwrightError(selector, err)
	}

	enabled := func() (bool, error) { return locator.IsEnabled() }
	if err := waitEnabled(enabled, deadline, pollInterval); err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}

	return &playwrightElement{locator: locator}, nil
}

// waitEnabled polls enabled until it reports true or deadline passes.
func waitEnabled(enabled func() (bool, error), deadline time.Time, interval time.Duration) error {
	for {
		ok, err := enabled()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("still disabled: %w", ErrTimeout)
		}
		time.Sleep(interval)
	}
}

func (p *PlaywrightPage) WaitStale(el Element, timeout time.Duration) error {
	pe, ok := el.(*playwrightElement)
	if !ok || pe.handle == nil {
		return fmt.Errorf("element has no handle to watch: %T", el)
	}

	_, err := p.Page.WaitForFunction(jsIsStale, pe.handle, playwright.PageWaitForFunctionOptions{
		Timeout: milliseconds(timeout),
	})
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("element still attached: %w", ErrTimeout)
	}
	// any other failure means the handle's document is gone, which is stale too
	return nil
}

func (p *PlaywrightPage) SetDownloadTarget(dir string) error {
	p.mu.Lock()
	p.dir = dir
	p.mu.Unlock()
	return nil
}

func (p *PlaywrightPage) Close() error {
	p.saves.Wait()
	if err := p.Browser.Close(); err != nil {
		return err
	}
	return p.Pw.Stop()
}

// playwrightElement is a locator; handle is only set for nodes whose
// staleness is watched.
type playwrightElement struct {
	locator playwright.Locator
	handle  playwright.ElementHandle
}

func (e *playwrightElement) Text() (string, error) {
	return e.locator.InnerText()
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	v, err := e.locator.Evaluate(jsAttribute, name)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (e *playwrightElement) Find(selector string) (Element, error) {
	locator := e.locator.Locator(selector).First()
	count, err := locator.Count()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &playwrightElement{locator: locator}, nil
}

func (e *playwrightElement) Click() error {
	return e.locator.Click()
}

func (e *playwrightElement) Activate() error {
	_, err := e.locator.Evaluate(jsActivate, nil)
	return err
}

func (e *playwrightElement) IsStale() (bool, error) {
	if e.handle == nil {
		count, err := e.locator.Count()
		return count == 0, err
	}
	v, err := e.handle.Evaluate(jsIsStale)
	if err != nil {
		return true, nil
	}
	stale, _ := v.(bool)
	return stale, nil
}

// InstallBrowsers downloads the playwright driver and Chromium.
func InstallBrowsers(verbose bool) error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  verbose,
	})
}

func playwrightError(selector string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w", selector, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", selector, err)
}

func milliseconds(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
