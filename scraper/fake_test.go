package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const testRoot = "https://boletin.test/seccion/primera"

func testConfig(dir string) ScraperConfig {
	config := DefaultConfig()
	config.Domain = testRoot
	config.DownloadDir = dir
	config.LogFile = ""
	config.Selectors = Selectors{
		CalendarDay:    "day-%d",
		Results:        ".items-section",
		Items:          "#avisos > div",
		ItemLink:       "a",
		DownloadButton: ".col-download button",
	}
	return config
}

type fakeElement struct {
	text       string
	textErr    error
	href       string
	noLink     bool
	stale      bool
	onClick    func() error
	onActivate func() error
}

func (e *fakeElement) Text() (string, error) {
	if e.stale {
		return "", errors.New("stale element")
	}
	return e.text, e.textErr
}

func (e *fakeElement) Attribute(name string) (string, error) {
	if name != "href" {
		return "", ErrElementNotFound
	}
	return e.href, nil
}

func (e *fakeElement) Find(selector string) (Element, error) {
	if e.noLink {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &fakeElement{href: e.href}, nil
}

func (e *fakeElement) Click() error {
	if e.onClick == nil {
		return nil
	}
	return e.onClick()
}

func (e *fakeElement) Activate() error {
	if e.onActivate == nil {
		return e.Click()
	}
	return e.onActivate()
}

func (e *fakeElement) IsStale() (bool, error) {
	return e.stale, nil
}

func item(title, href string) *fakeElement {
	return &fakeElement{text: title + "\nResolución 1/2025\nPrimera sección", href: href}
}

// fakePage is a scripted gazette: a section page with a calendar of
// daysInMonth days, a listing per day and document pages with a download
// button.
type fakePage struct {
	daysInMonth int
	listings    map[int][]*fakeElement

	location string
	day      int
	results  *fakeElement

	staleTimeout bool
	findErr      map[string]error
	dayErr       map[int]error
	navErr       map[string]error
	downloadErr  map[string]error

	navigations []string
	targets     []string
	activated   []string
	closed      bool
}

func newFakePage(daysInMonth int) *fakePage {
	return &fakePage{
		daysInMonth: daysInMonth,
		listings:    map[int][]*fakeElement{},
		findErr:     map[string]error{},
		dayErr:      map[int]error{},
		navErr:      map[string]error{},
		downloadErr: map[string]error{},
	}
}

func (p *fakePage) atRoot() bool {
	return p.location == testRoot
}

func (p *fakePage) refresh() {
	if p.results != nil {
		p.results.stale = true
	}
	p.results = &fakeElement{text: "results"}
}

func parseDay(selector string) (int, bool) {
	if !strings.HasPrefix(selector, "day-") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(selector, "day-"))
	return n, err == nil
}

func (p *fakePage) Navigate(url string) error {
	p.navigations = append(p.navigations, url)
	if err := p.navErr[url]; err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	p.location = url
	p.day = 0
	p.refresh()
	return nil
}

func (p *fakePage) Find(selector string) (Element, error) {
	if selector == ".items-section" && p.atRoot() {
		return p.results, nil
	}
	return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
}

// FindAll fails once for selectors listed in findErr.
func (p *fakePage) FindAll(selector string) ([]Element, error) {
	if err, ok := p.findErr[selector]; ok {
		delete(p.findErr, selector)
		return nil, err
	}
	if !p.atRoot() {
		return nil, nil
	}
	if n, ok := parseDay(selector); ok {
		if n >= 1 && n <= p.daysInMonth {
			return []Element{p.dayCell(n)}, nil
		}
		return nil, nil
	}
	if selector == "#avisos > div" {
		var out []Element
		for _, it := range p.listings[p.day] {
			out = append(out, it)
		}
		return out, nil
	}
	return nil, nil
}

func (p *fakePage) dayCell(n int) *fakeElement {
	return &fakeElement{text: strconv.Itoa(n), onClick: func() error {
		p.day = n
		p.refresh()
		return nil
	}}
}

func (p *fakePage) WaitClickable(selector string, timeout time.Duration) (Element, error) {
	if n, ok := parseDay(selector); ok {
		if err := p.dayErr[n]; err != nil {
			return nil, err
		}
		if !p.atRoot() || n > p.daysInMonth {
			return nil, ErrTimeout
		}
		return p.dayCell(n), nil
	}

	if selector == ".col-download button" && !p.atRoot() {
		if err := p.downloadErr[p.location]; err != nil {
			return nil, err
		}
		doc := p.location
		return &fakeElement{onActivate: func() error {
			p.activated = append(p.activated, doc)
			return nil
		}}, nil
	}

	return nil, fmt.Errorf("%s: %w", selector, ErrTimeout)
}

func (p *fakePage) WaitStale(el Element, timeout time.Duration) error {
	if p.staleTimeout {
		return ErrTimeout
	}
	if stale, _ := el.IsStale(); stale {
		return nil
	}
	return ErrTimeout
}

func (p *fakePage) SetDownloadTarget(dir string) error {
	p.targets = append(p.targets, dir)
	return nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func newTestScraper(config ScraperConfig, page *fakePage, today time.Time) (*Scraper, *bytes.Buffer) {
	var buf bytes.Buffer
	s, err := New(config, page, NewLogger(&buf, ""))
	if err != nil {
		panic(err)
	}
	s.now = func() time.Time { return today }
	s.setSleep(func(time.Duration) {})
	return s, &buf
}

func onDay(d int) time.Time {
	return time.Date(2025, time.October, d, 9, 0, 0, 0, time.UTC)
}
