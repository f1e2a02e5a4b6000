package scraper

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StaticPage is a read-only view of a saved listing page. It lets the
// harvester run without a browser.
type StaticPage struct {
	doc  *goquery.Document
	base *url.URL
}

// NewStaticPage parses r. Relative hrefs are resolved against baseURL.
func NewStaticPage(r io.Reader, baseURL string) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	return &StaticPage{doc: doc, base: base}, nil
}

func (p *StaticPage) FindAll(selector string) ([]Element, error) {
	if strings.HasPrefix(selector, "xpath=") {
		return nil, fmt.Errorf("%s: %w", selector, ErrStatic)
	}

	var elements []Element
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &staticElement{sel: s, base: p.base})
	})
	return elements, nil
}

type staticElement struct {
	sel  *goquery.Selection
	base *url.URL
}

var blockTags = map[string]bool{
	"address": true, "article": true, "br": true, "div": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "li": true, "p": true, "section": true, "table": true, "tr": true, "ul": true,
}

// Text approximates innerText: block elements start and end a line.
func (e *staticElement) Text() (string, error) {
	var lines []string
	var line strings.Builder

	flush := func() {
		if t := strings.Join(strings.Fields(line.String()), " "); t != "" {
			lines = append(lines, t)
		}
		line.Reset()
	}

	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				line.WriteString(c.Text())
				line.WriteByte(' ')
			case name == "script" || name == "style":
			case blockTags[name]:
				flush()
				walk(c)
				flush()
			default:
				walk(c)
			}
		})
	}
	walk(e.sel)
	flush()

	return strings.Join(lines, "\n"), nil
}

func (e *staticElement) Attribute(name string) (string, error) {
	v, ok := e.sel.Attr(name)
	if !ok {
		return "", fmt.Errorf("attribute %s: %w", name, ErrElementNotFound)
	}
	if name == "href" && e.base != nil {
		ref, err := url.Parse(v)
		if err != nil {
			return "", err
		}
		return e.base.ResolveReference(ref).String(), nil
	}
	return v, nil
}

func (e *staticElement) Find(selector string) (Element, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &staticElement{sel: found, base: e.base}, nil
}

func (e *staticElement) Click() error {
	return ErrStatic
}

func (e *staticElement) Activate() error {
	return ErrStatic
}

func (e *staticElement) IsStale() (bool, error) {
	return false, nil
}

// HarvestStatic runs the keyword filter over a saved listing page.
func HarvestStatic(page *StaticPage, config ScraperConfig, log *Logger) ([]Link, error) {
	items, err := page.FindAll(config.Selectors.Items)
	if err != nil {
		return nil, err
	}
	keywords := NewKeywords(config.MatchMode, config.Keywords...)
	return Harvest(items, keywords, config.Selectors.ItemLink, NewHistory(), log), nil
}
