package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

const (
	actionTimeout = 60 * time.Second
	pollInterval  = 250 * time.Millisecond
)

// jsQuery tags every node matching sel (under the tagged root, if any) with a
// data-boletin-ref attribute and returns the refs. Replaced nodes lose their
// tag, which is how staleness is detected.
const jsQuery = `(function(sel, root, clickable, first) {
  let scope = document;
  if (root) {
    scope = document.querySelector('[data-boletin-ref="' + root + '"]');
    if (!scope) throw new Error('stale element');
  }
  let nodes = [];
  if (sel.startsWith('xpath=')) {
    const r = document.evaluate(sel.slice(6), scope, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
    for (let i = 0; i < r.snapshotLength; i++) nodes.push(r.snapshotItem(i));
  } else {
    nodes = Array.from(scope.querySelectorAll(sel));
  }
  if (clickable) {
    nodes = nodes.filter(n => n.getClientRects().length > 0 && !n.disabled);
  }
  if (first) nodes = nodes.slice(0, 1);
  window.__boletinSeq = window.__boletinSeq || Date.now();
  return nodes.map(n => {
    if (!n.dataset.boletinRef) n.dataset.boletinRef = String(window.__boletinSeq++);
    return n.dataset.boletinRef;
  });
})(%s, %s, %t, %t)`

const jsElement = `(function(ref, op, name) {
  const el = document.querySelector('[data-boletin-ref="' + ref + '"]');
  if (op === 'stale') return el ? 'false' : 'true';
  if (!el) throw new Error('stale element');
  switch (op) {
  case 'text':
    return el.innerText;
  case 'attr': {
    const v = el[name];
    return typeof v === 'string' ? v : (el.getAttribute(name) || '');
  }
  case 'activate':
    el.click();
    return '';
  }
  throw new Error('unknown op ' + op);
})(%s, %s, %s)`

// ChromedpPage drives Chrome over the DevTools protocol. Element handles are
// refs written into the DOM, since node ids do not survive the calendar's
// partial refreshes.
type ChromedpPage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func NewChromedpPage(config ScraperConfig, _ *Logger) (*ChromedpPage, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", config.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("log-level", "3"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// the first Run starts the browser
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}

	p := &ChromedpPage{ctx: ctx, cancel: cancel, allocCancel: allocCancel}
	if err := p.SetDownloadTarget(config.DownloadDir); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *ChromedpPage) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, actionTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (p *ChromedpPage) query(selector, root string, clickable, first bool) ([]string, error) {
	var refs []string
	expr := fmt.Sprintf(jsQuery, jsString(selector), jsString(root), clickable, first)
	if err := p.run(chromedp.Evaluate(expr, &refs)); err != nil {
		return nil, err
	}
	return refs, nil
}

func (p *ChromedpPage) element(ref, op, name string) (string, error) {
	var out string
	expr := fmt.Sprintf(jsElement, jsString(ref), jsString(op), jsString(name))
	if err := p.run(chromedp.Evaluate(expr, &out)); err != nil {
		return "", err
	}
	return out, nil
}

func (p *ChromedpPage) Navigate(url string) error {
	if err := p.run(chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

func (p *ChromedpPage) Find(selector string) (Element, error) {
	refs, err := p.query(selector, "", false, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &chromedpElement{page: p, ref: refs[0]}, nil
}

func (p *ChromedpPage) FindAll(selector string) ([]Element, error) {
	refs, err := p.query(selector, "", false, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}

	elements := make([]Element, 0, len(refs))
	for _, ref := range refs {
		elements = append(elements, &chromedpElement{page: p, ref: ref})
	}
	return elements, nil
}

func (p *ChromedpPage) WaitClickable(selector string, timeout time.Duration) (Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		refs, err := p.query(selector, "", true, true)
		if err == nil && len(refs) > 0 {
			return &chromedpElement{page: p, ref: refs[0]}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: %w", selector, ErrTimeout)
		}
		time.Sleep(pollInterval)
	}
}

func (p *ChromedpPage) WaitStale(el Element, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		stale, err := el.IsStale()
		if err != nil || stale {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("element still attached: %w", ErrTimeout)
		}
		time.Sleep(pollInterval)
	}
}

func (p *ChromedpPage) SetDownloadTarget(dir string) error {
	err := p.run(browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
		WithDownloadPath(dir))
	if err != nil {
		return fmt.Errorf("could not set download path %s: %w", dir, err)
	}
	return nil
}

func (p *ChromedpPage) Close() error {
	p.cancel()
	p.allocCancel()
	return nil
}

type chromedpElement struct {
	page *ChromedpPage
	ref  string
}

func (e *chromedpElement) selector() string {
	return `[data-boletin-ref="` + e.ref + `"]`
}

func (e *chromedpElement) Text() (string, error) {
	return e.page.element(e.ref, "text", "")
}

func (e *chromedpElement) Attribute(name string) (string, error) {
	return e.page.element(e.ref, "attr", name)
}

func (e *chromedpElement) Find(selector string) (Element, error) {
	refs, err := e.page.query(selector, e.ref, false, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrElementNotFound)
	}
	return &chromedpElement{page: e.page, ref: refs[0]}, nil
}

func (e *chromedpElement) Click() error {
	return e.page.run(chromedp.Click(e.selector(), chromedp.ByQuery, chromedp.NodeVisible))
}

func (e *chromedpElement) Activate() error {
	_, err := e.page.element(e.ref, "activate", "")
	return err
}

func (e *chromedpElement) IsStale() (bool, error) {
	out, err := e.page.element(e.ref, "stale", "")
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
