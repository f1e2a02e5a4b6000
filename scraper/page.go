package scraper

import "time"

// Element is a handle to one rendered node. Implementations must be safe to
// call after the node left the page; they return an error or report stale.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	// Find returns the first descendant matching selector.
	Find(selector string) (Element, error)
	// Click simulates a pointer click.
	Click() error
	// Activate calls the node's click() from script, which works when the
	// node's on-screen position is off-viewport.
	Activate() error
	IsStale() (bool, error)
}

// Finder is the read-only part of a page.
type Finder interface {
	FindAll(selector string) ([]Element, error)
}

// Page is the browser session the scraper drives. Selectors are CSS unless
// prefixed with "xpath=".
type Page interface {
	Finder
	Navigate(url string) error
	// Find returns ErrElementNotFound when nothing matches.
	Find(selector string) (Element, error)
	// WaitClickable returns ErrTimeout when the control is not interactive in time.
	WaitClickable(selector string, timeout time.Duration) (Element, error)
	// WaitStale returns ErrTimeout when el is still attached after timeout.
	WaitStale(el Element, timeout time.Duration) error
	// SetDownloadTarget points subsequent downloads at dir without relaunching.
	SetDownloadTarget(dir string) error
	Close() error
}
