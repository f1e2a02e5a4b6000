package scraper

import "errors"

var (
	// ErrElementNotFound means a required control is not on the page.
	ErrElementNotFound = errors.New("element not found")
	// ErrTimeout means a bounded wait expired.
	ErrTimeout = errors.New("timeout")
	// ErrNavigation means the page did not reach the expected state after navigating.
	ErrNavigation = errors.New("navigation failed")
	// ErrStatic is returned by the read-only page for actions it cannot perform.
	ErrStatic = errors.New("action not supported on a static page")
)
