package scraper

import (
	"errors"
	"fmt"
	"time"
)

// DayOutcome is the result of moving the calendar to a day.
type DayOutcome int

const (
	Advanced DayOutcome = iota
	// NoSuchDay means the target is not a valid day of month.
	NoSuchDay
	// NoSuchDayInMonth means the displayed month is shorter than the target.
	NoSuchDayInMonth
)

func (o DayOutcome) String() string {
	switch o {
	case Advanced:
		return "advanced"
	case NoSuchDay:
		return "no such day"
	case NoSuchDayInMonth:
		return "no such day in month"
	}
	return fmt.Sprintf("DayOutcome(%d)", int(o))
}

// Calendar drives the datepicker on the section page.
type Calendar struct {
	page      Page
	selectors Selectors
	timings   Timings
	sleep     func(time.Duration)
	log       *Logger
}

func NewCalendar(page Page, selectors Selectors, timings Timings, log *Logger) *Calendar {
	return &Calendar{page: page, selectors: selectors, timings: timings, sleep: time.Sleep, log: log}
}

func (c *Calendar) daySelector(day int) string {
	return fmt.Sprintf(c.selectors.CalendarDay, day)
}

// HasDay reports whether the current month shows a cell for day. An error
// means the calendar could not be read, not that the day is missing.
func (c *Calendar) HasDay(day int) (bool, error) {
	if day < 1 || day > 31 {
		return false, nil
	}
	cells, err := c.page.FindAll(c.daySelector(day))
	if err != nil {
		return false, fmt.Errorf("error looking up day %d: %w", day, err)
	}
	return len(cells) > 0, nil
}

// GotoDay clicks the cell for day. previous is the results container shown
// before the click, or nil; when set, GotoDay waits for it to go stale so the
// caller reads the refreshed listing.
func (c *Calendar) GotoDay(day int, previous Element) (DayOutcome, error) {
	if day < 1 || day > 31 {
		return NoSuchDay, nil
	}
	exists, err := c.HasDay(day)
	if err != nil {
		return Advanced, err
	}
	if !exists {
		return NoSuchDayInMonth, nil
	}

	cell, err := c.page.WaitClickable(c.daySelector(day), c.timings.DayWait)
	if err != nil {
		return Advanced, fmt.Errorf("day %d not clickable: %w", day, err)
	}

	if err := cell.Click(); err != nil {
		return Advanced, fmt.Errorf("error clicking day %d: %w", day, err)
	}
	c.log.Infof("clicked day %d", day)

	if previous != nil {
		err := c.page.WaitStale(previous, c.timings.StaleWait)
		switch {
		case errors.Is(err, ErrTimeout):
			c.log.Warnf("day %d: results did not refresh within %s, continuing", day, c.timings.StaleWait)
		case err != nil:
			c.log.Warnf("day %d: staleness check failed: %v", day, err)
		}
	}

	c.sleep(c.timings.AfterDaySettle)

	return Advanced, nil
}
