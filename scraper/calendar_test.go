package scraper

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalendar(page *fakePage) (*Calendar, *bytes.Buffer, *[]time.Duration) {
	var buf bytes.Buffer
	var slept []time.Duration
	config := testConfig("")
	c := NewCalendar(page, config.Selectors, config.Timings, NewLogger(&buf, ""))
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &buf, &slept
}

func TestGotoDay_Advances(t *testing.T) {
	page := newFakePage(31)
	require.NoError(t, page.Navigate(testRoot))
	previous := page.results

	c, logs, slept := newTestCalendar(page)
	outcome, err := c.GotoDay(12, previous)
	require.NoError(t, err)

	assert.Equal(t, Advanced, outcome)
	assert.Equal(t, 12, page.day)
	assert.True(t, previous.stale)
	assert.Equal(t, []time.Duration{3 * time.Second}, *slept)
	assert.NotContains(t, logs.String(), "WARNING")
}

func TestGotoDay_NoSuchDayInMonth(t *testing.T) {
	page := newFakePage(28)
	require.NoError(t, page.Navigate(testRoot))

	c, _, _ := newTestCalendar(page)
	outcome, err := c.GotoDay(29, nil)
	require.NoError(t, err)
	assert.Equal(t, NoSuchDayInMonth, outcome)
	assert.Zero(t, page.day)

	exists, err := c.HasDay(29)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = c.HasDay(28)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGotoDay_LookupFailureIsAnError(t *testing.T) {
	page := newFakePage(31)
	require.NoError(t, page.Navigate(testRoot))
	page.findErr["day-6"] = errors.New("websocket: close 1006")

	c, _, _ := newTestCalendar(page)
	_, err := c.HasDay(6)
	assert.ErrorContains(t, err, "close 1006")

	_, err = c.GotoDay(6, nil)
	assert.ErrorContains(t, err, "error looking up day 6")
	assert.Zero(t, page.day)
}

func TestGotoDay_NoSuchDay(t *testing.T) {
	page := newFakePage(31)
	require.NoError(t, page.Navigate(testRoot))

	c, _, _ := newTestCalendar(page)
	for _, d := range []int{0, -1, 32} {
		outcome, err := c.GotoDay(d, nil)
		require.NoError(t, err)
		assert.Equal(t, NoSuchDay, outcome)
	}
}

func TestGotoDay_StaleTimeoutIsNotAnError(t *testing.T) {
	page := newFakePage(31)
	require.NoError(t, page.Navigate(testRoot))
	page.staleTimeout = true

	c, logs, slept := newTestCalendar(page)
	outcome, err := c.GotoDay(3, page.results)
	require.NoError(t, err)

	assert.Equal(t, Advanced, outcome)
	assert.Contains(t, logs.String(), "WARNING day 3: results did not refresh within 5s")
	assert.Len(t, *slept, 1)
}

func TestGotoDay_ClickFailure(t *testing.T) {
	page := newFakePage(31)
	require.NoError(t, page.Navigate(testRoot))
	page.dayErr[9] = ErrTimeout

	c, _, _ := newTestCalendar(page)
	_, err := c.GotoDay(9, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Zero(t, page.day)
}

func TestGotoDay_WithoutPreviousResults(t *testing.T) {
	page := newFakePage(31)
	require.NoError(t, page.Navigate(testRoot))
	page.staleTimeout = true

	c, logs, _ := newTestCalendar(page)
	outcome, err := c.GotoDay(1, nil)
	require.NoError(t, err)
	assert.Equal(t, Advanced, outcome)
	assert.NotContains(t, logs.String(), "did not refresh")
}

func TestDayOutcome_String(t *testing.T) {
	assert.Equal(t, "advanced", Advanced.String())
	assert.Equal(t, "no such day in month", NoSuchDayInMonth.String())
}
