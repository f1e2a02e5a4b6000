package scraper

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDownload struct {
	name string

	mu    *sync.Mutex
	saved *[]string
}

func (d stubDownload) SuggestedFilename() string {
	return d.name
}

func (d stubDownload) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	*d.saved = append(*d.saved, path)
	return nil
}

func TestPlaywrightPage_SavesIntoCurrentDayFolder(t *testing.T) {
	base := t.TempDir()
	p := &PlaywrightPage{dir: base, log: Discard()}

	var mu sync.Mutex
	var saved []string
	download := func(name string) stubDownload {
		return stubDownload{name: name, mu: &mu, saved: &saved}
	}

	p.save(download("aviso-0.pdf"))

	require.NoError(t, p.SetDownloadTarget(DayFolder(base, 5)))
	p.save(download("aviso-1.pdf"))
	p.save(download("aviso-2.pdf"))

	require.NoError(t, p.SetDownloadTarget(DayFolder(base, 6)))
	p.save(download("aviso-3.pdf"))

	p.saves.Wait()

	sort.Strings(saved)
	assert.Equal(t, []string{
		filepath.Join(base, "Dia_5", "aviso-1.pdf"),
		filepath.Join(base, "Dia_5", "aviso-2.pdf"),
		filepath.Join(base, "Dia_6", "aviso-3.pdf"),
		filepath.Join(base, "aviso-0.pdf"),
	}, saved)
}

func TestWaitEnabled(t *testing.T) {
	calls := 0
	enabledOnThird := func() (bool, error) {
		calls++
		return calls >= 3, nil
	}
	require.NoError(t, waitEnabled(enabledOnThird, time.Now().Add(time.Second), time.Millisecond))
	assert.Equal(t, 3, calls)

	neverEnabled := func() (bool, error) { return false, nil }
	err := waitEnabled(neverEnabled, time.Now().Add(20*time.Millisecond), time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	broken := errors.New("target closed")
	err = waitEnabled(func() (bool, error) { return false, broken }, time.Now().Add(time.Second), time.Millisecond)
	assert.ErrorIs(t, err, broken)
}
