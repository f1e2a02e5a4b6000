package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")

	log, err := NewFileLogger(path, "0f8fad5b-d9cb-469f-a165-70867728950e")
	require.NoError(t, err)
	log.Infof("clicked day %d", 4)
	log.Warnf("slow")
	log.Errorf("boom: %v", "timeout")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "[0f8fad5b] ")
	assert.Contains(t, out, "INFO clicked day 4")
	assert.Contains(t, out, "WARNING slow")
	assert.Contains(t, out, "ERROR boom: timeout")
}
