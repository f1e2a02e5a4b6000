package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_AppendsAcrossRuns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Descargas")

	for i := 0; i < 2; i++ {
		m, err := OpenManifest(dir)
		require.NoError(t, err)
		require.NoError(t, m.Record(3, []LinkOutcome{
			{Link: Link{ID: docA, Title: "MINISTERIO DE JUSTICIA,\tDDHH"}, Status: Success},
		}))
		require.NoError(t, m.Close())
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	require.NoError(t, err)
	row := `3,"MINISTERIO DE JUSTICIA, DDHH",` + docA + ",ok,\n"
	assert.Equal(t, "dia,titulo,url,estado,detalle\n"+row+row, string(data))
}

func TestOpenManifest_RequiresDir(t *testing.T) {
	_, err := OpenManifest("")
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n b\t\tc \r\n"))
}
