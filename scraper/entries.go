package scraper

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const manifestName = "descargas.csv"

var manifestHeader = []string{"dia", "titulo", "url", "estado", "detalle"}

// Entry is one row of the download manifest.
type Entry struct {
	Dia     int
	Titulo  string
	URL     string
	Estado  string
	Detalle string
}

func newEntry(day int, outcome LinkOutcome) Entry {
	return Entry{
		Dia:     day,
		Titulo:  outcome.Link.Title,
		URL:     outcome.Link.ID,
		Estado:  outcome.Status.String(),
		Detalle: outcome.Reason,
	}
}

func (e Entry) row() []string {
	return []string{
		strconv.Itoa(e.Dia),
		cleanText(e.Titulo),
		e.URL,
		e.Estado,
		cleanText(e.Detalle),
	}
}

// Manifest appends download outcomes to descargas.csv in the base folder.
// It is a record for the operator only; nothing reads it back.
type Manifest struct {
	file *os.File
	w    *csv.Writer
}

func OpenManifest(baseDir string) (*Manifest, error) {
	if baseDir == "" {
		return nil, errors.New("download dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(baseDir, manifestName)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	m := &Manifest{file: f, w: csv.NewWriter(f)}
	if isNew {
		if err := m.w.Write(manifestHeader); err != nil {
			f.Close()
			return nil, err
		}
		m.w.Flush()
	}
	return m, nil
}

func (m *Manifest) Record(day int, outcomes []LinkOutcome) error {
	for _, o := range outcomes {
		if err := m.w.Write(newEntry(day, o).row()); err != nil {
			return err
		}
	}
	m.w.Flush()
	return m.w.Error()
}

func (m *Manifest) Close() error {
	m.w.Flush()
	return m.file.Close()
}

func cleanText(text string) string {
	text = strings.TrimSpace(text)

	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\t", " ")

	// remove multiple spaces
	text = strings.Join(strings.Fields(text), " ")

	return text
}
