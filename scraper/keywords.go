package scraper

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchMode selects how titles are compared against keywords.
type MatchMode string

const (
	// MatchExact is a case-sensitive substring test on the raw title.
	MatchExact MatchMode = "exact"
	// MatchFold ignores case and diacritics, so "Ministerio de Justicia"
	// and "MINISTERIO DE JUSTICÍA" both match "MINISTERIO DE JUSTICIA".
	MatchFold MatchMode = "fold"
)

// Keywords is the title filter. An empty filter matches nothing; an empty
// keyword is a substring of every title and so matches everything.
type Keywords struct {
	mode  MatchMode
	words []string
}

func NewKeywords(mode MatchMode, words ...string) Keywords {
	k := Keywords{mode: mode}
	for _, w := range words {
		if mode == MatchFold {
			w = fold(w)
		}
		k.words = append(k.words, w)
	}
	return k
}

// Match reports whether any keyword is a substring of title.
func (k Keywords) Match(title string) bool {
	if len(k.words) == 0 {
		return false
	}
	if k.mode == MatchFold {
		title = fold(title)
	}
	for _, w := range k.words {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

func (k Keywords) Len() int {
	return len(k.words)
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}
