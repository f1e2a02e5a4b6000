package scraper

import "strings"

// Link is one harvested document.
type Link struct {
	ID    DocumentID
	Title string
}

// Harvest returns the relevant items that history has not seen yet, in render
// order, and records them in history. Items that fail to read are skipped.
func Harvest(items []Element, filter Keywords, linkSelector string, history *History, log *Logger) []Link {
	var links []Link

	for _, item := range items {
		text, err := item.Text()
		if err != nil {
			continue
		}

		title := titleOf(text)
		if !filter.Match(title) {
			continue
		}

		anchor, err := item.Find(linkSelector)
		if err != nil {
			continue
		}

		href, err := anchor.Attribute("href")
		if err != nil || href == "" {
			continue
		}

		if !history.Add(href) {
			log.Infof("skipping duplicate: %s (%s)", cleanText(title), href)
			continue
		}

		links = append(links, Link{ID: href, Title: cleanText(title)})
	}

	return links
}

// titleOf returns the text up to the first line break.
func titleOf(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
