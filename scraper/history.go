package scraper

// DocumentID is the canonical URL of a gazette document.
type DocumentID = string

// History is the append-only set of documents already queued during this run.
// It is never persisted.
type History struct {
	seen  map[DocumentID]struct{}
	order []DocumentID
}

func NewHistory() *History {
	return &History{seen: make(map[DocumentID]struct{})}
}

// Add records id and reports whether it was new.
func (h *History) Add(id DocumentID) bool {
	if _, ok := h.seen[id]; ok {
		return false
	}
	h.seen[id] = struct{}{}
	h.order = append(h.order, id)
	return true
}

func (h *History) Seen(id DocumentID) bool {
	_, ok := h.seen[id]
	return ok
}

func (h *History) Len() int {
	return len(h.order)
}

// IDs returns the documents in the order they were first seen.
func (h *History) IDs() []DocumentID {
	out := make([]DocumentID, len(h.order))
	copy(out, h.order)
	return out
}
