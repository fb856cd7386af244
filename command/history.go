package command

// historyCapacity is spec.md §6's "History capacity: constant 10".
const historyCapacity = 10

// History is a FIFO of recently submitted command-mode inputs
// (spec.md §3's "Command history"), stored oldest-first so that
// Entry(history_len-1) is the most recently added — the ordering
// command mode's NavigatingHistory(index) walks over (spec.md §4.8).
type History struct {
	entries []string
}

// Len returns the number of entries currently held.
func (h *History) Len() int { return len(h.entries) }

// Entry returns the i'th oldest entry (Len()-1 is the most recent).
func (h *History) Entry(i int) (string, bool) {
	if i < 0 || i >= len(h.entries) {
		return "", false
	}
	return h.entries[i], true
}

// Add appends entry to history, subject to spec.md §8's rules: blank
// or whitespace-leading input is a no-op; an entry identical to the
// current most-recent tail is not re-added; on overflow past
// historyCapacity the oldest entry is dropped.
func (h *History) Add(entry string) {
	if entry == "" {
		return
	}
	switch entry[0] {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}

	h.entries = append(h.entries, entry)
	if len(h.entries) > historyCapacity {
		h.entries = h.entries[len(h.entries)-historyCapacity:]
	}
}
