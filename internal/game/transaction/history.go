package transaction

// Entry is one executed transaction and its undo record.
type Entry struct {
	Tx   Transaction `json:"tx"`
	Undo Undo        `json:"undo"`
}

// History is a bounded list of executed entries with a cursor. Entries
// before the cursor are applied; entries at or after it were undone and
// can be redone until the next Push discards them.
type History struct {
	entries  []Entry
	cursor   int
	capacity int
}

// NewHistory returns an empty History holding at most capacity entries.
//
// Precondition: capacity >= 1.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

// Push records a newly executed entry. Redoable entries are discarded and,
// when the history is full, the oldest entry is evicted.
//
// Postcondition: Len() <= Capacity() and Cursor() == Len().
func (h *History) Push(e Entry) {
	clear(h.entries[h.cursor:])
	h.entries = append(h.entries[:h.cursor], e)
	h.cursor++
	if len(h.entries) > h.capacity {
		h.entries[0] = Entry{}
		h.entries = h.entries[1:]
		h.cursor--
	}
}

// Last returns the most recently applied entry.
func (h *History) Last() (Entry, bool) {
	if h.cursor == 0 {
		return Entry{}, false
	}
	return h.entries[h.cursor-1], true
}

// Next returns the entry Redo would reapply.
func (h *History) Next() (Entry, bool) {
	if h.cursor >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[h.cursor], true
}

// StepBack moves the cursor before the last applied entry.
func (h *History) StepBack() bool {
	if h.cursor == 0 {
		return false
	}
	h.cursor--
	return true
}

// StepForward moves the cursor past the next entry, replacing its undo
// record with u from the re-execution.
func (h *History) StepForward(u Undo) bool {
	if h.cursor >= len(h.entries) {
		return false
	}
	h.entries[h.cursor].Undo = u
	h.cursor++
	return true
}

// Len returns the number of stored entries, applied or not.
func (h *History) Len() int {
	return len(h.entries)
}

// Cursor returns the number of applied entries.
func (h *History) Cursor() int {
	return h.cursor
}

// Capacity returns the maximum number of entries.
func (h *History) Capacity() int {
	return h.capacity
}

// Entries returns a copy of all stored entries, oldest first.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}

// Clear drops every entry.
func (h *History) Clear() {
	h.entries = nil
	h.cursor = 0
}
