package inventory

import (
	"sort"

	"github.com/cory-johannsen/stash/internal/game/grid"
)

// ChangeKind classifies a committed mutation.
type ChangeKind uint8

const (
	// ChangeAdded means an item was anchored in the slot.
	ChangeAdded ChangeKind = iota + 1
	// ChangeRemoved means the slot's item reference was cleared.
	ChangeRemoved
	// ChangeChanged means slot data or the anchored stack changed in place.
	ChangeChanged
	// ChangeClaimed means a claim was taken on the slot.
	ChangeClaimed
	// ChangeReleased means a claim on the slot was released.
	ChangeReleased
	// ChangeRestored means the whole inventory was replaced from a snapshot.
	ChangeRestored
)

var changeKindNames = map[ChangeKind]string{
	ChangeAdded:    "added",
	ChangeRemoved:  "removed",
	ChangeChanged:  "changed",
	ChangeClaimed:  "claimed",
	ChangeReleased: "released",
	ChangeRestored: "restored",
}

// String returns the lowercase kind name.
func (k ChangeKind) String() string {
	if n, ok := changeKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Change is emitted synchronously for every committed mutation.
type Change struct {
	Inventory string          `json:"inventory"`
	Slot      grid.SlotHandle `json:"slot"`
	Kind      ChangeKind      `json:"kind"`
	// Version is the inventory version after the change.
	Version uint64 `json:"version"`
}

// Listener receives Change events. Listeners must not mutate the
// inventory that notifies them.
type Listener func(Change)

type listenerEntry struct {
	id int
	fn Listener
}

// Subscribe registers l and returns a function that unregisters it.
func (inv *Inventory) Subscribe(l Listener) (unsubscribe func()) {
	id := inv.nextListen
	inv.nextListen++
	inv.listeners = append(inv.listeners, listenerEntry{id: id, fn: l})
	return func() {
		for i, e := range inv.listeners {
			if e.id == id {
				inv.listeners = append(inv.listeners[:i], inv.listeners[i+1:]...)
				return
			}
		}
	}
}

// Version returns a counter advanced by every committed mutation.
func (inv *Inventory) Version() uint64 {
	return inv.version
}

// TakeDirty returns the slots changed since the previous call in slot index
// order and clears the journal.
func (inv *Inventory) TakeDirty() []grid.SlotHandle {
	if len(inv.dirty) == 0 {
		return nil
	}
	idx := make([]int, 0, len(inv.dirty))
	for i := range inv.dirty {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]grid.SlotHandle, len(idx))
	for n, i := range idx {
		out[n] = inv.slots[i].Handle
	}
	inv.dirty = make(map[int]struct{})
	return out
}

func (inv *Inventory) emit(idx int, kind ChangeKind) {
	inv.version++
	inv.dirty[idx] = struct{}{}
	inv.notify(Change{Inventory: inv.id, Slot: inv.slots[idx].Handle, Kind: kind, Version: inv.version})
}

func (inv *Inventory) notify(c Change) {
	for _, e := range append([]listenerEntry(nil), inv.listeners...) {
		e.fn(c)
	}
}
