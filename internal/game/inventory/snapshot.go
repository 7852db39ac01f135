package inventory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// Snapshot is the full serializable state of an Inventory, excluding
// claims, listeners and runtime instances.
type Snapshot struct {
	ID      string            `json:"id"`
	Version uint64            `json:"version"`
	Tabs    []grid.Tab        `json:"tabs"`
	Slots   []Slot            `json:"slots"`
	Pool    item.PoolSnapshot `json:"pool"`
}

// Snapshot captures the inventory's current state.
func (inv *Inventory) Snapshot() Snapshot {
	s := Snapshot{
		ID:      inv.id,
		Version: inv.version,
		Tabs:    make([]grid.Tab, len(inv.sections)),
		Slots:   append([]Slot(nil), inv.slots...),
		Pool:    inv.pool.Snapshot(),
	}
	for i, sec := range inv.sections {
		s.Tabs[i] = sec.tab
	}
	return s
}

// Restore replaces slot and pool state with s. Tab geometry must match the
// inventory's own; filters are kept. Runtime instances are recreated for
// every live item whose definition requires one.
//
// Postcondition: on error the inventory is unchanged.
func (inv *Inventory) Restore(s Snapshot) error {
	if len(s.Tabs) != len(inv.sections) {
		return fmt.Errorf("inventory: restore %s: snapshot has %d tabs, inventory has %d", inv.id, len(s.Tabs), len(inv.sections))
	}
	for i, t := range s.Tabs {
		if t != inv.sections[i].tab {
			return fmt.Errorf("inventory: restore %s: tab %d layout mismatch", inv.id, i)
		}
	}
	if len(s.Slots) != len(inv.slots) {
		return fmt.Errorf("inventory: restore %s: snapshot has %d slots, inventory has %d", inv.id, len(s.Slots), len(inv.slots))
	}
	pool, err := item.RestorePool(s.Pool)
	if err != nil {
		return fmt.Errorf("inventory: restore %s: %w", inv.id, err)
	}
	slots := make([]Slot, len(s.Slots))
	for i, sl := range s.Slots {
		sl.Handle = inv.slots[i].Handle
		if !sl.Item.IsNone() && !pool.ValidateHandle(sl.Item) {
			return fmt.Errorf("inventory: restore %s: slot %s references dead item %s", inv.id, sl.Handle, sl.Item)
		}
		slots[i] = sl
	}

	inv.pool = pool
	inv.slots = slots
	for _, sl := range inv.slots {
		if sl.Item.IsNone() {
			continue
		}
		stack := pool.Stack(sl.Item)
		def, ok := inv.catalog.Lookup(stack.Definition)
		if !ok {
			continue
		}
		if restored := inv.withInstance(stack, def); restored.Instance != nil {
			pool.Set(sl.Item, restored)
			inv.setInstanceLocation(restored, sl.Handle)
		}
	}
	inv.version = s.Version
	inv.dirty = make(map[int]struct{})
	inv.logger.Debug("inventory restored", zap.Uint64("version", s.Version), zap.Int("items", inv.ItemCount()))
	inv.notify(Change{Inventory: inv.id, Kind: ChangeRestored, Version: inv.version})
	return nil
}

// DebugContents lists every anchored item, one line per slot, in slot order.
func (inv *Inventory) DebugContents() []string {
	var out []string
	for _, sl := range inv.slots {
		stack := inv.pool.Stack(sl.Item)
		if !stack.IsValid() {
			continue
		}
		tab := inv.sections[sl.Handle.Tab].tab
		line := fmt.Sprintf("%s %s %s %s", tab.ID, sl.Handle, sl.Item, stack)
		if sl.Orientation == grid.Vertical {
			line += " vertical"
		}
		if sl.Locked {
			line += " locked"
		}
		out = append(out, line)
	}
	return out
}
