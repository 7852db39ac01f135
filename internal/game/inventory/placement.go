package inventory

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// PlaceItemAtLocation anchors the pooled item h at slot with orientation o.
// It does not check occupancy; callers that need a fit check use CanPlace
// first.
//
// Postcondition: returns false and changes nothing if h is not a live
// handle of this inventory's pool or slot does not address a cell.
func (inv *Inventory) PlaceItemAtLocation(slot grid.SlotHandle, h item.Handle, o grid.Orientation) bool {
	if !inv.pool.ValidateHandle(h) {
		return false
	}
	idx, ok := inv.SlotIndex(slot)
	if !ok {
		return false
	}
	inv.slots[idx].Item = h
	inv.slots[idx].Orientation = o
	inv.setInstanceLocation(inv.pool.Stack(h), inv.slots[idx].Handle)
	inv.emit(idx, ChangeAdded)
	return true
}

// RemoveItemAtLocation clears the item reference at slot. The pool entry is
// left alive; the caller decides whether to destroy it.
func (inv *Inventory) RemoveItemAtLocation(slot grid.SlotHandle) bool {
	idx, ok := inv.SlotIndex(slot)
	if !ok || inv.slots[idx].Item.IsNone() {
		return false
	}
	inv.slots[idx].Item = item.NoHandle
	inv.slots[idx].Orientation = grid.Horizontal
	inv.emit(idx, ChangeRemoved)
	return true
}

// CanPlace reports whether an item of def fits at slot with orientation o:
// the cell exists and is unlocked, the tab filter admits def, and the
// oriented footprint covers only free cells. skip names an absolute slot
// whose item is ignored for occupancy; pass -1 to ignore nothing.
func (inv *Inventory) CanPlace(slot grid.SlotHandle, def *item.Definition, o grid.Orientation, skip int) bool {
	idx, ok := inv.SlotIndex(slot)
	if !ok || def == nil {
		return false
	}
	if inv.slots[idx].Locked {
		return false
	}
	if !inv.Accepts(slot.Tab, def) {
		return false
	}
	occ := grid.PrecomputeOccupancyExcept(inv, skip)
	return grid.CanFit(occ, inv.sections[slot.Tab].tab, slot.X, slot.Y, def.Footprint().Oriented(o))
}

// InsertAt pools stack and anchors it at slot, checking fit first. Runtime
// instances are created when the definition requires one and stack has none.
func (inv *Inventory) InsertAt(slot grid.SlotHandle, stack item.ItemStack, o grid.Orientation) (item.Handle, bool) {
	if !stack.IsValid() {
		return item.NoHandle, false
	}
	def, ok := inv.catalog.Lookup(stack.Definition)
	if !ok || !inv.CanPlace(slot, def, o, -1) {
		return item.NoHandle, false
	}
	h := inv.pool.Create(inv.withInstance(stack, def))
	if h.IsNone() {
		return item.NoHandle, false
	}
	inv.PlaceItemAtLocation(slot, h, o)
	return h, true
}

// AddItemToInventory places stack at the first position that fits, scanning
// tabs in order. Tabs whose filter rejects the item, locked cells and cells
// with a pending claim are never used as anchors. At most MaxStackSize units
// are placed; the rest is returned as excess.
//
// Postcondition: on failure no pool entry is created, the handle is
// NoHandle and excess equals the full stack size.
func (inv *Inventory) AddItemToInventory(stack item.ItemStack) (item.Handle, int) {
	if !stack.IsValid() {
		return item.NoHandle, max(stack.StackSize, 0)
	}
	def, ok := inv.catalog.Lookup(stack.Definition)
	if !ok {
		inv.logger.Debug("definition not found", zap.String("definition", stack.Definition))
		return item.NoHandle, stack.StackSize
	}
	anchor, found := inv.FindPlacement(stack)
	if !found {
		inv.logger.Debug("no room for item", zap.Stringer("stack", stack), zap.Stringer("footprint", def.Footprint()))
		return item.NoHandle, stack.StackSize
	}

	excess := 0
	if stack.StackSize > def.MaxStackSize {
		excess = stack.StackSize - def.MaxStackSize
		stack.StackSize = def.MaxStackSize
	}
	h := inv.pool.Create(inv.withInstance(stack, def))
	if h.IsNone() {
		return item.NoHandle, stack.StackSize + excess
	}
	inv.PlaceItemAtLocation(anchor, h, grid.Horizontal)
	return h, excess
}

// FindPlacement returns the anchor AddItemToInventory would use for stack.
// It changes nothing.
func (inv *Inventory) FindPlacement(stack item.ItemStack) (grid.SlotHandle, bool) {
	if !stack.IsValid() {
		return grid.SlotHandle{}, false
	}
	def, ok := inv.catalog.Lookup(stack.Definition)
	if !ok {
		return grid.SlotHandle{}, false
	}
	return grid.FindFirstFit(inv, def.Footprint(), func(h grid.SlotHandle) bool {
		return inv.eligibleAnchor(h, def)
	})
}

func (inv *Inventory) eligibleAnchor(h grid.SlotHandle, def *item.Definition) bool {
	if !inv.Accepts(h.Tab, def) {
		return false
	}
	if s, ok := inv.SlotByHandle(h); !ok || s.Locked {
		return false
	}
	return claim.CanClaimSlot(inv.claims.State(h))
}

// SplitItemStackAtLocation takes qty units from the stack anchored at slot
// and returns them as an unpooled stack. qty <= 0 or qty >= the stack size
// takes the whole stack: the slot is cleared and the pool entry destroyed,
// and the returned stack keeps any runtime instance.
func (inv *Inventory) SplitItemStackAtLocation(slot grid.SlotHandle, qty int) (item.ItemStack, bool) {
	idx, ok := inv.SlotIndex(slot)
	if !ok {
		return item.Empty(), false
	}
	h := inv.slots[idx].Item
	stack := inv.pool.Stack(h)
	if !stack.IsValid() {
		return item.Empty(), false
	}
	if qty <= 0 || qty >= stack.StackSize {
		inv.slots[idx].Item = item.NoHandle
		inv.slots[idx].Orientation = grid.Horizontal
		inv.pool.RemoveItem(h)
		if stack.Instance != nil {
			stack.Instance.SetOwningInventory(nil)
		}
		stack.Handle = item.NoHandle
		inv.emit(idx, ChangeRemoved)
		return stack, true
	}
	taken := stack
	taken.StackSize = qty
	taken.Handle = item.NoHandle
	stack.StackSize -= qty
	inv.pool.Set(h, stack)
	inv.emit(idx, ChangeChanged)
	return taken, true
}

// SetStackSize overwrites the quantity of the stack anchored at slot.
// A size <= 0 is rejected; use SplitItemStackAtLocation to empty a slot.
func (inv *Inventory) SetStackSize(slot grid.SlotHandle, size int) bool {
	idx, ok := inv.SlotIndex(slot)
	if !ok || size <= 0 {
		return false
	}
	h := inv.slots[idx].Item
	stack := inv.pool.Stack(h)
	if !stack.IsValid() {
		return false
	}
	stack.StackSize = size
	inv.pool.Set(h, stack)
	inv.emit(idx, ChangeChanged)
	return true
}

// Claim takes a claim on slot for controller c.
func (inv *Inventory) Claim(c claim.ControllerID, slot grid.SlotHandle) bool {
	idx, ok := inv.SlotIndex(slot)
	if !ok {
		return false
	}
	if !inv.claims.Claim(c, slot, inv.slots[idx].Item) {
		return false
	}
	inv.emit(idx, ChangeClaimed)
	return true
}

// Release drops c's claim on slot.
func (inv *Inventory) Release(c claim.ControllerID, slot grid.SlotHandle) bool {
	idx, ok := inv.SlotIndex(slot)
	if !ok || !inv.claims.Release(c, slot) {
		return false
	}
	inv.emit(idx, ChangeReleased)
	return true
}

// ClaimState returns the live claim on slot.
func (inv *Inventory) ClaimState(slot grid.SlotHandle) claim.PendingSlotOperation {
	return inv.claims.State(slot)
}

func (inv *Inventory) withInstance(stack item.ItemStack, def *item.Definition) item.ItemStack {
	if def.RequiresRuntimeInstance && stack.Instance == nil && inv.factory != nil {
		stack.Instance = inv.factory(def)
	}
	return stack
}
