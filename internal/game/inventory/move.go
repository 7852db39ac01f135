package inventory

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// MoveItem moves the item anchored at srcSlot of src to dstSlot of dst,
// keeping its orientation. Moving a slot onto itself succeeds and changes
// nothing. The target cell must be empty: merging and swapping are not
// supported.
func MoveItem(src *Inventory, srcSlot grid.SlotHandle, dst *Inventory, dstSlot grid.SlotHandle) bool {
	if src != nil && src == dst && srcSlot == dstSlot {
		return true
	}
	if src == nil || dst == nil {
		return false
	}
	s, ok := src.SlotByHandle(srcSlot)
	if !ok {
		return false
	}
	return MoveItemWithOrientation(src, srcSlot, dst, dstSlot, s.Orientation)
}

// MoveItemWithOrientation is MoveItem that lays the item out with o at the
// target. Targeting the source slot with a different orientation rotates
// the item in place.
func MoveItemWithOrientation(src *Inventory, srcSlot grid.SlotHandle, dst *Inventory, dstSlot grid.SlotHandle, o grid.Orientation) bool {
	if isNoOpMove(src, srcSlot, dst, dstSlot, o) {
		return true
	}
	p, ok := planMove(src, srcSlot, dst, dstSlot, o)
	if !ok {
		return false
	}
	if src != dst {
		return moveAcross(src, dst, p, o)
	}

	h := p.stack.Handle
	src.setInstanceLocation(p.stack, src.slots[p.dstIdx].Handle)
	src.slots[p.srcIdx].Item = item.NoHandle
	src.slots[p.srcIdx].Orientation = grid.Horizontal
	src.slots[p.dstIdx].Item = h
	src.slots[p.dstIdx].Orientation = o
	if p.srcIdx == p.dstIdx {
		src.emit(p.srcIdx, ChangeChanged)
		return true
	}
	src.emit(p.srcIdx, ChangeRemoved)
	src.emit(p.dstIdx, ChangeAdded)
	return true
}

// CanMoveItem reports whether MoveItemWithOrientation with the same
// arguments would succeed. It changes nothing.
func CanMoveItem(src *Inventory, srcSlot grid.SlotHandle, dst *Inventory, dstSlot grid.SlotHandle, o grid.Orientation) bool {
	if isNoOpMove(src, srcSlot, dst, dstSlot, o) {
		return true
	}
	_, ok := planMove(src, srcSlot, dst, dstSlot, o)
	return ok
}

func isNoOpMove(src *Inventory, srcSlot grid.SlotHandle, dst *Inventory, dstSlot grid.SlotHandle, o grid.Orientation) bool {
	if src == nil || src != dst || srcSlot != dstSlot {
		return false
	}
	s, ok := src.SlotByHandle(srcSlot)
	return ok && s.Orientation == o
}

type movePlan struct {
	srcIdx int
	dstIdx int
	stack  item.ItemStack
}

func planMove(src *Inventory, srcSlot grid.SlotHandle, dst *Inventory, dstSlot grid.SlotHandle, o grid.Orientation) (movePlan, bool) {
	if src == nil || dst == nil {
		return movePlan{}, false
	}
	srcIdx, ok := src.SlotIndex(srcSlot)
	if !ok {
		return movePlan{}, false
	}
	dstIdx, ok := dst.SlotIndex(dstSlot)
	if !ok {
		return movePlan{}, false
	}

	stack := src.pool.Stack(src.slots[srcIdx].Item)
	if !stack.IsValid() {
		return movePlan{}, false
	}
	inPlace := src == dst && srcIdx == dstIdx
	if !inPlace && dst.pool.ValidateHandle(dst.slots[dstIdx].Item) {
		src.logger.Debug("move target occupied", zap.Stringer("target", dstSlot))
		return movePlan{}, false
	}
	if src.slots[srcIdx].Locked {
		return movePlan{}, false
	}
	def, ok := dst.catalog.Lookup(stack.Definition)
	if !ok {
		return movePlan{}, false
	}
	skip := -1
	if src == dst {
		skip = srcIdx
	}
	if !dst.CanPlace(dstSlot, def, o, skip) {
		src.logger.Debug("item does not fit at move target",
			zap.Stringer("target", dstSlot), zap.Stringer("footprint", def.Footprint().Oriented(o)))
		return movePlan{}, false
	}
	return movePlan{srcIdx: srcIdx, dstIdx: dstIdx, stack: stack}, true
}

// moveAcross re-homes the pool entry: the item gets a new handle in dst's
// pool and its handle in src's pool is invalidated.
func moveAcross(src, dst *Inventory, p movePlan, o grid.Orientation) bool {
	oldHandle := p.stack.Handle
	nh := dst.pool.Create(p.stack)
	if nh.IsNone() {
		return false
	}
	dst.setInstanceLocation(p.stack, dst.slots[p.dstIdx].Handle)
	dst.slots[p.dstIdx].Item = nh
	dst.slots[p.dstIdx].Orientation = o
	src.slots[p.srcIdx].Item = item.NoHandle
	src.slots[p.srcIdx].Orientation = grid.Horizontal
	src.pool.RemoveItem(oldHandle)
	src.emit(p.srcIdx, ChangeRemoved)
	dst.emit(p.dstIdx, ChangeAdded)
	return true
}
