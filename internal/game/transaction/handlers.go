package transaction

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/inventory"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// handler is the four-operation contract every kind implements.
type handler struct {
	canExecute func(e *Env, tx Transaction) bool
	execute    func(e *Env, tx Transaction) Undo
	undo       func(e *Env, tx Transaction, u Undo) bool
	// predictable kinds may run on a non-authoritative peer before the
	// authority confirms them.
	predictable bool
}

var handlers = map[Kind]handler{
	KindMove: {canExecute: canMove, execute: executeMove, undo: undoMove, predictable: true},
	KindDrop: {canExecute: canDrop, execute: executeDrop, undo: undoDrop},
	KindLoot: {canExecute: canLoot, execute: executeLoot, undo: undoLoot},
}

func handlerFor(tx Transaction) (handler, bool) {
	if tx.Validate() != nil {
		return handler{}, false
	}
	h, ok := handlers[tx.Kind]
	return h, ok
}

// CanExecute is the read-only precondition check for tx, including claims.
func (e *Env) CanExecute(tx Transaction) bool {
	h, ok := handlerFor(tx)
	if !ok {
		return false
	}
	if !h.canExecute(e, tx) {
		e.logger().Debug("transaction precondition failed", zap.Stringer("tx", tx))
		return false
	}
	return true
}

// Execute applies tx and returns its undo record.
//
// Precondition: CanExecute(tx) returned true with no mutation since.
func (e *Env) Execute(tx Transaction) Undo {
	h, ok := handlerFor(tx)
	if !ok {
		return failed(tx.Kind)
	}
	return h.execute(e, tx)
}

// Undo reverses tx using u. It fails without mutating when the state tx
// produced has since changed or the kind cannot be undone.
func (e *Env) Undo(tx Transaction, u Undo) bool {
	h, ok := handlerFor(tx)
	if !ok || !u.Success {
		return false
	}
	return h.undo(e, tx, u)
}

// AttemptPredict reports whether tx may be applied speculatively on a
// predicting peer.
func AttemptPredict(tx Transaction) bool {
	h, ok := handlerFor(tx)
	return ok && h.predictable
}

func claimedByOther(inv *inventory.Inventory, slot grid.SlotHandle, c claim.ControllerID) bool {
	return inv.ClaimState(slot).IsClaimedByOther(c)
}

func moveOrientation(src *inventory.Inventory, p *MoveParams) (grid.Orientation, bool) {
	if p.Orientation != nil {
		return *p.Orientation, true
	}
	s, ok := src.SlotByHandle(p.SourceSlot)
	return s.Orientation, ok
}

func canMove(e *Env, tx Transaction) bool {
	p := tx.Move
	src, ok := e.inventory(p.SourceInventory)
	if !ok {
		return false
	}
	dst, ok := e.inventory(p.TargetInventory)
	if !ok {
		return false
	}
	if claimedByOther(src, p.SourceSlot, tx.Instigator) || claimedByOther(dst, p.TargetSlot, tx.Instigator) {
		return false
	}
	o, ok := moveOrientation(src, p)
	if !ok {
		return false
	}
	return inventory.CanMoveItem(src, p.SourceSlot, dst, p.TargetSlot, o)
}

func executeMove(e *Env, tx Transaction) Undo {
	p := tx.Move
	src, ok := e.inventory(p.SourceInventory)
	if !ok {
		return failed(KindMove)
	}
	dst, ok := e.inventory(p.TargetInventory)
	if !ok {
		return failed(KindMove)
	}
	s, ok := src.SlotByHandle(p.SourceSlot)
	if !ok {
		return failed(KindMove)
	}
	o, _ := moveOrientation(src, p)
	stack := src.ItemAt(p.SourceSlot)

	moved := inventory.MoveItemWithOrientation(src, p.SourceSlot, dst, p.TargetSlot, o)
	src.Release(tx.Instigator, p.SourceSlot)
	dst.Release(tx.Instigator, p.TargetSlot)
	if !moved {
		return failed(KindMove)
	}
	return Undo{
		Success:          true,
		Kind:             KindMove,
		PriorOrientation: s.Orientation,
		Orientation:      o,
		Stack:            stack,
		Placed:           item.NoHandle,
	}
}

func undoMove(e *Env, tx Transaction, u Undo) bool {
	p := tx.Move
	src, ok := e.inventory(p.SourceInventory)
	if !ok {
		return false
	}
	dst, ok := e.inventory(p.TargetInventory)
	if !ok {
		return false
	}
	if src == dst && p.SourceSlot == p.TargetSlot && u.PriorOrientation == u.Orientation {
		return true
	}
	s, ok := dst.SlotByHandle(p.TargetSlot)
	if !ok || s.Orientation != u.Orientation || !dst.ItemAt(p.TargetSlot).Equal(u.Stack) {
		e.logger().Debug("move undo refused: target changed", zap.Stringer("tx", tx))
		return false
	}
	return inventory.MoveItemWithOrientation(dst, p.TargetSlot, src, p.SourceSlot, u.PriorOrientation)
}

func canDrop(e *Env, tx Transaction) bool {
	p := tx.Drop
	if e.World == nil {
		return false
	}
	inv, ok := e.inventory(p.Inventory)
	if !ok {
		return false
	}
	s, ok := inv.SlotByHandle(p.Slot)
	if !ok || s.Locked {
		return false
	}
	stack := inv.ItemAt(p.Slot)
	if !stack.IsValid() || p.Quantity > stack.StackSize {
		return false
	}
	return !claimedByOther(inv, p.Slot, tx.Instigator)
}

func executeDrop(e *Env, tx Transaction) Undo {
	p := tx.Drop
	inv, ok := e.inventory(p.Inventory)
	if !ok || e.World == nil {
		return failed(KindDrop)
	}
	defer inv.Release(tx.Instigator, p.Slot)

	s, _ := inv.SlotByHandle(p.Slot)
	prior := inv.ItemAt(p.Slot)
	whole := p.Quantity <= 0 || p.Quantity >= prior.StackSize
	taken, ok := inv.SplitItemStackAtLocation(p.Slot, p.Quantity)
	if !ok {
		return failed(KindDrop)
	}
	id, ok := e.World.Spawn(p.Location, taken)
	if !ok {
		e.logger().Warn("world refused dropped item, returning it to the slot",
			zap.Stringer("tx", tx), zap.Stringer("stack", taken))
		if whole {
			inv.InsertAt(p.Slot, taken, s.Orientation)
		} else {
			inv.SetStackSize(p.Slot, prior.StackSize)
		}
		return failed(KindDrop)
	}
	return Undo{
		Success:          true,
		Kind:             KindDrop,
		PriorOrientation: s.Orientation,
		Stack:            taken,
		PriorSize:        prior.StackSize,
		Whole:            whole,
		WorldItem:        id,
		Placed:           item.NoHandle,
	}
}

func undoDrop(e *Env, tx Transaction, u Undo) bool {
	p := tx.Drop
	if e.World == nil {
		return false
	}
	wi, ok := e.World.WorldItem(u.WorldItem)
	if !ok {
		return false
	}
	lying := wi.GetItemStack()
	if !lying.Equal(u.Stack) {
		e.logger().Debug("drop undo refused: world item changed", zap.Stringer("tx", tx))
		return false
	}
	inv, ok := e.inventory(p.Inventory)
	if !ok {
		return false
	}
	if u.Whole {
		if _, ok := inv.InsertAt(p.Slot, lying, u.PriorOrientation); !ok {
			return false
		}
	} else {
		cur := inv.ItemAt(p.Slot)
		if cur.Definition != u.Stack.Definition || cur.StackSize != u.PriorSize-u.Stack.StackSize {
			return false
		}
		inv.SetStackSize(p.Slot, u.PriorSize)
	}
	e.World.Despawn(u.WorldItem)
	return true
}

func canLoot(e *Env, tx Transaction) bool {
	p := tx.Loot
	if e.World == nil {
		return false
	}
	inv, ok := e.inventory(p.Inventory)
	if !ok {
		return false
	}
	wi, ok := e.World.WorldItem(p.WorldItem)
	if !ok {
		return false
	}
	_, fits := inv.FindPlacement(wi.GetItemStack())
	return fits
}

func executeLoot(e *Env, tx Transaction) Undo {
	p := tx.Loot
	if e.World == nil {
		return failed(KindLoot)
	}
	inv, ok := e.inventory(p.Inventory)
	if !ok {
		return failed(KindLoot)
	}
	wi, ok := e.World.WorldItem(p.WorldItem)
	if !ok {
		return failed(KindLoot)
	}
	stack := wi.GetItemStack()
	h, excess := inv.AddItemToInventory(stack)
	if h.IsNone() {
		return failed(KindLoot)
	}
	wi.OnLooted(tx.Instigator, stack, excess)
	return Undo{Success: true, Kind: KindLoot, Stack: stack, Placed: h, Excess: excess}
}

// Loot is not reversible.
func undoLoot(*Env, Transaction, Undo) bool {
	return false
}
