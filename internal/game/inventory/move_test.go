package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/inventory"
	"github.com/cory-johannsen/stash/internal/game/item"
)

func TestMoveItem_SameSlotIsNoOp(t *testing.T) {
	inv := newInventory(t, [2]int{4, 4})
	inv.AddItemToInventory(item.NewStack("plank", 2))
	before := inv.Snapshot()

	assert.True(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 0, 0)))
	assert.Equal(t, before, inv.Snapshot())
}

func TestMoveItem_RejectsOccupiedTarget(t *testing.T) {
	inv := newInventory(t, [2]int{4, 4})
	a, _ := inv.AddItemToInventory(item.NewStack("pebble", 1))
	b, _ := inv.AddItemToInventory(item.NewStack("pebble", 2))
	bLoc, _ := inv.ItemLocation(b)
	before := inv.Snapshot()

	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, bLoc))
	assert.Equal(t, before, inv.Snapshot())
	assert.Equal(t, a, inv.ItemHandleAt(slot(0, 0, 0)))
}

func TestMoveItem_RejectsInvalidArguments(t *testing.T) {
	inv := newInventory(t, [2]int{4, 4})
	inv.AddItemToInventory(item.NewStack("pebble", 1))

	assert.False(t, inventory.MoveItem(nil, slot(0, 0, 0), inv, slot(0, 1, 0)))
	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), nil, slot(0, 1, 0)))
	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 4, 0)))
	assert.False(t, inventory.MoveItem(inv, grid.SlotHandle{}, inv, slot(0, 1, 0)))
	assert.False(t, inventory.MoveItem(inv, slot(0, 3, 3), inv, slot(0, 1, 0)), "empty source")
}

func TestMoveItem_RejectsTargetOverlappingAnotherItem(t *testing.T) {
	inv := newInventory(t, [2]int{4, 4})
	inv.AddItemToInventory(item.NewStack("plank", 1))
	peb := inv.Pool().CreateItem("pebble", 1)
	require.True(t, inv.PlaceItemAtLocation(slot(0, 3, 1), peb, grid.Horizontal))

	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 2, 1)), "plank would cover the pebble")
	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 3, 0)), "plank would leave the tab")
	assert.True(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 1, 2)))
}

func TestMoveItem_OverlappingItsOwnFootprint(t *testing.T) {
	inv := newInventory(t, [2]int{4, 1})
	h, _ := inv.AddItemToInventory(item.NewStack("plank", 1))
	require.True(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 1, 0)))
	assert.Equal(t, h, inv.ItemHandleAt(slot(0, 1, 0)))
	assert.False(t, inv.HasItemAt(slot(0, 0, 0)))
}

func TestMoveItem_EmitsSourceThenTarget(t *testing.T) {
	inv := newInventory(t, [2]int{4, 4})
	inv.AddItemToInventory(item.NewStack("pebble", 1))
	var got []inventory.Change
	inv.Subscribe(func(c inventory.Change) { got = append(got, c) })

	require.True(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 2, 2)))
	require.Len(t, got, 2)
	assert.Equal(t, inventory.ChangeRemoved, got[0].Kind)
	assert.Equal(t, slot(0, 0, 0), got[0].Slot)
	assert.Equal(t, inventory.ChangeAdded, got[1].Kind)
	assert.Equal(t, slot(0, 2, 2), got[1].Slot)
}

func TestMoveItem_RespectsTargetFilter(t *testing.T) {
	inv := inventory.New(testCatalog(t))
	inv.AddTab("main", 4, 4)
	inv.AddSection(inventory.SectionConfig{ID: "weapons", Width: 4, Height: 1, Filter: inventory.TypeFilter{"weapon"}})
	inv.AddItemToInventory(item.NewStack("pebble", 1))

	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(1, 0, 0)))
}

func TestMoveItem_LockedSlots(t *testing.T) {
	inv := newInventory(t, [2]int{4, 4})
	inv.AddItemToInventory(item.NewStack("pebble", 1))

	require.True(t, inv.SetLocked(slot(0, 1, 0), true))
	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 1, 0)))

	require.True(t, inv.SetLocked(slot(0, 0, 0), true))
	assert.False(t, inventory.MoveItem(inv, slot(0, 0, 0), inv, slot(0, 2, 0)))
}

func TestMoveItem_AcrossInventoriesRehomesItem(t *testing.T) {
	src := newInventory(t, [2]int{4, 4})
	dst := inventory.New(testCatalog(t), inventory.WithID("dst"))
	dst.AddTab("main", 4, 4)
	old, _ := src.AddItemToInventory(item.NewStack("rifle", 1))
	inst := src.Pool().Stack(old).Instance.(*item.RuntimeInstance)

	require.True(t, inventory.MoveItem(src, slot(0, 0, 0), dst, slot(0, 1, 2)))

	assert.False(t, src.Pool().ValidateHandle(old))
	assert.False(t, src.HasItemAt(slot(0, 0, 0)))
	moved := dst.ItemAt(slot(0, 1, 2))
	require.True(t, moved.IsValid())
	assert.Equal(t, "rifle", moved.Definition)
	assert.Same(t, inst, moved.Instance)

	owner, at := inst.Location()
	assert.Equal(t, "dst", owner)
	assert.Equal(t, slot(0, 1, 2), at)
}

func TestMoveItemWithOrientation_RotatesInPlace(t *testing.T) {
	inv := newInventory(t, [2]int{3, 3})
	inv.AddItemToInventory(item.NewStack("pole", 1))
	occBefore := grid.PrecomputeOccupancy(inv)
	require.True(t, occBefore.Occupied(inv.Tab(0).Index(0, 2)))

	require.True(t, inventory.MoveItemWithOrientation(inv, slot(0, 0, 0), inv, slot(0, 0, 0), grid.Vertical))
	s, _ := inv.SlotByHandle(slot(0, 0, 0))
	assert.Equal(t, grid.Vertical, s.Orientation)
	occ := grid.PrecomputeOccupancy(inv)
	assert.True(t, occ.Occupied(inv.Tab(0).Index(2, 0)))
	assert.False(t, occ.Occupied(inv.Tab(0).Index(0, 2)))
}

func TestMoveItemWithOrientation_RejectsRotationThatDoesNotFit(t *testing.T) {
	inv := newInventory(t, [2]int{2, 3})
	inv.AddItemToInventory(item.NewStack("pole", 1))
	assert.False(t, inventory.MoveItemWithOrientation(inv, slot(0, 0, 0), inv, slot(0, 0, 0), grid.Vertical))
}
