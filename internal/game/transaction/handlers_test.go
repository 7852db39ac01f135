package transaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stash/internal/game/floor"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/inventory"
	"github.com/cory-johannsen/stash/internal/game/item"
	"github.com/cory-johannsen/stash/internal/game/transaction"
)

func catalog(t testing.TB) *item.Registry {
	reg := item.NewRegistry()
	require.NoError(t, reg.Register(&item.Definition{ID: "pebble", Name: "Pebble", Type: "junk", Width: 1, Height: 1, MaxStackSize: 10}))
	require.NoError(t, reg.Register(&item.Definition{ID: "plank", Name: "Plank", Type: "material", Width: 2, Height: 1, MaxStackSize: 5}))
	return reg
}

func newBag(t testing.TB, id string) *inventory.Inventory {
	inv := inventory.New(catalog(t), inventory.WithID(id))
	inv.AddTab("main", 4, 4)
	return inv
}

type fixture struct {
	env   *transaction.Env
	bag   *inventory.Inventory
	chest *inventory.Inventory
	world *floor.Manager
}

func newFixture(t testing.TB) *fixture {
	f := &fixture{bag: newBag(t, "bag"), chest: newBag(t, "chest"), world: floor.NewManager(nil)}
	invs := transaction.Inventories{}
	invs.Add(f.bag)
	invs.Add(f.chest)
	f.env = &transaction.Env{Inventories: invs, World: f.world}
	return f
}

func at(x, y int) grid.SlotHandle {
	return grid.NewSlotHandle(0, x, y)
}

func TestTransaction_Validate(t *testing.T) {
	assert.NoError(t, transaction.NewMove("a", "bag", at(0, 0), "bag", at(1, 0)).Validate())
	assert.NoError(t, transaction.NewDrop("a", "bag", at(0, 0), 0, "room").Validate())
	assert.NoError(t, transaction.NewLoot("a", "bag", "w").Validate())

	tx := transaction.NewMove("a", "bag", at(0, 0), "bag", at(1, 0))
	tx.Kind = transaction.KindDrop
	assert.Error(t, tx.Validate())
	tx.Drop = &transaction.DropParams{}
	assert.Error(t, tx.Validate(), "two params blocks")
	assert.Error(t, transaction.Transaction{Kind: transaction.KindLoot}.Validate())
}

func TestParseKind(t *testing.T) {
	k, err := transaction.ParseKind("MOVE")
	require.NoError(t, err)
	assert.Equal(t, transaction.KindMove, k)
	_, err = transaction.ParseKind("swap")
	assert.Error(t, err)
}

func TestAttemptPredict(t *testing.T) {
	assert.True(t, transaction.AttemptPredict(transaction.NewMove("a", "bag", at(0, 0), "bag", at(1, 0))))
	assert.False(t, transaction.AttemptPredict(transaction.NewDrop("a", "bag", at(0, 0), 0, "room")))
	assert.False(t, transaction.AttemptPredict(transaction.NewLoot("a", "bag", "w")))
}

func TestMove_ClaimContention(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 1))
	require.True(t, f.bag.Claim("A", at(2, 2)))

	byB := transaction.NewMove("B", "bag", at(0, 0), "bag", at(2, 2))
	assert.False(t, f.env.CanExecute(byB))

	byA := transaction.NewMove("A", "bag", at(0, 0), "bag", at(2, 2))
	assert.True(t, f.env.CanExecute(byA))

	u := f.env.Execute(byA)
	require.True(t, u.Success)
	assert.Equal(t, "empty", f.bag.ClaimState(at(2, 2)).Status.String(), "claim released on completion")
}

func TestMove_SourceClaimedByOther(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 1))
	require.True(t, f.bag.Claim("A", at(0, 0)))
	assert.False(t, f.env.CanExecute(transaction.NewMove("B", "bag", at(0, 0), "bag", at(1, 1))))
}

func TestMove_UnknownInventory(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 1))
	assert.False(t, f.env.CanExecute(transaction.NewMove("A", "bag", at(0, 0), "nowhere", at(1, 1))))
	assert.False(t, f.env.Execute(transaction.NewMove("A", "bag", at(0, 0), "nowhere", at(1, 1))).Success)
}

func TestMove_ExecuteAndUndo(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("plank", 3))
	before := f.bag.DebugContents()

	tx := transaction.NewRotatingMove("A", "bag", at(0, 0), "bag", at(3, 1), grid.Vertical)
	require.True(t, f.env.CanExecute(tx))
	u := f.env.Execute(tx)
	require.True(t, u.Success)
	assert.Equal(t, grid.Horizontal, u.PriorOrientation)
	assert.Equal(t, grid.Vertical, u.Orientation)

	require.True(t, f.env.Undo(tx, u))
	assert.Equal(t, before, f.bag.DebugContents())
}

func TestMove_UndoRefusedWhenTargetChanged(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 3))
	tx := transaction.NewMove("A", "bag", at(0, 0), "bag", at(1, 0))
	u := f.env.Execute(tx)
	require.True(t, u.Success)

	require.True(t, f.bag.SetStackSize(at(1, 0), 2))
	assert.False(t, f.env.Undo(tx, u))
	assert.True(t, f.bag.HasItemAt(at(1, 0)))
}

func TestMove_AcrossInventoriesAndBack(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 4))
	tx := transaction.NewMove("A", "bag", at(0, 0), "chest", at(3, 3))
	require.True(t, f.env.CanExecute(tx))
	u := f.env.Execute(tx)
	require.True(t, u.Success)
	assert.Equal(t, 4, f.chest.ItemAt(at(3, 3)).StackSize)
	assert.Zero(t, f.bag.ItemCount())

	require.True(t, f.env.Undo(tx, u))
	assert.Equal(t, 4, f.bag.ItemAt(at(0, 0)).StackSize)
	assert.Zero(t, f.chest.ItemCount())
}

func TestDrop_WholeStackAndUndo(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 6))
	tx := transaction.NewDrop("A", "bag", at(0, 0), 0, "room1")

	require.True(t, f.env.CanExecute(tx))
	u := f.env.Execute(tx)
	require.True(t, u.Success)
	assert.True(t, u.Whole)
	assert.False(t, f.bag.HasItemAt(at(0, 0)))
	items := f.world.ItemsInRoom("room1")
	require.Len(t, items, 1)
	assert.Equal(t, 6, items[0].Stack.StackSize)

	require.True(t, f.env.Undo(tx, u))
	assert.Equal(t, 6, f.bag.ItemAt(at(0, 0)).StackSize)
	assert.Empty(t, f.world.ItemsInRoom("room1"))
}

func TestDrop_PartialStackAndUndo(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 6))
	tx := transaction.NewDrop("A", "bag", at(0, 0), 2, "room1")

	u := f.env.Execute(tx)
	require.True(t, u.Success)
	assert.False(t, u.Whole)
	assert.Equal(t, 4, f.bag.ItemAt(at(0, 0)).StackSize)

	require.True(t, f.env.Undo(tx, u))
	assert.Equal(t, 6, f.bag.ItemAt(at(0, 0)).StackSize)
	assert.Empty(t, f.world.ItemsInRoom("room1"))
}

func TestDrop_UndoRefusedAfterWorldItemLooted(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 6))
	drop := transaction.NewDrop("A", "bag", at(0, 0), 0, "room1")
	u := f.env.Execute(drop)
	require.True(t, u.Success)

	loot := transaction.NewLoot("B", "chest", u.WorldItem)
	require.True(t, f.env.CanExecute(loot))
	require.True(t, f.env.Execute(loot).Success)

	assert.False(t, f.env.Undo(drop, u))
	assert.False(t, f.bag.HasItemAt(at(0, 0)))
}

func TestDrop_Preconditions(t *testing.T) {
	f := newFixture(t)
	f.bag.AddItemToInventory(item.NewStack("pebble", 3))

	assert.False(t, f.env.CanExecute(transaction.NewDrop("A", "bag", at(0, 0), 4, "room1")), "more than the stack holds")
	assert.False(t, f.env.CanExecute(transaction.NewDrop("A", "bag", at(1, 0), 0, "room1")), "empty slot")

	require.True(t, f.bag.Claim("B", at(0, 0)))
	assert.False(t, f.env.CanExecute(transaction.NewDrop("A", "bag", at(0, 0), 0, "room1")))

	noWorld := &transaction.Env{Inventories: transaction.Inventories{"bag": f.bag}}
	assert.False(t, noWorld.CanExecute(transaction.NewDrop("B", "bag", at(0, 0), 0, "room1")))
}

func TestLoot_PartialFitLeavesExcessOnFloor(t *testing.T) {
	f := newFixture(t)
	id, ok := f.world.Spawn("room1", item.NewStack("pebble", 14))
	require.True(t, ok)

	tx := transaction.NewLoot("A", "bag", id)
	require.True(t, f.env.CanExecute(tx))
	u := f.env.Execute(tx)
	require.True(t, u.Success)
	assert.Equal(t, 4, u.Excess)
	assert.Equal(t, 10, f.bag.Pool().Stack(u.Placed).StackSize)

	left := f.world.ItemsInRoom("room1")
	require.Len(t, left, 1)
	assert.Equal(t, 4, left[0].Stack.StackSize)

	assert.False(t, f.env.Undo(tx, u), "loot is not undoable")
}

func TestLoot_FullInventory(t *testing.T) {
	f := newFixture(t)
	tiny := inventory.New(catalog(t), inventory.WithID("tiny"))
	tiny.AddTab("main", 1, 1)
	tiny.AddItemToInventory(item.NewStack("pebble", 1))
	f.env.Inventories.(transaction.Inventories).Add(tiny)
	id, _ := f.world.Spawn("room1", item.NewStack("pebble", 2))

	assert.False(t, f.env.CanExecute(transaction.NewLoot("A", "tiny", id)))
	_, ok := f.world.WorldItem(id)
	assert.True(t, ok)
}
