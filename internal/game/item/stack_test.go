package item_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

func TestItemStack_IsValid(t *testing.T) {
	assert.True(t, item.NewStack("apple", 1).IsValid())
	assert.False(t, item.NewStack("apple", 0).IsValid())
	assert.False(t, item.NewStack("apple", -3).IsValid())
	assert.False(t, item.NewStack("", 5).IsValid())
	assert.False(t, item.Empty().IsValid())
}

func TestItemStack_EmptyStacksCompareEqual(t *testing.T) {
	a := item.NewStack("apple", 0)
	b := item.NewStack("", 7)
	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(item.Empty()))
	assert.False(t, a.Equal(item.NewStack("apple", 1)))
}

func TestItemStack_EqualIgnoresHandle(t *testing.T) {
	a := item.NewStack("apple", 2)
	b := a
	b.Handle = item.NewHandle(3, 1)
	assert.True(t, a.Equal(b))
	b.Custom1 = 9
	assert.False(t, a.Equal(b))
}

func TestItemStack_CanStackWith(t *testing.T) {
	a := item.NewStack("arrow", 10)
	b := item.NewStack("arrow", 5)
	assert.True(t, a.CanStackWith(b, 20))
	assert.False(t, a.CanStackWith(b, 12), "would exceed max")
	assert.False(t, a.CanStackWith(item.NewStack("bolt", 1), 20))

	c := b
	c.Custom2 = 1
	assert.False(t, a.CanStackWith(c, 20))

	d := b
	d.Instance = item.NewRuntimeInstance(&item.Definition{ID: "arrow"})
	assert.False(t, a.CanStackWith(d, 20))
}

func TestItemStack_IsFull(t *testing.T) {
	assert.True(t, item.NewStack("arrow", 20).IsFull(20))
	assert.False(t, item.NewStack("arrow", 19).IsFull(20))
}

func TestRuntimeInstance_RecordsLocation(t *testing.T) {
	inst := item.NewRuntimeInstance(&item.Definition{ID: "rifle"}).(*item.RuntimeInstance)
	inst.SetOwningInventory(ownerID("inv-1"))
	inst.SetSlotHandle(grid.NewSlotHandle(0, 2, 1))
	owner, slot := inst.Location()
	assert.Equal(t, "inv-1", owner)
	assert.Equal(t, grid.NewSlotHandle(0, 2, 1), slot)
	assert.Equal(t, "rifle", inst.Definition())
}

type ownerID string

func (o ownerID) ID() string { return string(o) }

func validDef() *item.Definition {
	return &item.Definition{ID: "apple", Name: "Apple", Width: 1, Height: 1, MaxStackSize: 10}
}

func TestDefinition_Validate(t *testing.T) {
	assert.NoError(t, validDef().Validate())

	d := validDef()
	d.Width = 0
	assert.Error(t, d.Validate())

	d = validDef()
	d.MaxStackSize = 0
	assert.Error(t, d.Validate())

	d = validDef()
	d.RequiresRuntimeInstance = true
	assert.Error(t, d.Validate(), "instanced items cannot stack")
	d.MaxStackSize = 1
	assert.NoError(t, d.Validate())
}

func TestDefinition_FootprintOfNil(t *testing.T) {
	var d *item.Definition
	assert.False(t, d.Footprint().Valid())
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rifle.yaml"), []byte(`
id: rifle
name: Rifle
type: weapon
tags: [long]
width: 4
height: 1
max_stack_size: 1
requires_runtime_instance: true
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ammo.yml"), []byte(`
id: ammo
name: Ammo
type: ammo
width: 1
height: 1
max_stack_size: 60
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0644))

	reg, err := item.LoadRegistry(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	rifle, ok := reg.Lookup("rifle")
	require.True(t, ok)
	assert.Equal(t, grid.Footprint{Width: 4, Height: 1}, rifle.Footprint())
	assert.True(t, rifle.HasTag("long"))
	assert.Equal(t, "ammo", reg.All()[0].ID)
}

func TestLoadRegistry_InvalidItem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nname: Bad\n"), 0644))
	_, err := item.LoadRegistry(dir)
	assert.Error(t, err)
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := item.NewRegistry()
	require.NoError(t, reg.Register(validDef()))
	assert.Error(t, reg.Register(validDef()))
}
