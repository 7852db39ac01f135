package transaction

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/inventory"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// WorldItem is an item lying in the world outside any inventory.
type WorldItem interface {
	SetItemStack(stack item.ItemStack)
	GetItemStack() item.ItemStack
	// OnLooted reports that instigator took stack; excess units did not fit
	// and remain in the world.
	OnLooted(instigator claim.ControllerID, stack item.ItemStack, excess int)
}

// World spawns and resolves world items. It exists only on the
// authoritative peer.
type World interface {
	Spawn(location string, stack item.ItemStack) (id string, ok bool)
	WorldItem(id string) (WorldItem, bool)
	Despawn(id string) bool
}

// Resolver finds inventories by ID.
type Resolver interface {
	Inventory(id string) (*inventory.Inventory, bool)
	// IDs lists every resolvable inventory in sorted order.
	IDs() []string
}

// Inventories is a map-backed Resolver.
type Inventories map[string]*inventory.Inventory

// Inventory implements Resolver.
func (m Inventories) Inventory(id string) (*inventory.Inventory, bool) {
	inv, ok := m[id]
	return inv, ok && inv != nil
}

// Add registers inv under its own ID.
func (m Inventories) Add(inv *inventory.Inventory) {
	m[inv.ID()] = inv
}

// IDs returns the registered IDs in sorted order.
func (m Inventories) IDs() []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Env is everything a transaction reads or mutates.
type Env struct {
	Inventories Resolver
	// World is nil on predicting peers; kinds that need it fail there.
	World  World
	Logger *zap.Logger
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Env) inventory(id string) (*inventory.Inventory, bool) {
	if e.Inventories == nil {
		return nil, false
	}
	return e.Inventories.Inventory(id)
}
