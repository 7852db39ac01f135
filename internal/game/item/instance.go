package item

import (
	"sync"

	"github.com/cory-johannsen/stash/internal/game/grid"
)

// Owner identifies the inventory that currently holds a runtime instance.
type Owner interface {
	ID() string
}

// Instance is per-item state that does not fit in a stack's custom fields.
// The inventory only ever calls these two setters to keep the instance's
// back-references current.
type Instance interface {
	SetOwningInventory(owner Owner)
	SetSlotHandle(slot grid.SlotHandle)
}

// InstanceFactory creates the runtime instance for definitions flagged
// RequiresRuntimeInstance.
type InstanceFactory func(def *Definition) Instance

// RuntimeInstance is the default Instance: it records where its item lives.
type RuntimeInstance struct {
	mu         sync.Mutex
	definition string
	ownerID    string
	slot       grid.SlotHandle
}

// NewRuntimeInstance is an InstanceFactory producing *RuntimeInstance.
func NewRuntimeInstance(def *Definition) Instance {
	return &RuntimeInstance{definition: def.ID}
}

// SetOwningInventory records owner; a nil owner clears it.
func (r *RuntimeInstance) SetOwningInventory(owner Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner == nil {
		r.ownerID = ""
		return
	}
	r.ownerID = owner.ID()
}

// SetSlotHandle records the slot the item occupies.
func (r *RuntimeInstance) SetSlotHandle(slot grid.SlotHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slot = slot
}

// Location returns the last recorded owner ID and slot.
func (r *RuntimeInstance) Location() (ownerID string, slot grid.SlotHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ownerID, r.slot
}

// Definition returns the catalog key the instance was created for.
func (r *RuntimeInstance) Definition() string {
	return r.definition
}
