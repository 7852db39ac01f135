// Package claim tracks advisory per-slot claims that serialize interactive
// operations such as drags. Claims never block: a transaction touching a slot
// claimed by another controller fails its precondition instead of waiting.
package claim

import (
	"time"

	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// Status is the claim state of one slot.
type Status uint8

const (
	// StatusEmpty means nobody is operating on the slot.
	StatusEmpty Status = iota
	// StatusPending means a controller is operating on the slot.
	StatusPending
)

// String returns "empty" or "pending".
func (s Status) String() string {
	if s == StatusPending {
		return "pending"
	}
	return "empty"
}

// ControllerID identifies the actor that owns a claim.
type ControllerID string

// PendingSlotOperation is the claim record for one slot.
type PendingSlotOperation struct {
	Status     Status          `json:"status"`
	Controller ControllerID    `json:"controller"`
	Slot       grid.SlotHandle `json:"slot"`
	Item       item.Handle     `json:"item"`
	Started    time.Time       `json:"started"`
}

// CanClaimSlot reports whether op leaves the slot free to claim.
func CanClaimSlot(op PendingSlotOperation) bool {
	return op.Status == StatusEmpty
}

// IsClaimedByOther reports whether op is pending for a controller other than c.
func (op PendingSlotOperation) IsClaimedByOther(c ControllerID) bool {
	return op.Status == StatusPending && op.Controller != c
}

// Registry holds the claims of one inventory.
//
// Precondition: used from a single goroutine, like the inventory that owns it.
type Registry struct {
	ops map[grid.SlotHandle]PendingSlotOperation
	ttl time.Duration
	now func() time.Time
}

// NewRegistry returns an empty Registry. Claims older than ttl read as
// empty; ttl <= 0 disables expiry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ops: make(map[grid.SlotHandle]PendingSlotOperation),
		ttl: ttl,
		now: time.Now,
	}
}

// SetClock replaces the time source.
//
// Precondition: now is non-nil.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// State returns the live claim for slot, or an empty operation.
func (r *Registry) State(slot grid.SlotHandle) PendingSlotOperation {
	op, ok := r.ops[slot]
	if !ok || r.expired(op) {
		return PendingSlotOperation{Status: StatusEmpty, Slot: slot, Item: item.NoHandle}
	}
	return op
}

// Claim marks slot pending for c. Re-claiming a slot c already holds
// refreshes the claim.
//
// Postcondition: returns false and leaves state unchanged if another
// controller holds a live claim on slot.
func (r *Registry) Claim(c ControllerID, slot grid.SlotHandle, it item.Handle) bool {
	cur := r.State(slot)
	if cur.IsClaimedByOther(c) {
		return false
	}
	r.ops[slot] = PendingSlotOperation{
		Status:     StatusPending,
		Controller: c,
		Slot:       slot,
		Item:       it,
		Started:    r.now(),
	}
	return true
}

// Release clears c's claim on slot. Returns false when c holds no live
// claim there.
func (r *Registry) Release(c ControllerID, slot grid.SlotHandle) bool {
	cur := r.State(slot)
	if cur.Status != StatusPending || cur.Controller != c {
		return false
	}
	delete(r.ops, slot)
	return true
}

// ReleaseAll clears every claim held by c and returns the released slots.
func (r *Registry) ReleaseAll(c ControllerID) []grid.SlotHandle {
	var out []grid.SlotHandle
	for slot, op := range r.ops {
		if op.Controller == c {
			delete(r.ops, slot)
			out = append(out, slot)
		}
	}
	return out
}

// Sweep drops expired claims and returns how many were removed.
func (r *Registry) Sweep() int {
	n := 0
	for slot, op := range r.ops {
		if r.expired(op) {
			delete(r.ops, slot)
			n++
		}
	}
	return n
}

// Pending returns every live claim.
func (r *Registry) Pending() []PendingSlotOperation {
	out := make([]PendingSlotOperation, 0, len(r.ops))
	for _, op := range r.ops {
		if !r.expired(op) {
			out = append(out, op)
		}
	}
	return out
}

// Clear drops every claim.
func (r *Registry) Clear() {
	r.ops = make(map[grid.SlotHandle]PendingSlotOperation)
}

func (r *Registry) expired(op PendingSlotOperation) bool {
	return r.ttl > 0 && r.now().Sub(op.Started) >= r.ttl
}
