// Package transaction mediates every inventory mutation. A Transaction is a
// serializable value describing intent; executing it through an Env yields
// an Undo record. The Engine keeps a bounded history of executed pairs and
// drives client prediction against an authoritative peer.
package transaction

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// Kind selects the transaction variant.
type Kind uint8

const (
	// KindLoot moves a world item's stack into an inventory.
	KindLoot Kind = iota + 1
	// KindMove moves an item between slots.
	KindMove
	// KindDrop moves some or all of a slot's stack into the world.
	KindDrop
)

var kindNames = map[Kind]string{
	KindLoot: "loot",
	KindMove: "move",
	KindDrop: "drop",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("transaction: unknown kind %q", s)
}

// MoveParams targets a Move. A nil Orientation keeps the source orientation.
type MoveParams struct {
	SourceInventory string            `json:"source_inventory"`
	SourceSlot      grid.SlotHandle   `json:"source_slot"`
	TargetInventory string            `json:"target_inventory"`
	TargetSlot      grid.SlotHandle   `json:"target_slot"`
	Orientation     *grid.Orientation `json:"orientation,omitempty"`
}

// DropParams targets a Drop. Quantity <= 0 drops the whole stack.
type DropParams struct {
	Inventory string          `json:"inventory"`
	Slot      grid.SlotHandle `json:"slot"`
	Quantity  int             `json:"quantity"`
	// Location tells the world where to spawn the dropped item.
	Location string `json:"location"`
}

// LootParams targets a Loot.
type LootParams struct {
	Inventory string `json:"inventory"`
	WorldItem string `json:"world_item"`
}

// Transaction is the tagged variant carried between peers. Exactly the
// params field matching Kind is set.
type Transaction struct {
	ID         string             `json:"id"`
	Kind       Kind               `json:"kind"`
	Instigator claim.ControllerID `json:"instigator"`
	Move       *MoveParams        `json:"move,omitempty"`
	Drop       *DropParams        `json:"drop,omitempty"`
	Loot       *LootParams        `json:"loot,omitempty"`
}

// NewMove builds a Move that keeps the item's orientation.
func NewMove(instigator claim.ControllerID, srcInv string, src grid.SlotHandle, dstInv string, dst grid.SlotHandle) Transaction {
	return Transaction{
		ID:         uuid.New().String(),
		Kind:       KindMove,
		Instigator: instigator,
		Move:       &MoveParams{SourceInventory: srcInv, SourceSlot: src, TargetInventory: dstInv, TargetSlot: dst},
	}
}

// NewRotatingMove builds a Move that lays the item out with o.
func NewRotatingMove(instigator claim.ControllerID, srcInv string, src grid.SlotHandle, dstInv string, dst grid.SlotHandle, o grid.Orientation) Transaction {
	tx := NewMove(instigator, srcInv, src, dstInv, dst)
	tx.Move.Orientation = &o
	return tx
}

// NewDrop builds a Drop of qty units from slot.
func NewDrop(instigator claim.ControllerID, inv string, slot grid.SlotHandle, qty int, location string) Transaction {
	return Transaction{
		ID:         uuid.New().String(),
		Kind:       KindDrop,
		Instigator: instigator,
		Drop:       &DropParams{Inventory: inv, Slot: slot, Quantity: qty, Location: location},
	}
}

// NewLoot builds a Loot of worldItem into inv.
func NewLoot(instigator claim.ControllerID, inv, worldItem string) Transaction {
	return Transaction{
		ID:         uuid.New().String(),
		Kind:       KindLoot,
		Instigator: instigator,
		Loot:       &LootParams{Inventory: inv, WorldItem: worldItem},
	}
}

// Validate checks that the variant tag and params agree.
func (tx Transaction) Validate() error {
	if tx.ID == "" {
		return fmt.Errorf("transaction: missing id")
	}
	set := 0
	for _, p := range []bool{tx.Move != nil, tx.Drop != nil, tx.Loot != nil} {
		if p {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("transaction %s: expected exactly one params block, got %d", tx.ID, set)
	}
	switch {
	case tx.Kind == KindMove && tx.Move != nil,
		tx.Kind == KindDrop && tx.Drop != nil,
		tx.Kind == KindLoot && tx.Loot != nil:
		return nil
	}
	return fmt.Errorf("transaction %s: params do not match kind %s", tx.ID, tx.Kind)
}

// String renders the transaction for logs.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s[%s by %s]", tx.Kind, tx.ID, tx.Instigator)
}

// Undo is the record produced by executing a transaction. It holds what is
// needed to reverse the effect; fields unused by a kind stay zero.
type Undo struct {
	Success bool `json:"success"`
	Kind    Kind `json:"kind"`

	// PriorOrientation is the orientation the item had before a Move or Drop.
	PriorOrientation grid.Orientation `json:"prior_orientation"`
	// Orientation is the orientation a Move laid the item out with.
	Orientation grid.Orientation `json:"orientation"`
	// Stack is the moved stack for a Move and the dropped stack for a Drop.
	Stack item.ItemStack `json:"stack"`

	// PriorSize and Whole describe the source slot before a Drop.
	PriorSize int    `json:"prior_size"`
	Whole     bool   `json:"whole"`
	WorldItem string `json:"world_item,omitempty"`

	// Placed and Excess are the result of a Loot.
	Placed item.Handle `json:"placed"`
	Excess int         `json:"excess"`
}

func failed(k Kind) Undo {
	return Undo{Kind: k, Placed: item.NoHandle}
}
