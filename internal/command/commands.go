// Package command parses console lines typed at a stash client into
// transactions and local actions.
package command

import (
	"fmt"
	"strconv"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/transaction"
)

// Categories for organizing commands.
const (
	CategoryInventory = "inventory"
	CategoryWorld     = "world"
	CategorySystem    = "system"
)

// Handler identifiers.
const (
	HandlerMove    = "move"
	HandlerRotate  = "rotate"
	HandlerDrop    = "drop"
	HandlerLoot    = "loot"
	HandlerClaim   = "claim"
	HandlerRelease = "release"
	HandlerFloor   = "floor"
	HandlerShow    = "show"
	HandlerResync  = "resync"
	HandlerHelp    = "help"
	HandlerQuit    = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis.
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command.
	Category string
	// Handler selects what the console does with the command.
	Handler string
	// MinArgs is the minimum argument count.
	MinArgs int
}

// BuiltinCommands returns all console commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "move", Aliases: []string{"mv"}, Usage: "move INV T,X,Y INV T,X,Y", Help: "Move an item between slots", Category: CategoryInventory, Handler: HandlerMove, MinArgs: 4},
		{Name: "rotate", Aliases: []string{"rot"}, Usage: "rotate INV T,X,Y INV T,X,Y h|v", Help: "Move an item and set its orientation", Category: CategoryInventory, Handler: HandlerRotate, MinArgs: 5},
		{Name: "drop", Usage: "drop INV T,X,Y ROOM [QTY]", Help: "Drop some or all of a stack", Category: CategoryInventory, Handler: HandlerDrop, MinArgs: 3},
		{Name: "claim", Usage: "claim INV T,X,Y", Help: "Mark a slot pending for you", Category: CategoryInventory, Handler: HandlerClaim, MinArgs: 2},
		{Name: "release", Usage: "release INV T,X,Y", Help: "Release your claim on a slot", Category: CategoryInventory, Handler: HandlerRelease, MinArgs: 2},
		{Name: "show", Aliases: []string{"inv", "i"}, Usage: "show [INV]", Help: "List local inventory contents", Category: CategoryInventory, Handler: HandlerShow},

		{Name: "loot", Aliases: []string{"get"}, Usage: "loot INV ITEM", Help: "Pick up a world item", Category: CategoryWorld, Handler: HandlerLoot, MinArgs: 2},
		{Name: "floor", Aliases: []string{"look", "l"}, Usage: "floor ROOM", Help: "List items on a room floor", Category: CategoryWorld, Handler: HandlerFloor, MinArgs: 1},

		{Name: "resync", Usage: "resync", Help: "Reload state from the authority", Category: CategorySystem, Handler: HandlerResync},
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "Disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}

// IsTransaction reports whether the command submits a transaction.
func (c *Command) IsTransaction() bool {
	switch c.Handler {
	case HandlerMove, HandlerRotate, HandlerDrop, HandlerLoot:
		return true
	}
	return false
}

// BuildTransaction turns a transaction command and its arguments into a
// Transaction instigated by who.
//
// Precondition: cmd.IsTransaction().
// Postcondition: Returns a valid Transaction or a non-nil error.
func BuildTransaction(cmd *Command, args []string, who claim.ControllerID) (transaction.Transaction, error) {
	if len(args) < cmd.MinArgs {
		return transaction.Transaction{}, fmt.Errorf("usage: %s", cmd.Usage)
	}
	switch cmd.Handler {
	case HandlerMove, HandlerRotate:
		src, err := ParseSlot(args[1])
		if err != nil {
			return transaction.Transaction{}, err
		}
		dst, err := ParseSlot(args[3])
		if err != nil {
			return transaction.Transaction{}, err
		}
		if cmd.Handler == HandlerMove {
			return transaction.NewMove(who, args[0], src, args[2], dst), nil
		}
		o, err := ParseOrientation(args[4])
		if err != nil {
			return transaction.Transaction{}, err
		}
		return transaction.NewRotatingMove(who, args[0], src, args[2], dst, o), nil
	case HandlerDrop:
		slot, err := ParseSlot(args[1])
		if err != nil {
			return transaction.Transaction{}, err
		}
		qty := 0
		if len(args) > 3 {
			if qty, err = strconv.Atoi(args[3]); err != nil {
				return transaction.Transaction{}, fmt.Errorf("quantity %q: %w", args[3], err)
			}
		}
		return transaction.NewDrop(who, args[0], slot, qty, args[2]), nil
	case HandlerLoot:
		return transaction.NewLoot(who, args[0], args[1]), nil
	}
	return transaction.Transaction{}, fmt.Errorf("%s does not submit a transaction", cmd.Name)
}
