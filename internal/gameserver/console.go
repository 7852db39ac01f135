package gameserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cory-johannsen/stash/internal/command"
	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/transaction"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("gameserver: quit")

const rpcTimeout = 5 * time.Second

// Console is the line-oriented front end of a client peer. Transaction
// commands go through the predicting engine; claim, release and floor go
// straight to the authority.
type Console struct {
	peer     *ClientPeer
	client   *Client
	registry *command.Registry
	who      claim.ControllerID
	in       io.Reader
	out      io.Writer
	onQuit   func()

	stop chan struct{}
	once sync.Once
}

// NewConsole reads commands from in and writes replies to out on behalf of
// who. onQuit, if non-nil, is called once when the user quits or in ends.
func NewConsole(peer *ClientPeer, client *Client, who claim.ControllerID, in io.Reader, out io.Writer, onQuit func()) *Console {
	if onQuit == nil {
		onQuit = func() {}
	}
	return &Console{
		peer:     peer,
		client:   client,
		registry: command.DefaultRegistry(),
		who:      who,
		in:       in,
		out:      out,
		onQuit:   onQuit,
		stop:     make(chan struct{}),
	}
}

// Start reads lines until quit, end of input or Stop.
func (c *Console) Start() error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-c.stop:
				return
			}
		}
	}()

	c.prompt()
	for {
		select {
		case <-c.stop:
			return nil
		case line, ok := <-lines:
			if !ok {
				c.onQuit()
				return nil
			}
			err := c.Execute(context.Background(), line)
			if errors.Is(err, ErrQuit) {
				c.onQuit()
				return nil
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
			c.prompt()
		}
	}
}

// Stop ends Start. Safe to call more than once.
func (c *Console) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, "> ")
}

// Execute runs a single console line.
//
// Postcondition: Returns ErrQuit for the quit command, a non-nil error when
// the line could not be carried out, or nil.
func (c *Console) Execute(ctx context.Context, line string) error {
	parsed := command.Parse(line)
	if parsed.Command == "" {
		return nil
	}
	cmd, ok := c.registry.Resolve(parsed.Command)
	if !ok {
		return fmt.Errorf("unknown command %q, try help", parsed.Command)
	}
	if len(parsed.Args) < cmd.MinArgs {
		return fmt.Errorf("usage: %s", cmd.Usage)
	}

	if cmd.IsTransaction() {
		tx, err := command.BuildTransaction(cmd, parsed.Args, c.who)
		if err != nil {
			return err
		}
		if !c.peer.Submit(ctx, tx) {
			return fmt.Errorf("%s refused", tx)
		}
		fmt.Fprintf(c.out, "submitted %s\n", tx)
		return nil
	}

	rctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	switch cmd.Handler {
	case command.HandlerClaim, command.HandlerRelease:
		slot, err := command.ParseSlot(parsed.Args[1])
		if err != nil {
			return err
		}
		op := c.client.Claim
		if cmd.Handler == command.HandlerRelease {
			op = c.client.Release
		}
		ok, err := op(rctx, parsed.Args[0], slot, c.who)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s %s %s: %t\n", cmd.Name, parsed.Args[0], slot, ok)
	case command.HandlerFloor:
		items, err := c.client.Floor(rctx, parsed.Args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintf(c.out, "nothing on the floor of %s\n", parsed.Args[0])
		}
		for _, it := range items {
			fmt.Fprintf(c.out, "%s %s\n", it.ID, it.Stack)
		}
	case command.HandlerShow:
		c.show(parsed.Args)
	case command.HandlerResync:
		if err := c.peer.Resync(rctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "resynced")
	case command.HandlerHelp:
		fmt.Fprint(c.out, c.registry.Help())
	case command.HandlerQuit:
		return ErrQuit
	}
	return nil
}

func (c *Console) show(args []string) {
	c.peer.With(func(e *transaction.Engine) {
		invs := e.Env().Inventories
		ids := args
		if len(ids) == 0 {
			ids = invs.IDs()
		}
		for _, id := range ids {
			inv, ok := invs.Inventory(id)
			if !ok {
				fmt.Fprintf(c.out, "%s: no such inventory\n", id)
				continue
			}
			fmt.Fprintf(c.out, "%s (%d items)\n", id, inv.ItemCount())
			for _, l := range inv.DebugContents() {
				fmt.Fprintf(c.out, "  %s\n", l)
			}
		}
		if n := e.PendingCount(); n > 0 {
			fmt.Fprintf(c.out, "%d pending\n", n)
		}
	})
}
