package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/floor"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/inventory"
	"github.com/cory-johannsen/stash/internal/game/transaction"
)

// ErrClientStopped is returned by Forward after Stop.
var ErrClientStopped = errors.New("gameserver: client stopped")

// ErrOutboxFull is returned by Forward when the send queue is full.
var ErrOutboxFull = errors.New("gameserver: outbox full")

const (
	outboxSize    = 64
	submitTimeout = 5 * time.Second
)

// Delivery is the outcome of one forwarded transaction. Err is set when the
// authority could not be reached; Result then reports failure.
type Delivery struct {
	Result transaction.Result
	Err    error
}

// Client talks to an authority's InventoryService. It implements
// transaction.Forwarder: forwarded transactions are sent in order by Start
// and their outcomes appear on Deliveries.
type Client struct {
	conn       *grpc.ClientConn
	outbox     chan transaction.Transaction
	deliveries chan Delivery
	stop       chan struct{}
	once       sync.Once
	logger     *zap.Logger
}

// Dial connects to the authority at addr. Without options the connection is
// insecure. Every call is zstd-compressed.
//
// Postcondition: Returns a Client or a non-nil error.
func Dial(addr string, logger *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	opts = append(opts, grpc.WithDefaultCallOptions(grpc.UseCompressor(Zstd)))
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("gameserver: dialing %s: %w", addr, err)
	}
	return NewClient(conn, logger), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		conn:       conn,
		outbox:     make(chan transaction.Transaction, outboxSize),
		deliveries: make(chan Delivery, outboxSize),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

// Forward implements transaction.Forwarder. It only queues tx.
func (c *Client) Forward(ctx context.Context, tx transaction.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.stop:
		return ErrClientStopped
	default:
	}
	select {
	case c.outbox <- tx:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Deliveries returns the channel of forwarded transaction outcomes.
func (c *Client) Deliveries() <-chan Delivery {
	return c.deliveries
}

// Start sends queued transactions one at a time until Stop.
func (c *Client) Start() error {
	for {
		select {
		case <-c.stop:
			return nil
		case tx := <-c.outbox:
			d := c.send(tx)
			select {
			case c.deliveries <- d:
			case <-c.stop:
				return nil
			}
		}
	}
}

func (c *Client) send(tx transaction.Transaction) Delivery {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	var r transaction.Result
	if err := c.call(ctx, methodSubmit, tx, &r); err != nil {
		c.logger.Warn("submitting transaction failed", zap.Stringer("tx", tx), zap.Error(err))
		return Delivery{Result: transaction.Result{TransactionID: tx.ID}, Err: err}
	}
	return Delivery{Result: r}
}

// Stop ends Start and makes Forward refuse. Safe to call more than once.
func (c *Client) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// Close stops the client and closes the connection.
func (c *Client) Close() error {
	c.Stop()
	return c.conn.Close()
}

// Snapshot fetches authoritative snapshots of ids, or of every inventory
// when ids is empty.
func (c *Client) Snapshot(ctx context.Context, ids ...string) ([]inventory.Snapshot, error) {
	var resp snapshotResponse
	if err := c.call(ctx, methodSnapshot, snapshotRequest{Inventories: ids}, &resp); err != nil {
		return nil, err
	}
	return resp.Inventories, nil
}

// Claim asks the authority to mark slot pending for controller.
func (c *Client) Claim(ctx context.Context, inv string, slot grid.SlotHandle, controller claim.ControllerID) (bool, error) {
	var resp claimResponse
	err := c.call(ctx, methodClaim, claimRequest{Inventory: inv, Slot: slot, Controller: controller}, &resp)
	return resp.Granted, err
}

// Release asks the authority to clear controller's claim on slot.
func (c *Client) Release(ctx context.Context, inv string, slot grid.SlotHandle, controller claim.ControllerID) (bool, error) {
	var resp claimResponse
	err := c.call(ctx, methodRelease, claimRequest{Inventory: inv, Slot: slot, Controller: controller}, &resp)
	return resp.Granted, err
}

// Floor lists the world items in room.
func (c *Client) Floor(ctx context.Context, room string) ([]floor.Snapshot, error) {
	var resp floorResponse
	if err := c.call(ctx, methodFloor, floorRequest{Room: room}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	in, err := encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return fmt.Errorf("gameserver: %s: %w", method, err)
	}
	return decode(out, resp)
}
