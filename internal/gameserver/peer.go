package gameserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/transaction"
)

const resyncTimeout = 5 * time.Second

// ClientPeer is a predicting peer: it owns the local engine, forwards
// through a Client, feeds results back into the engine and pulls a fresh
// snapshot whenever the engine asks for one.
type ClientPeer struct {
	mu     sync.Mutex
	engine *transaction.Engine
	client *Client
	ids    []string
	logger *zap.Logger

	stop chan struct{}
	once sync.Once
}

// NewClientPeer builds the predicting engine over env.
//
// Precondition: cfg.Role is transaction.RolePredicting; client is non-nil.
// Postcondition: Returns a ClientPeer; call Start to pump results.
func NewClientPeer(client *Client, env *transaction.Env, ids []string, cfg transaction.EngineConfig, logger *zap.Logger) *ClientPeer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientPeer{
		engine: transaction.NewEngine(env, cfg, client, logger),
		client: client,
		ids:    ids,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Submit runs tx through the local engine.
func (p *ClientPeer) Submit(ctx context.Context, tx transaction.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Submit(ctx, tx)
}

// With calls fn with the engine held exclusively.
func (p *ClientPeer) With(fn func(*transaction.Engine)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.engine)
}

// Start applies deliveries until Stop.
func (p *ClientPeer) Start() error {
	for {
		select {
		case <-p.stop:
			return nil
		case d := <-p.client.Deliveries():
			p.handle(d)
		}
	}
}

// Stop ends Start. Safe to call more than once.
func (p *ClientPeer) Stop() {
	p.once.Do(func() { close(p.stop) })
}

func (p *ClientPeer) handle(d Delivery) {
	p.mu.Lock()
	p.engine.HandleResult(d.Result)
	ready := p.engine.ReadyForSnapshot() || (d.Err != nil && p.engine.PendingCount() == 0)
	p.mu.Unlock()
	if !ready {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()
	if err := p.Resync(ctx); err != nil {
		p.logger.Error("resync failed", zap.Error(err))
	}
}

// Resync replaces local state with the authority's snapshots.
func (p *ClientPeer) Resync(ctx context.Context) error {
	snaps, err := p.client.Snapshot(ctx, p.ids...)
	if err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.ApplySnapshot(snaps)
}
