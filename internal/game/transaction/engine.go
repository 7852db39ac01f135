package transaction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/inventory"
)

// Role selects how an Engine treats submitted transactions.
type Role uint8

const (
	// RoleAuthority executes transactions and is the source of truth.
	RoleAuthority Role = iota
	// RolePredicting forwards transactions to an authority and applies
	// predictable ones locally ahead of confirmation.
	RolePredicting
)

// String returns "authority" or "predicting".
func (r Role) String() string {
	if r == RolePredicting {
		return "predicting"
	}
	return "authority"
}

// ParseRole converts a configured server mode to a Role. "client" is
// accepted as an alias for predicting.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "", "authority":
		return RoleAuthority, nil
	case "client", "predicting":
		return RolePredicting, nil
	}
	return RoleAuthority, fmt.Errorf("transaction: unknown role %q", s)
}

// Result is the authority's verdict on one forwarded transaction.
type Result struct {
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
}

// Forwarder sends transactions from a predicting peer to the authority.
// Results come back asynchronously through Engine.HandleResult.
type Forwarder interface {
	Forward(ctx context.Context, tx Transaction) error
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Role Role
	// HistoryLength bounds the undo history.
	HistoryLength int
	// Predictive enables local application of predictable transactions on
	// a predicting peer. When false every transaction waits for the
	// authority.
	Predictive bool
}

type pendingTx struct {
	tx        Transaction
	predicted bool
}

// Engine runs transactions for one peer. It is single-threaded: callers
// serialize Submit, HandleResult and ApplySnapshot.
type Engine struct {
	env        *Env
	role       Role
	predictive bool
	history    *History
	forwarder  Forwarder
	logger     *zap.Logger

	pending        []pendingTx
	awaitingResync bool
	stale          bool
}

// NewEngine returns an Engine over env. fwd is required for a predicting
// engine and ignored by an authority.
func NewEngine(env *Env, cfg EngineConfig, fwd Forwarder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		env:        env,
		role:       cfg.Role,
		predictive: cfg.Predictive,
		history:    NewHistory(cfg.HistoryLength),
		forwarder:  fwd,
		logger:     logger.With(zap.Stringer("role", cfg.Role)),
	}
}

// Role returns the engine's role.
func (e *Engine) Role() Role { return e.role }

// Env returns the engine's environment.
func (e *Engine) Env() *Env { return e.env }

// History returns the engine's history.
func (e *Engine) History() *History { return e.history }

// AwaitingResync reports whether the authority rejected a predicted
// transaction and no snapshot has been applied since.
func (e *Engine) AwaitingResync() bool { return e.awaitingResync }

// PendingCount returns the number of forwarded transactions without a result.
func (e *Engine) PendingCount() int { return len(e.pending) }

// NeedsSnapshot reports whether local state must be refreshed from the
// authority: after a rejected prediction, or after the authority applied a
// transaction this peer did not predict.
func (e *Engine) NeedsSnapshot() bool {
	return e.awaitingResync || e.stale
}

// ReadyForSnapshot reports whether a snapshot is needed and no forwarded
// transaction is still unresolved.
func (e *Engine) ReadyForSnapshot() bool {
	return e.NeedsSnapshot() && len(e.pending) == 0
}

// Submit runs tx according to the engine's role. An authority executes it
// and reports whether it succeeded. A predicting engine reports whether tx
// was accepted for forwarding; while awaiting resync it accepts nothing.
func (e *Engine) Submit(ctx context.Context, tx Transaction) bool {
	if e.role == RoleAuthority {
		return e.execute(tx)
	}
	if e.awaitingResync {
		e.logger.Debug("refusing transaction while awaiting resync", zap.Stringer("tx", tx))
		return false
	}
	if e.forwarder == nil {
		return false
	}

	predicted := false
	if e.predictive && AttemptPredict(tx) {
		if !e.execute(tx) {
			return false
		}
		predicted = true
	}
	if err := e.forwarder.Forward(ctx, tx); err != nil {
		e.logger.Warn("forwarding transaction failed", zap.Stringer("tx", tx), zap.Error(err))
		if predicted {
			e.awaitingResync = true
		}
		return false
	}
	e.pending = append(e.pending, pendingTx{tx: tx, predicted: predicted})
	return true
}

func (e *Engine) execute(tx Transaction) bool {
	if !e.env.CanExecute(tx) {
		return false
	}
	u := e.env.Execute(tx)
	if !u.Success {
		e.logger.Debug("transaction execution failed", zap.Stringer("tx", tx))
		return false
	}
	e.history.Push(Entry{Tx: tx, Undo: u})
	e.logger.Debug("transaction executed", zap.Stringer("tx", tx), zap.Int("history", e.history.Len()))
	return true
}

// HandleResult applies the authority's verdict on a forwarded transaction.
// A rejected prediction invalidates every prediction: the engine stops
// accepting transactions until ApplySnapshot succeeds. Results for unknown
// transactions are ignored.
func (e *Engine) HandleResult(r Result) {
	idx := -1
	for i, p := range e.pending {
		if p.tx.ID == r.TransactionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.logger.Debug("ignoring result for unknown transaction", zap.String("tx", r.TransactionID))
		return
	}
	p := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)

	switch {
	case !r.Success && p.predicted:
		e.logger.Warn("authority rejected predicted transaction, awaiting resync",
			zap.Stringer("tx", p.tx), zap.Int("history", e.history.Len()))
		e.awaitingResync = true
	case !r.Success:
		e.logger.Info("authority rejected transaction", zap.Stringer("tx", p.tx))
	case !p.predicted:
		e.stale = true
	}
}

// ApplySnapshot replaces local inventory state with authoritative
// snapshots and clears the history and the resync flag.
func (e *Engine) ApplySnapshot(snaps []inventory.Snapshot) error {
	for _, s := range snaps {
		inv, ok := e.env.inventory(s.ID)
		if !ok {
			return fmt.Errorf("transaction: snapshot for unknown inventory %q", s.ID)
		}
		if err := inv.Restore(s); err != nil {
			return fmt.Errorf("transaction: applying snapshot: %w", err)
		}
	}
	e.history.Clear()
	e.awaitingResync = false
	e.stale = len(e.pending) > 0
	for i := range e.pending {
		e.pending[i].predicted = false
	}
	e.logger.Info("authoritative snapshot applied", zap.Int("inventories", len(snaps)))
	return nil
}

// UndoLast reverses the most recent applied transaction. Only an authority
// undoes; predicting peers resync instead.
func (e *Engine) UndoLast() bool {
	if e.role != RoleAuthority {
		return false
	}
	entry, ok := e.history.Last()
	if !ok {
		return false
	}
	if !e.env.Undo(entry.Tx, entry.Undo) {
		e.logger.Debug("undo refused", zap.Stringer("tx", entry.Tx))
		return false
	}
	return e.history.StepBack()
}

// Redo re-executes the most recently undone transaction.
func (e *Engine) Redo() bool {
	if e.role != RoleAuthority {
		return false
	}
	entry, ok := e.history.Next()
	if !ok || !e.env.CanExecute(entry.Tx) {
		return false
	}
	u := e.env.Execute(entry.Tx)
	if !u.Success {
		return false
	}
	return e.history.StepForward(u)
}
