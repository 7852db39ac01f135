package gameserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/floor"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/inventory"
	"github.com/cory-johannsen/stash/internal/game/transaction"
)

// InventoryServer implements InventoryService on the authority. All engine
// and inventory access is serialized on one mutex.
type InventoryServer struct {
	mu          sync.Mutex
	engine      *transaction.Engine
	inventories transaction.Inventories
	floor       *floor.Manager
	logger      *zap.Logger
}

// NewInventoryServer creates an InventoryServer.
//
// Precondition: engine must be an authority engine whose Env resolves the
// same inventories as invs; world may be nil when no floor is served.
// Postcondition: Returns a non-nil InventoryServer.
func NewInventoryServer(engine *transaction.Engine, invs transaction.Inventories, world *floor.Manager, logger *zap.Logger) *InventoryServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryServer{engine: engine, inventories: invs, floor: world, logger: logger}
}

// Submit implements InventoryService. Refused transactions are reported as
// an unsuccessful Result, not an RPC error.
func (s *InventoryServer) Submit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := validateTransaction(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var tx transaction.Transaction
	if err := decode(in, &tx); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := tx.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if tx.Instigator == "" {
		return nil, status.Errorf(codes.InvalidArgument, "transaction %s has no instigator", tx.ID)
	}

	s.mu.Lock()
	ok := s.engine.Submit(ctx, tx)
	s.mu.Unlock()

	s.logger.Debug("transaction submitted",
		zap.Stringer("tx", tx),
		zap.String("instigator", string(tx.Instigator)),
		zap.Bool("success", ok),
	)
	return encode(transaction.Result{TransactionID: tx.ID, Success: ok})
}

// Snapshot implements InventoryService.
func (s *InventoryServer) Snapshot(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req snapshotRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ids := req.Inventories
	if len(ids) == 0 {
		ids = s.inventories.IDs()
	}

	s.mu.Lock()
	resp := snapshotResponse{Inventories: make([]inventory.Snapshot, 0, len(ids))}
	for _, id := range ids {
		inv, ok := s.inventories.Inventory(id)
		if !ok {
			s.mu.Unlock()
			return nil, status.Errorf(codes.NotFound, "inventory %q not found", id)
		}
		resp.Inventories = append(resp.Inventories, inv.Snapshot())
	}
	s.mu.Unlock()
	return encode(resp)
}

// Claim implements InventoryService.
func (s *InventoryServer) Claim(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.claimOp(in, (*inventory.Inventory).Claim)
}

// Release implements InventoryService.
func (s *InventoryServer) Release(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.claimOp(in, (*inventory.Inventory).Release)
}

func (s *InventoryServer) claimOp(in *structpb.Struct, op func(*inventory.Inventory, claim.ControllerID, grid.SlotHandle) bool) (*structpb.Struct, error) {
	var req claimRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.Controller == "" {
		return nil, status.Error(codes.InvalidArgument, "claim request has no controller")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.inventories.Inventory(req.Inventory)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "inventory %q not found", req.Inventory)
	}
	return encode(claimResponse{Granted: op(inv, req.Controller, req.Slot)})
}

// Floor implements InventoryService.
func (s *InventoryServer) Floor(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req floorRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.floor == nil {
		return nil, status.Error(codes.Unimplemented, "no world floor on this peer")
	}
	return encode(floorResponse{Items: s.floor.ItemsInRoom(req.Room)})
}

// SweepClaims drops expired claims from every inventory.
func (s *InventoryServer) SweepClaims(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, id := range s.inventories.IDs() {
		inv, _ := s.inventories.Inventory(id)
		total += inv.Claims().Sweep()
	}
	if total > 0 {
		s.logger.Debug("expired claims swept", zap.Int("count", total), zap.Time("at", now))
	}
}

// UndoLast reverses the authority's most recent transaction.
func (s *InventoryServer) UndoLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.UndoLast()
}

// Redo re-applies the most recently undone transaction.
func (s *InventoryServer) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Redo()
}
