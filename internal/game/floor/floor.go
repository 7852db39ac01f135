// Package floor keeps item stacks lying on room floors. Manager is the world
// collaborator the transaction engine spawns dropped items into and loots
// them from.
package floor

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/item"
	"github.com/cory-johannsen/stash/internal/game/transaction"
)

// Item is one stack on a floor. It implements transaction.WorldItem.
type Item struct {
	id    string
	room  string
	stack item.ItemStack
	m     *Manager
}

// ID returns the item's world ID.
func (it *Item) ID() string { return it.id }

// Room returns the room the item lies in.
func (it *Item) Room() string { return it.room }

// SetItemStack replaces the stack lying on the floor. An empty stack
// removes the item.
func (it *Item) SetItemStack(stack item.ItemStack) {
	it.m.mu.Lock()
	defer it.m.mu.Unlock()
	if !stack.IsValid() {
		it.m.remove(it.id)
		return
	}
	stack.Handle = item.NoHandle
	it.stack = stack
}

// GetItemStack returns the stack lying on the floor.
func (it *Item) GetItemStack() item.ItemStack {
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()
	return it.stack
}

// OnLooted leaves excess units on the floor, removing the item when
// nothing is left.
func (it *Item) OnLooted(instigator claim.ControllerID, stack item.ItemStack, excess int) {
	it.m.mu.Lock()
	defer it.m.mu.Unlock()
	it.m.logger.Debug("floor item looted",
		zap.String("item", it.id), zap.String("by", string(instigator)),
		zap.Stringer("stack", stack), zap.Int("excess", excess))
	if excess <= 0 {
		it.m.remove(it.id)
		return
	}
	it.stack.StackSize = excess
}

// Snapshot is a copy of one floor item.
type Snapshot struct {
	ID    string         `json:"id"`
	Room  string         `json:"room"`
	Stack item.ItemStack `json:"stack"`
}

// Manager tracks item stacks on the floor of rooms.
// It is thread-safe via sync.RWMutex.
type Manager struct {
	mu     sync.RWMutex
	rooms  map[string][]*Item
	byID   map[string]*Item
	logger *zap.Logger
}

// NewManager creates a Manager with no items on any floor.
//
// Postcondition: returned Manager is ready for use with zero items.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		rooms:  make(map[string][]*Item),
		byID:   make(map[string]*Item),
		logger: logger,
	}
}

// Spawn places stack on the floor of room.
//
// Precondition: room is non-empty.
// Postcondition: on success the stack is appended to the room's floor items
// under a fresh ID; invalid stacks are refused.
func (m *Manager) Spawn(room string, stack item.ItemStack) (string, bool) {
	if room == "" || !stack.IsValid() {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stack.Handle = item.NoHandle
	it := &Item{id: uuid.New().String(), room: room, stack: stack, m: m}
	m.rooms[room] = append(m.rooms[room], it)
	m.byID[it.id] = it
	m.logger.Debug("item spawned on floor", zap.String("room", room), zap.String("item", it.id), zap.Stringer("stack", stack))
	return it.id, true
}

// WorldItem returns the floor item with the given ID.
func (m *Manager) WorldItem(id string) (transaction.WorldItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return it, true
}

// Despawn removes the item with the given ID.
func (m *Manager) Despawn(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(id)
}

// Pickup removes and returns the stack with the given ID from the room.
// Returns false if the item is not found.
//
// Postcondition: on failure, room state is unchanged.
func (m *Manager) Pickup(room, id string) (item.ItemStack, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byID[id]
	if !ok || it.room != room {
		return item.Empty(), false
	}
	m.remove(id)
	return it.stack, true
}

// PickupAll removes and returns all stacks from the room's floor.
//
// Postcondition: the room's floor is empty.
func (m *Manager) PickupAll(room string) []item.ItemStack {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.rooms[room]
	out := make([]item.ItemStack, 0, len(items))
	for _, it := range items {
		out = append(out, it.stack)
		delete(m.byID, it.id)
	}
	delete(m.rooms, room)
	return out
}

// ItemsInRoom returns a snapshot copy of all items on the floor of the room.
//
// Postcondition: returned slice is a copy; mutations do not affect internal state.
func (m *Manager) ItemsInRoom(room string) []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.rooms[room]
	out := make([]Snapshot, len(items))
	for i, it := range items {
		out[i] = Snapshot{ID: it.id, Room: it.room, Stack: it.stack}
	}
	return out
}

// remove requires m.mu to be held for writing.
func (m *Manager) remove(id string) bool {
	it, ok := m.byID[id]
	if !ok {
		return false
	}
	delete(m.byID, id)
	items := m.rooms[it.room]
	for i, cand := range items {
		if cand == it {
			m.rooms[it.room] = append(items[:i], items[i+1:]...)
			break
		}
	}
	if len(m.rooms[it.room]) == 0 {
		delete(m.rooms, it.room)
	}
	return true
}
