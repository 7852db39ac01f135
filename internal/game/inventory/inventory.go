// Package inventory implements the grid inventory aggregate: an ordered list
// of tabs over a flat slot sequence, a per-inventory item pool, per-slot
// claims, and the placement operations every transaction is built from.
//
// An Inventory is owned by one peer and is not safe for concurrent use. All
// mutation happens synchronously; callers that share an Inventory across
// goroutines serialize access themselves.
package inventory

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// Slot is one grid cell. Only the anchor cell of a multi-cell item holds
// its handle; covered cells stay empty and are found through occupancy.
type Slot struct {
	Item        item.Handle      `json:"item"`
	Orientation grid.Orientation `json:"orientation"`
	Locked      bool             `json:"locked"`
	Handle      grid.SlotHandle  `json:"handle"`
}

// IsEmpty reports whether the slot references no item.
func (s Slot) IsEmpty() bool {
	return s.Item.IsNone()
}

type section struct {
	tab    grid.Tab
	filter Filter
}

// Inventory is the grid container aggregate.
type Inventory struct {
	id      string
	catalog item.Catalog
	factory item.InstanceFactory
	logger  *zap.Logger

	pool     *item.Pool
	sections []section
	slots    []Slot
	claims   *claim.Registry

	listeners  []listenerEntry
	nextListen int
	dirty      map[int]struct{}
	version    uint64
}

// Option configures an Inventory at construction.
type Option func(*Inventory)

// WithID sets the inventory ID. The default is a random UUID.
func WithID(id string) Option {
	return func(inv *Inventory) { inv.id = id }
}

// WithLogger sets the logger. nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(inv *Inventory) {
		if logger != nil {
			inv.logger = logger
		}
	}
}

// WithInstanceFactory sets the factory used for definitions that require a
// runtime instance. nil disables instance creation.
func WithInstanceFactory(f item.InstanceFactory) Option {
	return func(inv *Inventory) { inv.factory = f }
}

// WithClaimTTL sets how long a claim stays live. Zero disables expiry.
func WithClaimTTL(ttl time.Duration) Option {
	return func(inv *Inventory) { inv.claims = claim.NewRegistry(ttl) }
}

// New returns an empty Inventory with no tabs.
//
// Precondition: catalog is non-nil.
func New(catalog item.Catalog, opts ...Option) *Inventory {
	inv := &Inventory{
		id:      uuid.New().String(),
		catalog: catalog,
		factory: item.NewRuntimeInstance,
		logger:  zap.NewNop(),
		pool:    item.NewPool(),
		claims:  claim.NewRegistry(0),
		dirty:   make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(inv)
	}
	inv.logger = inv.logger.With(zap.String("inventory", inv.id))
	return inv
}

// ID returns the inventory's identifier. It satisfies item.Owner.
func (inv *Inventory) ID() string {
	return inv.id
}

// Pool exposes the inventory's item pool for read access.
func (inv *Inventory) Pool() *item.Pool {
	return inv.pool
}

// Claims exposes the inventory's claim registry.
func (inv *Inventory) Claims() *claim.Registry {
	return inv.claims
}

// Catalog returns the definition catalog the inventory resolves items with.
func (inv *Inventory) Catalog() item.Catalog {
	return inv.catalog
}

// AddTab appends an unfiltered tab that respects item size and returns its
// index, or -1 if either dimension is not positive.
func (inv *Inventory) AddTab(id string, width, height int) int {
	return inv.AddSection(SectionConfig{ID: id, Width: width, Height: height})
}

// AddSection appends a tab described by cfg and returns its index, or -1 if
// either dimension is not positive.
//
// Postcondition: the new tab's FirstSlotIndex equals the previous SlotCount
// and every new slot carries its own SlotHandle.
func (inv *Inventory) AddSection(cfg SectionConfig) int {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		inv.logger.Warn("rejecting tab with non-positive dimensions",
			zap.String("tab", cfg.ID), zap.Int("width", cfg.Width), zap.Int("height", cfg.Height))
		return -1
	}
	ti := len(inv.sections)
	tab := grid.Tab{
		ID:             cfg.ID,
		Width:          cfg.Width,
		Height:         cfg.Height,
		FirstSlotIndex: len(inv.slots),
		SizePolicy:     cfg.SizePolicy,
	}
	inv.sections = append(inv.sections, section{tab: tab, filter: cfg.Filter})
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			inv.slots = append(inv.slots, Slot{Item: item.NoHandle, Handle: grid.NewSlotHandle(ti, x, y)})
		}
	}
	return ti
}

// TabCount implements grid.Layout.
func (inv *Inventory) TabCount() int {
	return len(inv.sections)
}

// Tab implements grid.Layout.
func (inv *Inventory) Tab(i int) grid.Tab {
	return inv.sections[i].tab
}

// SlotCount implements grid.Layout.
func (inv *Inventory) SlotCount() int {
	return len(inv.slots)
}

// Footprint implements grid.Layout. A live item whose definition is missing
// from the catalog still occupies its anchor cell.
func (inv *Inventory) Footprint(i int) (grid.Footprint, bool) {
	if i < 0 || i >= len(inv.slots) {
		return grid.Footprint{}, false
	}
	s := inv.slots[i]
	stack := inv.pool.Stack(s.Item)
	if !stack.IsValid() {
		return grid.Footprint{}, false
	}
	def, ok := inv.catalog.Lookup(stack.Definition)
	if !ok {
		return grid.Footprint{Width: 1, Height: 1}, true
	}
	return def.Footprint().Oriented(s.Orientation), true
}

// GetSlotIndex converts (tab, x, y) into an absolute slot index.
// ok is false when tab is out of range or (x, y) lies outside it.
func (inv *Inventory) GetSlotIndex(tab, x, y int) (int, bool) {
	if tab < 0 || tab >= len(inv.sections) {
		return 0, false
	}
	t := inv.sections[tab].tab
	if !t.Contains(x, y) {
		return 0, false
	}
	return t.Index(x, y), true
}

// SlotIndex is GetSlotIndex for a SlotHandle; uninitialized handles fail.
func (inv *Inventory) SlotIndex(h grid.SlotHandle) (int, bool) {
	if !h.IsValid() {
		return 0, false
	}
	return inv.GetSlotIndex(h.Tab, h.X, h.Y)
}

// HandleAt returns the SlotHandle of absolute slot index i.
func (inv *Inventory) HandleAt(i int) (grid.SlotHandle, bool) {
	if i < 0 || i >= len(inv.slots) {
		return grid.SlotHandle{}, false
	}
	return inv.slots[i].Handle, true
}

// SlotByHandle returns the slot addressed by h.
func (inv *Inventory) SlotByHandle(h grid.SlotHandle) (Slot, bool) {
	idx, ok := inv.SlotIndex(h)
	if !ok {
		return Slot{}, false
	}
	return inv.slots[idx], true
}

// SetSlotByHandle overwrites the slot addressed by h. The slot's own Handle
// is preserved whatever s carries.
//
// Postcondition: on success the slot is journaled dirty and a Changed event
// is emitted.
func (inv *Inventory) SetSlotByHandle(h grid.SlotHandle, s Slot) bool {
	idx, ok := inv.SlotIndex(h)
	if !ok {
		return false
	}
	s.Handle = inv.slots[idx].Handle
	inv.slots[idx] = s
	inv.emit(idx, ChangeChanged)
	return true
}

// ItemHandleAt returns the handle anchored at slot, or NoHandle.
func (inv *Inventory) ItemHandleAt(slot grid.SlotHandle) item.Handle {
	s, ok := inv.SlotByHandle(slot)
	if !ok {
		return item.NoHandle
	}
	return s.Item
}

// ItemAt returns the live stack anchored at slot, or an empty stack.
func (inv *Inventory) ItemAt(slot grid.SlotHandle) item.ItemStack {
	return inv.pool.Stack(inv.ItemHandleAt(slot))
}

// HasItemAt reports whether a live stack is anchored at slot.
func (inv *Inventory) HasItemAt(slot grid.SlotHandle) bool {
	return inv.ItemAt(slot).IsValid()
}

// ItemLocation returns the anchor slot of the item behind h.
func (inv *Inventory) ItemLocation(h item.Handle) (grid.SlotHandle, bool) {
	if !inv.pool.ValidateHandle(h) {
		return grid.SlotHandle{}, false
	}
	for _, s := range inv.slots {
		if s.Item == h {
			return s.Handle, true
		}
	}
	return grid.SlotHandle{}, false
}

// Definition resolves the definition of the item behind h.
func (inv *Inventory) Definition(h item.Handle) (*item.Definition, bool) {
	stack := inv.pool.Stack(h)
	if !stack.IsValid() {
		return nil, false
	}
	return inv.catalog.Lookup(stack.Definition)
}

// SetLocked sets the locked flag of slot. Locked slots accept no placement
// and their items cannot be moved or dropped.
func (inv *Inventory) SetLocked(slot grid.SlotHandle, locked bool) bool {
	idx, ok := inv.SlotIndex(slot)
	if !ok {
		return false
	}
	if inv.slots[idx].Locked == locked {
		return true
	}
	inv.slots[idx].Locked = locked
	inv.emit(idx, ChangeChanged)
	return true
}

// Accepts reports whether tab's filter admits def.
func (inv *Inventory) Accepts(tab int, def *item.Definition) bool {
	if tab < 0 || tab >= len(inv.sections) || def == nil {
		return false
	}
	f := inv.sections[tab].filter
	return f == nil || f.Accepts(def)
}

// ItemCount returns the number of slots anchoring a live item.
func (inv *Inventory) ItemCount() int {
	n := 0
	for _, s := range inv.slots {
		if inv.pool.ValidateHandle(s.Item) {
			n++
		}
	}
	return n
}

func (inv *Inventory) setInstanceLocation(stack item.ItemStack, slot grid.SlotHandle) {
	if stack.Instance == nil {
		return
	}
	stack.Instance.SetOwningInventory(inv)
	stack.Instance.SetSlotHandle(slot)
}
