package item

import "fmt"

type poolEntry struct {
	stack      ItemStack
	generation uint8
	occupied   bool
}

// Pool owns the live item stacks of one inventory and issues generational
// handles over a reusable entry array. Capacity only grows until Clear.
//
// Pool is not safe for concurrent use; it is mutated only from inside a
// transaction on its owning peer.
type Pool struct {
	entries []poolEntry
	free    []uint32
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{}
}

// CreateItem pools a new stack of size units of definition.
//
// Postcondition: returns NoHandle iff definition is empty, size <= 0, or the
// pool is at MaxIndex capacity.
func (p *Pool) CreateItem(definition string, size int) Handle {
	return p.Create(NewStack(definition, size))
}

// Create pools a copy of stack and returns its handle. The stored copy's
// Handle field is set to the returned handle.
func (p *Pool) Create(stack ItemStack) Handle {
	if !stack.IsValid() {
		return NoHandle
	}
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		if len(p.entries) > MaxIndex {
			return NoHandle
		}
		idx = uint32(len(p.entries))
		p.entries = append(p.entries, poolEntry{})
	}
	e := &p.entries[idx]
	h := NewHandle(idx, e.generation)
	stack.Handle = h
	e.stack = stack
	e.occupied = true
	return h
}

// ValidateHandle reports whether h refers to a live entry of this pool.
func (p *Pool) ValidateHandle(h Handle) bool {
	if h.IsNone() {
		return false
	}
	idx := h.Index()
	if int(idx) >= len(p.entries) {
		return false
	}
	e := p.entries[idx]
	return e.occupied && e.generation == h.Generation()
}

// Stack returns the stack behind h, or Empty when h is not valid.
func (p *Pool) Stack(h Handle) ItemStack {
	if !p.ValidateHandle(h) {
		return Empty()
	}
	return p.entries[h.Index()].stack
}

// Set replaces the stack behind h, keeping its Handle field. Returns false
// when h is not valid or stack is empty.
func (p *Pool) Set(h Handle, stack ItemStack) bool {
	if !p.ValidateHandle(h) || !stack.IsValid() {
		return false
	}
	stack.Handle = h
	p.entries[h.Index()].stack = stack
	return true
}

// RemoveItem clears the entry behind h and advances its generation so that
// every copy of h becomes permanently invalid.
func (p *Pool) RemoveItem(h Handle) bool {
	if !p.ValidateHandle(h) {
		return false
	}
	idx := h.Index()
	e := &p.entries[idx]
	e.stack = Empty()
	e.occupied = false
	e.generation++
	p.free = append(p.free, idx)
	return true
}

// ActiveCount returns the number of occupied entries.
func (p *Pool) ActiveCount() int {
	return len(p.entries) - len(p.free)
}

// FreeCount returns the number of entries awaiting reuse.
func (p *Pool) FreeCount() int {
	return len(p.free)
}

// Capacity returns the total number of entries ever allocated.
func (p *Pool) Capacity() int {
	return len(p.entries)
}

// Clear drops every entry and resets capacity to zero.
func (p *Pool) Clear() {
	p.entries = nil
	p.free = nil
}

// Each calls fn for every live stack in index order.
func (p *Pool) Each(fn func(h Handle, s ItemStack)) {
	for i, e := range p.entries {
		if e.occupied {
			fn(NewHandle(uint32(i), e.generation), e.stack)
		}
	}
}

// PoolEntry is the serializable form of one pool entry.
type PoolEntry struct {
	Stack      ItemStack `json:"stack"`
	Generation uint8     `json:"generation"`
	Occupied   bool      `json:"occupied"`
}

// PoolSnapshot is the serializable form of a whole pool.
type PoolSnapshot struct {
	Entries []PoolEntry `json:"entries"`
	Free    []uint32    `json:"free"`
}

// Snapshot copies the pool state. Runtime instances are not captured.
func (p *Pool) Snapshot() PoolSnapshot {
	s := PoolSnapshot{
		Entries: make([]PoolEntry, len(p.entries)),
		Free:    append([]uint32(nil), p.free...),
	}
	for i, e := range p.entries {
		st := e.stack
		st.Instance = nil
		s.Entries[i] = PoolEntry{Stack: st, Generation: e.generation, Occupied: e.occupied}
	}
	return s
}

// RestorePool rebuilds a Pool from a snapshot.
//
// Postcondition: returns an error if the free list and occupancy flags
// disagree.
func RestorePool(s PoolSnapshot) (*Pool, error) {
	p := &Pool{
		entries: make([]poolEntry, len(s.Entries)),
		free:    append([]uint32(nil), s.Free...),
	}
	seen := make(map[uint32]bool, len(s.Free))
	for _, idx := range s.Free {
		if int(idx) >= len(s.Entries) || seen[idx] || s.Entries[idx].Occupied {
			return nil, fmt.Errorf("item: pool snapshot free list entry %d is invalid", idx)
		}
		seen[idx] = true
	}
	for i, e := range s.Entries {
		if !e.Occupied && !seen[uint32(i)] {
			return nil, fmt.Errorf("item: pool snapshot entry %d is neither occupied nor free", i)
		}
		st := e.Stack
		if e.Occupied && !st.IsValid() {
			return nil, fmt.Errorf("item: pool snapshot entry %d is occupied by an empty stack", i)
		}
		if e.Occupied {
			st.Handle = NewHandle(uint32(i), e.Generation)
		} else {
			st = Empty()
		}
		p.entries[i] = poolEntry{stack: st, generation: e.Generation, occupied: e.Occupied}
	}
	return p, nil
}
