package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/game/item"
)

// acceptsHook is the global function a filter script must define.
const acceptsHook = "accepts"

// Filter is a compiled Lua predicate over item definitions. The script
// defines a global function accepts(item) returning a boolean; item is a
// table with id, name, type, tags, width, height, max_stack_size, weight
// and instanced fields.
//
// Filter is safe for concurrent use; calls are serialized on one VM.
type Filter struct {
	mu        sync.Mutex
	name      string
	L         *lua.LState
	instLimit int
	logger    *zap.Logger
}

// CompileFilter runs src in a fresh sandbox and checks that it defines
// accepts.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit for loading
// and for every call.
// Postcondition: on error no VM is left open.
func CompileFilter(name, src string, instLimit int, logger *zap.Logger) (*Filter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	L := NewSandboxedState()
	done := withBudget(L, instLimit)
	err := L.DoString(src)
	done()
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading filter %q: %w", name, err)
	}
	if fn, ok := L.GetGlobal(acceptsHook).(*lua.LFunction); !ok || fn == nil {
		L.Close()
		return nil, fmt.Errorf("scripting: filter %q does not define function %s(item)", name, acceptsHook)
	}
	return &Filter{name: name, L: L, instLimit: instLimit, logger: logger}, nil
}

// Name returns the name the filter was compiled under.
func (f *Filter) Name() string {
	return f.name
}

// Accepts calls the script's accepts function. Runtime errors and budget
// exhaustion are logged at Warn level and reject the item.
func (f *Filter) Accepts(def *item.Definition) bool {
	if def == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	done := withBudget(f.L, f.instLimit)
	defer done()
	if err := f.L.CallByParam(lua.P{
		Fn:      f.L.GetGlobal(acceptsHook),
		NRet:    1,
		Protect: true,
	}, definitionTable(f.L, def)); err != nil {
		f.logger.Warn("scripting: filter runtime error",
			zap.String("filter", f.name),
			zap.String("item", def.ID),
			zap.Error(err),
		)
		return false
	}
	ret := f.L.Get(-1)
	f.L.Pop(1)
	return lua.LVAsBool(ret)
}

// Close releases the VM.
func (f *Filter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.L.Close()
}

func definitionTable(L *lua.LState, def *item.Definition) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(def.ID))
	t.RawSetString("name", lua.LString(def.Name))
	t.RawSetString("type", lua.LString(def.Type))
	t.RawSetString("width", lua.LNumber(def.Width))
	t.RawSetString("height", lua.LNumber(def.Height))
	t.RawSetString("max_stack_size", lua.LNumber(def.MaxStackSize))
	t.RawSetString("weight", lua.LNumber(def.Weight))
	t.RawSetString("instanced", lua.LBool(def.RequiresRuntimeInstance))
	tags := L.NewTable()
	for _, tag := range def.Tags {
		tags.Append(lua.LString(tag))
	}
	t.RawSetString("tags", tags)
	return t
}

// Manager owns the compiled filters of one process, keyed by name.
type Manager struct {
	mu        sync.Mutex
	filters   map[string]*Filter
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager whose filters share instLimit.
//
// Postcondition: Returns a non-nil Manager with no filters.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{filters: make(map[string]*Filter), instLimit: instLimit, logger: logger}
}

// Compile compiles src under name, replacing and closing any previous
// filter of that name.
func (m *Manager) Compile(name, src string) (*Filter, error) {
	f, err := CompileFilter(name, src, m.instLimit, m.logger)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.filters[name]; ok {
		old.Close()
	}
	m.filters[name] = f
	return f, nil
}

// Filter returns the filter compiled under name.
func (m *Manager) Filter(name string) (*Filter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.filters[name]
	return f, ok
}

// Close closes every filter.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, f := range m.filters {
		f.Close()
		delete(m.filters, name)
	}
}
