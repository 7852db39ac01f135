package item

import "fmt"

// ItemStack is a quantity of one item definition plus per-stack state.
//
// A stack with StackSize <= 0 or no Definition is empty; all empty stacks
// compare equal regardless of their remaining fields.
type ItemStack struct {
	// Definition is the catalog key of the item.
	Definition string `json:"definition"`
	StackSize  int    `json:"stack_size"`
	// Custom1 and Custom2 carry small item-specific state such as
	// durability or charge.
	Custom1 int32 `json:"custom1,omitempty"`
	Custom2 int32 `json:"custom2,omitempty"`
	// Instance is set only for definitions that require per-instance state.
	Instance Instance `json:"-"`
	// Handle is the stack's own pool entry, NoHandle when not pooled.
	Handle Handle `json:"handle"`
}

// NewStack returns an unpooled stack of size units of definition.
func NewStack(definition string, size int) ItemStack {
	return ItemStack{Definition: definition, StackSize: size, Handle: NoHandle}
}

// Empty returns the canonical empty stack.
func Empty() ItemStack {
	return ItemStack{Handle: NoHandle}
}

// IsValid reports whether the stack holds at least one unit of a definition.
func (s ItemStack) IsValid() bool {
	return s.StackSize > 0 && s.Definition != ""
}

// Equal compares item content. The pool handle is not part of the
// comparison.
func (s ItemStack) Equal(o ItemStack) bool {
	if !s.IsValid() || !o.IsValid() {
		return s.IsValid() == o.IsValid()
	}
	return s.Definition == o.Definition &&
		s.StackSize == o.StackSize &&
		s.Custom1 == o.Custom1 &&
		s.Custom2 == o.Custom2 &&
		s.Instance == o.Instance
}

// CanStackWith reports whether o could be merged into s without exceeding
// maxStack. Stacks carrying runtime instances never stack.
func (s ItemStack) CanStackWith(o ItemStack, maxStack int) bool {
	if !s.IsValid() || !o.IsValid() {
		return false
	}
	if s.Definition != o.Definition || s.Custom1 != o.Custom1 || s.Custom2 != o.Custom2 {
		return false
	}
	if s.Instance != nil || o.Instance != nil {
		return false
	}
	if maxStack <= 0 {
		return false
	}
	return s.StackSize+o.StackSize <= maxStack
}

// IsFull reports whether the stack has reached maxStack.
func (s ItemStack) IsFull(maxStack int) bool {
	return s.StackSize >= maxStack
}

// String renders the stack for logs.
func (s ItemStack) String() string {
	if !s.IsValid() {
		return "Stack[empty]"
	}
	return fmt.Sprintf("Stack[%s x%d]", s.Definition, s.StackSize)
}
