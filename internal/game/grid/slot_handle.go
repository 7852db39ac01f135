package grid

import "fmt"

// SlotHandle identifies one grid cell by tab index and local coordinates.
// The zero value is uninitialized and therefore invalid.
type SlotHandle struct {
	Tab         int  `json:"tab"`
	X           int  `json:"x"`
	Y           int  `json:"y"`
	Initialized bool `json:"initialized"`
}

// NewSlotHandle returns an initialized handle for (tab, x, y).
func NewSlotHandle(tab, x, y int) SlotHandle {
	return SlotHandle{Tab: tab, X: x, Y: y, Initialized: true}
}

// IsValid reports whether the handle was initialized with non-negative
// coordinates. Bounds against a concrete tab are checked by the owner of the
// layout.
func (h SlotHandle) IsValid() bool {
	return h.Initialized && h.Tab >= 0 && h.X >= 0 && h.Y >= 0
}

// String renders the handle for logs.
func (h SlotHandle) String() string {
	if !h.Initialized {
		return "Slot[invalid]"
	}
	return fmt.Sprintf("Slot[tab:%d,x:%d,y:%d]", h.Tab, h.X, h.Y)
}
