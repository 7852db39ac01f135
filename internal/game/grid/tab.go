// Package grid implements the spatial side of an inventory: tab geometry,
// slot addressing, occupancy computation and first-fit placement of
// multi-cell items. It has no knowledge of item definitions; callers supply
// footprints through the Layout interface.
package grid

import (
	"fmt"
	"strings"
)

// Orientation controls how an item's footprint is laid over the grid.
type Orientation uint8

const (
	// Horizontal places the footprint as declared by the item definition.
	Horizontal Orientation = iota
	// Vertical transposes the declared footprint.
	Vertical
)

// String returns "horizontal" or "vertical".
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// SizePolicy selects how a tab treats item footprints.
type SizePolicy uint8

const (
	// RespectSize applies normal grid rules.
	RespectSize SizePolicy = iota
	// IgnoreSize treats every item as 1x1, e.g. equipment or hotbar slots.
	IgnoreSize
)

// String returns "respect" or "ignore".
func (p SizePolicy) String() string {
	if p == IgnoreSize {
		return "ignore"
	}
	return "respect"
}

// ParseSizePolicy converts a configuration string to a SizePolicy.
// The empty string maps to RespectSize.
func ParseSizePolicy(s string) (SizePolicy, error) {
	switch strings.ToLower(s) {
	case "", "respect":
		return RespectSize, nil
	case "ignore":
		return IgnoreSize, nil
	default:
		return RespectSize, fmt.Errorf("grid: unknown size policy %q", s)
	}
}

// Footprint is the width x height cell area an item occupies.
type Footprint struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (f Footprint) Valid() bool {
	return f.Width > 0 && f.Height > 0
}

// Cells returns Width*Height.
func (f Footprint) Cells() int {
	return f.Width * f.Height
}

// Oriented returns the footprint as laid out under o.
func (f Footprint) Oriented(o Orientation) Footprint {
	if o == Vertical {
		return Footprint{Width: f.Height, Height: f.Width}
	}
	return f
}

// String returns "WxH".
func (f Footprint) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Tab is a rectangular region of an inventory's flat slot sequence.
type Tab struct {
	ID             string     `json:"id"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	FirstSlotIndex int        `json:"first_slot_index"`
	SizePolicy     SizePolicy `json:"size_policy"`
}

// NumSlots returns Width*Height.
func (t Tab) NumSlots() int {
	return t.Width * t.Height
}

// Contains reports whether the local coordinate lies inside the tab.
func (t Tab) Contains(x, y int) bool {
	return x >= 0 && x < t.Width && y >= 0 && y < t.Height
}

// Index converts a local coordinate into an absolute slot index.
//
// Precondition: Contains(x, y).
func (t Tab) Index(x, y int) int {
	return t.FirstSlotIndex + y*t.Width + x
}

// Local converts an absolute slot index into local coordinates.
// ok is false when abs lies outside this tab.
func (t Tab) Local(abs int) (x, y int, ok bool) {
	rel := abs - t.FirstSlotIndex
	if rel < 0 || rel >= t.NumSlots() || t.Width <= 0 {
		return 0, 0, false
	}
	return rel % t.Width, rel / t.Width, true
}

// Effective returns the footprint used for occupancy in this tab.
func (t Tab) Effective(fp Footprint) Footprint {
	if t.SizePolicy == IgnoreSize {
		return Footprint{Width: 1, Height: 1}
	}
	return fp
}
