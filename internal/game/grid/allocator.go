package grid

import "fmt"

// Layout is the read-only view of an inventory the allocator works on.
type Layout interface {
	// TabCount returns the number of tabs in declaration order.
	TabCount() int
	// Tab returns the tab at index i.
	Tab(i int) Tab
	// SlotCount returns the total number of slots across all tabs.
	SlotCount() int
	// Footprint returns the oriented footprint anchored at absolute slot i,
	// or ok=false when the slot holds no valid item.
	Footprint(i int) (fp Footprint, ok bool)
}

// Occupancy is a flat bitmap over an inventory's absolute slot indices.
type Occupancy []bool

// Occupied reports whether absolute slot i is covered by an item.
// Out-of-range indices read as occupied.
func (o Occupancy) Occupied(i int) bool {
	if i < 0 || i >= len(o) {
		return true
	}
	return o[i]
}

// Count returns the number of occupied cells.
func (o Occupancy) Count() int {
	n := 0
	for _, v := range o {
		if v {
			n++
		}
	}
	return n
}

// PrecomputeOccupancy marks every cell covered by an item footprint.
//
// Panics if any footprint addresses a cell outside its own tab; that state
// can only come from corrupted slot data.
func PrecomputeOccupancy(l Layout) Occupancy {
	return PrecomputeOccupancyExcept(l, -1)
}

// PrecomputeOccupancyExcept is PrecomputeOccupancy with the item anchored at
// absolute slot skip left out. skip < 0 skips nothing.
func PrecomputeOccupancyExcept(l Layout, skip int) Occupancy {
	occ := make(Occupancy, l.SlotCount())
	for ti := 0; ti < l.TabCount(); ti++ {
		tab := l.Tab(ti)
		for local := 0; local < tab.NumSlots(); local++ {
			abs := tab.FirstSlotIndex + local
			if abs == skip {
				continue
			}
			fp, ok := l.Footprint(abs)
			if !ok {
				continue
			}
			fp = tab.Effective(fp)
			col, row := local%tab.Width, local/tab.Width
			if !fp.Valid() || col+fp.Width > tab.Width || row+fp.Height > tab.Height {
				panic(fmt.Sprintf("grid: footprint %s anchored at (%d,%d) exceeds tab %q (%dx%d)",
					fp, col, row, tab.ID, tab.Width, tab.Height))
			}
			for y := 0; y < fp.Height; y++ {
				for x := 0; x < fp.Width; x++ {
					idx := tab.Index(col+x, row+y)
					if idx < 0 || idx >= len(occ) {
						panic(fmt.Sprintf("grid: occupancy index %d out of range [0,%d)", idx, len(occ)))
					}
					occ[idx] = true
				}
			}
		}
	}
	return occ
}

// CanFit reports whether fp anchored at (x, y) in tab covers only free,
// in-range cells.
func CanFit(occ Occupancy, tab Tab, x, y int, fp Footprint) bool {
	fp = tab.Effective(fp)
	if !fp.Valid() {
		return false
	}
	if x < 0 || y < 0 || x+fp.Width > tab.Width || y+fp.Height > tab.Height {
		return false
	}
	for dy := 0; dy < fp.Height; dy++ {
		for dx := 0; dx < fp.Width; dx++ {
			if occ.Occupied(tab.Index(x+dx, y+dy)) {
				return false
			}
		}
	}
	return true
}

// Eligible vetoes candidate anchor cells, e.g. for tab filters or claimed
// slots. A nil Eligible accepts every cell.
type Eligible func(h SlotHandle) bool

// FindFirstFit returns the first anchor at which fp fits, scanning tabs in
// declaration order and each tab row-major. The scan order is fixed so that
// peers computing a placement independently agree on the result.
func FindFirstFit(l Layout, fp Footprint, eligible Eligible) (SlotHandle, bool) {
	if !fp.Valid() {
		return SlotHandle{}, false
	}
	return FindFirstFitIn(PrecomputeOccupancy(l), l, fp, eligible)
}

// FindFirstFitIn is FindFirstFit over a precomputed bitmap.
func FindFirstFitIn(occ Occupancy, l Layout, fp Footprint, eligible Eligible) (SlotHandle, bool) {
	if !fp.Valid() {
		return SlotHandle{}, false
	}
	for ti := 0; ti < l.TabCount(); ti++ {
		tab := l.Tab(ti)
		eff := tab.Effective(fp)
		for y := 0; y <= tab.Height-eff.Height; y++ {
			for x := 0; x <= tab.Width-eff.Width; x++ {
				h := NewSlotHandle(ti, x, y)
				if eligible != nil && !eligible(h) {
					continue
				}
				if CanFit(occ, tab, x, y, fp) {
					return h, true
				}
			}
		}
	}
	return SlotHandle{}, false
}
