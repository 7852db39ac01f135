package inventory

import (
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/item"
)

// Filter restricts which items a tab accepts.
type Filter interface {
	Accepts(def *item.Definition) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(def *item.Definition) bool

// Accepts calls f.
func (f FilterFunc) Accepts(def *item.Definition) bool {
	return f(def)
}

// TypeFilter accepts items whose Type is in the list. An empty list accepts
// everything.
type TypeFilter []string

// Accepts implements Filter.
func (t TypeFilter) Accepts(def *item.Definition) bool {
	if len(t) == 0 {
		return true
	}
	for _, typ := range t {
		if def.Type == typ {
			return true
		}
	}
	return false
}

// AllOf accepts an item only when every non-nil filter does.
func AllOf(filters ...Filter) Filter {
	var live []Filter
	for _, f := range filters {
		if f != nil {
			live = append(live, f)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return FilterFunc(func(def *item.Definition) bool {
		for _, f := range live {
			if !f.Accepts(def) {
				return false
			}
		}
		return true
	})
}

// SectionConfig describes one tab. It is the configuration-loaded layout
// unit; Filter is nil for unrestricted tabs.
type SectionConfig struct {
	ID         string
	Width      int
	Height     int
	SizePolicy grid.SizePolicy
	Filter     Filter
}
