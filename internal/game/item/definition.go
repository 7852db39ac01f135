package item

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/stash/internal/game/grid"
)

// Definition is the static catalog entry for an item, loaded from YAML.
type Definition struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Tags        []string `yaml:"tags"`
	// Width and Height are the footprint in grid cells.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// MaxStackSize is the most units one stack may hold.
	MaxStackSize            int     `yaml:"max_stack_size"`
	RequiresRuntimeInstance bool    `yaml:"requires_runtime_instance"`
	Weight                  float64 `yaml:"weight"`
}

// Footprint returns the declared footprint. A nil definition has the zero
// footprint, which no placement accepts.
func (d *Definition) Footprint() grid.Footprint {
	if d == nil {
		return grid.Footprint{}
	}
	return grid.Footprint{Width: d.Width, Height: d.Height}
}

// HasTag reports whether tag is among the definition's tags.
func (d *Definition) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate checks that the Definition satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if d.Width < 1 || d.Height < 1 {
		errs = append(errs, fmt.Errorf("footprint must be at least 1x1, got %dx%d", d.Width, d.Height))
	}
	if d.MaxStackSize < 1 {
		errs = append(errs, errors.New("MaxStackSize must be >= 1"))
	}
	if d.RequiresRuntimeInstance && d.MaxStackSize != 1 {
		errs = append(errs, errors.New("items requiring a runtime instance must have MaxStackSize 1"))
	}
	if d.Weight < 0 {
		errs = append(errs, errors.New("Weight must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// LoadDefinitions reads all *.yaml and *.yml files from dir, parses each as a
// Definition, validates it, and returns them sorted by ID.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Definitions or the first encountered error.
func LoadDefinitions(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDefinitions: cannot read directory %q: %w", dir, err)
	}

	var defs []*Definition
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadDefinitions: cannot read file %q: %w", path, err)
		}
		var d Definition
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("LoadDefinitions: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadDefinitions: invalid item in %q: %w", path, err)
		}
		defs = append(defs, &d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}
