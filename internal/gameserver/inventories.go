package gameserver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stash/internal/config"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/inventory"
	"github.com/cory-johannsen/stash/internal/game/item"
	"github.com/cory-johannsen/stash/internal/game/transaction"
	"github.com/cory-johannsen/stash/internal/scripting"
)

// BuildInventories creates one inventory per configured container, each with
// the configured tab layout. Both peers must build from the same config so
// snapshot tab layouts match. Tab filter scripts are compiled once into
// scripts under the tab ID and shared by every container.
//
// Precondition: cfg passed config validation; scripts is non-nil when any
// tab declares a filter script.
// Postcondition: Returns the inventories or a non-nil error.
func BuildInventories(cfg config.InventoryConfig, catalog item.Catalog, scripts *scripting.Manager, logger *zap.Logger) (transaction.Inventories, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sections := make([]inventory.SectionConfig, 0, len(cfg.Tabs))
	for _, t := range cfg.Tabs {
		policy, err := grid.ParseSizePolicy(t.SizePolicy)
		if err != nil {
			return nil, fmt.Errorf("tab %q: %w", t.ID, err)
		}
		var filters []inventory.Filter
		if len(t.AllowedTypes) > 0 {
			filters = append(filters, inventory.TypeFilter(t.AllowedTypes))
		}
		if t.FilterScript != "" {
			if scripts == nil {
				return nil, fmt.Errorf("tab %q declares a filter script but scripting is disabled", t.ID)
			}
			f, err := scripts.Compile(t.ID, t.FilterScript)
			if err != nil {
				return nil, fmt.Errorf("tab %q: %w", t.ID, err)
			}
			filters = append(filters, f)
		}
		sections = append(sections, inventory.SectionConfig{
			ID:         t.ID,
			Width:      t.Width,
			Height:     t.Height,
			SizePolicy: policy,
			Filter:     inventory.AllOf(filters...),
		})
	}

	invs := transaction.Inventories{}
	for _, id := range cfg.Containers {
		inv := inventory.New(catalog,
			inventory.WithID(id),
			inventory.WithLogger(logger),
			inventory.WithClaimTTL(cfg.ClaimTTL),
		)
		for _, sc := range sections {
			if inv.AddSection(sc) < 0 {
				return nil, fmt.Errorf("inventory %q: invalid tab %q", id, sc.ID)
			}
		}
		invs.Add(inv)
	}
	logger.Info("inventories built",
		zap.Int("containers", len(invs)),
		zap.Int("tabs", len(sections)),
	)
	return invs, nil
}
