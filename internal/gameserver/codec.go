package gameserver

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/stash/internal/game/claim"
	"github.com/cory-johannsen/stash/internal/game/floor"
	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/inventory"
)

// Wire messages. Every RPC carries a google.protobuf.Struct whose fields are
// the JSON form of one of these types.

type snapshotRequest struct {
	// Inventories selects the snapshots to return; empty means all.
	Inventories []string `json:"inventories,omitempty"`
}

type snapshotResponse struct {
	Inventories []inventory.Snapshot `json:"inventories"`
}

type claimRequest struct {
	Inventory  string             `json:"inventory"`
	Slot       grid.SlotHandle    `json:"slot"`
	Controller claim.ControllerID `json:"controller"`
}

type claimResponse struct {
	Granted bool `json:"granted"`
}

type floorRequest struct {
	Room string `json:"room"`
}

type floorResponse struct {
	Items []floor.Snapshot `json:"items"`
}

// encode converts v to a Struct through its JSON form.
func encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("gameserver: encoding %T: %w", v, err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("gameserver: encoding %T: %w", v, err)
	}
	return s, nil
}

// decode fills v from a Struct produced by encode.
func decode(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("gameserver: decoding %T: empty message", v)
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("gameserver: decoding %T: %w", v, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("gameserver: decoding %T: %w", v, err)
	}
	return nil
}
