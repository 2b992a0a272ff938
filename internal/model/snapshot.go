package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// LabRef is the lab attribution embedded in every snapshot. Keeping it a
// required embedded struct means a snapshot cannot be built without a lab,
// which is what lets log entries outlive the items they describe.
type LabRef struct {
	LabID uuid.UUID `json:"lab_id"`
}

// Snapshot captures before/after field values on an inventory log entry.
// Only the fields relevant to the entry's action are set; the per-action
// constructors below are the intended way to build one.
type Snapshot struct {
	LabRef
	ItemID       *uuid.UUID `json:"item_id,omitempty"`
	ItemName     *string    `json:"item_name,omitempty"`
	Location     *string    `json:"location,omitempty"`
	ItemUnit     *string    `json:"item_unit,omitempty"`
	CurrentStock *int       `json:"current_stock,omitempty"`
	MinStock     *int       `json:"min_stock,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// Value serializes the snapshot for the jsonb column.
func (s Snapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan deserializes the jsonb column back into the snapshot.
func (s *Snapshot) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported snapshot column type %T", value)
	}
}

// ItemSnapshot captures the full state of a lab inventory item, used for
// ITEM_ADDED and ITEM_REMOVED entries.
func ItemSnapshot(labItem *LabInventoryItem, itemName string, tags []string) *Snapshot {
	name := itemName
	itemID := labItem.ItemID
	location := labItem.Location
	unit := labItem.ItemUnit
	stock := labItem.CurrentStock
	minStock := labItem.MinStock
	return &Snapshot{
		LabRef:       LabRef{LabID: labItem.LabID},
		ItemID:       &itemID,
		ItemName:     &name,
		Location:     &location,
		ItemUnit:     &unit,
		CurrentStock: &stock,
		MinStock:     &minStock,
		Tags:         tags,
	}
}

// LocationSnapshot carries just a location value, for LOCATION_CHANGE.
func LocationSnapshot(labID uuid.UUID, location string) *Snapshot {
	return &Snapshot{LabRef: LabRef{LabID: labID}, Location: &location}
}

// StockSnapshot carries just a stock level, for STOCK_ADD / STOCK_REMOVE /
// STOCK_UPDATE.
func StockSnapshot(labID uuid.UUID, stock int) *Snapshot {
	return &Snapshot{LabRef: LabRef{LabID: labID}, CurrentStock: &stock}
}

// MinStockSnapshot carries just a minimum-stock threshold, for
// MIN_STOCK_UPDATE.
func MinStockSnapshot(labID uuid.UUID, minStock int) *Snapshot {
	return &Snapshot{LabRef: LabRef{LabID: labID}, MinStock: &minStock}
}

// UnitSnapshot carries just a unit value, for generic ITEM_UPDATE.
func UnitSnapshot(labID uuid.UUID, unit string) *Snapshot {
	return &Snapshot{LabRef: LabRef{LabID: labID}, ItemUnit: &unit}
}
