package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogAction classifies what an inventory log entry records.
type LogAction string

const (
	ActionStockAdd       LogAction = "STOCK_ADD"      // routine replenish
	ActionStockRemove    LogAction = "STOCK_REMOVE"   // routine consume
	ActionStockUpdate    LogAction = "STOCK_UPDATE"   // manual correction
	ActionLocationChange LogAction = "LOCATION_CHANGE"
	ActionMinStockUpdate LogAction = "MIN_STOCK_UPDATE"
	ActionItemAdded      LogAction = "ITEM_ADDED"
	ActionItemRemoved    LogAction = "ITEM_REMOVED"
	ActionItemUpdate     LogAction = "ITEM_UPDATE"
)

// ValidLogAction reports whether s names a known action.
func ValidLogAction(s string) bool {
	switch LogAction(s) {
	case ActionStockAdd, ActionStockRemove, ActionStockUpdate,
		ActionLocationChange, ActionMinStockUpdate,
		ActionItemAdded, ActionItemRemoved, ActionItemUpdate:
		return true
	}
	return false
}

// LogSource is the provenance tag: which surface produced the mutation.
// Derived server-side from the request, never passed by the caller.
type LogSource string

const (
	SourceAdminPanel   LogSource = "ADMIN_PANEL"
	SourceLabInterface LogSource = "LAB_INTERFACE"
	SourceAPIDirect    LogSource = "API_DIRECT"
	SourceBulkImport   LogSource = "BULK_IMPORT"
)

// ValidLogSource reports whether s names a known source.
func ValidLogSource(s string) bool {
	switch LogSource(s) {
	case SourceAdminPanel, SourceLabInterface, SourceAPIDirect, SourceBulkImport:
		return true
	}
	return false
}

// InventoryLog is the append-only audit record of one inventory mutation.
// Rows are never updated or deleted after creation, with one exception:
// when the referenced lab item is deleted, LabItemID is set to NULL and the
// row is retained. LabID mirrors the snapshots' lab attribution into an
// indexed column (copied by the audit logger, never by callers) so orphaned
// entries stay queryable per lab without JSON path operators, which are not
// portable between the Postgres and sqlite dialects.
type InventoryLog struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	LabItemID       *uuid.UUID        `gorm:"type:uuid;index" json:"lab_item_id"` // NULL once the item is deleted
	LabItem         *LabInventoryItem `gorm:"foreignKey:LabItemID;constraint:OnDelete:SET NULL" json:"lab_item,omitempty"`
	LabID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"lab_id"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"` // actor, required at creation
	User            *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	MemberID        *uuid.UUID        `gorm:"type:uuid;index" json:"member_id"` // NULL for global admins acting outside membership
	Member          *LabMember        `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Action          LogAction         `gorm:"type:varchar(30);not null;index" json:"action"`
	Source          LogSource         `gorm:"type:varchar(20);not null;index" json:"source"`
	PreviousValues  *Snapshot         `gorm:"type:jsonb" json:"previous_values,omitempty"`
	NewValues       *Snapshot         `gorm:"type:jsonb" json:"new_values,omitempty"`
	QuantityChanged *int              `gorm:"type:int" json:"quantity_changed,omitempty"` // signed delta, stock actions only
	Reason          string            `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"` // the only ordering key
}

func (l *InventoryLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
