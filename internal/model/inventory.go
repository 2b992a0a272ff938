package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is the global catalog entry shared across labs: name, description
// and safety metadata. Labs instantiate it as a LabInventoryItem.
type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	HazardClass string    `gorm:"type:varchar(100)" json:"hazard_class"`
	SafetyNotes string    `gorm:"type:text" json:"safety_notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Tag is a lab-scoped label attachable to lab inventory items.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LabID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tags_lab_name" json:"lab_id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_tags_lab_name" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// LabInventoryItem is a catalog Item instantiated inside one Lab. The
// (lab, item) pair is unique: an item appears at most once per lab,
// enforced by the composite index so concurrent creates race to a
// constraint violation rather than a silent duplicate.
type LabInventoryItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LabID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lab_items_lab_item;index" json:"lab_id"`
	Lab          Lab       `gorm:"foreignKey:LabID" json:"-"`
	ItemID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lab_items_lab_item" json:"item_id"`
	Item         Item      `gorm:"foreignKey:ItemID" json:"item"`
	Location     string    `gorm:"type:varchar(255)" json:"location"`
	ItemUnit     string    `gorm:"type:varchar(50)" json:"item_unit"`
	CurrentStock int       `gorm:"type:int;not null;default:0" json:"current_stock"` // >= 0 by policy, not by type
	MinStock     int       `gorm:"type:int;not null;default:0" json:"min_stock"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *LabInventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LabItemTag links a tag to a lab inventory item. The composite index
// turns a duplicate attach into a constraint violation.
type LabItemTag struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	LabItemID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_lab_item_tags_pair;index" json:"lab_item_id"`
	LabItem   LabInventoryItem `gorm:"foreignKey:LabItemID;constraint:OnDelete:CASCADE" json:"-"`
	TagID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_lab_item_tags_pair" json:"tag_id"`
	Tag       Tag              `gorm:"foreignKey:TagID" json:"tag"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (t *LabItemTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
