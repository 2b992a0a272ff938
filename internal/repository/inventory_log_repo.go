package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogFilter narrows a lab's audit history. All set fields apply
// conjunctively on top of the lab-affiliation base set.
type LogFilter struct {
	Action    *model.LogAction
	Source    *model.LogSource
	StartDate *time.Time
	EndDate   *time.Time
	UserID    *uuid.UUID
	MemberID  *uuid.UUID
	Limit     int
	Offset    int
}

type InventoryLogRepository interface {
	Create(ctx context.Context, entry *model.InventoryLog) error
	ListForLab(ctx context.Context, labID uuid.UUID, filter LogFilter) ([]model.InventoryLog, int64, error)
	DetachItem(ctx context.Context, labItemID uuid.UUID) error
}

type inventoryLogRepository struct {
	db *gorm.DB
}

func NewInventoryLogRepository(db *gorm.DB) InventoryLogRepository {
	return &inventoryLogRepository{db: db}
}

func (r *inventoryLogRepository) Create(ctx context.Context, entry *model.InventoryLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// ListForLab reconstructs a lab's full history. A row belongs to the lab
// when either its live item reference resolves to an item in the lab, or
// the reference has been nulled by item deletion and the row's snapshot
// attribution points at the lab.
func (r *inventoryLogRepository) ListForLab(ctx context.Context, labID uuid.UUID, filter LogFilter) ([]model.InventoryLog, int64, error) {
	var logs []model.InventoryLog
	var total int64

	db := GetDB(ctx, r.db)
	itemsInLab := db.Session(&gorm.Session{NewDB: true}).
		Model(&model.LabInventoryItem{}).
		Select("id").
		Where("lab_id = ?", labID)

	q := db.Model(&model.InventoryLog{}).
		Where("(lab_item_id IS NOT NULL AND lab_item_id IN (?)) OR (lab_item_id IS NULL AND lab_id = ?)",
			itemsInLab, labID)

	if filter.Action != nil {
		q = q.Where("action = ?", *filter.Action)
	}
	if filter.Source != nil {
		q = q.Where("source = ?", *filter.Source)
	}
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("created_at <= ?", *filter.EndDate)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.MemberID != nil {
		q = q.Where("member_id = ?", *filter.MemberID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("User").Preload("Member").
		Order("created_at DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// DetachItem nulls the item reference on every log row pointing at a
// deleted lab item. Runs in the deletion transaction; the rows themselves
// are retained untouched otherwise.
func (r *inventoryLogRepository) DetachItem(ctx context.Context, labItemID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.InventoryLog{}).
		Where("lab_item_id = ?", labItemID).
		Update("lab_item_id", nil).Error
}
