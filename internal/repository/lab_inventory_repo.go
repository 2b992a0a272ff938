package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LabInventoryRepository interface {
	Create(ctx context.Context, item *model.LabInventoryItem) error
	FindByLabAndItem(ctx context.Context, labID, itemID uuid.UUID) (*model.LabInventoryItem, error)
	ListByLab(ctx context.Context, labID uuid.UUID, limit, offset int) ([]model.LabInventoryItem, int64, error)
	Save(ctx context.Context, item *model.LabInventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	AttachTag(ctx context.Context, link *model.LabItemTag) error
	DetachTag(ctx context.Context, labItemID, tagID uuid.UUID) (int64, error)
	DeleteTagLinks(ctx context.Context, labItemID uuid.UUID) error
	TagNamesForItem(ctx context.Context, labItemID uuid.UUID) ([]string, error)
}

type labInventoryRepository struct {
	db *gorm.DB
}

func NewLabInventoryRepository(db *gorm.DB) LabInventoryRepository {
	return &labInventoryRepository{db: db}
}

func (r *labInventoryRepository) Create(ctx context.Context, item *model.LabInventoryItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *labInventoryRepository) FindByLabAndItem(ctx context.Context, labID, itemID uuid.UUID) (*model.LabInventoryItem, error) {
	var item model.LabInventoryItem
	err := GetDB(ctx, r.db).Preload("Item").
		Where("lab_id = ? AND item_id = ?", labID, itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *labInventoryRepository) ListByLab(ctx context.Context, labID uuid.UUID, limit, offset int) ([]model.LabInventoryItem, int64, error) {
	var items []model.LabInventoryItem
	var total int64

	db := GetDB(ctx, r.db).Model(&model.LabInventoryItem{}).Where("lab_id = ?", labID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Item").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *labInventoryRepository) Save(ctx context.Context, item *model.LabInventoryItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *labInventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.LabInventoryItem{}).Error
}

func (r *labInventoryRepository) AttachTag(ctx context.Context, link *model.LabItemTag) error {
	return GetDB(ctx, r.db).Create(link).Error
}

// DetachTag removes one tag link and reports how many rows went away, so
// the caller can distinguish "removed" from "was never attached".
func (r *labInventoryRepository) DetachTag(ctx context.Context, labItemID, tagID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("lab_item_id = ? AND tag_id = ?", labItemID, tagID).
		Delete(&model.LabItemTag{})
	return res.RowsAffected, res.Error
}

func (r *labInventoryRepository) DeleteTagLinks(ctx context.Context, labItemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("lab_item_id = ?", labItemID).Delete(&model.LabItemTag{}).Error
}

func (r *labInventoryRepository) TagNamesForItem(ctx context.Context, labItemID uuid.UUID) ([]string, error) {
	var names []string
	err := GetDB(ctx, r.db).Model(&model.LabItemTag{}).
		Joins("JOIN tags ON tags.id = lab_item_tags.tag_id").
		Where("lab_item_tags.lab_item_id = ?", labItemID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
