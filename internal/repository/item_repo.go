package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository covers the global catalog and lab-scoped tags.
type ItemRepository interface {
	CreateItem(ctx context.Context, item *model.Item) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	ListItems(ctx context.Context, search string) ([]model.Item, error)
	CreateTag(ctx context.Context, tag *model.Tag) error
	FindTagByID(ctx context.Context, id uuid.UUID) (*model.Tag, error)
	FindTagsByIDs(ctx context.Context, labID uuid.UUID, ids []uuid.UUID) ([]model.Tag, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) CreateItem(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *itemRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListItems(ctx context.Context, search string) ([]model.Item, error) {
	var items []model.Item
	db := GetDB(ctx, r.db)
	if search != "" {
		db = db.Where("name LIKE ?", "%"+search+"%")
	}
	if err := db.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) CreateTag(ctx context.Context, tag *model.Tag) error {
	return GetDB(ctx, r.db).Create(tag).Error
}

func (r *itemRepository) FindTagByID(ctx context.Context, id uuid.UUID) (*model.Tag, error) {
	var tag model.Tag
	if err := GetDB(ctx, r.db).First(&tag, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindTagsByIDs resolves tags by id within one lab; tags belonging to other
// labs are not returned, so a short result signals an invalid reference.
func (r *itemRepository) FindTagsByIDs(ctx context.Context, labID uuid.UUID, ids []uuid.UUID) ([]model.Tag, error) {
	var tags []model.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := GetDB(ctx, r.db).
		Where("lab_id = ? AND id IN ?", labID, ids).
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}
