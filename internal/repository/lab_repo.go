package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LabRepository interface {
	Create(ctx context.Context, lab *model.Lab) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Lab, error)
	List(ctx context.Context) ([]model.Lab, error)
}

type labRepository struct {
	db *gorm.DB
}

func NewLabRepository(db *gorm.DB) LabRepository {
	return &labRepository{db: db}
}

func (r *labRepository) Create(ctx context.Context, lab *model.Lab) error {
	return GetDB(ctx, r.db).Create(lab).Error
}

func (r *labRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Lab, error) {
	var lab model.Lab
	if err := GetDB(ctx, r.db).First(&lab, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lab, nil
}

func (r *labRepository) List(ctx context.Context) ([]model.Lab, error) {
	var labs []model.Lab
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&labs).Error; err != nil {
		return nil, err
	}
	return labs, nil
}
