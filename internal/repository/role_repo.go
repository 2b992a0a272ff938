package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	CreateGlobalRole(ctx context.Context, role *model.GlobalRole) error
	FindGlobalRoleByID(ctx context.Context, id uuid.UUID) (*model.GlobalRole, error)
	CreateLabRole(ctx context.Context, role *model.LabRole) error
	FindLabRoleByID(ctx context.Context, id uuid.UUID) (*model.LabRole, error)
	FindFormerMemberRole(ctx context.Context) (*model.LabRole, error)
	ListLabRoles(ctx context.Context) ([]model.LabRole, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) CreateGlobalRole(ctx context.Context, role *model.GlobalRole) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) FindGlobalRoleByID(ctx context.Context, id uuid.UUID) (*model.GlobalRole, error) {
	var role model.GlobalRole
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) CreateLabRole(ctx context.Context, role *model.LabRole) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) FindLabRoleByID(ctx context.Context, id uuid.UUID) (*model.LabRole, error) {
	var role model.LabRole
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindFormerMemberRole returns the seeded tombstone role.
func (r *roleRepository) FindFormerMemberRole(ctx context.Context) (*model.LabRole, error) {
	var role model.LabRole
	if err := GetDB(ctx, r.db).Where("permission_level = ?", model.FormerMemberLevel).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListLabRoles(ctx context.Context) ([]model.LabRole, error) {
	var roles []model.LabRole
	if err := GetDB(ctx, r.db).Order("permission_level ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
