package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepository interface {
	Create(ctx context.Context, member *model.LabMember) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LabMember, error)
	FindByUserAndLab(ctx context.Context, userID, labID uuid.UUID) (*model.LabMember, error)
	ListByLab(ctx context.Context, labID uuid.UUID) ([]model.LabMember, error)
	UpdateRole(ctx context.Context, memberID, roleID uuid.UUID) error
	Save(ctx context.Context, member *model.LabMember) error
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *model.LabMember) error {
	return GetDB(ctx, r.db).Create(member).Error
}

func (r *memberRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LabMember, error) {
	var member model.LabMember
	if err := GetDB(ctx, r.db).Preload("LabRole").Preload("User").First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) FindByUserAndLab(ctx context.Context, userID, labID uuid.UUID) (*model.LabMember, error) {
	var member model.LabMember
	err := GetDB(ctx, r.db).Preload("LabRole").
		Where("user_id = ? AND lab_id = ?", userID, labID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ListByLab(ctx context.Context, labID uuid.UUID) ([]model.LabMember, error) {
	var members []model.LabMember
	err := GetDB(ctx, r.db).Preload("LabRole").Preload("User").
		Where("lab_id = ?", labID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) UpdateRole(ctx context.Context, memberID, roleID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.LabMember{}).
		Where("id = ?", memberID).
		Update("lab_role_id", roleID).Error
}

func (r *memberRepository) Save(ctx context.Context, member *model.LabMember) error {
	return GetDB(ctx, r.db).Save(member).Error
}
