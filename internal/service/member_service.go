package service

import (
	"context"
	"errors"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type AddMemberRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	RoleID   string `json:"role_id" binding:"required,uuid"`
	Inducted bool   `json:"inducted"`
	PCI      bool   `json:"pci"`
}

type UpdateMemberRoleRequest struct {
	RoleID string `json:"role_id" binding:"required,uuid"`
}

type ReactivateMemberRequest struct {
	RoleID string `json:"role_id" binding:"required,uuid"`
}

type MemberResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	LabID     string `json:"lab_id"`
	RoleID    string `json:"role_id"`
	RoleName  string `json:"role_name"`
	RoleLevel int    `json:"role_level"`
	State     string `json:"state"`
	Inducted  bool   `json:"inducted"`
	PCI       bool   `json:"pci"`
}

// MemberService manages lab membership lifecycle. A membership row is
// never hard-deleted: removal reassigns the reserved Former Member role,
// and reactivation is the explicit reverse transition.
type MemberService interface {
	ListMembers(ctx context.Context, labID uuid.UUID, includeFormer bool) ([]MemberResponse, error)
	AddMember(ctx context.Context, labID uuid.UUID, req AddMemberRequest) (*MemberResponse, error)
	UpdateMemberRole(ctx context.Context, labID, memberID uuid.UUID, req UpdateMemberRoleRequest) (*MemberResponse, error)
	RemoveMember(ctx context.Context, labID, memberID uuid.UUID) error
	ReactivateMember(ctx context.Context, labID, memberID uuid.UUID, req ReactivateMemberRequest) (*MemberResponse, error)
}

type memberService struct {
	labRepo    repository.LabRepository
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	memberRepo repository.MemberRepository
	txManager  repository.TransactionManager
	logger     *zap.Logger
}

func NewMemberService(
	labRepo repository.LabRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	memberRepo repository.MemberRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
) MemberService {
	return &memberService{
		labRepo:    labRepo,
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		memberRepo: memberRepo,
		txManager:  txManager,
		logger:     logger,
	}
}

func (s *memberService) ListMembers(ctx context.Context, labID uuid.UUID, includeFormer bool) ([]MemberResponse, error) {
	members, err := s.memberRepo.ListByLab(ctx, labID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to list lab members", err)
	}

	res := make([]MemberResponse, 0, len(members))
	for i := range members {
		if !includeFormer && members[i].State() == model.MembershipFormer {
			continue
		}
		res = append(res, toMemberResponse(&members[i]))
	}
	return res, nil
}

func (s *memberService) AddMember(ctx context.Context, labID uuid.UUID, req AddMemberRequest) (*MemberResponse, error) {
	if _, err := s.labRepo.FindByID(ctx, labID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "lab not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "lab lookup failed", err)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperror.New(apperror.InvalidInput, "invalid user id")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "user not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "user lookup failed", err)
	}

	role, err := s.resolveAssignableRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	// A tombstoned membership blocks a fresh add: the reactivation
	// transition is the supported path back in.
	if existing, err := s.memberRepo.FindByUserAndLab(ctx, userID, labID); err == nil {
		if existing.State() == model.MembershipFormer {
			return nil, apperror.New(apperror.Conflict, "user is a former member of this lab; reactivate the membership instead")
		}
		return nil, apperror.New(apperror.Conflict, "user is already a member of this lab")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.Internal, "membership lookup failed", err)
	}

	member := model.LabMember{
		UserID:    userID,
		LabID:     labID,
		LabRoleID: role.ID,
		Inducted:  req.Inducted,
		PCI:       req.PCI,
	}
	if err := s.memberRepo.Create(ctx, &member); err != nil {
		// Concurrent adds race to the unique (user, lab) index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(apperror.Conflict, "user is already a member of this lab")
		}
		return nil, apperror.Wrap(apperror.Internal, "failed to create membership", err)
	}

	member.User = *user
	member.LabRole = *role
	res := toMemberResponse(&member)
	return &res, nil
}

func (s *memberService) UpdateMemberRole(ctx context.Context, labID, memberID uuid.UUID, req UpdateMemberRoleRequest) (*MemberResponse, error) {
	member, err := s.findMember(ctx, labID, memberID)
	if err != nil {
		return nil, err
	}
	if member.State() == model.MembershipFormer {
		return nil, apperror.New(apperror.Conflict, "membership is tombstoned; reactivate it before changing roles")
	}

	role, err := s.resolveAssignableRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	if err := s.memberRepo.UpdateRole(ctx, member.ID, role.ID); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to update member role", err)
	}

	member.LabRoleID = role.ID
	member.LabRole = *role
	res := toMemberResponse(member)
	return &res, nil
}

func (s *memberService) RemoveMember(ctx context.Context, labID, memberID uuid.UUID) error {
	member, err := s.findMember(ctx, labID, memberID)
	if err != nil {
		return err
	}
	if member.State() == model.MembershipFormer {
		return apperror.New(apperror.Conflict, "membership is already tombstoned")
	}

	former, err := s.roleRepo.FindFormerMemberRole(ctx)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "former member role not seeded", err)
	}

	if err := s.memberRepo.UpdateRole(ctx, member.ID, former.ID); err != nil {
		return apperror.Wrap(apperror.Internal, "failed to tombstone membership", err)
	}

	s.logger.Info("lab membership tombstoned",
		zap.String("lab_id", labID.String()),
		zap.String("member_id", member.ID.String()),
		zap.String("user_id", member.UserID.String()))
	return nil
}

func (s *memberService) ReactivateMember(ctx context.Context, labID, memberID uuid.UUID, req ReactivateMemberRequest) (*MemberResponse, error) {
	member, err := s.findMember(ctx, labID, memberID)
	if err != nil {
		return nil, err
	}
	if member.State() != model.MembershipFormer {
		return nil, apperror.New(apperror.Conflict, "membership is already active")
	}

	role, err := s.resolveAssignableRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	if err := s.memberRepo.UpdateRole(ctx, member.ID, role.ID); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to reactivate membership", err)
	}

	s.logger.Info("lab membership reactivated",
		zap.String("lab_id", labID.String()),
		zap.String("member_id", member.ID.String()))

	member.LabRoleID = role.ID
	member.LabRole = *role
	res := toMemberResponse(member)
	return &res, nil
}

// resolveAssignableRole loads a lab role and rejects the reserved
// tombstone: no caller may assign Former Member (by name, case
// insensitively, or by level) through role management.
func (s *memberService) resolveAssignableRole(ctx context.Context, rawRoleID string) (*model.LabRole, error) {
	roleID, err := uuid.Parse(rawRoleID)
	if err != nil {
		return nil, apperror.New(apperror.InvalidInput, "invalid role id")
	}
	role, err := s.roleRepo.FindLabRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "lab role not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "role lookup failed", err)
	}
	if role.IsFormerMember() {
		return nil, apperror.New(apperror.InvalidInput, "the Former Member role cannot be assigned directly")
	}
	if role.PermissionLevel < 0 {
		return nil, apperror.New(apperror.InvalidInput, "lab role level must not be negative")
	}
	return role, nil
}

func (s *memberService) findMember(ctx context.Context, labID, memberID uuid.UUID) (*model.LabMember, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "lab member not found")
		}
		return nil, apperror.Wrap(apperror.Internal, "member lookup failed", err)
	}
	if member.LabID != labID {
		return nil, apperror.New(apperror.NotFound, "lab member not found")
	}
	return member, nil
}

func toMemberResponse(m *model.LabMember) MemberResponse {
	return MemberResponse{
		ID:        m.ID.String(),
		UserID:    m.UserID.String(),
		Username:  m.User.Username,
		LabID:     m.LabID.String(),
		RoleID:    m.LabRoleID.String(),
		RoleName:  m.LabRole.Name,
		RoleLevel: m.LabRole.PermissionLevel,
		State:     m.State().String(),
		Inducted:  m.Inducted,
		PCI:       m.PCI,
	}
}
