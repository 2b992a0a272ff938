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

// RequestSurface is which part of the application a request came through.
// Set by routing middleware, consumed here to derive the log source.
type RequestSurface string

const (
	SurfaceAdmin RequestSurface = "admin"
	SurfaceLab   RequestSurface = "lab"
)

// Decision is the outcome of a permission evaluation. On Allow, Member
// carries the caller's lab membership when the decision was reached
// through it (nil for a global-admin override), so mutation handlers can
// attribute audit entries without a second lookup.
type Decision struct {
	Allowed       bool
	Reason        string
	RequiredLevel int
	ActualLevel   int
	Member        *model.LabMember
}

// MemberID returns the acting membership id, nil for overrides.
func (d Decision) MemberID() *uuid.UUID {
	if d.Member == nil {
		return nil
	}
	id := d.Member.ID
	return &id
}

// PermissionService is the single evaluator gating every inventory and
// membership mutation. Route handlers translate its Decision into
// transport status codes and never duplicate the lookup logic.
type PermissionService interface {
	// Evaluate decides lab-scoped access: a global role at or above
	// adminOverrideLevel short-circuits to Allow before any membership
	// lookup; otherwise the caller's lab role must reach minLabLevel.
	Evaluate(ctx context.Context, callerUserID, labID uuid.UUID, minLabLevel, adminOverrideLevel int) (Decision, error)
	// EvaluateGlobal decides a pure global check, no lab involved.
	EvaluateGlobal(ctx context.Context, callerUserID uuid.UUID, minLevel int) (Decision, error)
	// DeriveSource classifies provenance from the request surface.
	// Bearer-only authentication marks a direct programmatic call.
	DeriveSource(surface RequestSurface, bearerAuth bool) model.LogSource
}

type permissionService struct {
	userRepo   repository.UserRepository
	memberRepo repository.MemberRepository
	logger     *zap.Logger
}

func NewPermissionService(userRepo repository.UserRepository, memberRepo repository.MemberRepository, logger *zap.Logger) PermissionService {
	return &permissionService{userRepo: userRepo, memberRepo: memberRepo, logger: logger}
}

func (s *permissionService) Evaluate(ctx context.Context, callerUserID, labID uuid.UUID, minLabLevel, adminOverrideLevel int) (Decision, error) {
	globalLevel, err := s.resolveGlobalLevel(ctx, callerUserID)
	if err != nil {
		return Decision{}, err
	}

	// Admin override comes before any lab lookup: global admins are not
	// required to be lab members.
	if globalLevel >= adminOverrideLevel {
		return Decision{Allowed: true, RequiredLevel: minLabLevel, ActualLevel: globalLevel}, nil
	}

	member, err := s.memberRepo.FindByUserAndLab(ctx, callerUserID, labID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{
				Allowed:       false,
				Reason:        "not a member of this lab",
				RequiredLevel: minLabLevel,
			}, nil
		}
		return Decision{}, apperror.Wrap(apperror.Internal, "membership lookup failed", err)
	}

	// A tombstoned membership is not an active one.
	if member.State() == model.MembershipFormer {
		return Decision{
			Allowed:       false,
			Reason:        "not a member of this lab",
			RequiredLevel: minLabLevel,
			ActualLevel:   member.LabRole.PermissionLevel,
		}, nil
	}

	if member.LabRole.PermissionLevel < minLabLevel {
		return Decision{
			Allowed:       false,
			Reason:        "insufficient lab permission",
			RequiredLevel: minLabLevel,
			ActualLevel:   member.LabRole.PermissionLevel,
			Member:        member,
		}, nil
	}

	return Decision{
		Allowed:       true,
		RequiredLevel: minLabLevel,
		ActualLevel:   member.LabRole.PermissionLevel,
		Member:        member,
	}, nil
}

func (s *permissionService) EvaluateGlobal(ctx context.Context, callerUserID uuid.UUID, minLevel int) (Decision, error) {
	globalLevel, err := s.resolveGlobalLevel(ctx, callerUserID)
	if err != nil {
		return Decision{}, err
	}

	if globalLevel < minLevel {
		return Decision{
			Allowed:       false,
			Reason:        "insufficient global permission",
			RequiredLevel: minLevel,
			ActualLevel:   globalLevel,
		}, nil
	}

	return Decision{Allowed: true, RequiredLevel: minLevel, ActualLevel: globalLevel}, nil
}

func (s *permissionService) resolveGlobalLevel(ctx context.Context, callerUserID uuid.UUID) (int, error) {
	if callerUserID == uuid.Nil {
		return 0, apperror.New(apperror.Unauthenticated, "no caller identity")
	}

	user, err := s.userRepo.FindByID(ctx, callerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.New(apperror.NotFound, "user or global role not found")
		}
		return 0, apperror.Wrap(apperror.Internal, "user lookup failed", err)
	}
	if user.GlobalRole.ID == uuid.Nil {
		s.logger.Warn("user without resolvable global role",
			zap.String("user_id", callerUserID.String()))
		return 0, apperror.New(apperror.NotFound, "user or global role not found")
	}

	return user.GlobalRole.PermissionLevel, nil
}

func (s *permissionService) DeriveSource(surface RequestSurface, bearerAuth bool) model.LogSource {
	if bearerAuth {
		return model.SourceAPIDirect
	}
	if surface == SurfaceAdmin {
		return model.SourceAdminPanel
	}
	return model.SourceLabInterface
}
