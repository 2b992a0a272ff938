package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// AuthService issues the tokens the session layer transports. The core
// subsystem only ever sees the user id the middleware extracts from them.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPairResponse, error)
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret []byte) AuthService {
	return &authService{userRepo: userRepo, jwtSecret: jwtSecret}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenPairResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.Unauthenticated, "invalid credentials")
		}
		return nil, apperror.Wrap(apperror.Internal, "user lookup failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.New(apperror.Unauthenticated, "invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, req RefreshRequest) (*TokenPairResponse, error) {
	stored, err := s.userRepo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, apperror.New(apperror.Unauthenticated, "invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.userRepo.DeleteRefreshToken(ctx, req.RefreshToken)
		return nil, apperror.New(apperror.Unauthenticated, "refresh token expired")
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperror.New(apperror.Unauthenticated, "invalid refresh token")
	}

	// Rotate: the used token is replaced, not reissued.
	if err := s.userRepo.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to rotate refresh token", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPairResponse, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.GlobalRole.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to sign access token", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to generate refresh token", err)
	}
	rt := model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(refreshTokenTTL),
	}
	if err := s.userRepo.CreateRefreshToken(ctx, &rt); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to store refresh token", err)
	}

	return &TokenPairResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword wraps bcrypt for user provisioning and seeds.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
