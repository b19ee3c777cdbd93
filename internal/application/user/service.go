package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bike-resale-api/internal/application/image"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPasswordHash = "password_hash"
	fieldResetOTP     = "reset_otp"
	fieldAvatar       = "avatar"
)

type Service interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error
	UploadAvatar(ctx context.Context, userID string, up *image.Upload) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type ServiceDeps struct {
	UserRepo   userStore
	Images     image.Service
	BcryptCost int
}

type service struct {
	repo   userStore
	images image.Service
	cost   int
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.UserRepo, images: deps.Images, cost: deps.BcryptCost}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	return s
}

func (s *service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fmt.Errorf("both current and new passwords are required: %w", domain.ErrValidation)
	}
	if err := validate.Struct(req); err != nil {
		return err
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{
		fieldPasswordHash: string(hash),
		fieldResetOTP:     nil,
	})
}

// UploadAvatar stores a new avatar and drops the previous one best-effort.
func (s *service) UploadAvatar(ctx context.Context, userID string, up *image.Upload) (*domain.User, error) {
	if up == nil || up.Reader == nil {
		return nil, fmt.Errorf("no avatar image provided: %w", domain.ErrValidation)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	url, err := s.images.Store(ctx, image.FolderAvatars, *up)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldAvatar: url}); err != nil {
		s.images.Remove(ctx, image.FolderAvatars, []string{url})
		return nil, err
	}
	if u.Avatar != nil && *u.Avatar != "" {
		res := s.images.Remove(ctx, image.FolderAvatars, []string{*u.Avatar})
		if len(res.Failed) > 0 {
			slog.Warn("old avatar cleanup incomplete", "user_id", userID, "cleanup", res)
		}
	}
	u.Avatar = &url
	return u, nil
}
