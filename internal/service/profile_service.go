package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/repository"
	"github.com/spec-kit/rescue-service/internal/storage"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

// ProfileService handles account profile reads, edits, uploads and the
// best-effort background location sync.
type ProfileService struct {
	users  repository.UserRepository
	blobs  storage.Store
	logger *zap.Logger
}

// UpdateProfileInput carries editable profile fields. Nil pointers leave the
// current value untouched.
type UpdateProfileInput struct {
	Name       *string
	Address    *string
	City       *string
	PostalCode *string
	BirthDate  *string
}

func NewProfileService(users repository.UserRepository, blobs storage.Store, logger *zap.Logger) *ProfileService {
	return &ProfileService{users: users, blobs: blobs, logger: logger}
}

// GetProfile returns the account behind id.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateProfile applies the provided fields and persists.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Name != nil {
		if !validFullName(*input.Name) {
			return nil, apperrors.NewValidationError("full name with at least two words required", nil)
		}
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		user.City = strings.TrimSpace(*input.City)
	}
	if input.PostalCode != nil {
		user.PostalCode = strings.TrimSpace(*input.PostalCode)
	}
	if input.BirthDate != nil {
		user.BirthDate = input.BirthDate
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UploadPhoto stores a profile photo and records its URL on the account.
func (s *ProfileService) UploadPhoto(ctx context.Context, userID, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("photos/%s/%s%s", userID, uuid.NewString(), sanitizeExt(filename))
	if err := s.blobs.Upload(ctx, key, contentType, body); err != nil {
		return "", apperrors.NewUploadFailed(err)
	}
	url, err := s.blobs.DownloadURL(ctx, key)
	if err != nil {
		return "", apperrors.NewUploadFailed(err)
	}
	if err := s.users.UpdatePhotoURL(ctx, userID, url); err != nil {
		return "", apperrors.MapError(err)
	}
	return url, nil
}

// UploadDocument stores a residence certificate and returns the blob key for
// the registration payload.
func (s *ProfileService) UploadDocument(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("documents/%s%s", uuid.NewString(), sanitizeExt(filename))
	if err := s.blobs.Upload(ctx, key, contentType, body); err != nil {
		return "", apperrors.NewUploadFailed(err)
	}
	return key, nil
}

// SyncLocation records the latest device fix. Best effort: failures are
// logged, never surfaced, so the caller's main flow is not disturbed.
func (s *ProfileService) SyncLocation(ctx context.Context, userID string, coords domain.Coordinates) {
	if err := s.users.UpdateCoordinates(ctx, userID, coords); err != nil {
		s.logger.Warn("location sync failed",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Time("at", time.Now()))
	}
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
		return ext
	default:
		return ""
	}
}
