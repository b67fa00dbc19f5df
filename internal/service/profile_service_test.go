package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/storage"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

func TestUploadPhotoStoresBlobAndURL(t *testing.T) {
	users := newFakeUserRepo()
	blobs := storage.NewMemoryStore()
	svc := NewProfileService(users, blobs, zap.NewNop())
	user := newRequester(users)

	url, err := svc.UploadPhoto(context.Background(), user.ID, "selfie.JPG", "image/jpeg",
		strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, ".jpg")
	assert.Equal(t, 1, blobs.Len())

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PhotoURL)
	assert.Equal(t, url, *stored.PhotoURL)
}

func TestUploadPhotoFailureIsUploadFailed(t *testing.T) {
	users := newFakeUserRepo()
	blobs := storage.NewMemoryStore()
	svc := NewProfileService(users, blobs, zap.NewNop())
	user := newRequester(users)

	// The memory store refuses empty blobs.
	_, err := svc.UploadPhoto(context.Background(), user.ID, "selfie.jpg", "image/jpeg",
		strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, "UPLOAD_FAILED", apperrors.ToDomainError(err).Code)
}

func TestUpdateProfileAppliesPartialFields(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewProfileService(users, storage.NewMemoryStore(), zap.NewNop())
	user := newRequester(users)

	city := "Porto"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Porto", updated.City)
	assert.Equal(t, user.Name, updated.Name)

	bad := "Ana"
	_, err = svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Name: &bad})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSyncLocationUpdatesCoordinates(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewProfileService(users, storage.NewMemoryStore(), zap.NewNop())
	user := newRequester(users)

	svc.SyncLocation(context.Background(), user.ID, domain.Coordinates{Latitude: 41.15, Longitude: -8.61})

	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Coordinates)
	assert.InDelta(t, 41.15, stored.Coordinates.Latitude, 1e-9)
}
