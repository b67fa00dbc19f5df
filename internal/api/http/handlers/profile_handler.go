package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/rescue-service/internal/api/dto"
	"github.com/spec-kit/rescue-service/internal/auth"
	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/service"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

// ProfileHandler exposes account profile endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := h.profiles.GetProfile(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update handles PATCH /profile.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.profiles.UpdateProfile(c.Context(), principal.User.ID, service.UpdateProfileInput{
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		BirthDate:  req.BirthDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UploadPhoto handles POST /profile/photo as multipart form data.
func (h *ProfileHandler) UploadPhoto(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	header, err := c.FormFile("photo")
	if err != nil {
		return apperrors.NewValidationError("photo file required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewUploadFailed(err)
	}
	defer file.Close()

	url, err := h.profiles.UploadPhoto(c.Context(), principal.User.ID,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UploadResponse{URL: url}})
}

// UploadDocument handles POST /uploads/documents. Unauthenticated: the
// residence certificate is uploaded before the account exists.
func (h *ProfileHandler) UploadDocument(c *fiber.Ctx) error {
	header, err := c.FormFile("document")
	if err != nil {
		return apperrors.NewValidationError("document file required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewUploadFailed(err)
	}
	defer file.Close()

	key, err := h.profiles.UploadDocument(c.Context(),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UploadResponse{Key: key}})
}

// SyncLocation handles POST /profile/location, the device heartbeat. Always
// replies accepted; persistence is best effort.
func (h *ProfileHandler) SyncLocation(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.LocationSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	h.profiles.SyncLocation(c.Context(), principal.User.ID, domain.Coordinates{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"synced": true}})
}
