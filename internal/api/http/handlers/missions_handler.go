package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/rescue-service/internal/api/dto"
	"github.com/spec-kit/rescue-service/internal/auth"
	"github.com/spec-kit/rescue-service/internal/service"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

// MissionsHandler exposes the rescuer side of a help request's lifecycle.
type MissionsHandler struct {
	requests *service.RequestService
}

// NewMissionsHandler constructs handler.
func NewMissionsHandler(requests *service.RequestService) *MissionsHandler {
	return &MissionsHandler{requests: requests}
}

// Accept handles POST /missions/:requestID/accept.
func (h *MissionsHandler) Accept(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	view, err := h.requests.AcceptMission(c.Context(), c.Params("requestID"), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMissionResponse(view)})
}

// Active handles GET /missions/active.
func (h *MissionsHandler) Active(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	view, err := h.requests.ActiveMission(c.Context(), principal.User)
	if err != nil {
		return err
	}
	if view == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewMissionResponse(view)})
}

// Cancel handles POST /missions/:requestID/cancel: the request goes back to
// the pending pool for other rescuers.
func (h *MissionsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.requests.CancelMission(c.Context(), c.Params("requestID"), principal.User); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"cancelled": true}})
}

// Complete handles POST /missions/:requestID/complete.
func (h *MissionsHandler) Complete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	summary, err := h.requests.CompleteMission(c.Context(), c.Params("requestID"), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMissionSummaryResponse(summary)})
}

// RetryStats handles POST /missions/:requestID/stats/retry after a
// STATS_UPDATE_FAILED completion outcome.
func (h *MissionsHandler) RetryStats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	stats, err := h.requests.RetryStatsUpdate(c.Context(), c.Params("requestID"), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		MissionsCompleted:  stats.MissionsCompleted,
		PeopleHelped:       stats.PeopleHelped,
		TotalRescueMinutes: stats.TotalRescueMinutes,
		LastMissionAt:      stats.LastMissionAt,
	}})
}
