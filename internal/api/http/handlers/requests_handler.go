package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/api/dto"
	"github.com/spec-kit/rescue-service/internal/auth"
	"github.com/spec-kit/rescue-service/internal/board"
	"github.com/spec-kit/rescue-service/internal/countdown"
	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/service"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

// RequestsHandler exposes the requester side: arming the countdown, direct
// creation, the pending board and its live stream.
type RequestsHandler struct {
	requests   *service.RequestService
	countdowns *countdown.Manager
	board      *board.Board
	logger     *zap.Logger
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService, countdowns *countdown.Manager, b *board.Board, logger *zap.Logger) *RequestsHandler {
	return &RequestsHandler{requests: requests, countdowns: countdowns, board: b, logger: logger}
}

// Arm handles POST /requests/arm: starts the cancellable countdown that
// creates the help request when it reaches zero.
func (h *RequestsHandler) Arm(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var payload dto.CreateRequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	// Reject an unarmable request now, not after the countdown.
	if payload.Coordinates == nil && principal.User.Coordinates == nil {
		return apperrors.NewLocationUnavailable()
	}

	requester := principal.User
	input := service.CreateRequestInput{
		Coordinates: payload.Coordinates,
		Address:     payload.Address,
		PhotoURL:    payload.PhotoURL,
	}
	id, err := h.countdowns.Start(requester.ID, func() {
		if _, err := h.requests.CreateRequest(context.Background(), requester, input); err != nil {
			h.logger.Error("armed request creation failed",
				zap.Error(err),
				zap.String("requester_id", requester.ID))
		}
	})
	if err != nil {
		if errors.Is(err, countdown.ErrAlreadyCounting) {
			return apperrors.NewConflict("a countdown is already in progress", nil)
		}
		return apperrors.MapError(err)
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": dto.ArmResponse{CountdownID: id, Seconds: countdown.DefaultTicks},
	})
}

// CancelArm handles POST /requests/arm/:id/cancel. Only the requester who
// armed the countdown may cancel it, and only while it is still counting;
// once fired the request exists.
func (h *RequestsHandler) CancelArm(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	id := c.Params("id")
	if owner, found := h.countdowns.Owner(id); found && owner != principal.User.ID {
		return apperrors.NewForbidden("only the arming requester may cancel")
	}
	if err := h.countdowns.Cancel(id); err != nil {
		if errors.Is(err, countdown.ErrNotCounting) {
			return apperrors.NewConflict("countdown already fired or cancelled", map[string]any{"countdown_id": id})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"cancelled": true}})
}

// Create handles POST /requests: immediate creation, bypassing the countdown.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var payload dto.CreateRequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.requests.CreateRequest(c.Context(), principal.User, service.CreateRequestInput{
		Coordinates: payload.Coordinates,
		Address:     payload.Address,
		PhotoURL:    payload.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(request)})
}

// ListPending handles GET /requests/pending.
func (h *RequestsHandler) ListPending(c *fiber.Ctx) error {
	pending, err := h.requests.ListPending(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponses(pending)})
}

// Stream handles GET /requests/stream: a server-sent-events feed that pushes
// a full pending snapshot whenever the board changes.
func (h *RequestsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	snapshots, cancel := h.board.Subscribe()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		// The heartbeat keeps writes flowing on a quiet board so a
		// disconnected client is detected and unsubscribed promptly.
		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()
		pumpSnapshots(w, snapshots, heartbeat.C)
	}))
	return nil
}

const heartbeatInterval = 15 * time.Second

// pumpSnapshots forwards board snapshots and heartbeat comments until the
// subscription closes or a write fails, whichever comes first.
func pumpSnapshots(w *bufio.Writer, snapshots <-chan []domain.HelpRequest, heartbeat <-chan time.Time) {
	for {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if err := writeSnapshotEvent(w, snapshot); err != nil {
				return
			}
		case <-heartbeat:
			if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func writeSnapshotEvent(w *bufio.Writer, snapshot []domain.HelpRequest) error {
	body, err := json.Marshal(dto.NewRequestResponses(snapshot))
	if err != nil {
		return err
	}
	if _, err := w.WriteString("event: pending\ndata: "); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
