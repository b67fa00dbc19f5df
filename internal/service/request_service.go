package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/events"
	"github.com/spec-kit/rescue-service/internal/geo"
	"github.com/spec-kit/rescue-service/internal/observability"
	"github.com/spec-kit/rescue-service/internal/repository"
	"github.com/spec-kit/rescue-service/internal/timefmt"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

// RequestService owns every status transition of a help request and the
// derived rescuer statistics update.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// RequestDependencies bundles collaborators for the lifecycle manager.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
}

// CreateRequestInput describes request creation payload.
type CreateRequestInput struct {
	Coordinates *domain.Coordinates
	Address     string
	PhotoURL    *string
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
	}
}

// CreateRequest inserts a new pending help request for the requester.
// Distance and ETA are deliberately not computed here; they are filled in
// per-rescuer when a mission view is built.
func (s *RequestService) CreateRequest(ctx context.Context, requester *domain.User, input CreateRequestInput) (*domain.HelpRequest, error) {
	coords := input.Coordinates
	if coords == nil {
		coords = requester.Coordinates
	}
	if coords == nil {
		return nil, apperrors.NewLocationUnavailable()
	}

	photoURL := input.PhotoURL
	if photoURL == nil {
		photoURL = requester.PhotoURL
	}

	request := &domain.HelpRequest{
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		Location:      *coords,
		Address:       strings.TrimSpace(input.Address),
		PhotoURL:      photoURL,
		Status:        domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTransition("created_pending")
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		Actor:     events.Actor{Role: domain.RoleRequester, UserID: requester.ID},
		Payload: events.RequestCreatedPayload{
			RequesterName: request.RequesterName,
			Location:      request.Location,
			Address:       request.Address,
		},
	})
	return request, nil
}

// ListPending returns all pending requests in insertion order.
func (s *RequestService) ListPending(ctx context.Context) ([]domain.HelpRequest, error) {
	pending, err := s.requests.ListByStatus(ctx, domain.RequestStatusPending)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return pending, nil
}

// AcceptMission conditionally claims a pending request for the rescuer. The
// write only lands if the request is still pending, so of two racing
// rescuers exactly one wins; the loser gets AlreadyClaimed.
func (s *RequestService) AcceptMission(ctx context.Context, requestID string, rescuer *domain.User) (*domain.MissionView, error) {
	if !rescuer.IsRescuer() {
		return nil, apperrors.NewForbidden("rescuer account required")
	}

	// One active mission per rescuer.
	if active, err := s.requests.ActiveByRescuer(ctx, rescuer.ID); err == nil && active != nil {
		return nil, apperrors.NewConflict("already on a mission", map[string]any{"request_id": active.ID})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	request, err := s.requests.Accept(ctx, requestID, rescuer.ID, rescuer.Name, time.Now())
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		// The conditional write matched nothing: either the request is
		// gone or somebody else claimed it first.
		if _, getErr := s.requests.GetByID(ctx, requestID); getErr != nil {
			return nil, apperrors.NewNotFound("help request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.NewAlreadyClaimed(requestID)
	}

	view := s.missionView(request, rescuer.Coordinates)

	s.metrics.RecordTransition("pending_accepted")
	s.publishEvent(ctx, events.Event{
		Type:      events.EventMissionAccepted,
		RequestID: request.ID,
		Actor:     events.Actor{Role: domain.RoleRescuer, UserID: rescuer.ID},
		Payload: events.MissionAcceptedPayload{
			RescuerID:     rescuer.ID,
			RescuerName:   rescuer.Name,
			DistanceM:     view.DistanceM,
			EstimatedTime: view.EstimatedTime,
		},
	})
	return view, nil
}

// ActiveMission returns the rescuer's current accepted request, annotated
// with distance and ETA, or nil when the rescuer is idle.
func (s *RequestService) ActiveMission(ctx context.Context, rescuer *domain.User) (*domain.MissionView, error) {
	request, err := s.requests.ActiveByRescuer(ctx, rescuer.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return s.missionView(request, rescuer.Coordinates), nil
}

// CancelMission releases an accepted request back to the pending pool,
// clearing the rescuer assignment. Cancelling an already-pending request is
// a no-op.
func (s *RequestService) CancelMission(ctx context.Context, requestID string, rescuer *domain.User) error {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("help request", map[string]any{"request_id": requestID})
		}
		return apperrors.MapError(err)
	}

	switch request.Status {
	case domain.RequestStatusPending:
		return nil
	case domain.RequestStatusCompleted:
		return apperrors.NewConflict("completed missions cannot be cancelled", map[string]any{"request_id": requestID})
	}
	if request.RescuerID == nil || *request.RescuerID != rescuer.ID {
		return apperrors.NewForbidden("only the assigned rescuer may cancel")
	}

	changed, err := s.requests.Release(ctx, requestID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if changed == 0 {
		// Lost a race against another transition; already pending is fine,
		// anything else is reported on the next read.
		return nil
	}

	s.metrics.RecordTransition("accepted_pending")
	s.publishEvent(ctx, events.Event{
		Type:      events.EventMissionCancelled,
		RequestID: requestID,
		Actor:     events.Actor{Role: domain.RoleRescuer, UserID: rescuer.ID},
		Payload:   events.MissionCancelledPayload{RescuerID: rescuer.ID},
	})
	return nil
}

// CompleteMission marks the mission done, stamps the elapsed rescue time and
// folds it into the rescuer's aggregate statistics. Completion and the stats
// update are two separate writes: when the second fails the first is NOT
// rolled back, and the caller gets StatsUpdateFailed so only the stats step
// is retried.
func (s *RequestService) CompleteMission(ctx context.Context, requestID string, rescuer *domain.User) (*domain.MissionSummary, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("help request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	if request.Status != domain.RequestStatusAccepted {
		return nil, apperrors.NewConflict("mission is not in progress", map[string]any{
			"request_id": requestID,
			"status":     request.Status,
		})
	}
	if request.RescuerID == nil || *request.RescuerID != rescuer.ID {
		return nil, apperrors.NewForbidden("only the assigned rescuer may complete")
	}

	now := time.Now()
	rescueTime := timefmt.Elapsed(*request.AcceptedAt, now)

	completed, err := s.requests.Complete(ctx, requestID, rescuer.ID, now, rescueTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("mission is not in progress", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTransition("accepted_completed")
	s.publishEvent(ctx, events.Event{
		Type:      events.EventMissionCompleted,
		RequestID: completed.ID,
		Actor:     events.Actor{Role: domain.RoleRescuer, UserID: rescuer.ID},
		Payload: events.MissionCompletedPayload{
			RescuerID:  rescuer.ID,
			RescueTime: rescueTime,
		},
	})

	summary := &domain.MissionSummary{
		Request:    *completed,
		RescueTime: rescueTime,
	}

	stats, err := s.applyStats(ctx, rescuer.ID, rescueTime, now)
	if err != nil {
		return summary, apperrors.NewStatsUpdateFailed(requestID, err)
	}
	summary.StatsUpdated = true
	summary.Stats = stats
	return summary, nil
}

// RetryStatsUpdate re-runs only the statistics step of a completed mission
// after a StatsUpdateFailed outcome. A stats record whose last-mission stamp
// already covers the completion is left alone, so the retry cannot
// double-count.
func (s *RequestService) RetryStatsUpdate(ctx context.Context, requestID string, rescuer *domain.User) (domain.RescuerStats, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RescuerStats{}, apperrors.NewNotFound("help request", map[string]any{"request_id": requestID})
		}
		return domain.RescuerStats{}, apperrors.MapError(err)
	}
	if request.Status != domain.RequestStatusCompleted || request.RescuerID == nil || *request.RescuerID != rescuer.ID {
		return domain.RescuerStats{}, apperrors.NewConflict("no completed mission to account for", map[string]any{"request_id": requestID})
	}

	current, err := s.users.GetByID(ctx, rescuer.ID)
	if err != nil {
		return domain.RescuerStats{}, apperrors.MapError(err)
	}
	if current.Stats.LastMissionAt != nil && request.CompletedAt != nil &&
		!current.Stats.LastMissionAt.Before(*request.CompletedAt) {
		return current.Stats, nil
	}

	rescueTime := ""
	if request.RescueTime != nil {
		rescueTime = *request.RescueTime
	}
	completedAt := time.Now()
	if request.CompletedAt != nil {
		completedAt = *request.CompletedAt
	}
	stats, err := s.applyStats(ctx, rescuer.ID, rescueTime, completedAt)
	if err != nil {
		return domain.RescuerStats{}, apperrors.NewStatsUpdateFailed(requestID, err)
	}
	return stats, nil
}

// applyStats folds one completed mission into the rescuer aggregates. The
// stored rescue-time string is parsed back into minutes here, which is why
// the two-token grammar must be preserved exactly.
func (s *RequestService) applyStats(ctx context.Context, rescuerID, rescueTime string, at time.Time) (domain.RescuerStats, error) {
	current, err := s.users.GetByID(ctx, rescuerID)
	if err != nil {
		return domain.RescuerStats{}, err
	}

	stats := current.Stats
	stats.MissionsCompleted++
	stats.PeopleHelped++
	stats.TotalRescueMinutes += timefmt.ParseMinutes(rescueTime)
	stats.LastMissionAt = &at

	if err := s.users.UpdateStats(ctx, rescuerID, stats); err != nil {
		return domain.RescuerStats{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventStatsUpdated,
		RequestID: "",
		Actor:     events.Actor{Role: domain.RoleRescuer, UserID: rescuerID},
		Payload: events.StatsUpdatedPayload{
			RescuerID:          rescuerID,
			MissionsCompleted:  stats.MissionsCompleted,
			TotalRescueMinutes: stats.TotalRescueMinutes,
		},
	})
	return stats, nil
}

func (s *RequestService) missionView(request *domain.HelpRequest, rescuerCoords *domain.Coordinates) *domain.MissionView {
	meters := geo.DistanceMeters(rescuerCoords, &request.Location)
	return &domain.MissionView{
		Request:       *request,
		DistanceM:     meters,
		Distance:      geo.FormatDistance(meters),
		EstimatedTime: geo.ETAFromDistance(meters),
	}
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
