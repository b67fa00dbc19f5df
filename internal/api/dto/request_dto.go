package dto

import (
	"time"

	"github.com/spec-kit/rescue-service/internal/domain"
)

// CreateRequestPayload body for creating a help request. Coordinates may be
// omitted when the account already has a synced location.
type CreateRequestPayload struct {
	Coordinates *domain.Coordinates `json:"coordinates,omitempty"`
	Address     string              `json:"address"`
	PhotoURL    *string             `json:"photo_url,omitempty"`
}

// ArmResponse returns the countdown handle for a just-armed request.
type ArmResponse struct {
	CountdownID string `json:"countdown_id"`
	Seconds     int    `json:"seconds"`
}

// RequestResponse public view of a help request.
type RequestResponse struct {
	ID             string               `json:"id"`
	RequesterID    string               `json:"requester_id"`
	RequesterName  string               `json:"requester_name"`
	Location       domain.Coordinates   `json:"location"`
	Address        string               `json:"address"`
	PhotoURL       *string              `json:"photo_url,omitempty"`
	Status         domain.RequestStatus `json:"status"`
	RescuerID      *string              `json:"rescuer_id,omitempty"`
	RescuerName    *string              `json:"rescuer_name,omitempty"`
	AcceptedAt     *time.Time           `json:"accepted_at,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	RescueTime     *string              `json:"rescue_time,omitempty"`
	RescuerArrived bool                 `json:"rescuer_arrived"`
	CreatedAt      time.Time            `json:"created_at"`
}

// MissionResponse is a request annotated with the rescuer's distance.
type MissionResponse struct {
	RequestResponse
	DistanceM     int    `json:"distance_m"`
	Distance      string `json:"distance"`
	EstimatedTime string `json:"estimated_time"`
}

// MissionSummaryResponse is the completion outcome. StatsUpdated false with
// a STATS_UPDATE_FAILED error means only the stats step should be retried.
type MissionSummaryResponse struct {
	RequestResponse
	RescueTime   string         `json:"rescue_time"`
	StatsUpdated bool           `json:"stats_updated"`
	Stats        *StatsResponse `json:"stats,omitempty"`
}

// NewRequestResponse maps a domain request.
func NewRequestResponse(request *domain.HelpRequest) RequestResponse {
	return RequestResponse{
		ID:             request.ID,
		RequesterID:    request.RequesterID,
		RequesterName:  request.RequesterName,
		Location:       request.Location,
		Address:        request.Address,
		PhotoURL:       request.PhotoURL,
		Status:         request.Status,
		RescuerID:      request.RescuerID,
		RescuerName:    request.RescuerName,
		AcceptedAt:     request.AcceptedAt,
		CompletedAt:    request.CompletedAt,
		RescueTime:     request.RescueTime,
		RescuerArrived: request.RescuerArrived,
		CreatedAt:      request.CreatedAt,
	}
}

// NewRequestResponses maps a snapshot slice.
func NewRequestResponses(requests []domain.HelpRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, NewRequestResponse(&requests[i]))
	}
	return out
}

// NewMissionResponse maps an annotated mission view.
func NewMissionResponse(view *domain.MissionView) MissionResponse {
	return MissionResponse{
		RequestResponse: NewRequestResponse(&view.Request),
		DistanceM:       view.DistanceM,
		Distance:        view.Distance,
		EstimatedTime:   view.EstimatedTime,
	}
}

// NewMissionSummaryResponse maps a completion summary.
func NewMissionSummaryResponse(summary *domain.MissionSummary) MissionSummaryResponse {
	resp := MissionSummaryResponse{
		RequestResponse: NewRequestResponse(&summary.Request),
		RescueTime:      summary.RescueTime,
		StatsUpdated:    summary.StatsUpdated,
	}
	if summary.StatsUpdated {
		resp.Stats = &StatsResponse{
			MissionsCompleted:  summary.Stats.MissionsCompleted,
			PeopleHelped:       summary.Stats.PeopleHelped,
			TotalRescueMinutes: summary.Stats.TotalRescueMinutes,
			LastMissionAt:      summary.Stats.LastMissionAt,
		}
	}
	return resp
}
