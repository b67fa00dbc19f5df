package events

import (
	"time"

	"github.com/spec-kit/rescue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated   EventType = "request_created"
	EventMissionAccepted  EventType = "mission_accepted"
	EventMissionCancelled EventType = "mission_cancelled"
	EventMissionCompleted EventType = "mission_completed"
	EventStatsUpdated     EventType = "stats_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role   domain.UserRole `json:"role"`
	UserID string          `json:"user_id"`
}

// Event represents a domain event emitted by services. Origin carries the
// emitting instance id so cross-instance relays can skip their own events.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Origin    string      `json:"origin,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	RequesterName string             `json:"requester_name"`
	Location      domain.Coordinates `json:"location"`
	Address       string             `json:"address"`
}

// MissionAcceptedPayload payload.
type MissionAcceptedPayload struct {
	RescuerID     string `json:"rescuer_id"`
	RescuerName   string `json:"rescuer_name"`
	DistanceM     int    `json:"distance_m"`
	EstimatedTime string `json:"estimated_time"`
}

// MissionCancelledPayload payload.
type MissionCancelledPayload struct {
	RescuerID string `json:"rescuer_id"`
}

// MissionCompletedPayload payload.
type MissionCompletedPayload struct {
	RescuerID  string `json:"rescuer_id"`
	RescueTime string `json:"rescue_time"`
}

// StatsUpdatedPayload payload.
type StatsUpdatedPayload struct {
	RescuerID          string `json:"rescuer_id"`
	MissionsCompleted  int    `json:"missions_completed"`
	TotalRescueMinutes int    `json:"total_rescue_minutes"`
}
