package domain

import "time"

// RequestStatus enumerates lifecycle states for help requests.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusCompleted RequestStatus = "COMPLETED"
)

// HelpRequest is the aggregate for emergency assistance requests. Exactly one
// rescuer may hold the request in ACCEPTED at a time; rescuer and completion
// fields are only present once the corresponding transition happened.
type HelpRequest struct {
	ID             string
	RequesterID    string
	RequesterName  string
	Location       Coordinates
	Address        string
	PhotoURL       *string
	Status         RequestStatus
	RescuerID      *string
	RescuerName    *string
	AcceptedAt     *time.Time
	CompletedAt    *time.Time
	RescueTime     *string
	RescuerArrived bool
	CreatedAt      time.Time
}

// MissionView is the rescuer-side projection of an accepted request, annotated
// with distance and ETA computed from the rescuer's position at acceptance.
type MissionView struct {
	Request       HelpRequest
	DistanceM     int
	Distance      string
	EstimatedTime string
}

// MissionSummary reports the outcome of a completed mission.
type MissionSummary struct {
	Request      HelpRequest
	RescueTime   string
	StatsUpdated bool
	Stats        RescuerStats
}
