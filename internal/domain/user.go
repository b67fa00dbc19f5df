package domain

import "time"

// UserRole distinguishes the two account kinds.
type UserRole string

const (
	RoleRequester UserRole = "REQUESTER"
	RoleRescuer   UserRole = "RESCUER"
)

// Coordinates is a geographic point. A nil *Coordinates means "no fix yet".
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// RescuerStats aggregates mission outcomes for a rescuer profile.
type RescuerStats struct {
	MissionsCompleted  int
	PeopleHelped       int
	TotalRescueMinutes int
	LastMissionAt      *time.Time
}

// User is the domain model for both requesters and certified rescuers.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            UserRole
	CertificationID *string
	BirthDate       *string
	Address         string
	City            string
	PostalCode      string
	Coordinates     *Coordinates
	PhotoURL        *string
	DocumentKey     *string
	DocumentName    *string
	EmailVerified   bool
	Stats           RescuerStats
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLoginAt     *time.Time
}

// IsRescuer reports whether the user may view and accept missions.
func (u *User) IsRescuer() bool {
	return u != nil && u.Role == RoleRescuer
}
