package dto

import (
	"time"

	"github.com/spec-kit/rescue-service/internal/domain"
)

// RegisterRequest payload for new accounts. DocumentKey references a blob
// previously uploaded through the document endpoint.
type RegisterRequest struct {
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Password        string              `json:"password"`
	Role            domain.UserRole     `json:"role"`
	CertificationID string              `json:"certification_id,omitempty"`
	BirthDate       string              `json:"birth_date,omitempty"`
	Address         string              `json:"address"`
	City            string              `json:"city"`
	PostalCode      string              `json:"postal_code"`
	Coordinates     *domain.Coordinates `json:"coordinates,omitempty"`
	DocumentKey     string              `json:"document_key"`
	DocumentName    string              `json:"document_name,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints. EmailVerified false
// means the session is soft-blocked: usable, but the client should warn.
type AuthResponse struct {
	Token         string       `json:"token"`
	ExpiresAt     time.Time    `json:"expires_at"`
	EmailVerified bool         `json:"email_verified"`
	User          UserResponse `json:"user"`
}

// UserResponse public account view.
type UserResponse struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Role            domain.UserRole     `json:"role"`
	CertificationID *string             `json:"certification_id,omitempty"`
	BirthDate       *string             `json:"birth_date,omitempty"`
	Address         string              `json:"address"`
	City            string              `json:"city"`
	PostalCode      string              `json:"postal_code"`
	Coordinates     *domain.Coordinates `json:"coordinates,omitempty"`
	PhotoURL        *string             `json:"photo_url,omitempty"`
	EmailVerified   bool                `json:"email_verified"`
	Stats           *StatsResponse      `json:"stats,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// StatsResponse rescuer aggregates.
type StatsResponse struct {
	MissionsCompleted  int        `json:"missions_completed"`
	PeopleHelped       int        `json:"people_helped"`
	TotalRescueMinutes int        `json:"total_rescue_minutes"`
	LastMissionAt      *time.Time `json:"last_mission_at,omitempty"`
}

// UpdateProfileRequest payload; absent fields are left untouched.
type UpdateProfileRequest struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	BirthDate  *string `json:"birth_date,omitempty"`
}

// EmailRequest payload for resend-verification and password-reset requests.
type EmailRequest struct {
	Email string `json:"email"`
}

// VerifyEmailRequest payload.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// LocationSyncRequest payload for the device location heartbeat.
type LocationSyncRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UploadResponse returns the stored blob reference.
type UploadResponse struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url,omitempty"`
}

// NewUserResponse maps a domain user to its public view. Stats only appear
// for rescuer accounts.
func NewUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		CertificationID: user.CertificationID,
		BirthDate:       user.BirthDate,
		Address:         user.Address,
		City:            user.City,
		PostalCode:      user.PostalCode,
		Coordinates:     user.Coordinates,
		PhotoURL:        user.PhotoURL,
		EmailVerified:   user.EmailVerified,
		CreatedAt:       user.CreatedAt,
	}
	if user.IsRescuer() {
		resp.Stats = &StatsResponse{
			MissionsCompleted:  user.Stats.MissionsCompleted,
			PeopleHelped:       user.Stats.PeopleHelped,
			TotalRescueMinutes: user.Stats.TotalRescueMinutes,
			LastMissionAt:      user.Stats.LastMissionAt,
		}
	}
	return resp
}
