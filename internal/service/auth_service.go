package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/auth"
	"github.com/spec-kit/rescue-service/internal/config"
	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/repository"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService coordinates registration, login and account token flows.
type AuthService struct {
	users         repository.UserRepository
	tokens        repository.TokenRepository
	certification CertificationVerifier
	tokenMgr      *auth.TokenManager
	logger        *zap.Logger
	bcryptCost    int
	resetTTL      time.Duration
	verifyTTL     time.Duration
}

// AuthDependencies encapsulates collaborators for auth service.
type AuthDependencies struct {
	UserRepo      repository.UserRepository
	TokenRepo     repository.TokenRepository
	Certification CertificationVerifier
	Logger        *zap.Logger
}

// RegisterInput describes a registration payload for either role.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	Role            domain.UserRole
	CertificationID string
	BirthDate       string
	Address         string
	City            string
	PostalCode      string
	Coordinates     *domain.Coordinates
	DocumentKey     string
	DocumentName    string
}

// LoginResult carries the session token plus the verification soft-block
// signal: an unverified account still gets a token, the client decides
// whether to continue with limited access.
type LoginResult struct {
	User          *domain.User
	Token         string
	ExpiresAt     time.Time
	EmailVerified bool
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:         deps.UserRepo,
		tokens:        deps.TokenRepo,
		certification: deps.Certification,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:        deps.Logger,
		bcryptCost:    cfg.Auth.BcryptCost,
		resetTTL:      time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		verifyTTL:     time.Duration(cfg.Auth.VerificationTTLHours) * time.Hour,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new account, issues a verification token and "sends"
// the verification email. Rescuer registrations additionally require a
// certification id that passes the certifying-body check.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	if input.Role == domain.RoleRescuer {
		result, err := s.certification.Verify(ctx, input.CertificationID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !result.Valid {
			return nil, apperrors.NewValidationError("certification rejected", map[string]any{"reason": result.Message})
		}
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
		Address:      input.Address,
		City:         input.City,
		PostalCode:   input.PostalCode,
		Coordinates:  input.Coordinates,
	}
	if input.BirthDate != "" {
		user.BirthDate = &input.BirthDate
	}
	if input.Role == domain.RoleRescuer {
		user.CertificationID = &input.CertificationID
	}
	if input.DocumentKey != "" {
		user.DocumentKey = &input.DocumentKey
		user.DocumentName = &input.DocumentName
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.issueVerification(ctx, user); err != nil {
		// Account exists; the user can ask for a resend.
		s.logger.Warn("verification email not issued", zap.Error(err), zap.String("user_id", user.ID))
	}
	return user, nil
}

// Login authenticates a user. Unverified accounts are soft-blocked: the
// token is issued anyway and EmailVerified tells the client to warn.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("invalid email format", nil)
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := time.Now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("last login not recorded", zap.Error(err), zap.String("user_id", user.ID))
	}
	user.LastLoginAt = &now

	return &LoginResult{
		User:          user,
		Token:         token,
		ExpiresAt:     exp,
		EmailVerified: user.EmailVerified,
	}, nil
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) error {
	token, err := s.tokens.GetByToken(ctx, repository.TokenPurposeEmailVerification, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid verification token", nil)
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("verification token expired", nil)
	}

	if err := s.users.MarkEmailVerified(ctx, token.UserID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ResendVerification issues a fresh verification token for an unverified
// account. Verified accounts are a no-op.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Don't leak which addresses exist.
			return nil
		}
		return apperrors.MapError(err)
	}
	if user.EmailVerified {
		return nil
	}
	return s.issueVerification(ctx, user)
}

// RequestPasswordReset issues a reset token. Pass-through flow; unknown
// emails are silently accepted.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}

	token := &repository.AccountToken{
		UserID:    user.ID,
		Purpose:   repository.TokenPurposePasswordReset,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("password reset email queued",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", token.ExpiresAt))
	return nil
}

// ConfirmPasswordReset consumes a reset token and replaces the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < 6 {
		return apperrors.NewValidationError("password must have at least 6 characters", nil)
	}

	token, err := s.tokens.GetByToken(ctx, repository.TokenPurposePasswordReset, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid reset token", nil)
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("reset token expired", nil)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) issueVerification(ctx context.Context, user *domain.User) error {
	token := &repository.AccountToken{
		UserID:    user.ID,
		Purpose:   repository.TokenPurposeEmailVerification,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.verifyTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return err
	}
	// Email delivery is the identity provider's job; here it is a stub.
	s.logger.Info("verification email queued",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.Time("expires_at", token.ExpiresAt))
	return nil
}

func validateRegistration(input RegisterInput) error {
	details := map[string]any{}

	if !validFullName(input.Name) {
		details["name"] = "full name with at least two words required"
	}
	if !emailPattern.MatchString(input.Email) {
		details["email"] = "invalid email format"
	}
	if len(input.Password) < 6 {
		details["password"] = "must have at least 6 characters"
	}
	if input.Role != domain.RoleRequester && input.Role != domain.RoleRescuer {
		details["role"] = "must be REQUESTER or RESCUER"
	}
	if strings.TrimSpace(input.Address) == "" {
		details["address"] = "required"
	}
	if strings.TrimSpace(input.City) == "" {
		details["city"] = "required"
	}
	if strings.TrimSpace(input.PostalCode) == "" {
		details["postal_code"] = "required"
	}
	if input.DocumentKey == "" {
		details["document"] = "residence certificate required"
	}
	if input.Role == domain.RoleRescuer && strings.TrimSpace(input.CertificationID) == "" {
		details["certification_id"] = "required for rescuers"
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("registration rejected", details)
	}
	return nil
}

func validFullName(name string) bool {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		if len([]rune(part)) < 2 {
			return false
		}
	}
	return true
}
