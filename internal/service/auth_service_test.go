package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/config"
	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/repository"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*repository.AccountToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*repository.AccountToken)}
}

func (f *fakeTokenRepo) Create(_ context.Context, token *repository.AccountToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	clone := *token
	f.tokens[token.ID] = &clone
	return nil
}

func (f *fakeTokenRepo) GetByToken(_ context.Context, purpose, value string) (*repository.AccountToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, token := range f.tokens {
		if token.Purpose == purpose && token.Token == value {
			clone := *token
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTokenRepo) MarkUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token, ok := f.tokens[id]; ok {
		now := time.Now()
		token.UsedAt = &now
	}
	return nil
}

func (f *fakeTokenRepo) latest(purpose string) *repository.AccountToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *repository.AccountToken
	for _, token := range f.tokens {
		if token.Purpose != purpose {
			continue
		}
		if newest == nil || token.CreatedAt.After(newest.CreatedAt) {
			newest = token
		}
	}
	return newest
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *fakeTokenRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			VerificationTTLHours:    48,
			BcryptCost:              4,
		},
	}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:      users,
		TokenRepo:     tokens,
		Certification: StubCertificationVerifier{},
		Logger:        zap.NewNop(),
	})
	return svc, users, tokens
}

func validRegistration(role domain.UserRole) RegisterInput {
	input := RegisterInput{
		Name:        "Ana Martins",
		Email:       "ana@example.com",
		Password:    "secret1",
		Role:        role,
		BirthDate:   "1990-04-12",
		Address:     "Rua Augusta 12",
		City:        "Lisboa",
		PostalCode:  "1100-048",
		DocumentKey: "documents/abc.pdf",
	}
	if role == domain.RoleRescuer {
		input.CertificationID = "CV-2024-1234"
	}
	return input
}

func TestRegisterRequester(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	user, err := svc.Register(context.Background(), validRegistration(domain.RoleRequester))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRequester, user.Role)
	assert.False(t, user.EmailVerified)
	assert.Nil(t, user.CertificationID)

	issued := tokens.latest(repository.TokenPurposeEmailVerification)
	require.NotNil(t, issued)
	assert.Equal(t, user.ID, issued.UserID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	cases := map[string]func(*RegisterInput){
		"single word name": func(in *RegisterInput) { in.Name = "Ana" },
		"bad email":        func(in *RegisterInput) { in.Email = "not-an-email" },
		"short password":   func(in *RegisterInput) { in.Password = "12345" },
		"missing address":  func(in *RegisterInput) { in.Address = " " },
		"missing document": func(in *RegisterInput) { in.DocumentKey = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validRegistration(domain.RoleRequester)
			mutate(&input)
			_, err := svc.Register(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
		})
	}
}

func TestRegisterRescuerRequiresCertification(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	input := validRegistration(domain.RoleRescuer)
	input.CertificationID = ""
	_, err := svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	input = validRegistration(domain.RoleRescuer)
	input.CertificationID = "xy"
	_, err = svc.Register(context.Background(), input)
	require.Error(t, err)

	input = validRegistration(domain.RoleRescuer)
	user, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, user.CertificationID)
	assert.Equal(t, "CV-2024-1234", *user.CertificationID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), validRegistration(domain.RoleRequester))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration(domain.RoleRequester))
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestLoginSoftBlocksUnverified(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), validRegistration(domain.RoleRequester))
	require.NoError(t, err)

	// Unverified: login still works, the flag tells the client to warn.
	result, err := svc.Login(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, result.EmailVerified)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	issued := tokens.latest(repository.TokenPurposeEmailVerification)
	require.NotNil(t, issued)
	require.NoError(t, svc.VerifyEmail(context.Background(), issued.Token))

	stored, err := users.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	result, err = svc.Login(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, result.EmailVerified)

	// A consumed token cannot verify twice.
	err = svc.VerifyEmail(context.Background(), issued.Token)
	require.Error(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), validRegistration(domain.RoleRequester))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ana@example.com", "wrong-pass")
	require.Error(t, err)
	assert.Equal(t, "AUTH_REQUIRED", apperrors.ToDomainError(err).Code)

	_, err = svc.Login(context.Background(), "nobody@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "AUTH_REQUIRED", apperrors.ToDomainError(err).Code)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	_, err := svc.Register(context.Background(), validRegistration(domain.RoleRequester))
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ana@example.com"))
	issued := tokens.latest(repository.TokenPurposePasswordReset)
	require.NotNil(t, issued)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), issued.Token, "newsecret"))

	_, err = svc.Login(context.Background(), "ana@example.com", "secret1")
	require.Error(t, err)
	result, err := svc.Login(context.Background(), "ana@example.com", "newsecret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	// Unknown addresses are silently accepted.
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
}
