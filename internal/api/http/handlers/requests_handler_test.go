package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/rescue-service/internal/api/http"
	"github.com/spec-kit/rescue-service/internal/api/http/handlers"
	"github.com/spec-kit/rescue-service/internal/auth"
	"github.com/spec-kit/rescue-service/internal/countdown"
	"github.com/spec-kit/rescue-service/internal/domain"
	"github.com/spec-kit/rescue-service/internal/service"
)

// staticUserRepo serves fixed accounts; only reads are exercised here.
type staticUserRepo struct {
	users map[string]*domain.User
}

func (r *staticUserRepo) Create(context.Context, *domain.User) error { return nil }
func (r *staticUserRepo) Update(context.Context, *domain.User) error { return nil }

func (r *staticUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *staticUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *staticUserRepo) UpdateCoordinates(context.Context, string, domain.Coordinates) error {
	return nil
}
func (r *staticUserRepo) UpdatePhotoURL(context.Context, string, string) error      { return nil }
func (r *staticUserRepo) UpdateStats(context.Context, string, domain.RescuerStats) error {
	return nil
}
func (r *staticUserRepo) MarkEmailVerified(context.Context, string) error     { return nil }
func (r *staticUserRepo) RecordLogin(context.Context, string, time.Time) error { return nil }

func requesterAccount(id string) *domain.User {
	return &domain.User{
		ID:    id,
		Name:  "Ana Martins",
		Email: id + "@example.com",
		Role:  domain.RoleRequester,
		Coordinates: &domain.Coordinates{
			Latitude:  38.7223,
			Longitude: -9.1393,
		},
	}
}

type armFixture struct {
	app       *fiber.App
	tokens    *auth.TokenManager
	users     *staticUserRepo
	countdown *countdown.Manager
}

func newArmFixture(t *testing.T) *armFixture {
	t.Helper()
	users := &staticUserRepo{users: map[string]*domain.User{
		"req-a": requesterAccount("req-a"),
		"req-b": requesterAccount("req-b"),
	}}
	tokens := auth.NewTokenManager("test-secret", 60)
	authMW := auth.NewAuthMiddleware(tokens, users)

	// Ticks an hour apart: the countdown never fires within the test, so
	// the nil-wired lifecycle service behind the fire callback is never hit.
	countdowns := countdown.NewManager(countdown.WithTimings(3, time.Hour, time.Millisecond))
	requestService := service.NewRequestService(service.RequestDependencies{})
	handler := handlers.NewRequestsHandler(requestService, countdowns, nil, zap.NewNop())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	requests := app.Group("/requests", authMW.Handle, auth.RequireRequester())
	requests.Post("/arm", handler.Arm)
	requests.Post("/arm/:id/cancel", handler.CancelArm)

	return &armFixture{app: app, tokens: tokens, users: users, countdown: countdowns}
}

func (f *armFixture) do(t *testing.T, userID, method, path, body string) *http.Response {
	t.Helper()
	token, _, err := f.tokens.GenerateToken(f.users.users[userID])
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	wrapper := struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}{}
	require.NoError(t, json.Unmarshal(body, &wrapper))
	if out != nil {
		require.NotNil(t, wrapper.Data)
		require.NoError(t, json.Unmarshal(wrapper.Data, out))
	}
}

func responseErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	return parsed.Error.Code
}

func TestCancelArmRejectsOtherRequester(t *testing.T) {
	f := newArmFixture(t)

	resp := f.do(t, "req-a", http.MethodPost, "/requests/arm", `{"address":"Rua Augusta 12"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var armed struct {
		CountdownID string `json:"countdown_id"`
	}
	decodeData(t, resp, &armed)
	require.NotEmpty(t, armed.CountdownID)

	// Another requester who knows the id must not be able to suppress it.
	resp = f.do(t, "req-b", http.MethodPost, "/requests/arm/"+armed.CountdownID+"/cancel", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", responseErrorCode(t, resp))

	state, _, ok := f.countdown.Status(armed.CountdownID)
	require.True(t, ok)
	assert.Equal(t, countdown.StateCounting, state)

	// The arming requester still can.
	resp = f.do(t, "req-a", http.MethodPost, "/requests/arm/"+armed.CountdownID+"/cancel", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, _, ok = f.countdown.Status(armed.CountdownID)
	assert.False(t, ok)
}

func TestCancelArmUnknownCountdownConflicts(t *testing.T) {
	f := newArmFixture(t)

	resp := f.do(t, "req-a", http.MethodPost, "/requests/arm/no-such-id/cancel", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", responseErrorCode(t, resp))
}
