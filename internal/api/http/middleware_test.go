package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/rescue-service/internal/auth"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

func newGuardedApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)

	ok := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "ok"})
	}
	app.Get("/rescuer-only", auth.RequireRescuer(), ok)
	app.Get("/requester-only", auth.RequireRequester(), ok)
	app.Get("/any", auth.RequireAnyRole(), ok)
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("already on a mission", map[string]any{"request_id": "r1"})
	})
	return app
}

func errorCode(t *testing.T, resp *http.Response) string {
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

func TestRoleGuardsMapToForbidden(t *testing.T) {
	app := newGuardedApp(t)

	for _, path := range []string{"/rescuer-only", "/requester-only"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		assert.Equal(t, "FORBIDDEN", errorCode(t, resp), path)
	}
}

func TestMissingPrincipalMapsToAuthRequired(t *testing.T) {
	app := newGuardedApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/any", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_REQUIRED", errorCode(t, resp))
}

func TestDomainErrorKeepsStatusAndCode(t *testing.T) {
	app := newGuardedApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(t, resp))
}
