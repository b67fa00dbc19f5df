package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/rescue-service/internal/domain"
	apperrors "github.com/spec-kit/rescue-service/pkg/util"
)

// RequireRequester ensures the caller is a requester account.
func RequireRequester() fiber.Handler {
	return requireRole(domain.RoleRequester, "requester account required")
}

// RequireRescuer ensures the caller is a certified rescuer.
func RequireRescuer() fiber.Handler {
	return requireRole(domain.RoleRescuer, "rescuer account required")
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

func requireRole(role domain.UserRole, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil || principal.Role != role {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
