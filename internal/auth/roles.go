package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("access denied: insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated with a recognized role.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Role.Valid() {
			return apperrors.NewForbidden("access denied: unrecognized role")
		}
		return c.Next()
	}
}
