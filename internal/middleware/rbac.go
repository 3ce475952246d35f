package middleware

import (
	"simledger/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through only when the authenticated operator
// holds one of roles. Must run after JWTMiddleware.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, ok := common.GetActorFromContext(ctx); !ok {
				return common.SendUnauthorizedError(c)
			}

			role, _ := common.GetRoleFromContext(ctx)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return common.SendForbiddenError(c, "Insufficient permissions")
		}
	}
}

// SessionHeader carries the operator session id.
const SessionHeader = "X-Session-ID"

// SessionContext copies the session header onto the request context so
// handlers can find the operator's selected distributor.
func SessionContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.Request().Header.Get(SessionHeader); id != "" {
				ctx := common.WithSessionID(c.Request().Context(), id)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}
