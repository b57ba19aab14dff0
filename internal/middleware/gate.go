package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gym-management/internal/apperr"
    "github.com/iliyamo/gym-management/internal/policy"
)

// RequireApproved rejects callers that have not passed the approval gate:
// pending, rejected and deactivated accounts. Routes that pending users may
// still reach (their own profile, push token) are mounted outside it.
// It must run after Authenticate.
func RequireApproved() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            a, ok := ActorFrom(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            if err := policy.Gate(a); err != nil {
                return c.JSON(apperr.StatusOf(err), echo.Map{"error": apperr.MessageOf(err)})
            }
            return next(c)
        }
    }
}
