package middleware

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/gym-management/internal/database"
    "github.com/iliyamo/gym-management/internal/logger"
    "github.com/iliyamo/gym-management/internal/model"
    "github.com/iliyamo/gym-management/internal/policy"
    "github.com/iliyamo/gym-management/internal/repository"
    "github.com/iliyamo/gym-management/internal/utils"
)

// Context keys set by Authenticate.
const (
    ActorKey  = "actor"
    UserIDKey = "user_id"
)

// UserLookup is the part of the user repository the middleware needs.
type UserLookup interface {
    GetByID(ctx context.Context, id string) (model.User, error)
}

// Authenticate validates the Bearer access token and loads the caller from
// the database on every request, so approval and deactivation take effect
// immediately rather than when the token expires. The lookup is retried on
// transient database errors. The resulting policy.Actor is stored under
// ActorKey.
func Authenticate(secret string, users UserLookup, retry database.RetryPolicy) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := BearerToken(c.Request())
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            var u model.User
            err = database.Retry(c.Request().Context(), retry, func(ctx context.Context) error {
                var err error
                u, err = users.GetByID(ctx, claims.UserID)
                return err
            })
            switch {
            case errors.Is(err, repository.ErrNotFound):
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account no longer exists"})
            case err != nil:
                logger.FromContext(c).Error("load caller", zap.String("user_id", claims.UserID), zap.Error(err))
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database unavailable, retry shortly"})
            }

            c.Set(ActorKey, policy.ActorOf(u))
            c.Set(UserIDKey, u.ID)
            return next(c)
        }
    }
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
    auth := r.Header.Get("Authorization")
    if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
        return ""
    }
    return strings.TrimSpace(auth[7:])
}

// ActorFrom returns the caller stored by Authenticate.
func ActorFrom(c echo.Context) (policy.Actor, bool) {
    a, ok := c.Get(ActorKey).(policy.Actor)
    return a, ok
}

// userID returns the authenticated user id, or "anon".
func userID(c echo.Context) string {
    if s, ok := c.Get(UserIDKey).(string); ok && s != "" {
        return s
    }
    return "anon"
}
