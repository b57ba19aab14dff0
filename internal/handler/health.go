package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/gym-management/internal/model"
)

// HealthHandler reports dependency status. It always answers 200 so load
// balancers keep routing while a dependency recovers; the body says
// "degraded" when the database or Redis is down.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
	Live  interface{ Count() int }
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{}
	healthy := true

	if h.DB == nil {
		checks["database"] = "not configured"
		healthy = false
	} else if err := h.DB.PingContext(ctx); err != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}

	switch {
	case h.Redis == nil:
		checks["redis"] = "not configured"
		healthy = false
	case h.Redis.Ping(ctx).Err() != nil:
		checks["redis"] = "down"
		healthy = false
	default:
		checks["redis"] = "up"
	}

	status := "healthy"
	if !healthy {
		status = "degraded"
	}
	body := echo.Map{"status": status, "checks": checks, "time": time.Now().UTC()}
	if h.Live != nil {
		body["live_connections"] = h.Live.Count()
	}
	return c.JSON(http.StatusOK, body)
}

// Centers lists the gym branches. The list is static and cached upstream.
func Centers(c echo.Context) error {
	return list(c, model.CenterDirectory)
}
