package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/config"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/utils"
)

// UserLookup resolves the token subject to a stored user.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Handler upgrades GET /ws?token=... requests into live clients.
type Handler struct {
	Hub       *Hub
	Users     UserLookup
	JWTSecret string
	Cfg       config.RealtimeConfig
	Log       *zap.Logger

	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, users UserLookup, secret string, cfg config.RealtimeConfig, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	h := &Handler{Hub: hub, Users: users, JWTSecret: secret, Cfg: cfg, Log: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.Cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func bearer(c echo.Context) string {
	if t := c.QueryParam("token"); t != "" {
		return t
	}
	auth := c.Request().Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// Serve authenticates the caller, upgrades the connection and runs the pumps.
// The client still has to send a register frame before it receives events.
func (h *Handler) Serve(c echo.Context) error {
	claims, err := utils.ParseAccessToken(h.JWTSecret, bearer(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	user, err := h.Users.GetByID(ctx, claims.UserID)
	cancel()
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
	}
	actor := policy.ActorOf(user)
	if err := policy.Gate(actor); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}
	client := newClient(actor, conn, h.Cfg.SendBuffer)
	go client.writePump(h.Cfg, h.Log)
	client.readPump(h.Hub, h.Cfg, h.Log)
	return nil
}
