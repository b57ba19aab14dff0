// Package router mounts the HTTP surface on Echo.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/handler"
	"github.com/iliyamo/gym-management/internal/middleware"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Approvals     *handler.ApprovalHandler
	Members       *handler.MemberHandler
	Trainers      *handler.TrainerHandler
	Attendance    *handler.AttendanceHandler
	Messages      *handler.MessageHandler
	Announcements *handler.AnnouncementHandler
	Merchandise   *handler.MerchandiseHandler
	Plans         *handler.PlanHandler
	Payments      *handler.PaymentHandler
	Notifications *handler.NotificationHandler
	Dashboard     *handler.DashboardHandler

	Live    echo.HandlerFunc // GET /ws
	Metrics echo.HandlerFunc // GET /metrics
}

// Middleware carries the configured cross-cutting middleware. Nil entries
// are skipped.
type Middleware struct {
	Authenticate echo.MiddlewareFunc
	AuthLimit    echo.MiddlewareFunc // login, register, refresh, logout
	APILimit     echo.MiddlewareFunc // every authenticated route, keyed by user
	Cache        echo.MiddlewareFunc // caller independent catalog reads
}

func chain(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// signedIn is the stack for routes any authenticated caller may use,
// including pending accounts.
func (m Middleware) signedIn() []echo.MiddlewareFunc {
	return chain(m.Authenticate, m.APILimit)
}

// approved additionally requires an approved, active account.
func (m Middleware) approved() []echo.MiddlewareFunc {
	return append(m.signedIn(), middleware.RequireApproved())
}

// Register mounts every route. Each resource gets its own /api/<name> group
// so group middleware never leaks onto a neighbour's prefix.
func Register(e *echo.Echo, h Handlers, m Middleware) {
	e.GET("/health", h.Health.Health)
	e.GET("/api/health", h.Health.Health)
	if h.Metrics != nil {
		e.GET("/metrics", h.Metrics)
	}
	if h.Live != nil {
		e.GET("/ws", h.Live)
	}
	e.GET("/api/centers", handler.Centers, chain(m.Cache)...)

	registerAuth(e, h.Auth, m)
	registerPeople(e, h, m)
	registerAttendance(e, h.Attendance, m)
	registerMessaging(e, h, m)
	registerMerchandise(e, h.Merchandise, m)
	registerPlans(e, h.Plans, m)
	registerInbox(e, h, m)
}

func registerAuth(e *echo.Echo, a *handler.AuthHandler, m Middleware) {
	g := e.Group("/api/auth")
	limited := chain(m.AuthLimit)
	g.POST("/register", a.Register, limited...)
	g.POST("/login", a.Login, limited...)
	g.POST("/refresh", a.Refresh, limited...)
	g.POST("/logout", a.Logout, limited...)

	// Reachable while the account is pending approval.
	g.GET("/me", a.Me, m.signedIn()...)
	g.PUT("/push-token", a.SetPushToken, m.signedIn()...)
	g.PUT("/profile", a.UpdateProfile, m.approved()...)
}
