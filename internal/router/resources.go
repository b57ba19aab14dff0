package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/handler"
)

// registerPeople mounts approvals, members, body metrics, trainers, payments
// and dashboards.
func registerPeople(e *echo.Echo, h Handlers, m Middleware) {
	ap := e.Group("/api/approvals", m.approved()...)
	ap.GET("/pending", h.Approvals.Pending)
	ap.GET("/history", h.Approvals.History)
	ap.POST("/:id/approve", h.Approvals.Approve)
	ap.POST("/:id/reject", h.Approvals.Reject)

	mem := e.Group("/api/members", m.approved()...)
	mem.GET("", h.Members.List)
	mem.POST("", h.Members.Create)
	mem.GET("/:id", h.Members.Get)
	mem.PUT("/:id", h.Members.Update)
	mem.DELETE("/:id", h.Members.Delete)
	mem.PUT("/:id/center", h.Members.ChangeCenter)
	mem.GET("/:id/metrics", h.Members.ListMetrics)
	mem.POST("/:id/metrics", h.Members.AddMetrics)

	met := e.Group("/api/metrics", m.approved()...)
	met.PUT("/:id", h.Members.UpdateMetrics)
	met.DELETE("/:id", h.Members.DeleteMetrics)

	tr := e.Group("/api/trainers", m.approved()...)
	tr.GET("", h.Trainers.List)
	tr.POST("", h.Trainers.Create)
	tr.PUT("/:id", h.Trainers.Update)
	tr.DELETE("/:id", h.Trainers.Delete)
	tr.PUT("/:id/center", h.Trainers.ChangeCenter)

	pay := e.Group("/api/payments", m.approved()...)
	pay.POST("", h.Payments.Record)
	pay.GET("/:memberId", h.Payments.List)

	d := e.Group("/api/dashboard", m.approved()...)
	d.GET("/admin", h.Dashboard.Admin)
	d.GET("/trainer", h.Dashboard.Trainer)
	d.GET("/member", h.Dashboard.Member)
}

func registerAttendance(e *echo.Echo, a *handler.AttendanceHandler, m Middleware) {
	g := e.Group("/api/attendance", m.approved()...)
	g.POST("/check-in", a.CheckIn)
	g.POST("/check-out/:userId", a.CheckOut)
	g.GET("/status", a.Status)
	g.GET("/today", a.Today)
	g.GET("/history/:userId", a.History)
	g.POST("/qr-code", a.GenerateQR)
	g.GET("/qr-code", a.CurrentQR)
	g.POST("/qr-check-in", a.QRCheckIn)
}

func registerMessaging(e *echo.Echo, h Handlers, m Middleware) {
	msg := e.Group("/api/messages", m.approved()...)
	msg.GET("/contacts", h.Messages.Contacts)
	msg.GET("/conversations", h.Messages.Conversations)
	msg.GET("/unread-count", h.Messages.UnreadCount)
	msg.POST("", h.Messages.Send)
	msg.POST("/delete-selected", h.Messages.DeleteSelected)
	msg.GET("/:otherUserId", h.Messages.Conversation)
	msg.DELETE("/:otherUserId", h.Messages.DeleteConversation)

	an := e.Group("/api/announcements", m.approved()...)
	an.GET("", h.Announcements.List)
	an.POST("", h.Announcements.Create)
	an.PUT("/:id", h.Announcements.Update)
	an.DELETE("/:id", h.Announcements.Delete)
}

func registerMerchandise(e *echo.Echo, mh *handler.MerchandiseHandler, m Middleware) {
	g := e.Group("/api/merchandise", m.approved()...)
	g.GET("", mh.ListItems, chain(m.Cache)...)
	g.POST("", mh.CreateItem)
	g.POST("/order", mh.PlaceOrder)
	g.GET("/orders/my", mh.MyOrders)
	g.GET("/orders", mh.AllOrders)
	g.PUT("/orders/:id/status", mh.UpdateStatus)
	g.POST("/orders/:id/cancel", mh.Cancel)
	g.GET("/:id", mh.GetItem)
	g.PUT("/:id", mh.UpdateItem)
	g.DELETE("/:id", mh.DeleteItem)
}

func registerPlans(e *echo.Echo, p *handler.PlanHandler, m Middleware) {
	w := e.Group("/api/workouts", m.approved()...)
	w.GET("/member/:memberId", p.ListWorkouts)
	w.POST("", p.CreateWorkout)
	w.PUT("/:id", p.UpdateWorkout)
	w.DELETE("/:id", p.DeleteWorkout)
	w.POST("/:id/exercises/:index/complete", p.CompleteExercise)

	d := e.Group("/api/diets", m.approved()...)
	d.GET("/member/:memberId", p.ListDiets)
	d.POST("", p.CreateDiet)
	d.PUT("/:id", p.UpdateDiet)
	d.DELETE("/:id", p.DeleteDiet)
}

func registerInbox(e *echo.Echo, h Handlers, m Middleware) {
	n := e.Group("/api/notifications", m.approved()...)
	n.GET("", h.Notifications.List)
	n.GET("/unread-count", h.Notifications.UnreadCount)
	n.PUT("/read-all", h.Notifications.MarkAllRead)
	n.PUT("/:id/read", h.Notifications.MarkRead)
}
