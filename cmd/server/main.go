package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/gym-management/internal/config"
	"github.com/iliyamo/gym-management/internal/database"
	"github.com/iliyamo/gym-management/internal/handler"
	"github.com/iliyamo/gym-management/internal/logger"
	"github.com/iliyamo/gym-management/internal/metrics"
	"github.com/iliyamo/gym-management/internal/middleware"
	"github.com/iliyamo/gym-management/internal/push"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/realtime"
	"github.com/iliyamo/gym-management/internal/repository"
	"github.com/iliyamo/gym-management/internal/router"
	"github.com/iliyamo/gym-management/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg := config.Load()
	log := logger.Init(logger.Config{Level: cfg.LogLevel, Production: cfg.IsProduction(), ServiceName: cfg.ServiceName})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrate schema", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting, response cache and QR codes disabled")
	} else {
		defer rdb.Close()
	}

	pushCfg := config.LoadPushConfig()
	cacheCfg := config.LoadCacheConfig()
	sched := config.LoadSchedulerConfig()
	notifyCfg := config.LoadNotifyConfig()

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	approvals := repository.NewApprovalRepo(db)
	attendance := repository.NewAttendanceRepo(db)
	messages := repository.NewMessageRepo(db)
	announcements := repository.NewAnnouncementRepo(db)
	notifications := repository.NewNotificationRepo(db)
	items := repository.NewMerchandiseRepo(db)
	orders := repository.NewOrderRepo(db)
	plans := repository.NewPlanRepo(db)
	payments := repository.NewPaymentRepo(db)
	qr := repository.NewQRStore(rdb)

	hub := realtime.NewHub(log.Named("live"))

	notifier := &service.Notifier{
		Store: notifications, Users: users, Live: hub, Log: log.Named("notify"),
		FanoutWorkers: notifyCfg.FanoutWorkers, FanoutTimeout: notifyCfg.FanoutTimeout,
	}
	if pushCfg.Enabled {
		pub := queue.NewPublisher(cfg.AMQPURL, pushCfg.Queue, log.Named("queue"))
		defer pub.Close()
		notifier.Push = pub
	}

	auth := &service.AuthService{
		Users: users, Tokens: tokens, Notifier: notifier, Log: log, Retry: database.DefaultRetryPolicy,
		Cfg: service.AuthConfig{
			JWTSecret: cfg.JWTSecret, AccessTTLMin: cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays, BcryptCost: cfg.BcryptCost,
		},
	}
	if err := auth.BootstrapAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPhone,
		cfg.BootstrapAdminPassword, cfg.BootstrapAdminName); err != nil {
		log.Fatal("bootstrap primary admin", zap.Error(err))
	}

	merchHandler := &handler.MerchandiseHandler{
		Merch: &service.MerchandiseService{Items: items, Orders: orders, Users: users, Notifier: notifier},
		Invalidate: func(ctx context.Context) {
			if err := middleware.Purge(ctx, cacheCfg, rdb); err != nil {
				log.Warn("purge response cache", zap.Error(err))
			}
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, logger.RequestIDHeader},
	}))
	e.Use(logger.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.Middleware())

	router.Register(e, router.Handlers{
		Health:    &handler.HealthHandler{DB: db, Redis: rdb, Live: hub},
		Auth:      handler.NewAuthHandler(auth),
		Approvals: &handler.ApprovalHandler{Approvals: &service.ApprovalService{
			Approvals: approvals, Tokens: tokens, Notifier: notifier, Live: hub, Log: log,
		}},
		Members: &handler.MemberHandler{Members: &service.MemberService{
			Users: users, Tokens: tokens, Plans: plans, Notifier: notifier, Live: hub, BcryptCost: cfg.BcryptCost, Log: log,
		}},
		Trainers: &handler.TrainerHandler{Trainers: &service.TrainerService{
			Users: users, Tokens: tokens, Notifier: notifier, Live: hub, BcryptCost: cfg.BcryptCost, Log: log,
		}},
		Attendance: &handler.AttendanceHandler{Attendance: &service.AttendanceService{Users: users, Attendance: attendance, QR: qr}},
		Messages: &handler.MessageHandler{Messages: &service.MessageService{
			Users: users, Messages: messages, Notifier: notifier, Live: hub,
		}},
		Announcements: &handler.AnnouncementHandler{Announcements: &service.AnnouncementService{
			Users: users, Announcements: announcements, Notifier: notifier, Live: hub,
		}},
		Merchandise:   merchHandler,
		Plans:         &handler.PlanHandler{Plans: &service.PlanService{Users: users, Plans: plans, Notifier: notifier}},
		Payments:      &handler.PaymentHandler{Payments: &service.PaymentService{Users: users, Payments: payments, Notifier: notifier}},
		Notifications: &handler.NotificationHandler{Notifications: &service.NotificationService{Store: notifications}},
		Dashboard: &handler.DashboardHandler{Dashboard: &service.DashboardService{
			Users: users, Approvals: approvals, Attendance: attendance, Orders: orders,
			Messages: messages, Notifications: notifications, Plans: plans, Payments: payments,
		}},
		Live:    realtime.NewHandler(hub, users, cfg.JWTSecret, config.LoadRealtimeConfig(), log.Named("live")).Serve,
		Metrics: echo.WrapHandler(promhttp.Handler()),
	}, router.Middleware{
		Authenticate: middleware.Authenticate(cfg.JWTSecret, users, database.DefaultRetryPolicy),
		AuthLimit:    middleware.RateLimit(config.LoadAuthRateLimitConfig(), rdb),
		APILimit:     middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		Cache:        middleware.Cache(cacheCfg, rdb),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(sctx)
	})

	if pushCfg.Enabled {
		sender := push.NewClient(pushCfg.Endpoint, pushCfg.AccessKey, pushCfg.Timeout, log.Named("push"))
		g.Go(func() error {
			return queue.StartPushConsumer(gctx, queue.ConsumerConfig{
				URL: cfg.AMQPURL, Queue: pushCfg.Queue, Prefetch: pushCfg.Prefetch,
			}, deliver(sender, users, log), log.Named("queue"))
		})
	}

	if sched.Enabled {
		c := cron.New()
		job := &service.ReminderJob{Users: users, Notifier: notifier, LeadDays: sched.ReminderLeadDays, Log: log.Named("reminders")}
		if _, err := job.Schedule(gctx, c, sched.ReminderSchedule); err != nil {
			log.Fatal("schedule payment reminders", zap.Error(err))
		}
		c.Start()
		g.Go(func() error {
			<-gctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", zap.Error(err))
	}
	// announcement fan-outs still in flight finish before the database closes
	notifier.Wait()
	log.Info("stopped")
}

// deliver sends one push job and forgets device tokens Expo reports as
// unregistered, so later notifications stop trying them.
func deliver(sender *push.Client, users *repository.UserRepo, log *zap.Logger) queue.Handler {
	return func(ctx context.Context, job queue.PushJob) error {
		err := sender.Send(ctx, job)
		if errors.Is(err, push.ErrDeviceNotRegistered) {
			if cerr := users.SetPushToken(ctx, job.UserID, ""); cerr != nil {
				log.Warn("clear stale push token", zap.String("user_id", job.UserID), zap.Error(cerr))
			}
			return nil
		}
		return err
	}
}
