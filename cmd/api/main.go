package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikeworkshop/internal/config"
	"bikeworkshop/internal/database"
	"bikeworkshop/internal/middleware"
	"bikeworkshop/internal/modules/auth"
	"bikeworkshop/internal/modules/booking"
	"bikeworkshop/internal/modules/catalog"
	"bikeworkshop/internal/modules/invoice"
	"bikeworkshop/internal/modules/loyalty"
	"bikeworkshop/internal/modules/notification"
	"bikeworkshop/internal/modules/payment"
	"bikeworkshop/internal/modules/realtime"
	"bikeworkshop/internal/pkg/esewa"
	jwtsvc "bikeworkshop/internal/pkg/jwt"
	"bikeworkshop/internal/pkg/khalti"
	"bikeworkshop/internal/pkg/logger"
	"bikeworkshop/internal/pkg/mailer"
	"bikeworkshop/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.App.LogPath, cfg.App.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.Database.URL, zlog)
	if err != nil {
		zlog.Fatal("database connect failed", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)
	attemptRepo := repository.NewPaymentAttemptRepository(db)

	j := jwtsvc.New(cfg.JWT.Secret, cfg.JWT.TTL)

	// Realtime: local hub, fanned out through redis when several instances run.
	hub := realtime.NewHub(zlog)
	var emitter notification.Emitter = hub
	var bridge *realtime.RedisBridge
	if cfg.Redis.URL != "" {
		client, err := realtime.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			zlog.Fatal("redis url invalid", zap.Error(err))
		}
		bridge = realtime.NewRedisBridge(client, hub, zlog)
		if err := bridge.Start(context.Background()); err != nil {
			zlog.Warn("redis unavailable, realtime stays local", zap.Error(err))
			bridge = nil
		} else {
			emitter = bridge
		}
	}

	mail := mailer.New(mailer.Config{
		Enabled:  cfg.SMTP.Enabled,
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		UseSSL:   cfg.SMTP.UseSSL,
		Timeout:  cfg.SMTP.Timeout,
	})
	if !cfg.SMTP.Enabled {
		zlog.Info("smtp disabled, emails will be skipped")
	}
	dispatcher := notification.NewDispatcher(mail, emitter, cfg.Notify.Timeout, zlog)

	authService := auth.NewService(userRepo, j, zlog)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(workshopRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	loyaltyService := loyalty.NewService(loyaltyRepo, zlog)
	loyaltyHandler := loyalty.NewHandler(loyaltyService)

	bookingService := booking.NewService(bookingRepo, userRepo, workshopRepo, loyaltyService, zlog)
	bookingHandler := booking.NewHandler(bookingService, dispatcher)

	paymentService := payment.NewService(
		bookingRepo,
		attemptRepo,
		userRepo,
		khalti.New(cfg.Khalti.BaseURL, cfg.Khalti.SecretKey, cfg.Payment.GatewayTimeout),
		esewa.New(cfg.Esewa.StatusURL, cfg.Esewa.ProductCode, cfg.Payment.GatewayTimeout),
		cfg.Loyalty.AwardPercent,
		zlog,
	)
	paymentHandler := payment.NewHandler(paymentService, dispatcher)

	invoiceService := invoice.NewService(bookingRepo, userRepo, workshopRepo, zlog)
	invoiceHandler := invoice.NewHandler(invoiceService)

	realtimeHandler := realtime.NewHandler(hub, j, cfg.App.AllowedOrigins)

	if config.IsProdLike(cfg.App.Env) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(zlog),
		middleware.ErrorLogger(zlog),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	realtimeHandler.RegisterRoutes(&r.RouterGroup)

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		catalogHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected, middleware.RateLimit(cfg.Payment.RatePerMinute, zlog))
			loyaltyHandler.RegisterRoutes(protected)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				bookingHandler.RegisterAdminRoutes(admin)
				invoiceHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}

	// Let in-flight emails and pushes finish before the sockets go away.
	dispatcher.Wait()
	if bridge != nil {
		if err := bridge.Close(); err != nil {
			zlog.Warn("redis bridge close failed", zap.Error(err))
		}
	}
	hub.Close()
	zlog.Info("server stopped")
}
