package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dinerozz/tracking-backend/config"
	"github.com/dinerozz/tracking-backend/docs"
	analyticsHandler "github.com/dinerozz/tracking-backend/internal/handler/analytics"
	experimentHandler "github.com/dinerozz/tracking-backend/internal/handler/experiment"
	trackingHandler "github.com/dinerozz/tracking-backend/internal/handler/tracking"
	analyticsService "github.com/dinerozz/tracking-backend/internal/service/analytics"
	eventService "github.com/dinerozz/tracking-backend/internal/service/event"
	experimentService "github.com/dinerozz/tracking-backend/internal/service/experiment"
	"github.com/dinerozz/tracking-backend/internal/service/identity"
	"github.com/dinerozz/tracking-backend/internal/service/ratelimit"
	visitService "github.com/dinerozz/tracking-backend/internal/service/visit"
	"github.com/dinerozz/tracking-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterHandler struct {
	trackingHandler   *trackingHandler.TrackingHandler
	experimentHandler *experimentHandler.ExperimentHandler
	analyticsHandler  *analyticsHandler.AnalyticsHandler
	limiter           ratelimit.Limiter
}

func RunServer(cfg *config.Config, logger *slog.Logger) error {
	switch cfg.Env {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
		logger.Info("starting server in production mode")
	default:
		gin.SetMode(gin.DebugMode)
		logger.Info("starting server in development mode", slog.String("env", cfg.Env))
	}

	if u, err := url.Parse(cfg.Server.BaseURL); err == nil {
		docs.SwaggerInfo.Host = u.Host
	}
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	deps, err := NewDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	r := NewRouter(cfg, deps, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return gracefulShutdown(srv, errCh, logger)
}

func gracefulShutdown(srv *http.Server, errCh <-chan error, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("failed to start server", slog.Any("error", err))
		}
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
		return err
	}

	logger.Info("server gracefully stopped")
	return nil
}

// NewRouter builds the services over deps and mounts every route.
func NewRouter(cfg *config.Config, deps *Dependencies, logger *slog.Logger) *gin.Engine {
	fingerprinter := identity.NewFingerprinter(cfg.Tracking.FingerprintSalt)

	visits := visitService.NewVisitService(deps.Visits, deps.Content, deps.Store, visitService.Options{
		DedupWindow: cfg.Tracking.VisitDedupWindow,
		Clock:       deps.Clock,
		Logger:      logger,
		Metrics:     deps.Metrics,
	})
	events := eventService.NewEventService(deps.Events, deps.Store, deps.Clock, logger, deps.Metrics)
	experiments := experimentService.NewExperimentService(deps.Experiments, deps.Clock, logger, deps.Metrics)
	analytics := analyticsService.NewAnalyticsService(deps.Visits, deps.Content, cfg.Tracking.AnalyticsMaxRows, deps.Clock, logger)

	routerHandler := &RouterHandler{
		trackingHandler:   trackingHandler.NewTrackingHandler(visits, events, fingerprinter),
		experimentHandler: experimentHandler.NewExperimentHandler(experiments),
		analyticsHandler:  analyticsHandler.NewAnalyticsHandler(analytics),
		limiter:           ratelimit.NewLimiter(deps.Store, logger, deps.Metrics),
	}

	return setupRouter(cfg, deps, routerHandler, logger)
}

func setupRouter(cfg *config.Config, deps *Dependencies, routerHandler *RouterHandler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		statuses := deps.Health(c.Request.Context())
		status := http.StatusOK
		healthy := "healthy"
		for _, s := range statuses {
			if s != "ok" {
				status = http.StatusServiceUnavailable
				healthy = "unhealthy"
			}
		}
		c.JSON(status, gin.H{
			"status":    healthy,
			"checks":    statuses,
			"timestamp": deps.Clock.Now().Unix(),
			"service":   "tracking-backend",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	window := cfg.Tracking.RateLimitWindow
	limiter := routerHandler.limiter

	trackingRoutes := r.Group("/tracking")
	{
		trackingRoutes.POST("/view",
			middleware.RateLimitMiddleware(limiter, "view", cfg.Tracking.ViewLimit, window, deps.Metrics),
			routerHandler.trackingHandler.TrackView)
		trackingRoutes.POST("/event",
			middleware.RateLimitMiddleware(limiter, "event", cfg.Tracking.EventLimit, window, deps.Metrics),
			routerHandler.trackingHandler.TrackEvent)
		trackingRoutes.GET("/trending", routerHandler.trackingHandler.GetTrending)
	}

	experimentRoutes := r.Group("/experiments")
	{
		experimentRoutes.GET("/variant",
			middleware.RateLimitMiddleware(limiter, "variant", cfg.Tracking.EventLimit, window, deps.Metrics),
			routerHandler.experimentHandler.GetVariant)
		experimentRoutes.POST("/conversion",
			middleware.RateLimitMiddleware(limiter, "conversion", cfg.Tracking.ConversionLimit, window, deps.Metrics),
			routerHandler.experimentHandler.RecordConversion)
	}

	adminRoutes := r.Group("/admin")
	adminRoutes.Use(middleware.AdminMiddleware(cfg.Auth.JWTSecret, logger))
	{
		adminRoutes.GET("/analytics", routerHandler.analyticsHandler.GetAnalytics)

		adminRoutes.POST("/experiments", routerHandler.experimentHandler.CreateExperiment)
		adminRoutes.GET("/experiments", routerHandler.experimentHandler.ListExperiments)
		adminRoutes.PUT("/experiments/:slug/status", routerHandler.experimentHandler.UpdateStatus)
		adminRoutes.GET("/experiments/:slug/results", routerHandler.experimentHandler.GetResults)
	}

	return r
}
