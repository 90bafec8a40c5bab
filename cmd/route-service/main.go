package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/osrm-route/internal/osrm"
	"github.com/richxcame/osrm-route/pkg/cache"
	"github.com/richxcame/osrm-route/pkg/common"
	"github.com/richxcame/osrm-route/pkg/config"
	"github.com/richxcame/osrm-route/pkg/errors"
	"github.com/richxcame/osrm-route/pkg/logger"
	"github.com/richxcame/osrm-route/pkg/middleware"
	redisClient "github.com/richxcame/osrm-route/pkg/redis"
	"github.com/richxcame/osrm-route/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName = "route-service"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment, cfg.Server.LogLevel); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting route service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("osrm_base_url", cfg.OSRM.BaseURL),
	)

	// Initialize Sentry for error tracking
	if cfg.Sentry.Release == "" {
		cfg.Sentry.Release = version
	}
	sentryEnabled, err := errors.InitSentry(cfg.Sentry, cfg.Server.Environment, serviceName)
	if err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else if sentryEnabled {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	tracerCfg := tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	}
	tp, err := tracing.InitTracer(tracerCfg, logger.Get())
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shutdown tracer", zap.Error(err))
			}
		}()
	}

	client := osrm.NewClientFromConfig(cfg)
	var fetcher osrm.Fetcher = client

	healthChecks := make(map[string]func() error)
	if cfg.Resilience.CircuitBreaker.Enabled {
		healthChecks["osrm"] = client.HealthCheck
		logger.Info("Circuit breaker enabled for OSRM route service")
	}
	if cfg.RouteCache.Enabled {
		redis, err := redisClient.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()

		fetcher = osrm.NewCachingFetcher(fetcher, cache.NewManager(redis, serviceName), cfg.RouteCache.TTL())
		healthChecks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redis.HealthCheck(ctx)
		}
		logger.Info("Route cache enabled", zap.Duration("ttl", cfg.RouteCache.TTL()))
	}

	service := osrm.NewService(fetcher)
	handler := osrm.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(cfg, handler, healthChecks, tp != nil)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newRouter(cfg *config.Config, handler *osrm.Handler, healthChecks map[string]func() error, tracingEnabled bool) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(common.NoRouteHandler())
	router.NoMethod(common.NoMethodHandler())
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))

	if tracingEnabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}

	// Should be near the end of the middleware chain
	router.Use(middleware.ErrorHandler())

	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "version": version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout()))
	handler.RegisterRoutes(api)

	return router
}
