package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/trustfundbaby/trustfund/handlers"
	"github.com/trustfundbaby/trustfund/internal/config"
	"github.com/trustfundbaby/trustfund/internal/database"
	"github.com/trustfundbaby/trustfund/internal/storage"
	"github.com/trustfundbaby/trustfund/internal/trust/handler"
	"github.com/trustfundbaby/trustfund/internal/trust/repository"
	"github.com/trustfundbaby/trustfund/internal/trust/service"
	"github.com/trustfundbaby/trustfund/pkg/logger"
	"github.com/trustfundbaby/trustfund/pkg/metrics"
	"github.com/trustfundbaby/trustfund/pkg/middleware"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: backend=%s redis=%v minio=%v env=%s", cfg.Store.Backend, cfg.Redis.Host != "", cfg.MinIO.Enabled(), cfg.Server.Environment)

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	deps := map[string]handlers.ReadyFunc{}

	// Redis is shared by the Redis store and the Redis rate limiter.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis ping failed (%s): %v", cfg.Redis.Addr(), err)
		} else {
			logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		}
		defer rdb.Close()
		deps["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var repo repository.Repository
	switch cfg.Store.Backend {
	case config.BackendMongo:
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Fatalf("mongo store unavailable: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		repo, err = repository.NewMongoRepo(ctx, client.Database(cfg.MongoDB.Database))
		if err != nil {
			logger.Fatalf("mongo store init: %v", err)
		}
	case config.BackendRedis:
		repo = repository.NewRedisRepo(rdb, cfg.Redis.Prefix)
	default:
		repo = repository.NewMemoryRepo()
	}
	logger.Infof("using %s store", cfg.Store.Backend)

	opts := []service.Option{service.WithRequireKnownUser(cfg.Trust.RequireKnownUser)}
	if cfg.MinIO.Enabled() {
		st, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("statement archive disabled: %v", err)
		} else {
			opts = append(opts, service.WithArchiver(st, cfg.MinIO.PresignTTL))
			logger.Infof("statement archive enabled (bucket=%s)", cfg.MinIO.Bucket)
		}
	}
	svc := service.NewService(repo, opts...)
	deps["store"] = svc.Ready

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS())
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
		logger.Infof("rate limiter enabled: rps=%.2f burst=%d redis=%v", cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.UseRedis)
	}

	handlers.RegisterHealth(r, deps)
	handlers.RegisterSwagger(r)
	handler.RegisterTrustRoutes(r, svc)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Infof("trustfund listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-stop
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
