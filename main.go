package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptkeeper/promptkeeper/handlers"
	"github.com/promptkeeper/promptkeeper/internal/admin"
	"github.com/promptkeeper/promptkeeper/internal/cache"
	"github.com/promptkeeper/promptkeeper/internal/config"
	"github.com/promptkeeper/promptkeeper/internal/database"
	"github.com/promptkeeper/promptkeeper/internal/record/handler"
	"github.com/promptkeeper/promptkeeper/internal/record/repository"
	"github.com/promptkeeper/promptkeeper/internal/record/service"
	"github.com/promptkeeper/promptkeeper/internal/storage"
	"github.com/promptkeeper/promptkeeper/pkg/logger"
	"github.com/promptkeeper/promptkeeper/pkg/metrics"
	"github.com/promptkeeper/promptkeeper/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

var startTime = time.Now()

func main() {
	if err := run(); err != nil {
		logger.Fatalf("%v", err)
	}
}

// run wires the service and blocks until a signal arrives or the listener
// fails. Deferred connections are closed before it returns.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Encoding)
	defer logger.Sync()
	logger.Infof("config loaded: level=%s mongo=%v admin_mongo=%v redis=%v minio=%v", logger.LevelString(),
		cfg.MongoDB.URI != "", cfg.AdminMongoDB.URI != "", cfg.Redis.Enabled(), cfg.MinIO.Enabled())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger.L()), middleware.Metrics(), middleware.CORS(cfg.Server.AllowedOrigins))

	var deps []handlers.Dependency
	var opts []service.Option

	// Records store: MongoDB when configured, otherwise in-memory.
	var repo repository.Repository
	if cfg.MongoDB.URI != "" {
		client, err := connect(ctx, "records", cfg.MongoDB)
		if err != nil {
			return err
		}
		defer disconnect(client)
		mrepo := repository.NewMongoRepo(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection))
		if err := mrepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to ensure record indexes: %w", err)
		}
		repo = mrepo
		deps = append(deps, handlers.Dependency{Name: "mongodb", Pinger: pingMongo(client)})
	} else {
		logger.Warnf("MONGODB_URI not set; using in-memory record store")
		repo = repository.NewMemoryRepo()
	}

	// Admin store on its own connection.
	var adminRepo admin.Repository
	if cfg.AdminMongoDB.URI != "" {
		client, err := connect(ctx, "admin", cfg.AdminMongoDB)
		if err != nil {
			return err
		}
		defer disconnect(client)
		adminRepo = admin.NewMongoRepo(client.Database(cfg.AdminMongoDB.Database).Collection(cfg.AdminMongoDB.Collection))
		deps = append(deps, handlers.Dependency{Name: "admin_mongodb", Pinger: pingMongo(client)})
	} else {
		logger.Warnf("ADMIN_MONGODB_URI not set; using in-memory admin store")
		adminRepo = admin.NewMemoryRepo()
	}

	// Optional report cache.
	if cfg.Redis.Enabled() {
		rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rc.Close() }()
		reportCache := cache.NewRedisReportCache(rc, "")
		if err := reportCache.Ping(ctx); err != nil {
			logger.Warnf("redis ping failed (%s): %v; report cache stays enabled and falls back on errors", cfg.Redis.Addr(), err)
		} else {
			logger.Infof("connected to Redis for report cache: %s", cfg.Redis.Addr())
		}
		opts = append(opts, service.WithReportCache(reportCache, cfg.Redis.ReportTTL))
		deps = append(deps, handlers.Dependency{Name: "redis", Pinger: reportCache, Optional: true})
	}

	// Optional snapshot storage.
	if cfg.MinIO.Enabled() {
		objects, err := storage.NewMinIOStorage(ctx, &cfg.MinIO)
		if err != nil {
			logger.Warnf("minio unavailable, snapshot export disabled: %v", err)
		} else {
			opts = append(opts, service.WithObjectStore(objects, cfg.MinIO.URLExpiry))
			deps = append(deps, handlers.Dependency{Name: "minio", Pinger: objects, Optional: true})
		}
	}

	svc := service.NewService(repo, opts...)
	handler.RegisterRecordRoutes(r, svc)
	admin.NewHandler(admin.NewService(adminRepo)).Register(r)
	handlers.RegisterHealth(r, startTime, deps...)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return serve(ctx, srv, cfg.Server.ShutdownTimeout)
}

// serve runs srv until ctx is done, then shuts it down gracefully. A listener
// failure is returned instead of exiting so callers can release resources.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("starting promptkeeper on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func connect(ctx context.Context, name string, cfg config.MongoDBConfig) (*mongo.Client, error) {
	client, err := database.ConnectMongoWithRetry(ctx, cfg.URI, cfg.Timeout, connectAttempts, connectBackoff)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s MongoDB: %w", name, err)
	}
	logger.Infof("connected to %s MongoDB (db=%s collection=%s)", name, cfg.Database, cfg.Collection)
	return client, nil
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warnf("mongo disconnect: %v", err)
	}
}

func pingMongo(client *mongo.Client) handlers.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}
