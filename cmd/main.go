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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/config"
	"github.com/oksasatya/user-directory/internal/container"
	"github.com/oksasatya/user-directory/internal/infrastructure/storage"
	"github.com/oksasatya/user-directory/internal/interface/middleware"
	"github.com/oksasatya/user-directory/internal/router"
	"github.com/oksasatya/user-directory/pkg/helpers"
	"github.com/oksasatya/user-directory/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogFile)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open user store")
	}
	defer store.Close()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetStore(store)
	identity, err := helpers.NewIdentityVerifier(cfg.IdentityTokenSecret, cfg.IdentityIssuer, cfg.IdentityAudience, cfg.RoleClaimPath)
	if err != nil {
		logger.WithError(err).Fatal("IDENTITY_TOKEN_SECRET must be set")
	}
	container.SetIdentity(identity)
	closeOptional := connectOptional(ctx, cfg, logger)
	defer closeOptional()

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "storage": store.Driver}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// connectOptional wires the integrations that the service can run without.
// A configured integration that fails to connect is logged and left out.
func connectOptional(ctx context.Context, cfg *config.Config, logger *logrus.Logger) func() {
	var closers []func()

	if cfg.RedisAddr != "" {
		rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable; cache and rate limiting disabled")
		} else {
			container.SetRedis(rdb)
			closers = append(closers, func() { _ = rdb.Close() })
		}
	}

	if cfg.GCSBucket != "" {
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSON)
		if err != nil {
			logger.WithError(err).Warn("gcs unavailable; picture upload disabled")
		} else {
			container.SetPictures(helpers.NewGCSStore(client, cfg.GCSBucket))
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; search disabled")
		} else {
			container.SetES(es)
		}
	}

	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQUserEventsQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; user events disabled")
		} else {
			container.SetRabbitPub(pub)
			closers = append(closers, pub.Close)
		}
	}

	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
