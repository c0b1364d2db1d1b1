package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitcoach/internal/api"
	"fitcoach/internal/config"
	"fitcoach/internal/localstore"
	"fitcoach/internal/logging"
	"fitcoach/internal/metrics"
	"fitcoach/internal/repository"
	"fitcoach/internal/repository/mongo"
	"fitcoach/internal/service"
	"fitcoach/internal/storage"
	"fitcoach/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/multierr"
)

// @title Fitness Coaching API
// @version 1.0
// @description Local-first student records for a coach and their students.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Logging.File,
		LogToStdout:   cfg.Logging.Stdout,
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
	})
	log.Println("starting fitcoach server...")

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager(cfg.Metrics.Namespace, "server", reg)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	// --- Local store ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	slot, redisClient, err := openSlot(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("could not open local persistence: %v", err)
	}

	studentStore := store.New(slot, store.WithMetrics(metricsManager))
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := studentStore.Load(ctx); err != nil {
		log.WithError(err).Errorln("could not load local snapshot, starting empty")
	}
	cancel()
	studentStore.EnsureSeeded()

	// --- Remote store ---
	var (
		dbClient *mongodriver.Client
		remote   repository.StudentRemote
		demo     = true
	)
	if cfg.Remote.Enabled {
		dbClient, err = mongo.ConnectDB(cfg.Remote.URI)
		if err != nil {
			log.WithError(err).Warnln("remote store unreachable, running demo session")
		} else {
			appDB := dbClient.Database(cfg.Remote.Namespace)
			remote = mongo.NewMongoStudentRepository(appDB, cfg.Remote.Collection)
			demo = false
			log.Println("remote store connection established")

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
				defer cancel()
				mongo.EnsureStudentIndexes(ctx, appDB.Collection(cfg.Remote.Collection))
				log.Println("index creation process completed")
			}()
		}
	} else {
		log.Warnln("remote store disabled, running demo session")
	}

	mirror := service.NewMirror(remote, studentStore, metricsManager)
	if err := mirror.Start(context.Background()); err != nil {
		log.WithError(err).Warnln("mirror not started, serving from local state")
	}

	// --- Photo storage ---
	var photos storage.PhotoStorage
	if cfg.S3.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		photos, err = storage.NewS3Storage(ctx, cfg.S3)
		cancel()
		if err != nil {
			log.WithError(err).Warnln("photo storage unavailable, photos stored inline")
			photos = nil
		}
	}

	// --- Services ---
	gateway := service.NewGateway(studentStore, remote, photos, metricsManager, service.GatewayConfig{
		Demo:         demo,
		WriteTimeout: cfg.Remote.WriteTimeout,
		QueueSize:    cfg.Remote.QueueSize,
	})
	resolver := service.NewIdentityResolver(studentStore, demo)
	authService := service.NewAuthService(resolver, cfg.JWT.Secret, cfg.JWT.Expiration, metricsManager)

	// --- HTTP ---
	router := gin.Default()
	api.SetupRoutes(router, authService, gateway, studentStore, metricsManager, metricsHandler)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	shutdownErr := server.Shutdown(ctxShutdown)
	mirror.Stop()
	gateway.Close()
	if dbClient != nil {
		shutdownErr = multierr.Append(shutdownErr, mongo.DisconnectDB(dbClient))
	}
	if redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	}
	if shutdownErr != nil {
		log.WithError(shutdownErr).Errorln("unclean shutdown")
		os.Exit(1)
	}
	log.Println("server exiting")
}

// openSlot opens the durable local slot for the configured driver. The redis
// client is returned so it can be closed on shutdown.
func openSlot(ctx context.Context, cfg config.Config) (localstore.Slot, *redis.Client, error) {
	switch cfg.Persistence.Driver {
	case config.DriverRedis:
		client, err := localstore.NewRedisClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("local persistence in redis at %s, key %s", cfg.Redis.Address, cfg.Persistence.Key)
		return localstore.NewRedisSlot(client, cfg.Persistence.Key), client, nil
	default:
		slot := localstore.NewFileSlot(cfg.Persistence.Path, cfg.Persistence.Key)
		log.Printf("local persistence in %s", slot.Path())
		return slot, nil, nil
	}
}
