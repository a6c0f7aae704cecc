package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/crudtcc/incident-api/internal/config"
	"github.com/crudtcc/incident-api/internal/database"
	"github.com/crudtcc/incident-api/internal/handler"
	"github.com/crudtcc/incident-api/internal/logger"
	"github.com/crudtcc/incident-api/internal/middleware"
	"github.com/crudtcc/incident-api/internal/queue"
	"github.com/crudtcc/incident-api/internal/repository"
	"github.com/crudtcc/incident-api/internal/router"
	"github.com/crudtcc/incident-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment variables win

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("database connection failed", "driver", cfg.DB.Driver, "error", err)
	}
	defer db.Close()
	log.Info("database connected", "driver", cfg.DB.Driver, "max_open_conns", cfg.DB.MaxOpenConns)

	// Redis is optional: without it the cache and the rate limiter pass through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn("redis unavailable, running without cache and rate limiting")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub service.Publisher = service.NopPublisher{}
	if cfg.Broker.Enabled {
		pub = service.NewAMQPPublisher(cfg.Broker.URL, log)
		if cfg.Broker.ConsumerEnabled {
			go func() {
				if err := queue.StartAuditConsumer(ctx, cfg.Broker.URL, cfg.Broker.AuditLogPath, log); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit consumer stopped", "error", err)
				}
			}()
		}
	}

	deps := handler.Deps{Log: log, Publisher: pub, QueryTimeout: cfg.QueryTimeout}
	e := router.NewEcho(log, cfg.CORSOrigins,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	)
	router.RegisterRoutes(e, db)
	router.RegisterUsers(e, handler.NewUserHandler(repository.NewUserRepo(db), deps))
	router.RegisterFacilities(e, handler.NewFacilityHandler(
		repository.NewRoomRepo(db),
		repository.NewIncidentRepo(db),
		repository.NewDeviceRepo(db),
		repository.NewIncidentDeviceRepo(db),
		deps,
	))

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
