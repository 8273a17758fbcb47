package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatepass/gatepass/internal/config"
	"github.com/gatepass/gatepass/internal/postgres"
	redisx "github.com/gatepass/gatepass/internal/redis"
	postgresrepo "github.com/gatepass/gatepass/internal/repository/postgres"
	redisrepo "github.com/gatepass/gatepass/internal/repository/redis"
	"github.com/gatepass/gatepass/internal/service"
	"github.com/gatepass/gatepass/internal/service/booking"
	"github.com/gatepass/gatepass/internal/service/sweeper"
	httpgin "github.com/gatepass/gatepass/internal/transport/http/gin"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	sweep      *sweeper.Service
	cache      *redisrepo.Cache
	pubsub     *redisx.EventsPubSub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewEventsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(
		rdb,
		"gatepass:v1:rl",
		cfg.Booking.RateLimit,
		cfg.Booking.RateWindow,
	)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, logger, service.Config{
		Booking: booking.Config{HoldDuration: cfg.Booking.HoldDuration},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger, cfg.Admin.Token)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		sweep:  services.Sweeper,
		cache:  cache,
		pubsub: pubsub,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Start hold-expiry scheduler
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(a.cfg.Booking.SweepInterval),
		gocron.NewTask(func() {
			sweepCtx, sweepCancel := context.WithTimeout(gCtx, 30*time.Second)
			defer sweepCancel()

			if _, err := a.sweep.Sweep(sweepCtx); err != nil {
				a.logger.Error("hold sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule hold sweep: %w", err)
	}

	scheduler.Start()
	a.logger.Info("hold sweep scheduled", "interval", a.cfg.Booking.SweepInterval)

	// Drop cached availability when another instance reports a change
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, eventID int64) {
			_ = a.cache.InvalidateEvent(ctx, eventID)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("availability subscription failed: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")

		if err := scheduler.Shutdown(); err != nil {
			a.logger.Error("scheduler shutdown failed", "error", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
