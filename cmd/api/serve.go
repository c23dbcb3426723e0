package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/desaismitha/Shered-sub002/internal/broker"
	"github.com/desaismitha/Shered-sub002/internal/cache"
	"github.com/desaismitha/Shered-sub002/internal/clock"
	"github.com/desaismitha/Shered-sub002/internal/config"
	"github.com/desaismitha/Shered-sub002/internal/handler"
	"github.com/desaismitha/Shered-sub002/internal/live"
	"github.com/desaismitha/Shered-sub002/internal/middleware"
	"github.com/desaismitha/Shered-sub002/internal/notify"
	"github.com/desaismitha/Shered-sub002/internal/repo"
	"github.com/desaismitha/Shered-sub002/internal/service"
)

// mirrorBuffer is how many events may wait for the broker before copies are dropped.
const mirrorBuffer = 1024

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	// --- Position store ---------------------------------------------------
	var positions service.PositionStore = cache.NewMemoryPositions()
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		positions = cache.NewRedisPositions(rdb, cache.DefaultTTL)
		logger.Info("redis position store enabled")
	}

	// --- Live fan-out -----------------------------------------------------
	registry := live.NewRegistry(logger)
	opts := []notify.Option{notify.NotifyReporter(cfg.DeviationNotifyReporter)}
	if cfg.AMQPURL != "" {
		pub, err := broker.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, notify.WithMirror(pub, mirrorBuffer))
		logger.Info("event mirror enabled", "exchange", cfg.AMQPExchange)
	}
	dispatcher := notify.New(registry, logger, opts...)

	// --- Services ---------------------------------------------------------
	trips := repo.NewTripRepo(pool)
	groups := repo.NewGroupRepo(pool)
	checkIns := repo.NewCheckInRepo(pool)
	items := repo.NewItineraryRepo(pool)
	assignments := repo.NewAssignmentRepo(pool)

	clk := clock.Real{}
	locks := service.NewTripLocks()
	tracker := service.NewTracker(trips, groups, items, positions, dispatcher, locks, clk,
		service.TrackerConfig{ThresholdMeters: cfg.DeviationThresholdMeters, Sustain: cfg.DeviationSustain}, logger)
	coord := service.NewCoordinator(trips, groups, checkIns, dispatcher, locks, logger, tracker)

	srv := handler.NewServer(handler.Services{
		Trips:     service.NewTripService(trips, groups),
		Groups:    service.NewGroupService(groups),
		CheckIns:  service.NewCheckInService(trips, groups, checkIns, coord, dispatcher, clk, cfg.CheckInRadiusMeters, logger),
		Lifecycle: coord,
		Tracker:   tracker,
		Schedule:  service.NewScheduleService(trips, groups, items, assignments, logger),
		Sessions:  registry,
	}, logger, cfg.SessionQueueSize, cfg.CORSOrigins)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger, srv),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: websocket connections are long-lived.
	}

	// --- Run ----------------------------------------------------------------
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		// Graceful shutdown: give in-flight requests up to 15 seconds.
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newRouter stacks the process-wide middleware in front of the API routes.
// Order: RequestID, RealIP, request log, metrics, Recoverer, CORS, body cap.
func newRouter(cfg config.Config, logger *slog.Logger, srv *handler.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", srv.Routes(middleware.Authenticate([]byte(cfg.JWTSecret))))
	return r
}
