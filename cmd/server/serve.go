package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danek0100/External-Observer/internal/cache"
	"github.com/danek0100/External-Observer/internal/config"
	"github.com/danek0100/External-Observer/internal/jobs"
	"github.com/danek0100/External-Observer/internal/limiter"
	"github.com/danek0100/External-Observer/internal/migrate"
	"github.com/danek0100/External-Observer/internal/ownership"
	"github.com/danek0100/External-Observer/internal/repository/postgres"
	grpcserver "github.com/danek0100/External-Observer/internal/server/grpc"
	httpserver "github.com/danek0100/External-Observer/internal/server/http"
	"github.com/danek0100/External-Observer/internal/service"
)

const (
	shutdownTimeout = 5 * time.Second
	healthEvery     = 15 * time.Second
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run migrations and serve the HTTP API",
		Args:  cobra.NoArgs,
	}
	opts := config.Bind(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if err := config.Load(cmd.Flags(), opts); err != nil {
			return err
		}
		log, err := newLogger(opts.Dev)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, opts, log); err != nil {
			log.Error("server error", zap.Error(err))
			return err
		}
		log.Info("shutdown complete")
		return nil
	}
	return cmd
}

// serve wires storage, services and transports, and blocks until ctx is done.
func serve(ctx context.Context, o *config.Options, log *zap.Logger) error {
	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("http", o.HTTPAddr),
		zap.String("grpc", o.GRPCAddr),
	)

	if err := migrate.Up(ctx, o.DSN); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	db, err := postgres.New(ctx, o.DSN)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	deps := []grpcserver.Pinger{db}
	var docCache cache.DocumentCache
	if o.RedisAddr != "" {
		rc, client, err := cache.NewRedis(ctx, o.RedisAddr, o.CacheTTL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = client.Close() }()
		docCache = rc
		deps = append(deps, rc)
	}

	mode, err := o.OwnershipMode()
	if err != nil {
		return err
	}
	policy := ownership.New(mode)

	// Repositories
	docRepo := postgres.NewDocumentRepo(db)
	lim := limiter.NewPG(db.Pool, limiter.DefaultSettings)

	// Services
	authSvc := service.NewAuthService(postgres.NewUserRepo(db), []byte(o.JWTKey), o.AccessTTL, lim, docCache)
	docSvc := service.NewDocumentService(docRepo, policy, docCache, log)
	habitSvc := service.NewHabitService(postgres.NewHabitRepo(db), postgres.NewCheckRepo(db), policy, o.MaxPeriodDays)

	runner := jobs.NewRunner(log,
		&jobs.PruneRevisions{Store: docRepo, Keep: o.RevisionKeep, Every: o.MaintenanceEvery, Log: log},
		&jobs.PurgeLimiter{Limiter: lim, Every: o.MaintenanceEvery, Log: log},
	)
	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	httpLis, grpcLis, err := listen(o.HTTPAddr, o.GRPCAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: o.HTTPAddr,
		Handler: httpserver.NewRouter(httpserver.Services{
			Auth:      authSvc,
			Documents: docSvc,
			Habits:    habitSvc,
		}, log, o.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("listening (http)", zap.String("addr", httpLis.Addr().String()))
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var health *grpcserver.Server
	if grpcLis != nil {
		health = grpcserver.New(log, o.Dev, deps...)
		go health.Watch(ctx, healthEvery)
		go func() {
			log.Info("listening (grpc health)", zap.String("addr", grpcLis.Addr().String()))
			if err := health.Serve(grpcLis); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if health != nil {
		health.Stop(shutdownTimeout)
	}
	return runErr
}

// listen binds the HTTP and, when configured, the gRPC address. Either both
// listeners are returned or none stays open.
func listen(httpAddr, grpcAddr string) (httpLis, grpcLis net.Listener, err error) {
	httpLis, err = net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s: %w", httpAddr, err)
	}
	if grpcAddr == "" {
		return httpLis, nil, nil
	}
	grpcLis, err = net.Listen("tcp", grpcAddr)
	if err != nil {
		_ = httpLis.Close()
		return nil, nil, fmt.Errorf("listen %s: %w", grpcAddr, err)
	}
	return httpLis, grpcLis, nil
}
