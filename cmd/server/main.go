// Command dropin-server serves the shared availability calendar over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/mschachner/drop-in/internal/config"
	pkgcrypto "github.com/mschachner/drop-in/internal/crypto"
	"github.com/mschachner/drop-in/internal/limiter"
	"github.com/mschachner/drop-in/internal/migrate"
	"github.com/mschachner/drop-in/internal/repository/postgres"
	grpcserver "github.com/mschachner/drop-in/internal/server/grpc"
	httpserver "github.com/mschachner/drop-in/internal/server/http"
	"github.com/mschachner/drop-in/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations and serves until SIGINT/SIGTERM.
func main() {
	cfgPath := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env", ".env", "dotenv file (ignored when missing)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTP.Addr),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Migrate {
		if err := migrate.Up(ctx, cfg.Database.DSN, logger); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	// Repositories
	calRepo := postgres.NewCalendarRepo(db)
	eventRepo := postgres.NewAvailabilityRepo(db)
	lim := limiter.NewPG(db.Pool, cfg.Admin.Window, cfg.Admin.MaxFailures, cfg.Admin.BlockFor)

	signKey := []byte(cfg.Auth.SigningKey)
	if len(signKey) == 0 {
		if signKey, err = pkgcrypto.RandBytes(32); err != nil {
			return fmt.Errorf("signing key: %w", err)
		}
		logger.Warn("auth.signing_key not set; tokens will not survive a restart")
	}
	tokens := service.NewTokens(signKey, cfg.Auth.TokenTTL)
	policy := service.Policy{EnforceIdentity: cfg.Auth.EnforceIdentity}

	// Services
	calSvc := service.NewCalendarService(calRepo, eventRepo, logger)
	if err := calSvc.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("ensure default calendar: %w", err)
	}
	if cfg.Admin.PasswordHash == "" {
		logger.Warn("admin.password_hash not set; admin verification disabled")
	}

	gin.SetMode(cfg.Mode)
	router := httpserver.New(httpserver.Deps{
		Availability:    service.NewAvailabilityService(eventRepo, policy),
		Membership:      service.NewMembershipService(eventRepo, policy),
		Calendars:       calSvc,
		Admin:           service.NewAdminService(cfg.Admin.PasswordHash, lim, tokens, logger),
		Identity:        service.NewIdentityService(tokens),
		Pinger:          db,
		Log:             logger,
		Location:        cfg.Location(),
		WindowDays:      cfg.Calendar.DefaultWindowDays,
		ProtectRegistry: cfg.Admin.ProtectRegistry,
		Version:         version,
	})
	hs := newHTTPServer(cfg, router)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var gs *grpc.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		gs = grpcserver.New(db, logger, cfg.GRPC.Reflection)
		go func() {
			logger.Info("grpc listening", zap.String("addr", cfg.GRPC.Addr))
			if err := gs.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	// Wait for stop
	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if gs != nil {
		done := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			gs.Stop()
		}
	}
	return serveErr
}

// newHTTPServer applies the configured timeouts. Request contexts derive from
// the server, not the signal context, so Shutdown can drain in-flight calls.
func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
}
