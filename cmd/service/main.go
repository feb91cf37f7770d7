package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-api/internal/middleware"
	"gitlab.com/dirk.krummacker/contacts-api/internal/service"
	"go.uber.org/zap"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=secret GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogOutput)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync() //nolint:errcheck

	sqlDB, err := service.CreateDatabase(service.DatabaseOptions{
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		zl.Fatal("could not connect to the database", zap.Error(err))
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := service.RouterOptions{AccessLog: cfg.AccessLog()}
	if cfg.RateLimitRPS > 0 {
		opts.Limiters = middleware.NewLimiters(cfg.RateLimitRPS, cfg.RateLimitBurst, 15*time.Minute)
		opts.Limiters.StartJanitor(ctx, 2*time.Minute)
	}

	svc := service.New(service.SetupDatabaseWrapper(sqlDB), zl,
		service.WithBirthdayWindow(cfg.BirthdayWindowDays))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           service.SetupHttpRouter(svc, zl, opts),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			zl.Error("failed to listen and serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("could not shut down the server", zap.Error(err))
		return
	}
	zl.Info("server closed")
}
