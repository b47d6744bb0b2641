// Package main starts the Workboard API server: configuration, logging,
// database, repositories, services, handlers and an HTTP(S) listener with
// graceful shutdown.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/Workboard/internal/config"
	"github.com/atinyakov/Workboard/internal/db"
	"github.com/atinyakov/Workboard/internal/logger"
	"github.com/atinyakov/Workboard/internal/repository"
	"github.com/atinyakov/Workboard/internal/server/handler/http"
	"github.com/atinyakov/Workboard/internal/service"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Error("server stopped", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
	zapLogger.Info("server stopped")
	_ = zapLogger.Sync()
}

func run(ctx context.Context, options *config.ServerOptions, zapLogger *zap.Logger) (err error) {
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer func() { err = multierr.Append(err, postgresDB.Close()) }()

	db.StartSessionCleaner(ctx, postgresDB, options.CleanupInterval, zapLogger)

	authService := service.NewAuthService(repository.NewPostgresAuthRepository(postgresDB), options.TokenTTL)
	attendanceService := service.NewAttendanceService(repository.NewPostgresAttendanceRepository(postgresDB))
	taskService := service.NewTaskService(repository.NewPostgresTaskRepository(postgresDB))

	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService, Log: zapLogger},
		&http.AttendanceHandler{Service: attendanceService, Log: zapLogger},
		&http.TaskHandler{Service: taskService, Log: zapLogger},
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if options.TLSCert == "" {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
			serveErr <- server.ListenAndServe()
			return
		}
		cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
		if err != nil {
			serveErr <- fmt.Errorf("load server TLS cert/key: %w", err)
			return
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
		serveErr <- server.ListenAndServeTLS("", "")
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
