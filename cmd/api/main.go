package main

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

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/meetinsight/meeting-insight/internal/analyzer"
	"github.com/meetinsight/meeting-insight/internal/console"
	"github.com/meetinsight/meeting-insight/internal/meeting"
	"github.com/meetinsight/meeting-insight/internal/platform/config"
	"github.com/meetinsight/meeting-insight/internal/platform/logger"
	"github.com/meetinsight/meeting-insight/internal/platform/middleware"
	"github.com/meetinsight/meeting-insight/internal/store"
)

func main() {
	// A missing .env file is fine; the environment is used as is.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := store.NewFileStore(cfg.DataDir, cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}

	var analyses analyzer.AnalysisStore = files
	checks := map[string]console.Pinger{"files": files}
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres store: %w", err)
		}
		defer pg.Close()
		analyses = pg
		checks["postgres"] = pg
		log.Info("storing analyses in postgres")
	}

	registry := meeting.NewRegistry(
		meeting.NewLocalAnalyzer(),
		meeting.NewAIAnalyzer(files, cfg.AITimeout, cfg.AIAllowPrivate),
	)
	svc := analyzer.NewService(registry, meeting.NewPool(cfg.AnalyzeConcurrency), analyses, files, log)

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(log), middleware.Logging(log))

	analyzer.NewTransport(svc, log, cfg.MaxUploadBytes).RegisterRoutes(r)
	console.NewTransport(console.Deps{
		Analyses: analyses,
		Roles:    files,
		Settings: files,
		Uploads:  files,
		Checks:   checks,
		Dirs:     files,
	}, log).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "methods", registry.Methods())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
