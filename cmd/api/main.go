package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/handler"
	"github.com/Dan9191/bills-service/internal/notify"
	"github.com/Dan9191/bills-service/internal/reminder"
	"github.com/Dan9191/bills-service/internal/repository"
	"github.com/Dan9191/bills-service/internal/service"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	dialect, err := repository.ParseDialect(cfg.DBDriver)
	if err != nil {
		logger.Fatalf("Invalid database driver: %v", err)
	}
	db, err := repository.Open(ctx, dialect, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize layers
	repo := repository.NewRepository(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	svc := service.NewService(repo, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Payment reminders
	if cfg.RemindersEnabled() {
		job := reminder.NewJob(svc, notify.NewSender(cfg, logger), cfg.ReminderEmail, logger)
		scheduler, err := reminder.NewScheduler(cfg.ReminderSchedule, job, time.Minute, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule reminders: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop(context.Background())
	} else {
		logger.Info("SMTP or REMINDER_EMAIL not configured, payment reminders disabled")
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed: %v", err)
	}
	logger.Info("Server stopped")
}
