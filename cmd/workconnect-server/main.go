package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/config"
	"github.com/workconnect/server/internal/db"
	"github.com/workconnect/server/internal/feed"
	"github.com/workconnect/server/internal/httpapi"
	"github.com/workconnect/server/internal/workconnect/service"
	"github.com/workconnect/server/internal/workconnect/store/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.FromEnv()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, database, db.SeedDevOptions{}); err != nil {
			return err
		}
	}

	writer := db.NewWorker(database)
	defer writer.Close()

	zone, err := time.LoadLocation(cfg.CompanyTimezone)
	if err != nil {
		logger.WithError(err).WithField("tz", cfg.CompanyTimezone).
			Warn("unknown company timezone, using UTC")
		zone = time.UTC
	}

	attendanceStore := sqlite.NewAttendanceStore(database, writer)
	vacationStore := sqlite.NewVacationStore(database, writer)
	userStore := sqlite.NewUserStore(database, writer)
	notificationStore := sqlite.NewNotificationStore(database, writer)
	payslipStore := sqlite.NewPayslipStore(database, writer)

	markerFeed := feed.New()

	attendance := service.NewAttendanceService(attendanceStore, markerFeed, logger)
	vacations := service.NewVacationService(vacationStore, userStore, logger)
	payslips := service.NewPayslipService(payslipStore, logger)

	watchdog := service.NewAutoEndWatchdog(attendance, attendanceStore, markerFeed, service.WatchdogConfig{
		SweepIntervalMinutes: cfg.WatchdogSweepMinutes,
	}, logger)
	watchdog.Start(ctx)
	defer watchdog.Stop()

	pruner := service.NewRetentionPruner(attendanceStore, service.RetentionConfig{
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	server := httpapi.NewServer(httpapi.Dependencies{
		Logger:        logger,
		Addr:          cfg.HTTPAddr,
		Attendance:    attendance,
		Vacations:     vacations,
		Payslips:      payslips,
		Users:         userStore,
		Notifications: notificationStore,
		CompanyZone:   zone,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
