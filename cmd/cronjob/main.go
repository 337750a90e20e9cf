package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"unimarket-backend/internal/config"
	"unimarket-backend/internal/jobs"
	"unimarket-backend/internal/logger"
	"unimarket-backend/internal/repository/postgres"
	"unimarket-backend/internal/scheduler"
	"unimarket-backend/internal/security"
	"unimarket-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit ('maintenance-sweep', 'cancel-stale-orders', 'all')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting UniMarket cronjob runner...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	audit := security.NewAuditLog(0)
	limiter := security.NewRateLimiter(cfg.Business.RateLimitPerMinute, audit)
	emailService := service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)

	orderService := service.NewOrderService(store, limiter, audit, emailService,
		cfg.Business.PriceToleranceMinor, time.Duration(cfg.Business.OrderTimeoutMinutes)*time.Minute)
	adminService := service.NewAdminService(store, audit, emailService, cfg.Business.BanDeletionDelayDays)

	jobRunner := jobs.NewJobRunner(&jobs.Services{
		Admin:  adminService,
		Orders: orderService,
	}, cfg)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	cronScheduler.Stop()
}

func runJobOnce(jr *jobs.JobRunner, name string) {
	switch name {
	case "maintenance-sweep":
		jr.RunMaintenanceSweep()
	case "cancel-stale-orders":
		jr.CancelStaleOrders()
	case "all":
		jr.RunAllJobs()
	default:
		logger.Error("Unknown job name", "job", name)
		os.Exit(1)
	}
}
