package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	apihttp "unimarket-backend/internal/api/http"
	"unimarket-backend/internal/config"
	"unimarket-backend/internal/logger"
	"unimarket-backend/internal/repository/postgres"
	"unimarket-backend/internal/security"
	"unimarket-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting UniMarket API server...", "log_level", cfg.Log.Level)

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
	sanitizer := security.NewSanitizer(audit)
	limiter := security.NewRateLimiter(cfg.Business.RateLimitPerMinute, audit)
	tokens := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	emailService := service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	verifier := service.NewHeuristicVerifier()

	authService := service.NewAuthService(store, tokens, sanitizer, limiter, audit, verifier, emailService, cfg.Business.ReferralBonusMinor)
	walletService := service.NewWalletService(store, limiter, audit, cfg.Business.MaxTransactionMinor)
	orderService := service.NewOrderService(store, limiter, audit, emailService,
		cfg.Business.PriceToleranceMinor, time.Duration(cfg.Business.OrderTimeoutMinutes)*time.Minute)
	catalogService := service.NewCatalogService(store, sanitizer, limiter, audit)
	adminService := service.NewAdminService(store, audit, emailService, cfg.Business.BanDeletionDelayDays)

	router := apihttp.NewRouter(apihttp.Services{
		Auth:    authService,
		Wallet:  walletService,
		Orders:  orderService,
		Catalog: catalogService,
		Admin:   adminService,
		Tokens:  tokens,
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
