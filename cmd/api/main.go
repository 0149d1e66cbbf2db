package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/checkfox/lead_engage/internal/automation"
	"github.com/checkfox/lead_engage/internal/config"
	"github.com/checkfox/lead_engage/internal/database"
	"github.com/checkfox/lead_engage/internal/engagement"
	"github.com/checkfox/lead_engage/internal/handlers"
	"github.com/checkfox/lead_engage/internal/logger"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/checkfox/lead_engage/internal/queue"
	"github.com/checkfox/lead_engage/internal/repository"
	"github.com/checkfox/lead_engage/internal/scoring"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info(ctx, "API Server starting",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
		"auth_enabled", cfg.Auth.Enabled)

	dbWrapper, err := database.InitFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbWrapper.Close()

	logger.Info(ctx, "Database connection established")

	if err := database.RunMigrations(ctx, dbWrapper); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	logger.Info(ctx, "Database migrations completed")

	jobQueue, err := queue.NewDBQueue(dbWrapper.DB)
	if err != nil {
		log.Fatalf("Failed to initialize queue: %v", err)
	}
	defer jobQueue.Close()

	executionRepo := repository.NewExecutionRepository(dbWrapper.DB)
	attemptRepo := repository.NewDispatchAttemptRepository(dbWrapper.DB)
	ruleRepo := repository.NewRuleRepository(dbWrapper.DB)

	core, err := buildCore(ctx, cfg, ruleRepo)
	if err != nil {
		log.Fatalf("Failed to initialize engagement core: %v", err)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Config:     cfg,
		Engagement: handlers.NewEngagementHandler(core, cfg.Engagement.DefaultLanguage),
		Automation: handlers.NewAutomationHandler(handlers.AutomationHandlerConfig{
			Core:       core,
			Executions: executionRepo,
			Rules:      ruleRepo,
			Queue:      jobQueue,
		}),
		Stats:  handlers.NewStatsHandler(executionRepo, attemptRepo),
		Health: dbWrapper.HealthCheck,
	})

	addr := fmt.Sprintf("%s:%s", cfg.API.Host, cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "address", addr)
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)

	case sig := <-sigChan:
		logger.Info(ctx, "Received shutdown signal", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Server shutdown error", "error", err.Error())
			server.Close()
		}

		logger.Info(ctx, "Server shutdown complete")
	}
}

// buildCore assembles the engagement core: optional trained scoring model,
// built-in rules plus custom rules from the rules file and the database.
func buildCore(ctx context.Context, cfg *config.Config, ruleRepo repository.RuleRepository) (*engagement.Core, error) {
	opts := engagement.Options{
		FollowUpAfter: cfg.Engagement.FollowUpAfter,
	}

	if path := cfg.Engagement.ScoringModelPath; path != "" {
		model, err := scoring.LoadLogisticModel(path)
		if err != nil {
			return nil, err
		}
		opts.Model = model
		logger.Info(ctx, "Loaded scoring model", "path", path, "weights", len(model.Weights))
	} else {
		logger.Info(ctx, "No scoring model configured, using heuristic scoring")
	}

	engine := automation.NewEngine()
	opts.Engine = engine

	var custom []models.AutomationRule
	if path := cfg.Engagement.CustomRulesFile; path != "" {
		fileRules, err := automation.LoadRulesFile(path)
		if err != nil {
			return nil, err
		}
		custom = append(custom, fileRules...)
	}
	if ruleRepo != nil {
		stored, err := ruleRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored rules: %w", err)
		}
		custom = append(custom, stored...)
	}

	loaded := 0
	for _, rule := range custom {
		if err := engine.CreateCustomRule(rule); err != nil {
			logger.Warn(ctx, "Skipping custom rule", "rule", rule.Name, "error", err.Error())
			continue
		}
		loaded++
	}
	logger.Info(ctx, "Automation rules loaded", "total", len(engine.Rules()), "custom", loaded)

	return engagement.New(opts), nil
}
