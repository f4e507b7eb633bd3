// Nap Planner API
//
// REST API for baby sleep schedules, next-sleep recommendations and guided
// 2-to-1 nap transitions.
//
//	@title			Nap Planner API
//	@version		1.0
//	@description	Baby sleep schedules, next-sleep recommendations and guided 2-to-1 nap transitions.
//
//	@BasePath	/v1
//
//	@tag.name			children
//	@tag.description	Child registration
//
//	@tag.name			schedule
//	@tag.description	Active schedule configuration
//
//	@tag.name			sessions
//	@tag.description	Sleep session lifecycle
//
//	@tag.name			planning
//	@tag.description	Rolling statistics and next-sleep recommendations
//
//	@tag.name			transition
//	@tag.description	Guided 2-to-1 nap transition
//
//	@tag.name			coaching
//	@tag.description	LLM coaching for the nap transition
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blaisecz/nap-planner/internal/api"
	"github.com/blaisecz/nap-planner/internal/api/handler"
	"github.com/blaisecz/nap-planner/internal/config"
	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/langfuse"
	"github.com/blaisecz/nap-planner/internal/llm"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/blaisecz/nap-planner/internal/planner"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/blaisecz/nap-planner/internal/seed"
	"github.com/blaisecz/nap-planner/internal/service"
	"github.com/blaisecz/nap-planner/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg)
	if err != nil {
		appLog.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			appLog.Errorf("Failed to flush traces: %v", err)
		}
	}()

	// Connect to database
	db, err := config.NewDatabase(cfg)
	if err != nil {
		appLog.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database schema
	if err := db.AutoMigrate(&domain.Child{}, &domain.ScheduleConfig{}, &domain.SleepSession{}, &domain.ScheduleTransition{}); err != nil {
		appLog.Fatalf("Failed to migrate database: %v", err)
	}
	appLog.Info("Database migration completed")

	if cfg.Seed {
		appLog.Info("Seeding database with sample data (SEED=true)...")
		if err := seed.Run(ctx, db, appLog); err != nil {
			appLog.Fatalf("Failed to seed database: %v", err)
		}
	}

	machine, err := planner.NewTransitionMachine(planner.DefaultTransitionSettings())
	if err != nil {
		appLog.Fatalf("Invalid transition settings: %v", err)
	}

	// Initialize repositories
	childRepo := repository.NewChildRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	sessionRepo := repository.NewSleepSessionRepository(db)
	transitionRepo := repository.NewTransitionRepository(db)

	// Initialize services
	childService := service.NewChildService(childRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, childRepo, service.NewScheduleCache(cfg.ScheduleCacheSize, cfg.ScheduleCacheTTL))
	sessionService := service.NewSleepSessionService(sessionRepo, childRepo, scheduleService)
	statsService := service.NewStatsService(sessionRepo, childRepo)
	recommendationService := service.NewRecommendationService(childRepo, sessionRepo, scheduleService)
	transitionService := service.NewTransitionService(machine, transitionRepo, childRepo, sessionRepo, scheduleService, appLog)

	// Coaching prompt comes from Langfuse when configured, falling back to the built-in one
	systemPrompt := llm.DefaultSystemPrompt
	if cfg.CoachingPromptName != "" {
		prompt, err := langfuse.LoadPrompt(ctx, langfuse.PromptLoaderConfig{
			BaseURL:     cfg.LangfuseBaseURL,
			PublicKey:   cfg.LangfusePublicKey,
			SecretKey:   cfg.LangfuseSecretKey,
			PromptName:  cfg.CoachingPromptName,
			PromptLabel: cfg.CoachingPromptLabel,
			SavePath:    cfg.CoachingPromptPath,
			Logger:      appLog,
		})
		if err != nil {
			appLog.Warnf("Using built-in coaching prompt: %v", err)
		} else {
			systemPrompt = prompt
		}
	}

	// OpenAI client is optional; coaching answers 503 without it
	var coachingLLM llm.CoachingLLM
	if client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAICoachingModel,
		llm.WithSystemPrompt(systemPrompt),
		llm.WithMaxAttempts(cfg.LLMMaxAttempts),
		llm.WithLogger(appLog),
	); client != nil {
		coachingLLM = client
	} else {
		appLog.Warn("OpenAI API key not configured, coaching endpoint will be unavailable")
	}

	langfuseClient := langfuse.NewClient(langfuse.Config{
		BaseURL:     cfg.LangfuseBaseURL,
		PublicKey:   cfg.LangfusePublicKey,
		SecretKey:   cfg.LangfuseSecretKey,
		Environment: cfg.LangfuseEnv,
		Logger:      appLog,
	})

	coachingService := service.NewCoachingService(
		transitionService,
		statsService,
		recommendationService,
		scheduleService,
		childRepo,
		coachingLLM,
		langfuseClient,
		appLog,
	)

	// Setup router
	router := api.NewRouter(api.Handlers{
		Child:      handler.NewChildHandler(childService),
		Schedule:   handler.NewScheduleHandler(scheduleService),
		Session:    handler.NewSessionHandler(sessionService),
		Stats:      handler.NewStatsHandler(statsService, recommendationService),
		Transition: handler.NewTransitionHandler(transitionService),
		Coaching:   handler.NewCoachingHandler(coachingService),
	}, appLog)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Infow("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Errorf("Graceful shutdown failed: %v", err)
	}
}
