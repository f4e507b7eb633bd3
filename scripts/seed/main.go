// Script to seed the database with a demo child mid-transition.
// Usage: go run scripts/seed/main.go
package main

import (
	"context"
	"log"

	"github.com/blaisecz/nap-planner/internal/config"
	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/blaisecz/nap-planner/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	db, err := config.NewDatabase(cfg)
	if err != nil {
		appLog.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate
	if err := db.AutoMigrate(&domain.Child{}, &domain.ScheduleConfig{}, &domain.SleepSession{}, &domain.ScheduleTransition{}); err != nil {
		appLog.Fatalf("Failed to migrate: %v", err)
	}

	if err := seed.Run(context.Background(), db, appLog); err != nil {
		appLog.Fatalf("Seed failed: %v", err)
	}
}
