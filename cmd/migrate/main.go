package main

import (
	"flag"
	"fmt"
	"os"

	"marketplace/internal/config"
	"marketplace/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 1, "number of migrations to roll back with -direction=down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	switch *direction {
	case "up":
		return database.MigrateUp(cfg.Database.ConnectionString(), logger)
	case "down":
		return database.MigrateDown(cfg.Database.ConnectionString(), *steps, logger)
	default:
		return fmt.Errorf("unknown direction %q (must be up or down)", *direction)
	}
}
