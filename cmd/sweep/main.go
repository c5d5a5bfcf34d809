package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"homefinder/internal/app"
	"homefinder/internal/config"
	"homefinder/internal/database"
)

// sweep runs the expiry and reminder sweepers once and exits. It is meant
// for cron when the api process runs with SCHEDULERS_ENABLED=false.
func main() {
	only := flag.String("only", "", "run a single sweeper: expiry or reminder")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*only); err != nil {
		log.Printf("sweep failed: %v", err)
		os.Exit(1)
	}
	log.Println("sweep completed")
}

func run(only string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	if err := app.Migrate(db); err != nil {
		return err
	}

	a := app.New(cfg, db)
	defer a.Close()

	ran := 0
	var failed []string
	for _, loop := range a.Loops() {
		if only != "" && only != loop.Name() {
			continue
		}
		ran++
		if err := loop.RunOnce(context.Background()); err != nil {
			failed = append(failed, loop.Name())
		}
	}

	if ran == 0 {
		return fmt.Errorf("unknown sweeper %q", only)
	}
	if len(failed) > 0 {
		return fmt.Errorf("sweepers with failures: %v", failed)
	}
	return nil
}
