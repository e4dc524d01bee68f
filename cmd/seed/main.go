package main

import (
	"log"

	"github.com/oggyb/match-engine/internal/config"
	"github.com/oggyb/match-engine/internal/db"
)

func main() {
	// Load configuration
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("refusing to seed a production database")
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
