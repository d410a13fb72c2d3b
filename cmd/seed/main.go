package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/zfogg/snapshare/internal/config"
	"github.com/zfogg/snapshare/internal/database"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/seed"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev", "test", "clean":
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed fixed test users and a little content")
		fmt.Println("  clean - Remove all data (use with caution)")
		os.Exit(1)
	}

	cfg := config.FromEnv()
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	db, err := database.Open(cfg.Database, false)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	ctx := context.Background()
	seeder := seed.NewSeeder(db)

	switch command {
	case "dev":
		log.Println("🌱 Seeding development database...")
		summary, err := seeder.SeedDev(ctx)
		if err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		printSummary(summary)
	case "test":
		log.Println("🧪 Seeding test database...")
		summary, err := seeder.SeedTest(ctx)
		if err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		printSummary(summary)
	case "clean":
		log.Println("🧹 Cleaning database...")
		if err := seeder.Clean(ctx); err != nil {
			log.Fatalf("❌ Clean failed: %v", err)
		}
		log.Println("✅ Database cleaned")
	}
}

func printSummary(s *seed.Summary) {
	log.Printf("✅ Created %d users, %d posts, %d comments, %d likes, %d favorites",
		s.Users, s.Posts, s.Comments, s.Likes, s.Favorites)
}
