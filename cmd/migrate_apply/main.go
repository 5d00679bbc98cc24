package main

import (
	"flag"
	"os"

	"github.com/MmmDelicious/lovememory-sub007/internal/logger"
	"github.com/MmmDelicious/lovememory-sub007/internal/migrations"

	"github.com/joho/godotenv"
)

// migrate_apply prints the state of the match result schema, or brings it up
// to date with -apply.
func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "postgres connection string")
	apply := flag.Bool("apply", false, "apply pending migrations instead of printing their status")
	flag.Parse()

	if *dsn == "" {
		logger.Fatal("no database: set DATABASE_URL or pass -dsn")
	}

	if !*apply {
		if err := migrations.Status(*dsn); err != nil {
			logger.Fatal("migration status failed", "error", err)
		}
		return
	}
	if err := migrations.Up(*dsn); err != nil {
		logger.Fatal("apply migrations failed", "error", err)
	}
	logger.Info("match result schema is up to date")
}
