package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/db"
	"github.com/noah-isme/backend-quote/internal/obs"
)

func main() {
	catalogPath := flag.String("catalog", "configs/catalog.yaml", "catalog YAML file to load into Postgres")
	skipMigrate := flag.Bool("skip-migrate", false, "do not apply schema migrations first")
	flag.Parse()

	logger := obs.NewLogger("console", "info")

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	if !*skipMigrate {
		if err := db.Migrate(dbURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, dbURL, "quote-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	items, err := catalog.FileSource{Path: *catalogPath}.Load(ctx)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *catalogPath).Msg("read catalog")
	}
	for _, issue := range catalog.New(items).Diagnostics() {
		logger.Warn().Str("item_id", issue.ItemID).Str("kind", string(issue.Kind)).Msg(issue.Detail)
	}

	if err := (catalog.PGSource{DB: pool}).Upsert(ctx, items); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	logger.Info().Int("items", len(items)).Str("path", *catalogPath).Msg("catalog seeded")
}
