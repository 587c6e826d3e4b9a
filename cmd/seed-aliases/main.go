package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/content-ingest-api/internal/config"
	"github.com/content-ingest-api/internal/database"
	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
	"github.com/content-ingest-api/internal/service"
	"github.com/content-ingest-api/pkg/logger"
	"gopkg.in/yaml.v3"
)

// aliasFile is the layout of the legacy URL list
type aliasFile struct {
	Aliases []models.URLAlias `yaml:"aliases"`
}

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	file := flag.String("file", cfg.Redirect.AliasSeedFile, "YAML file with legacy URL aliases")
	flag.Parse()

	aliases, err := loadAliases(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read alias file")
	}
	log.Info().Str("file", *file).Int("count", len(aliases)).Msg("Loaded legacy aliases")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	services := service.NewServices(repository.New(db), cfg, log)
	result, err := services.Redirect.SeedAliases(context.Background(), aliases)
	if err != nil {
		log.Fatal().Err(err).Msg("Alias seeding failed")
	}

	fmt.Printf("aliases: %d total, %d inserted, %d already present, %d invalid\n",
		result.Total, result.Inserted, result.Skipped, result.Invalid)
}

func loadAliases(path string) ([]models.URLAlias, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeAliases(f)
}

func decodeAliases(r io.Reader) ([]models.URLAlias, error) {
	var doc aliasFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid alias file: %w", err)
	}
	return doc.Aliases, nil
}
