// Command show prints a stored product as JSON: the one saved under -link,
// or the earliest saved one.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/maltedev/brain-scraper/internal/app"
	"github.com/maltedev/brain-scraper/internal/config"
	"github.com/maltedev/brain-scraper/internal/models"
)

func main() {
	var (
		link    = flag.String("link", "", "Product link to show (default: first saved product)")
		envFile = flag.String("env", ".env", "Env file to load")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.Logging, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var product *models.StoredProduct
	if *link != "" {
		product, err = store.Get(ctx, *link)
	} else {
		product, err = store.First(ctx)
	}
	if err != nil {
		logger.Error("failed to load product", "error", err)
		os.Exit(1)
	}
	if product == nil {
		logger.Warn("no product found", "link", *link)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(product); err != nil {
		logger.Error("failed to encode product", "error", err)
		os.Exit(1)
	}
}
