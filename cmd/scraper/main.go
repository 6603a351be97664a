package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/brain-scraper/internal/app"
	"github.com/maltedev/brain-scraper/internal/config"
	"github.com/maltedev/brain-scraper/internal/scraper"
)

func main() {
	var (
		url      = flag.String("url", "", "Product page URL to extract")
		search   = flag.String("search", "", "Search query; the first result is extracted")
		adapter  = flag.String("adapter", "", "Fetch adapter: browser, webdriver, render, http (overrides SCRAPER_ADAPTER)")
		headless = flag.Bool("headless", true, "Run browser in headless mode")
		envFile  = flag.String("env", ".env", "Env file to load")
		printRec = flag.Bool("print", false, "Print the extracted record as JSON")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *adapter != "" {
		cfg.Scraper.Adapter = *adapter
	}
	cfg.Browser.Headless = *headless && cfg.Browser.Headless

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *url == "" && *search == "" {
		*search = cfg.Scraper.SearchQuery
	}

	logger := config.NewLogger(cfg.Logging, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, logger, *url, *search, *printRec); err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, url, query string, printRec bool) error {
	store, closeStore, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	fetchers, err := app.NewFetchers(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize %s adapter: %w", cfg.Scraper.Adapter, err)
	}
	defer fetchers.Close()

	notifier, closeNotifier, err := app.NewNotifier(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	svc := app.NewService(cfg, fetchers, store, notifier, logger)

	var res *scraper.Result
	if url != "" {
		res, err = svc.ScrapeURL(ctx, url)
	} else {
		res, err = svc.ScrapeSearch(ctx, query)
	}
	if err != nil {
		return err
	}

	logger.Info("product saved",
		"id", res.ID,
		"created", res.Created,
		"title", res.Record.DisplayTitle(),
		"link", res.Record.Link,
	)

	if printRec {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Record)
	}
	return nil
}
