// Package app wires configuration into concrete adapters for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/brain-scraper/internal/browser"
	"github.com/maltedev/brain-scraper/internal/config"
	"github.com/maltedev/brain-scraper/internal/database"
	"github.com/maltedev/brain-scraper/internal/events"
	"github.com/maltedev/brain-scraper/internal/httpfetch"
	"github.com/maltedev/brain-scraper/internal/models"
	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/maltedev/brain-scraper/internal/ratelimit"
	"github.com/maltedev/brain-scraper/internal/render"
	"github.com/maltedev/brain-scraper/internal/scraper"
	"github.com/maltedev/brain-scraper/internal/storage"
	"github.com/maltedev/brain-scraper/internal/webdriver"
	"github.com/redis/go-redis/v9"
)

// ProductStore is implemented by both persistence adapters.
type ProductStore interface {
	scraper.Store
	Get(ctx context.Context, link string) (*models.StoredProduct, error)
	First(ctx context.Context) (*models.StoredProduct, error)
}

// OpenStore opens the configured persistence adapter. The returned func
// releases it.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (ProductStore, func(), error) {
	switch cfg.Driver {
	case config.DriverBadger:
		s, err := storage.Open(cfg.BadgerPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("failed to close store", "error", err)
			}
		}, nil

	case config.DriverPostgres:
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Name,
			SSLMode:  cfg.SSLMode,
			MaxConns: cfg.MaxConns,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Fetchers holds the page adapters built for one process.
type Fetchers struct {
	Fetcher  page.Fetcher
	Searcher page.Searcher
	Pause    page.PauseFunc
	close    func()
}

func (f *Fetchers) Close() {
	if f.close != nil {
		f.close()
	}
}

// NewFetchers builds the adapter named by cfg.Scraper.Adapter. Only the
// Playwright adapter supports search.
func NewFetchers(cfg *config.Config, logger *slog.Logger) (*Fetchers, error) {
	pacer := ratelimit.NewSimpleRateLimiter(cfg.Scraper.PaceMin, cfg.Scraper.PaceMax)
	out := &Fetchers{Pause: pacer.Pause}

	switch cfg.Scraper.Adapter {
	case config.AdapterBrowser:
		opts := browser.DefaultOptions()
		opts.Headless = cfg.Browser.Headless
		opts.Timeout = cfg.Browser.Timeout
		opts.ViewportWidth = cfg.Browser.ViewportWidth
		opts.ViewportHeight = cfg.Browser.ViewportHeight
		opts.AcceptLanguage = cfg.Browser.AcceptLanguage
		opts.TimezoneID = cfg.Browser.TimezoneID
		opts.Locale = cfg.Browser.Locale
		opts.ProxyServer = cfg.Browser.ProxyServer
		if cfg.Browser.UserAgent != "" {
			opts.UserAgent = cfg.Browser.UserAgent
		}

		b, err := browser.New(opts, logger)
		if err != nil {
			return nil, err
		}
		f := browser.NewFetcher(b, cfg.Scraper.BaseURL, cfg.Browser.Timeout, pacer.Pause, logger)
		out.Fetcher = f
		out.Searcher = f
		out.close = func() {
			if err := b.Close(); err != nil {
				logger.Error("failed to close browser", "error", err)
			}
		}

	case config.AdapterWebDriver:
		opts := webdriver.DefaultOptions()
		opts.ChromeDriverPath = cfg.WebDriver.ChromeDriverPath
		opts.Port = cfg.WebDriver.Port
		opts.Headless = cfg.Browser.Headless
		opts.PageLoadTimeout = cfg.Browser.Timeout
		if cfg.Browser.UserAgent != "" {
			opts.UserAgent = cfg.Browser.UserAgent
		}
		out.Fetcher = webdriver.NewFetcher(opts, logger)

	case config.AdapterRender:
		opts := render.DefaultOptions()
		opts.Headless = cfg.Browser.Headless
		opts.ExpandTimeout = cfg.Scraper.LookupTimeout
		opts.Expand = []page.Locator{scraper.SpecificationsControl}
		if cfg.Browser.UserAgent != "" {
			opts.UserAgent = cfg.Browser.UserAgent
		}
		out.Fetcher = render.NewFetcher(opts, pacer.Pause, logger)

	case config.AdapterHTTP:
		headers, err := httpfetch.HeadersForProfile(cfg.HTTP.HeaderProfile, cfg.HTTP.HeadersFile)
		if err != nil {
			return nil, err
		}
		out.Fetcher = httpfetch.New(httpfetch.Options{Timeout: cfg.HTTP.Timeout, Headers: headers}, logger)

	default:
		return nil, fmt.Errorf("unknown fetch adapter %q", cfg.Scraper.Adapter)
	}

	return out, nil
}

// NewNotifier returns nil when no Redis address is configured.
func NewNotifier(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (scraper.Notifier, func(), error) {
	if cfg.Addr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return events.NewPublisher(client, cfg.Stream, logger), func() { client.Close() }, nil
}

// NewService assembles the extraction pipeline.
func NewService(cfg *config.Config, f *Fetchers, store scraper.Store, notifier scraper.Notifier, logger *slog.Logger) *scraper.Service {
	extractor := scraper.NewExtractor(logger, cfg.Scraper.LookupTimeout, f.Pause)

	var opts []scraper.Option
	if f.Searcher != nil {
		opts = append(opts, scraper.WithSearcher(f.Searcher))
	}
	if notifier != nil {
		opts = append(opts, scraper.WithNotifier(notifier))
	}
	return scraper.NewService(f.Fetcher, extractor, store, logger, opts...)
}
