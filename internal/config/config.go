package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fetch adapters.
const (
	AdapterBrowser   = "browser"
	AdapterWebDriver = "webdriver"
	AdapterRender    = "render"
	AdapterHTTP      = "http"
)

// Persistence drivers.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Browser   BrowserConfig
	HTTP      HTTPConfig
	WebDriver WebDriverConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	Adapter       string
	BaseURL       string
	LookupTimeout time.Duration
	PaceMin       time.Duration
	PaceMax       time.Duration
	SearchQuery   string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	UserAgent      string
	ProxyServer    string
}

type HTTPConfig struct {
	Timeout       time.Duration
	HeaderProfile string
	HeadersFile   string
}

type WebDriverConfig struct {
	ChromeDriverPath string
	Port             int
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	MaxConns   int32
	BadgerPath string
}

// RedisConfig with an empty Addr disables upsert notifications.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the given env files (".env" when none is given), then the
// process environment. Variables already set in the environment win over
// file values. Missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8080),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 3*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Scraper: ScraperConfig{
			Adapter:       getEnvOrDefault("SCRAPER_ADAPTER", AdapterBrowser),
			BaseURL:       getEnvOrDefault("SCRAPER_BASE_URL", "https://brain.com.ua/"),
			LookupTimeout: getDurationOrDefault("SCRAPER_LOOKUP_TIMEOUT", 10*time.Second),
			PaceMin:       getDurationOrDefault("SCRAPER_PACE_MIN", time.Second),
			PaceMax:       getDurationOrDefault("SCRAPER_PACE_MAX", 3*time.Second),
			SearchQuery:   getEnvOrDefault("SCRAPER_SEARCH_QUERY", "Apple iPhone 15 128GB Black"),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "uk-UA,uk;q=0.9,en;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Europe/Kiev"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "uk-UA"),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", ""),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		HTTP: HTTPConfig{
			Timeout:       getDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),
			HeaderProfile: getEnvOrDefault("HTTP_HEADER_PROFILE", "default"),
			HeadersFile:   getEnvOrDefault("HTTP_HEADERS_FILE", ""),
		},
		WebDriver: WebDriverConfig{
			ChromeDriverPath: getEnvOrDefault("CHROMEDRIVER_PATH", "/usr/local/bin/chromedriver"),
			Port:             getIntOrDefault("CHROMEDRIVER_PORT", 4444),
		},
		Database: DatabaseConfig{
			Driver:     getEnvOrDefault("DB_DRIVER", DriverPostgres),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getIntOrDefault("DB_PORT", 5432),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   getEnvOrDefault("DB_PASSWORD", ""),
			Name:       getEnvOrDefault("DB_NAME", "brain_scraper"),
			SSLMode:    getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns:   int32(getIntOrDefault("DB_MAX_CONNS", 4)),
			BadgerPath: getEnvOrDefault("BADGER_PATH", "data/badger"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:products"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Scraper.Adapter {
	case AdapterBrowser, AdapterWebDriver, AdapterRender, AdapterHTTP:
	default:
		return fmt.Errorf("SCRAPER_ADAPTER must be one of browser, webdriver, render, http; got %q", c.Scraper.Adapter)
	}

	if c.Scraper.LookupTimeout <= 0 {
		return fmt.Errorf("SCRAPER_LOOKUP_TIMEOUT must be positive")
	}

	if c.Scraper.PaceMin < 0 || c.Scraper.PaceMin > c.Scraper.PaceMax {
		return fmt.Errorf("SCRAPER_PACE_MIN cannot be negative or greater than SCRAPER_PACE_MAX")
	}

	switch c.HTTP.HeaderProfile {
	case "default":
	case "replay":
		if c.HTTP.HeadersFile == "" {
			return fmt.Errorf("HTTP_HEADERS_FILE is required for the replay header profile")
		}
	default:
		return fmt.Errorf("HTTP_HEADER_PROFILE must be default or replay; got %q", c.HTTP.HeaderProfile)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("DB_MAX_CONNS must be at least 1")
		}
	case DriverBadger:
		if c.Database.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or badger; got %q", c.Database.Driver)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not a valid level", s)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
