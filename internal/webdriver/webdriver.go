// Package webdriver is the Selenium flavour of the live page adapter. Each
// session runs its own ChromeDriver process.
package webdriver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

type Options struct {
	ChromeDriverPath string
	Port             int
	Headless         bool
	UserAgent        string
	PageLoadTimeout  time.Duration
}

func DefaultOptions() Options {
	return Options{
		ChromeDriverPath: "/usr/local/bin/chromedriver",
		Port:             4444,
		Headless:         true,
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		PageLoadTimeout:  60 * time.Second,
	}
}

func (o Options) capabilities() selenium.Capabilities {
	caps := selenium.Capabilities{"browserName": "chrome"}

	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		"--window-size=1920,1080",
		"--lang=uk-UA",
	}
	if o.Headless {
		args = append(args, "--headless=new")
	}
	if o.UserAgent != "" {
		args = append(args, "--user-agent="+o.UserAgent)
	}

	caps.AddChrome(chrome.Capabilities{Args: args})
	return caps
}

// Fetcher starts a driver per Open and quits it when the session closes.
type Fetcher struct {
	opts   Options
	logger *slog.Logger
}

var _ page.Fetcher = (*Fetcher)(nil)

func NewFetcher(opts Options, logger *slog.Logger) *Fetcher {
	return &Fetcher{opts: opts, logger: logger.With("component", "webdriver")}
}

func (f *Fetcher) Open(ctx context.Context, url string) (page.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	service, err := selenium.NewChromeDriverService(f.opts.ChromeDriverPath, f.opts.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	wd, err := selenium.NewRemote(f.opts.capabilities(), fmt.Sprintf("http://localhost:%d/wd/hub", f.opts.Port))
	if err != nil {
		service.Stop()
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	sess := &session{service: service, wd: wd, doc: NewDocument(wd), link: url}

	if f.opts.PageLoadTimeout > 0 {
		if err := wd.SetPageLoadTimeout(f.opts.PageLoadTimeout); err != nil {
			f.logger.Warn("failed to set page load timeout", "error", err)
		}
	}

	f.logger.Info("navigating", "url", url)
	if err := wd.Get(url); err != nil {
		sess.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	return sess, nil
}

type session struct {
	service *selenium.Service
	wd      selenium.WebDriver
	doc     *Document
	link    string
}

func (s *session) Document() page.Document { return s.doc }
func (s *session) Link() string            { return s.link }

func (s *session) Close() error {
	var errs []error
	if err := s.wd.Quit(); err != nil {
		errs = append(errs, fmt.Errorf("failed to quit webdriver: %w", err))
	}
	if err := s.service.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop chromedriver: %w", err))
	}
	return errors.Join(errs...)
}
