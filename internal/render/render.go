// Package render loads a page in headless Chrome over the DevTools protocol,
// expands collapsed sections and hands the rendered markup to the static
// parser.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/maltedev/brain-scraper/internal/parser"
)

type Options struct {
	Headless  bool
	UserAgent string
	// Timeout bounds the whole render, navigation included.
	Timeout time.Duration
	// ExpandTimeout bounds each attempt to click an Expand control.
	ExpandTimeout time.Duration
	Headers       map[string]interface{}
	// Expand lists controls clicked, when present, before the snapshot.
	Expand []page.Locator
}

func DefaultOptions() Options {
	return Options{
		Headless:      true,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Timeout:       2 * time.Minute,
		ExpandTimeout: 10 * time.Second,
		Headers: map[string]interface{}{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "uk-UA,uk;q=0.9,en-US;q=0.8",
		},
	}
}

type Fetcher struct {
	opts   Options
	pause  page.PauseFunc
	logger *slog.Logger
}

var _ page.Fetcher = (*Fetcher)(nil)

func NewFetcher(opts Options, pause page.PauseFunc, logger *slog.Logger) *Fetcher {
	if pause == nil {
		pause = func(context.Context) error { return nil }
	}
	return &Fetcher{opts: opts, pause: pause, logger: logger.With("component", "renderer")}
}

func (f *Fetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if f.opts.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if f.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.opts.UserAgent))
	}
	return opts
}

// Open renders url and returns a snapshot. The browser is gone by the time
// Open returns; the session only holds parsed markup.
func (f *Fetcher) Open(ctx context.Context, url string) (page.Session, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if len(f.opts.Headers) > 0 {
		if err := chromedp.Run(taskCtx, network.Enable(), network.SetExtraHTTPHeaders(network.Headers(f.opts.Headers))); err != nil {
			return nil, fmt.Errorf("failed to set headers: %w", err)
		}
	}

	f.logger.Info("rendering page", "url", url)
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	for _, loc := range f.opts.Expand {
		if err := f.expand(taskCtx, loc); err != nil {
			f.logger.Debug("expand control skipped", "selector", loc.Selector, "error", err)
		}
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to read rendered markup: %w", err)
	}

	doc, err := parser.NewDocumentFromString(html)
	if err != nil {
		return nil, err
	}
	return &snapshot{doc: doc, link: url}, nil
}

// expand scrolls to loc, pauses and clicks it. Selector queries in chromedp
// wait until the node appears, so each attempt carries its own deadline.
func (f *Fetcher) expand(ctx context.Context, loc page.Locator) error {
	if f.opts.ExpandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.ExpandTimeout)
		defer cancel()
	}

	if err := chromedp.Run(ctx, chromedp.ScrollIntoView(loc.Selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("%w: %v", page.ErrNotFound, err)
	}
	if err := f.pause(ctx); err != nil {
		return err
	}
	if err := chromedp.Run(ctx, chromedp.Click(loc.Selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("%w: %v", page.ErrNotInteractive, err)
	}
	return nil
}

type snapshot struct {
	doc  *parser.Document
	link string
}

func (s *snapshot) Document() page.Document { return s.doc }
func (s *snapshot) Link() string            { return s.link }
func (s *snapshot) Close() error            { return nil }
