package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/playwright-community/playwright-go"
)

// Search form and results grid of the site header.
const (
	searchInputSelector  = "div.header-bottom input.quick-search-input"
	searchSubmitSelector = "input[type='submit'][class='qsr-submit']"
	firstResultSelector  = "div[class='row br-row br-row-main br-row-main-s'] div[class='br-pp-desc br-pp-ipd-hidden '] a"
)

// Fetcher opens product pages in new tabs of a shared browser.
type Fetcher struct {
	browser *Browser
	baseURL string
	timeout time.Duration
	pause   page.PauseFunc
	logger  *slog.Logger
}

var (
	_ page.Fetcher  = (*Fetcher)(nil)
	_ page.Searcher = (*Fetcher)(nil)
)

func NewFetcher(b *Browser, baseURL string, timeout time.Duration, pause page.PauseFunc, logger *slog.Logger) *Fetcher {
	if pause == nil {
		pause = func(context.Context) error { return nil }
	}
	return &Fetcher{
		browser: b,
		baseURL: baseURL,
		timeout: timeout,
		pause:   pause,
		logger:  logger.With("component", "browser_fetcher"),
	}
}

func (f *Fetcher) Open(ctx context.Context, url string) (page.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := f.browser.NewPage()
	if err != nil {
		return nil, err
	}

	if err := f.browser.Navigate(p, url); err != nil {
		p.Close()
		return nil, err
	}

	return &session{page: p, doc: NewDocument(p), link: url}, nil
}

// Search submits query through the header search form and opens the first
// result. The session link is empty when the results grid has no product.
func (f *Fetcher) Search(ctx context.Context, query string) (page.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := f.browser.NewPage()
	if err != nil {
		return nil, err
	}

	link, err := f.search(ctx, p, query)
	if err != nil {
		p.Close()
		return nil, err
	}

	return &session{page: p, doc: NewDocument(p), link: link}, nil
}

func (f *Fetcher) search(ctx context.Context, p playwright.Page, query string) (string, error) {
	if err := f.browser.Navigate(p, f.baseURL); err != nil {
		return "", err
	}

	ms := playwright.Float(float64(f.timeout.Milliseconds()))

	input := p.Locator(searchInputSelector).First()
	if err := input.Fill(query, playwright.LocatorFillOptions{Timeout: ms}); err != nil {
		return "", fmt.Errorf("failed to fill search input: %w", err)
	}
	if err := f.pause(ctx); err != nil {
		return "", err
	}
	if err := p.Locator(searchSubmitSelector).First().Click(playwright.LocatorClickOptions{Timeout: ms}); err != nil {
		return "", fmt.Errorf("failed to submit search: %w", err)
	}
	if err := f.pause(ctx); err != nil {
		return "", err
	}

	result := p.Locator(firstResultSelector).First()
	if err := waitFor(result, page.Attached, f.timeout); err != nil {
		f.logger.Warn("no search results", "query", query, "error", err)
		return "", nil
	}

	href, err := result.GetAttribute("href")
	if err != nil {
		return "", fmt.Errorf("failed to read search result link: %w", err)
	}
	link := resolveLink(p.URL(), href)
	if link == "" {
		f.logger.Warn("first search result has no link", "query", query)
		return "", nil
	}

	f.logger.Info("opening first search result", "query", query, "link", link)
	if err := f.browser.Navigate(p, link); err != nil {
		return "", err
	}
	return link, nil
}

// resolveLink makes href absolute against the page it was found on.
func resolveLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

type session struct {
	page playwright.Page
	doc  *Document
	link string
}

func (s *session) Document() page.Document { return s.doc }
func (s *session) Link() string            { return s.link }

func (s *session) Close() error {
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}
