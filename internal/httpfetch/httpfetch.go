// Package httpfetch loads product pages with a plain HTTP GET and parses them
// as static documents.
package httpfetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/maltedev/brain-scraper/internal/parser"
	"golang.org/x/net/html/charset"
)

// Header profiles.
const (
	ProfileDefault = "default"
	ProfileReplay  = "replay"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// StatusError is returned when the server answers with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s unexpected status code: %d", e.URL, e.StatusCode)
}

type Options struct {
	Timeout time.Duration
	Headers http.Header
	// Client overrides the default client, mainly for tests.
	Client *http.Client
}

type Fetcher struct {
	client  *http.Client
	headers http.Header
	logger  *slog.Logger
}

var _ page.Fetcher = (*Fetcher)(nil)

func New(opts Options, logger *slog.Logger) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	headers := opts.Headers
	if headers == nil {
		headers = DefaultHeaders()
	}

	return &Fetcher{
		client:  client,
		headers: headers,
		logger:  logger.With("component", "http_fetcher"),
	}
}

// DefaultHeaders is a browser-like header set for the site's locale.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", defaultUserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "uk-UA,uk;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// LoadHeaderFile reads a "Name: value" per line header dump, as copied from a
// browser's network panel. Blank lines and lines starting with # are skipped.
func LoadHeaderFile(path string) (http.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open headers file: %w", err)
	}
	defer f.Close()

	h := make(http.Header)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("headers file %s line %d: expected \"Name: value\"", path, n)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}
	return h, nil
}

// HeadersForProfile resolves a configured profile name to a header set.
func HeadersForProfile(profile, headersFile string) (http.Header, error) {
	switch profile {
	case "", ProfileDefault:
		return DefaultHeaders(), nil
	case ProfileReplay:
		if headersFile == "" {
			return nil, fmt.Errorf("header profile %q requires a headers file", profile)
		}
		return LoadHeaderFile(headersFile)
	default:
		return nil, fmt.Errorf("unknown header profile %q", profile)
	}
}

func (f *Fetcher) Open(ctx context.Context, url string) (page.Session, error) {
	body, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := parser.NewDocument(body)
	if err != nil {
		return nil, err
	}
	return &session{doc: doc, link: url}, nil
}

// fetch returns the response body converted to UTF-8.
func (f *Fetcher) fetch(ctx context.Context, url string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = f.headers.Clone()

	f.logger.Info("fetching page", "url", url)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	enc, name, _ := charset.DetermineEncoding(data, resp.Header.Get("Content-Type"))
	if strings.EqualFold(name, "utf-8") {
		return bytes.NewReader(data), nil
	}

	f.logger.Debug("converting response body to UTF-8", "charset", name)
	return enc.NewDecoder().Reader(bytes.NewReader(data)), nil
}

type session struct {
	doc  *parser.Document
	link string
}

func (s *session) Document() page.Document { return s.doc }
func (s *session) Link() string            { return s.link }
func (s *session) Close() error            { return nil }
