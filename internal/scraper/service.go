package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/maltedev/brain-scraper/internal/models"
	"github.com/maltedev/brain-scraper/internal/page"
)

// Result describes one completed extraction run.
type Result struct {
	ID      uuid.UUID
	Created bool
	Record  *models.ProductRecord
}

type Service struct {
	fetcher   page.Fetcher
	searcher  page.Searcher
	extractor *Extractor
	store     Store
	notifier  Notifier
	logger    *slog.Logger
}

type Option func(*Service)

// WithSearcher enables ScrapeSearch.
func WithSearcher(s page.Searcher) Option {
	return func(svc *Service) { svc.searcher = s }
}

func WithNotifier(n Notifier) Option {
	return func(svc *Service) { svc.notifier = n }
}

func NewService(fetcher page.Fetcher, extractor *Extractor, store Store, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		logger:    logger.With("component", "scraper"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ScrapeURL extracts the product at url and upserts it by that url.
func (s *Service) ScrapeURL(ctx context.Context, url string) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingLink
	}

	s.logger.Info("scraping product page", "url", url)

	sess, err := s.fetcher.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open product page: %w", err)
	}
	return s.run(ctx, sess, url)
}

// ScrapeSearch runs the site search for query, follows the first result and
// upserts it by the URL the browser landed on.
func (s *Service) ScrapeSearch(ctx context.Context, query string) (*Result, error) {
	if s.searcher == nil {
		return nil, ErrSearchNotSupported
	}

	s.logger.Info("searching product", "query", query)

	sess, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search product: %w", err)
	}
	return s.run(ctx, sess, sess.Link())
}

func (s *Service) run(ctx context.Context, sess page.Session, link string) (*Result, error) {
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("failed to close page session", "error", err)
		}
	}()

	if strings.TrimSpace(link) == "" {
		return nil, ErrMissingLink
	}

	rec, err := s.extractor.Extract(ctx, sess.Document(), link)
	if err != nil {
		return nil, fmt.Errorf("failed to extract product: %w", err)
	}

	id, created, err := s.store.Upsert(ctx, rec.Link, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.Info("product saved", "id", id, "link", rec.Link, "created", created)

	if s.notifier != nil {
		if err := s.notifier.ProductUpserted(ctx, id, rec, created); err != nil {
			s.logger.Warn("failed to publish product event", "id", id, "error", err)
		}
	}

	return &Result{ID: id, Created: created, Record: rec}, nil
}
