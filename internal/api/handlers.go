// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/maltedev/brain-scraper/internal/models"
	"github.com/maltedev/brain-scraper/internal/scraper"
)

// Runner runs one extraction.
type Runner interface {
	ScrapeURL(ctx context.Context, url string) (*scraper.Result, error)
	ScrapeSearch(ctx context.Context, query string) (*scraper.Result, error)
}

// ProductReader reads stored products.
type ProductReader interface {
	Get(ctx context.Context, link string) (*models.StoredProduct, error)
	First(ctx context.Context) (*models.StoredProduct, error)
}

type Handlers struct {
	runner   Runner
	products ProductReader
	logger   *slog.Logger

	// mu serializes runs so that at most one holds a page.
	mu sync.Mutex
}

func NewHandlers(runner Runner, products ProductReader, logger *slog.Logger) *Handlers {
	return &Handlers{
		runner:   runner,
		products: products,
		logger:   logger.With("component", "api"),
	}
}

// ExtractRequest names either a product URL or a search query.
type ExtractRequest struct {
	URL   string `json:"url"`
	Query string `json:"query"`
}

type ExtractResponse struct {
	ID      string                `json:"id"`
	Created bool                  `json:"created"`
	Product *models.ProductRecord `json:"product"`
}

// Extract handles POST /api/v1/products/extract.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	req.Query = strings.TrimSpace(req.Query)
	if req.URL == "" && req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "either url or query is required")
		return
	}

	h.mu.Lock()
	var (
		res *scraper.Result
		err error
	)
	if req.URL != "" {
		res, err = h.runner.ScrapeURL(r.Context(), req.URL)
	} else {
		res, err = h.runner.ScrapeSearch(r.Context(), req.Query)
	}
	h.mu.Unlock()

	switch {
	case errors.Is(err, scraper.ErrMissingLink):
		h.respondError(w, http.StatusUnprocessableEntity, "no product link resolved")
		return
	case errors.Is(err, scraper.ErrSearchNotSupported):
		h.respondError(w, http.StatusNotImplemented, "configured adapter does not support search")
		return
	case err != nil:
		h.logger.Error("extraction failed", "url", req.URL, "query", req.Query, "error", err)
		h.respondError(w, http.StatusBadGateway, "extraction failed")
		return
	}

	h.respondJSON(w, http.StatusOK, ExtractResponse{
		ID:      res.ID.String(),
		Created: res.Created,
		Product: res.Record,
	})
}

// GetProduct handles GET /api/v1/products?link=...; without link it returns
// the earliest stored product.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	link := strings.TrimSpace(r.URL.Query().Get("link"))

	var (
		p   *models.StoredProduct
		err error
	)
	if link != "" {
		p, err = h.products.Get(r.Context(), link)
	} else {
		p, err = h.products.First(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to get product", "link", link, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if p == nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	h.respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
