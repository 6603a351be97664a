package scraper

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/maltedev/brain-scraper/internal/models"
)

var (
	ErrMissingLink        = errors.New("canonical product link is missing")
	ErrSearchNotSupported = errors.New("fetch adapter does not support search navigation")
)

// Store persists records keyed by their canonical link. Upsert replaces every
// non-key field and reports whether a new row was created.
type Store interface {
	Upsert(ctx context.Context, link string, rec *models.ProductRecord) (uuid.UUID, bool, error)
}

// Notifier is told about every successful upsert.
type Notifier interface {
	ProductUpserted(ctx context.Context, id uuid.UUID, rec *models.ProductRecord, created bool) error
}
