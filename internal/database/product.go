package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/brain-scraper/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id                UUID PRIMARY KEY,
	link              TEXT NOT NULL UNIQUE,
	title             TEXT,
	regular_price     TEXT,
	discount_price    TEXT,
	product_code      TEXT,
	vendor            TEXT,
	color             TEXT,
	memory_volume     TEXT,
	series            TEXT,
	screen_diagonal   TEXT,
	screen_resolution TEXT,
	review_count      TEXT,
	photos            TEXT[] NOT NULL DEFAULT '{}',
	specifications    JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products (created_at);`

const productColumns = `id, link, title, regular_price, discount_price, product_code,
	vendor, color, memory_volume, series, screen_diagonal, screen_resolution,
	review_count, photos, specifications, created_at, updated_at`

// EnsureSchema creates the products table when it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Upsert inserts rec or replaces every column of the row with the same link.
// created reports whether the row did not exist before.
func (db *DB) Upsert(ctx context.Context, link string, rec *models.ProductRecord) (uuid.UUID, bool, error) {
	photos := rec.Photos
	if photos == nil {
		photos = []string{}
	}
	specs := rec.Specifications
	if specs == nil {
		specs = map[string]*string{}
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to marshal specifications: %w", err)
	}

	query := `
		INSERT INTO products (
			id, link, title, regular_price, discount_price, product_code,
			vendor, color, memory_volume, series, screen_diagonal, screen_resolution,
			review_count, photos, specifications
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (link) DO UPDATE SET
			title = EXCLUDED.title,
			regular_price = EXCLUDED.regular_price,
			discount_price = EXCLUDED.discount_price,
			product_code = EXCLUDED.product_code,
			vendor = EXCLUDED.vendor,
			color = EXCLUDED.color,
			memory_volume = EXCLUDED.memory_volume,
			series = EXCLUDED.series,
			screen_diagonal = EXCLUDED.screen_diagonal,
			screen_resolution = EXCLUDED.screen_resolution,
			review_count = EXCLUDED.review_count,
			photos = EXCLUDED.photos,
			specifications = EXCLUDED.specifications,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, (xmax = 0) AS created`

	var (
		id      uuid.UUID
		created bool
	)
	err = db.pool.QueryRow(ctx, query,
		uuid.New(), link, rec.Title, rec.RegularPrice, rec.DiscountPrice, rec.ProductCode,
		rec.Vendor, rec.Color, rec.MemoryVolume, rec.Series, rec.ScreenDiagonal, rec.ScreenResolution,
		rec.ReviewCount, photos, specsJSON,
	).Scan(&id, &created)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert product: %w", err)
	}

	db.logger.Debug("product upserted", "id", id, "link", link, "created", created)
	return id, created, nil
}

// Get returns nil, nil when no row has the given link.
func (db *DB) Get(ctx context.Context, link string) (*models.StoredProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE link = $1`

	p, err := scanProduct(db.pool.QueryRow(ctx, query, link))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// First returns the earliest created product, or nil, nil on an empty table.
func (db *DB) First(ctx context.Context) (*models.StoredProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id LIMIT 1`

	p, err := scanProduct(db.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first product: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*models.StoredProduct, error) {
	var (
		p         models.StoredProduct
		specsJSON []byte
	)
	err := row.Scan(
		&p.ID, &p.Link, &p.Title, &p.RegularPrice, &p.DiscountPrice, &p.ProductCode,
		&p.Vendor, &p.Color, &p.MemoryVolume, &p.Series, &p.ScreenDiagonal, &p.ScreenResolution,
		&p.ReviewCount, &p.Photos, &specsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &p.Specifications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal specifications: %w", err)
		}
	}
	p.Normalize()
	return &p, nil
}
