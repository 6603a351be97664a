package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductRecord is the normalized result of one extraction run.
// Every pointer field is nil when the page did not provide it.
type ProductRecord struct {
	Link             string             `json:"link"`
	Title            *string            `json:"title"`
	RegularPrice     *string            `json:"regular_price"`
	DiscountPrice    *string            `json:"discount_price"`
	ProductCode      *string            `json:"product_code"`
	Vendor           *string            `json:"vendor"`
	Color            *string            `json:"color"`
	MemoryVolume     *string            `json:"memory_volume"`
	Series           *string            `json:"series"`
	ScreenDiagonal   *string            `json:"screen_diagonal"`
	ScreenResolution *string            `json:"screen_resolution"`
	ReviewCount      *string            `json:"review_count"`
	Photos           []string           `json:"photos"`
	Specifications   map[string]*string `json:"specifications"`
}

// StoredProduct is a ProductRecord as kept by a persistence adapter.
type StoredProduct struct {
	ID uuid.UUID `json:"id"`
	ProductRecord
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProductRecord returns a record with empty, non-nil collections.
func NewProductRecord(link string) *ProductRecord {
	return &ProductRecord{
		Link:           link,
		Photos:         make([]string, 0),
		Specifications: make(map[string]*string),
	}
}

// Normalize replaces nil collections with empty ones so that stored and
// serialized records never distinguish "no photos" from "photos unknown".
func (p *ProductRecord) Normalize() {
	if p.Photos == nil {
		p.Photos = make([]string, 0)
	}
	if p.Specifications == nil {
		p.Specifications = make(map[string]*string)
	}
}

func (p *ProductRecord) DisplayTitle() string {
	if p.Title == nil {
		return "Unknown"
	}
	return *p.Title
}
