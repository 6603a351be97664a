package scraper

import (
	"strings"

	"github.com/maltedev/brain-scraper/internal/models"
)

// BasicInfo holds the identity and price fields of a product page.
type BasicInfo struct {
	Title         *string
	RegularPrice  *string
	DiscountPrice *string
	ProductCode   *string
	ReviewCount   *string
}

// Attributes holds the label-addressed fields of the characteristics block.
type Attributes struct {
	Vendor           *string
	Color            *string
	MemoryVolume     *string
	Series           *string
	ScreenDiagonal   *string
	ScreenResolution *string
}

// Assemble merges extractor outputs into one record. It only fails when the
// canonical link is empty.
func Assemble(link string, basic BasicInfo, attrs Attributes, photos []string, specs map[string]*string) (*models.ProductRecord, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, ErrMissingLink
	}

	rec := models.NewProductRecord(link)
	rec.Title = basic.Title
	rec.RegularPrice = basic.RegularPrice
	rec.DiscountPrice = basic.DiscountPrice
	rec.ProductCode = basic.ProductCode
	rec.ReviewCount = basic.ReviewCount

	rec.Vendor = attrs.Vendor
	rec.Color = attrs.Color
	rec.MemoryVolume = attrs.MemoryVolume
	rec.Series = attrs.Series
	rec.ScreenDiagonal = attrs.ScreenDiagonal
	rec.ScreenResolution = attrs.ScreenResolution

	if photos != nil {
		rec.Photos = photos
	}
	if specs != nil {
		rec.Specifications = specs
	}

	return rec, nil
}
