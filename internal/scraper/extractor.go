package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/brain-scraper/internal/models"
	"github.com/maltedev/brain-scraper/internal/page"
)

const DefaultLookupTimeout = 10 * time.Second

// Extractor applies the product page rules to a page.Document.
type Extractor struct {
	logger  *slog.Logger
	timeout time.Duration
	pause   page.PauseFunc
}

// NewExtractor creates an extractor. timeout bounds every single lookup;
// pause runs between scrolling to and clicking the specifications control.
func NewExtractor(logger *slog.Logger, timeout time.Duration, pause page.PauseFunc) *Extractor {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if pause == nil {
		pause = func(context.Context) error { return nil }
	}
	return &Extractor{
		logger:  logger.With("component", "product_extractor"),
		timeout: timeout,
		pause:   pause,
	}
}

// Extract runs every extraction step against doc and assembles the record.
// Missing page fragments leave the matching fields empty; only an empty link
// fails the run.
func (e *Extractor) Extract(ctx context.Context, doc page.Document, link string) (*models.ProductRecord, error) {
	if strings.TrimSpace(link) == "" {
		return nil, ErrMissingLink
	}

	e.logger.Info("collecting product information", "link", link)

	expanded := e.ExpandSpecifications(ctx, doc)
	basic := e.ExtractBasicInfo(ctx, doc)

	var attrs Attributes
	if expanded {
		attrs = e.ExtractAttributes(ctx, doc)
	}

	photos := e.ExtractPhotos(ctx, doc)
	specs := e.ExtractSpecifications(ctx, doc)

	rec, err := Assemble(link, basic, attrs, photos, specs)
	if err != nil {
		return nil, err
	}

	e.logger.Info("product parsing completed", "link", link, "title", rec.DisplayTitle())
	return rec, nil
}

// ExpandSpecifications clicks the "show all specifications" control. It
// reports false when the control is missing or cannot be activated.
func (e *Extractor) ExpandSpecifications(ctx context.Context, doc page.Document) bool {
	if err := doc.Activate(ctx, SpecificationsControl, e.timeout, e.pause); err != nil {
		e.logger.Warn("specifications control unavailable, attribute fields stay empty", "error", err)
		return false
	}
	return true
}

func (e *Extractor) ExtractBasicInfo(ctx context.Context, doc page.Document) BasicInfo {
	e.logger.Info("extracting basic product information")

	info := BasicInfo{
		Title:         page.FindText(ctx, doc, titleLocator, e.timeout),
		RegularPrice:  stripWhitespace(page.FindText(ctx, doc, regularPriceLocator, e.timeout)),
		DiscountPrice: stripWhitespace(page.FindText(ctx, doc, discountPriceLocator, e.timeout)),
		ProductCode:   page.FindText(ctx, doc, productCodeLocator, e.timeout),
		ReviewCount:   page.FindText(ctx, doc, reviewCountLocator, e.timeout),
	}

	e.logger.Info("basic info extracted", "has_discount", info.DiscountPrice != nil)
	return info
}

func (e *Extractor) ExtractAttributes(ctx context.Context, doc page.Document) Attributes {
	e.logger.Info("extracting product details")

	attrs := Attributes{
		Vendor:           page.FindByLabel(ctx, doc, labelVendor, e.timeout),
		Color:            page.FindByLabel(ctx, doc, labelColor, e.timeout),
		MemoryVolume:     page.FindByLabel(ctx, doc, labelMemoryVolume, e.timeout),
		Series:           page.FindByLabel(ctx, doc, labelSeries, e.timeout),
		ScreenDiagonal:   page.FindByLabel(ctx, doc, labelScreenDiagonal, e.timeout),
		ScreenResolution: page.FindByLabel(ctx, doc, labelScreenResolution, e.timeout),
	}

	e.logger.Info("product details extracted")
	return attrs
}

// ExtractPhotos returns the source URLs of the gallery images in document
// order. The result is never nil.
func (e *Extractor) ExtractPhotos(ctx context.Context, doc page.Document) []string {
	e.logger.Info("extracting product photos")
	photos := make([]string, 0)

	imgs, err := doc.Nodes(ctx, photoLocator)
	if err != nil {
		e.logger.Warn("no photos found", "error", err)
		return photos
	}

	for _, img := range imgs {
		if src := page.Attr(img, photoSourceAttr); src != nil {
			photos = append(photos, *src)
		}
	}

	e.logger.Info("extracted photos", "count", len(photos))
	return photos
}

// ExtractSpecifications flattens the characteristics table into label ->
// value. The result is never nil; it is empty when the section could not be
// enumerated.
func (e *Extractor) ExtractSpecifications(ctx context.Context, doc page.Document) map[string]*string {
	e.logger.Info("extracting product specifications")

	specs, err := e.collectSpecifications(ctx, doc)
	if err != nil {
		e.logger.Warn("no specifications found", "error", err)
		return make(map[string]*string)
	}

	e.logger.Info("extracted specifications", "count", len(specs))
	return specs
}

func (e *Extractor) collectSpecifications(ctx context.Context, doc page.Document) (map[string]*string, error) {
	categories, err := doc.Nodes(ctx, specCategoryLocator)
	if err != nil {
		return nil, fmt.Errorf("failed to list specification categories: %w", err)
	}

	specs := make(map[string]*string)
	for i, category := range categories {
		container, ok, err := category.First("div")
		if err != nil {
			return nil, fmt.Errorf("failed to locate category container: %w", err)
		}
		if !ok {
			e.logger.Warn("category container not found, skipping", "category", i)
			continue
		}

		rows, err := container.Children("div")
		if err != nil {
			return nil, fmt.Errorf("failed to list specification rows: %w", err)
		}

		for _, row := range rows {
			if err := addSpecRow(specs, row); err != nil {
				return nil, err
			}
		}
	}

	return specs, nil
}

// addSpecRow stores a two-span row as label -> cleaned value and a one-span
// row as label -> nil. Rows with any other span count are ignored.
func addSpecRow(specs map[string]*string, row page.Node) error {
	spans, err := row.Children("span")
	if err != nil {
		return fmt.Errorf("failed to list row spans: %w", err)
	}
	if len(spans) != 1 && len(spans) != 2 {
		return nil
	}

	label, err := spans[0].Text()
	if err != nil {
		return fmt.Errorf("failed to read specification label: %w", err)
	}
	label = strings.TrimSpace(label)

	if len(spans) == 1 {
		specs[label] = nil
		return nil
	}

	raw, err := spans[1].Text()
	if err != nil {
		return fmt.Errorf("failed to read specification value %q: %w", label, err)
	}
	value := cleanSpecValue(raw)
	specs[label] = &value
	return nil
}
