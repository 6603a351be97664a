package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/maltedev/brain-scraper/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<!DOCTYPE html>
<html>
<body>
	<h1 class="main-title">Phone X</h1>
	<div class="price-wrapper"><span>15 000 ₴</span></div>
	<span class="br-pr-code-val">ABC123</span>
	<a class="reviews-count" href="#reviews"><span>12</span></a>
	<div id="br-pr-7"><button class="br-prs-button">Всі характеристики</button></div>

	<div class="br-pr-chr-item">
		<div>
			<div><span>Колір</span><span>Black</span></div>
			<div><span>Гарантія</span></div>
		</div>
	</div>

	<div class="chr-attrs">
		<span>Виробник</span><span>Apple</span>
		<span>Колір</span><span>Black</span>
		<span>Вбудована пам'ять</span><span>128 ГБ</span>
	</div>

	<img class="br-main-img" src="a.jpg">
	<img class="br-main-img" src="b.jpg">
</body>
</html>`

func newTestExtractor() *Extractor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExtractor(logger, time.Second, nil)
}

func parse(t *testing.T, html string) *parser.Document {
	t.Helper()
	doc, err := parser.NewDocumentFromString(html)
	require.NoError(t, err)
	return doc
}

func TestExtractProductPage(t *testing.T) {
	e := newTestExtractor()
	doc := parse(t, productPage)

	rec, err := e.Extract(context.Background(), doc, "https://brain.com.ua/ukr/Phone_X-p1.html")
	require.NoError(t, err)

	assert.Equal(t, "https://brain.com.ua/ukr/Phone_X-p1.html", rec.Link)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Phone X", *rec.Title)
	require.NotNil(t, rec.RegularPrice)
	assert.Equal(t, "15000₴", *rec.RegularPrice)
	assert.Nil(t, rec.DiscountPrice)
	require.NotNil(t, rec.ProductCode)
	assert.Equal(t, "ABC123", *rec.ProductCode)
	require.NotNil(t, rec.ReviewCount)
	assert.Equal(t, "12", *rec.ReviewCount)

	require.NotNil(t, rec.Vendor)
	assert.Equal(t, "Apple", *rec.Vendor)
	require.NotNil(t, rec.MemoryVolume)
	assert.Equal(t, "128 ГБ", *rec.MemoryVolume)
	assert.Nil(t, rec.ScreenDiagonal)

	assert.Equal(t, []string{"a.jpg", "b.jpg"}, rec.Photos)

	require.Len(t, rec.Specifications, 2)
	require.NotNil(t, rec.Specifications["Колір"])
	assert.Equal(t, "Black", *rec.Specifications["Колір"])
	value, ok := rec.Specifications["Гарантія"]
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestExtractWithoutSpecificationsControl(t *testing.T) {
	e := newTestExtractor()
	doc := parse(t, `<html><body>
		<h1 class="main-title">Phone X</h1>
		<span class="red-price">14 500 ₴</span>
		<span>Виробник</span><span>Apple</span>
	</body></html>`)

	rec, err := e.Extract(context.Background(), doc, "https://brain.com.ua/p1")
	require.NoError(t, err)

	require.NotNil(t, rec.DiscountPrice)
	assert.Equal(t, "14500₴", *rec.DiscountPrice)
	assert.Nil(t, rec.Vendor, "attributes are only read after the section is expanded")
	assert.NotNil(t, rec.Photos)
	assert.Empty(t, rec.Photos)
	assert.NotNil(t, rec.Specifications)
	assert.Empty(t, rec.Specifications)
}

func TestExtractMissingLink(t *testing.T) {
	e := newTestExtractor()

	_, err := e.Extract(context.Background(), parse(t, productPage), " ")
	assert.ErrorIs(t, err, ErrMissingLink)
}

func TestExtractPhotosSkipsImagesWithoutSource(t *testing.T) {
	e := newTestExtractor()
	doc := parse(t, `<html><body>
		<img class="br-main-img" src="a.jpg">
		<img class="br-main-img">
		<img class="br-main-img" src="  ">
		<img class="br-main-img other" src="c.jpg">
	</body></html>`)

	assert.Equal(t, []string{"a.jpg"}, e.ExtractPhotos(context.Background(), doc))
}

func TestExtractSpecificationRows(t *testing.T) {
	e := newTestExtractor()
	doc := parse(t, `<html><body>
		<div class="br-pr-chr-item">
			<div>
				<div><span> Стандарти </span><span> 4G ,  5G ,, LTE </span></div>
				<div><span>Гарантія</span></div>
				<div><span>a</span><span>b</span><span>c</span></div>
				<div></div>
				<div><span>Колір</span><span>Red</span></div>
			</div>
		</div>
		<div class="br-pr-chr-item"></div>
		<div class="br-pr-chr-item">
			<div>
				<div><span>Колір</span><span>Black</span></div>
			</div>
		</div>
	</body></html>`)

	specs := e.ExtractSpecifications(context.Background(), doc)

	require.Len(t, specs, 3)
	require.NotNil(t, specs["Стандарти"])
	assert.Equal(t, "4G, 5G, LTE", *specs["Стандарти"])
	assert.Contains(t, specs, "Гарантія")
	assert.Nil(t, specs["Гарантія"])
	assert.NotContains(t, specs, "a")
	require.NotNil(t, specs["Колір"])
	assert.Equal(t, "Black", *specs["Колір"], "later rows overwrite earlier ones")
}

type failingDocument struct {
	err error
}

func (d failingDocument) Text(ctx context.Context, loc page.Locator, timeout time.Duration) (string, error) {
	return "", d.err
}

func (d failingDocument) LabelValue(ctx context.Context, label string, timeout time.Duration) (string, error) {
	return "", d.err
}

func (d failingDocument) Nodes(ctx context.Context, loc page.Locator) ([]page.Node, error) {
	return nil, d.err
}

func (d failingDocument) Activate(ctx context.Context, loc page.Locator, timeout time.Duration, pause page.PauseFunc) error {
	return d.err
}

func TestExtractTolerantOfDocumentFailures(t *testing.T) {
	e := newTestExtractor()
	doc := failingDocument{err: errors.New("target closed")}

	rec, err := e.Extract(context.Background(), doc, "https://brain.com.ua/p1")
	require.NoError(t, err)

	assert.Nil(t, rec.Title)
	assert.Nil(t, rec.RegularPrice)
	assert.Nil(t, rec.Vendor)
	assert.Empty(t, rec.Photos)
	assert.Empty(t, rec.Specifications)
}

type activateRecorder struct {
	failingDocument
	paused bool
}

func (d *activateRecorder) Activate(ctx context.Context, loc page.Locator, timeout time.Duration, pause page.PauseFunc) error {
	d.paused = pause(ctx) == nil
	return nil
}

func TestExpandSpecificationsUsesPause(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	called := false
	e := NewExtractor(logger, time.Second, func(context.Context) error {
		called = true
		return nil
	})
	doc := &activateRecorder{failingDocument: failingDocument{err: page.ErrNotFound}}

	assert.True(t, e.ExpandSpecifications(context.Background(), doc))
	assert.True(t, called)
	assert.True(t, doc.paused)
}
