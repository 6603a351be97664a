package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<!DOCTYPE html>
<html>
<body>
	<h1 class="main-title">  Phone X  </h1>
	<span class="br-pr-code-val">ABC123</span>
	<span class="br-pr-code-val">IGNORED</span>
	<div id="br-pr-7"><button class="br-prs-button">Всі характеристики</button></div>
	<div class="attrs">
		<span>Виробник</span>
		<div>Apple</div>
		<span>Country</span>
	</div>
	<div class="attrs">
		<span>Колір</span><span> Black </span>
	</div>
	<div class="attrs">
		<span>Виробник</span><span>Apple Inc.</span>
	</div>
	<div class="rows">
		<div><span>A</span><div><span>nested</span></div></div>
		<div><span>B</span></div>
	</div>
	<img class="br-main-img" src="a.jpg">
	<img class="br-main-img">
</body>
</html>`

func newFixture(t *testing.T) *Document {
	doc, err := NewDocumentFromString(fixture)
	require.NoError(t, err)
	return doc
}

func TestDocumentText(t *testing.T) {
	doc := newFixture(t)
	ctx := context.Background()

	text, err := doc.Text(ctx, page.CSS("h1[class='main-title']"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "  Phone X  ", text)

	text, err = doc.Text(ctx, page.CSS("span.br-pr-code-val").At(1), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "IGNORED", text)

	_, err = doc.Text(ctx, page.CSS("span.br-pr-code-val").At(2), time.Second)
	assert.True(t, errors.Is(err, page.ErrNotFound))

	_, err = doc.Text(ctx, page.CSS("span.red-price"), time.Second)
	assert.True(t, errors.Is(err, page.ErrNotFound))
}

func TestDocumentLabelValue(t *testing.T) {
	doc := newFixture(t)
	ctx := context.Background()

	// Non-span siblings are skipped; the nearest following span wins.
	value, err := doc.LabelValue(ctx, "Виробник", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Country", value)

	value, err = doc.LabelValue(ctx, "Колір", time.Second)
	require.NoError(t, err)
	assert.Equal(t, " Black ", value)

	_, err = doc.LabelValue(ctx, "Модель", time.Second)
	assert.True(t, errors.Is(err, page.ErrNotFound))
}

func TestDocumentLabelValueSkipsLabelWithoutSibling(t *testing.T) {
	doc, err := NewDocumentFromString(`<div><span>Модель</span></div><div><span>Модель</span><span>iPhone 15</span></div>`)
	require.NoError(t, err)

	value, err := doc.LabelValue(context.Background(), "Модель", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "iPhone 15", value)
}

func TestNodesChildrenAreNotRecursive(t *testing.T) {
	doc := newFixture(t)

	blocks, err := doc.Nodes(context.Background(), page.CSS("div.rows"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	rows, err := blocks[0].Children("div")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	spans, err := rows[0].Children("span")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	text, err := spans[0].Text()
	require.NoError(t, err)
	assert.Equal(t, "A", text)

	inner, ok, err := rows[0].First("div")
	require.NoError(t, err)
	require.True(t, ok)
	text, _ = inner.Text()
	assert.Equal(t, "nested", text)

	_, ok, err = spans[0].First("div")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNodesAttr(t *testing.T) {
	doc := newFixture(t)

	imgs, err := doc.Nodes(context.Background(), page.CSS("img[class='br-main-img']"))
	require.NoError(t, err)
	require.Len(t, imgs, 2)

	src, ok, err := imgs[0].Attr("src")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a.jpg", src)

	_, ok, err = imgs[1].Attr("src")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActivate(t *testing.T) {
	doc := newFixture(t)
	ctx := context.Background()
	paused := false
	pause := func(context.Context) error {
		paused = true
		return nil
	}

	err := doc.Activate(ctx, page.CSS("div#br-pr-7 button[class='br-prs-button']"), time.Second, pause)
	assert.NoError(t, err)
	assert.False(t, paused, "static markup never waits before a click")

	err = doc.Activate(ctx, page.CSS("div#missing button"), time.Second, pause)
	assert.True(t, errors.Is(err, page.ErrNotFound))
}

func TestCancelledContext(t *testing.T) {
	doc := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := doc.Text(ctx, page.CSS("h1"), time.Second)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = doc.Nodes(ctx, page.CSS("img"))
	assert.ErrorIs(t, err, context.Canceled)
}
