package webdriver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/maltedev/brain-scraper/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium/chrome"
)

func TestCapabilities(t *testing.T) {
	opts := DefaultOptions()
	caps := opts.capabilities()

	assert.Equal(t, "chrome", caps["browserName"])

	chromeCaps, ok := caps[chrome.CapabilitiesKey].(chrome.Capabilities)
	require.True(t, ok)
	assert.Contains(t, chromeCaps.Args, "--headless=new")
	assert.Contains(t, chromeCaps.Args, "--user-agent="+opts.UserAgent)

	opts.Headless = false
	chromeCaps = opts.capabilities()[chrome.CapabilitiesKey].(chrome.Capabilities)
	assert.NotContains(t, chromeCaps.Args, "--headless=new")
}

func TestFetcherOpen(t *testing.T) {
	if os.Getenv("BROWSER_TEST") != "true" {
		t.Skip("Skipping browser test. Set BROWSER_TEST=true to run")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body>
			<h1 class="main-title">Phone X</h1>
			<div id="br-pr-7"><button class="br-prs-button">Всі характеристики</button></div>
			<div><span>Колір</span><span>Black</span></div>
			<div class="br-pr-chr-item"><div><div><span>Гарантія</span></div></div></div>
		</body></html>`)
	}))
	defer srv.Close()

	opts := DefaultOptions()
	if path := os.Getenv("CHROMEDRIVER_PATH"); path != "" {
		opts.ChromeDriverPath = path
	}

	f := NewFetcher(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sess, err := f.Open(context.Background(), srv.URL)
	require.NoError(t, err)
	defer sess.Close()

	ctx := context.Background()
	doc := sess.Document()

	title := page.FindText(ctx, doc, page.CSS("h1[class='main-title']"), 5*time.Second)
	require.NotNil(t, title)
	assert.Equal(t, "Phone X", *title)

	color := page.FindByLabel(ctx, doc, "Колір", 5*time.Second)
	require.NotNil(t, color)
	assert.Equal(t, "Black", *color)

	require.NoError(t, doc.Activate(ctx, page.CSS("div#br-pr-7 button[class='br-prs-button']"), 5*time.Second,
		func(context.Context) error { return nil }))

	blocks, err := doc.Nodes(ctx, page.CSS("div[class='br-pr-chr-item']"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
}
