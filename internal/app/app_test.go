package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/maltedev/brain-scraper/internal/config"
	"github.com/maltedev/brain-scraper/internal/httpfetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	cfg.Scraper.PaceMin = 0
	cfg.Scraper.PaceMax = 0
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineOverHTTPAndBadger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body>
			<h1 class="main-title">Phone X</h1>
			<div class="price-wrapper"><span>15 000 ₴</span></div>
			<span class="br-pr-code-val">ABC123</span>
			<div class="br-pr-chr-item"><div>
				<div><span>Колір</span><span>Black</span></div>
				<div><span>Гарантія</span></div>
			</div></div>
			<img class="br-main-img" src="a.jpg">
			<img class="br-main-img" src="b.jpg">
		</body></html>`)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Scraper.Adapter = config.AdapterHTTP
	cfg.Database.Driver = config.DriverBadger
	cfg.Database.BadgerPath = filepath.Join(t.TempDir(), "badger")
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	logger := testLogger()

	store, closeStore, err := OpenStore(ctx, cfg.Database, logger)
	require.NoError(t, err)
	defer closeStore()

	fetchers, err := NewFetchers(cfg, logger)
	require.NoError(t, err)
	defer fetchers.Close()
	assert.IsType(t, &httpfetch.Fetcher{}, fetchers.Fetcher)
	assert.Nil(t, fetchers.Searcher)

	notifier, closeNotifier, err := NewNotifier(ctx, cfg.Redis, logger)
	require.NoError(t, err)
	defer closeNotifier()
	assert.Nil(t, notifier)

	svc := NewService(cfg, fetchers, store, notifier, logger)

	res, err := svc.ScrapeURL(ctx, srv.URL+"/p1")
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = svc.ScrapeURL(ctx, srv.URL+"/p1")
	require.NoError(t, err)
	assert.False(t, res.Created)

	stored, err := store.Get(ctx, srv.URL+"/p1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, res.ID, stored.ID)
	require.NotNil(t, stored.RegularPrice)
	assert.Equal(t, "15000₴", *stored.RegularPrice)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, stored.Photos)
	assert.Nil(t, stored.DiscountPrice)
	assert.Nil(t, stored.Vendor)
	assert.Len(t, stored.Specifications, 2)
}

func TestUnknownAdapter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scraper.Adapter = "curl"

	_, err := NewFetchers(cfg, testLogger())
	assert.Error(t, err)
}

func TestUnknownDriver(t *testing.T) {
	_, _, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, testLogger())
	assert.Error(t, err)
}
