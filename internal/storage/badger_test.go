package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/maltedev/brain-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func sampleRecord(link string) *models.ProductRecord {
	rec := models.NewProductRecord(link)
	rec.Title = strPtr("Phone X")
	rec.Vendor = strPtr("Apple")
	rec.Photos = []string{"a.jpg", "b.jpg"}
	rec.Specifications = map[string]*string{"Колір": strPtr("Black"), "Гарантія": nil}
	return rec
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const link = "https://brain.com.ua/p1"

	id1, created, err := s.Upsert(ctx, link, sampleRecord(link))
	require.NoError(t, err)
	assert.True(t, created)

	first, err := s.Get(ctx, link)
	require.NoError(t, err)

	id2, created, err := s.Upsert(ctx, link, sampleRecord(link))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	second, err := s.Get(ctx, link)
	require.NoError(t, err)
	assert.Equal(t, first.ProductRecord, second.ProductRecord)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestUpsertReplacesAbsentFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const link = "https://brain.com.ua/p1"

	_, _, err := s.Upsert(ctx, link, sampleRecord(link))
	require.NoError(t, err)

	rec := sampleRecord(link)
	rec.Vendor = nil
	rec.Photos = nil
	_, _, err = s.Upsert(ctx, link, rec)
	require.NoError(t, err)

	got, err := s.Get(ctx, link)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Vendor)
	assert.Equal(t, []string{}, got.Photos)
	assert.Contains(t, got.Specifications, "Гарантія")
	assert.Nil(t, got.Specifications["Гарантія"])
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Get(context.Background(), "https://brain.com.ua/none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.First(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }

	_, _, err = s.Upsert(ctx, "https://brain.com.ua/zzz", sampleRecord("https://brain.com.ua/zzz"))
	require.NoError(t, err)
	clock = base.Add(time.Hour)
	_, _, err = s.Upsert(ctx, "https://brain.com.ua/aaa", sampleRecord("https://brain.com.ua/aaa"))
	require.NoError(t, err)

	got, err = s.First(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://brain.com.ua/zzz", got.Link)
	assert.Equal(t, base, got.CreatedAt)
}
