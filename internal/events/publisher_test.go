package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/brain-scraper/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	ret := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if err := ret.Error(1); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(ret.String(0))
	}
	return cmd
}

func newTestPublisher(client RedisClient) *Publisher {
	p := NewPublisher(client, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestProductUpserted(t *testing.T) {
	tests := []struct {
		name     string
		created  bool
		expected EventType
	}{
		{"created", true, EventTypeProductCreated},
		{"updated", false, EventTypeProductUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockRedisClient)
			id := uuid.New()
			rec := models.NewProductRecord("https://brain.com.ua/p1")
			title := "Phone X"
			rec.Title = &title

			var captured *redis.XAddArgs
			client.On("XAdd", mock.Anything, mock.AnythingOfType("*redis.XAddArgs")).
				Run(func(args mock.Arguments) { captured = args.Get(1).(*redis.XAddArgs) }).
				Return("1714564800000-0", nil)

			err := newTestPublisher(client).ProductUpserted(context.Background(), id, rec, tt.created)
			require.NoError(t, err)
			client.AssertExpectations(t)

			require.NotNil(t, captured)
			assert.Equal(t, DefaultStream, captured.Stream)

			values := captured.Values.(map[string]interface{})
			assert.Equal(t, string(tt.expected), values["type"])
			assert.Equal(t, id.String(), values["aggregate_id"])
			assert.Equal(t, "https://brain.com.ua/p1", values["link"])

			var payload ProductUpsertedPayload
			require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &payload))
			assert.Equal(t, tt.expected, payload.EventType)
			assert.Equal(t, id, payload.ProductID)
			assert.Equal(t, values["event_id"], payload.EventID)
			require.NotNil(t, payload.Product.Title)
			assert.Equal(t, "Phone X", *payload.Product.Title)
		})
	}
}

func TestProductUpsertedRedisError(t *testing.T) {
	client := new(MockRedisClient)
	client.On("XAdd", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	err := newTestPublisher(client).ProductUpserted(context.Background(), uuid.New(), models.NewProductRecord("https://brain.com.ua/p1"), true)
	assert.ErrorContains(t, err, "connection refused")
}
