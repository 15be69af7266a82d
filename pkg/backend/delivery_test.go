package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/livefeed/pkg/domain"
)

func testEnvelope() domain.Envelope {
	maxEntries := 100
	src := domain.SourceConfig{
		SourceID:   "w1",
		SourceType: "weather",
		SourceName: "City Weather",
		MaxEntries: &maxEntries,
	}
	item := &domain.WeatherReading{City: "London", Temperature: 12, Source: "pathway-service-w1", SourceID: "w1", Synthetic: true}
	return domain.NewEnvelope(src, item, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
}

func TestDelivery_Deliver(t *testing.T) {
	t.Run("ok with message", func(t *testing.T) {
		var got map[string]any
		var reqID string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/pathway/ingest", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			reqID = r.Header.Get("X-Request-ID")
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &got))
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		}))
		defer server.Close()

		d := NewDelivery(DeliveryParams{BaseURL: server.URL, Path: "/api/pathway/ingest", Timeout: time.Second})
		ok, msg := d.Deliver(context.Background(), testEnvelope())
		assert.True(t, ok)
		assert.Equal(t, "ok", msg)
		assert.Len(t, reqID, 36, "uuid request id")

		assert.Equal(t, "weather", got["type"])
		assert.Equal(t, "w1", got["sourceId"])
		assert.Equal(t, "2024-05-01T12:00:00Z", got["timestamp"])
		data := got["data"].(map[string]any)
		assert.Equal(t, "London", data["city"])
		meta := got["source_metadata"].(map[string]any)
		assert.Equal(t, "City Weather", meta["sourceName"])
		assert.Equal(t, "weather", meta["sourceType"])
		assert.InDelta(t, 100, meta["maxEntries"], 0)
	})

	t.Run("ok without message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`accepted`))
		}))
		defer server.Close()

		d := NewDelivery(DeliveryParams{BaseURL: server.URL, Path: "/ingest"})
		ok, msg := d.Deliver(context.Background(), testEnvelope())
		assert.True(t, ok)
		assert.Equal(t, "Success", msg)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal failure", http.StatusInternalServerError)
		}))
		defer server.Close()

		d := NewDelivery(DeliveryParams{BaseURL: server.URL, Path: "/ingest"})
		ok, msg := d.Deliver(context.Background(), testEnvelope())
		assert.False(t, ok)
		assert.Equal(t, "HTTP 500: internal failure", msg)
	})

	t.Run("other 2xx is not success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		d := NewDelivery(DeliveryParams{BaseURL: server.URL, Path: "/ingest"})
		ok, msg := d.Deliver(context.Background(), testEnvelope())
		assert.False(t, ok)
		assert.Contains(t, msg, "HTTP 201")
	})

	t.Run("connection refused", func(t *testing.T) {
		d := NewDelivery(DeliveryParams{BaseURL: "http://127.0.0.1:1", Path: "/ingest"})
		ok, msg := d.Deliver(context.Background(), testEnvelope())
		assert.False(t, ok)
		assert.Contains(t, msg, "connection error")
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		d := NewDelivery(DeliveryParams{BaseURL: server.URL, Path: "/ingest", Timeout: 50 * time.Millisecond})
		ok, msg := d.Deliver(context.Background(), testEnvelope())
		assert.False(t, ok)
		assert.Contains(t, msg, "connection error")
	})

	t.Run("envelope without item", func(t *testing.T) {
		d := NewDelivery(DeliveryParams{BaseURL: "http://127.0.0.1:1", Path: "/ingest"})
		ok, msg := d.Deliver(context.Background(), domain.Envelope{SourceID: "w1"})
		assert.False(t, ok)
		assert.Equal(t, "empty envelope", msg)
	})
}
