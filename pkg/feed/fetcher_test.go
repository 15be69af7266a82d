package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Run("returns body and sends browser headers", func(t *testing.T) {
		var gotUA, gotAccept string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte("<rss/>"))
		}))
		defer server.Close()

		f := NewHTTPFetcher(nil, 5*time.Second, "test-agent/1.0")
		body, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<rss/>", string(body))
		assert.Equal(t, "test-agent/1.0", gotUA)
		assert.Equal(t, feedAccept, gotAccept)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		f := NewHTTPFetcher(nil, 5*time.Second, "ua")
		_, err := f.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 403")
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		f := NewHTTPFetcher(nil, 50*time.Millisecond, "ua")
		_, err := f.Fetch(context.Background(), server.URL)
		require.Error(t, err)
	})

	t.Run("invalid url", func(t *testing.T) {
		f := NewHTTPFetcher(nil, time.Second, "ua")
		_, err := f.Fetch(context.Background(), "://bad")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create request")
	})
}
