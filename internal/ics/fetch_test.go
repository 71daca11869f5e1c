package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "calendar.ics"))
}

func TestFetchSuccessReplacesStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	store := newTestStore(t)
	fetcher := NewFetcher(store)

	require.NoError(t, fetcher.Fetch(context.Background(), srv.URL))

	body, err := store.Load()
	require.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
}

func TestFetchFailureLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			store := newTestStore(t)
			require.NoError(t, store.Replace([]byte("stale but intact")))
			fetcher := NewFetcher(store)

			err := fetcher.Fetch(context.Background(), srv.URL)
			assert.Error(t, err)

			body, lerr := store.Load()
			require.NoError(t, lerr)
			assert.Equal(t, []byte("stale but intact"), body)
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	store := newTestStore(t)
	fetcher := NewFetcher(store)

	err := fetcher.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)

	_, ok := store.LastUpdate()
	assert.False(t, ok, "nothing should have been written")
}

func TestFetchEmptyURL(t *testing.T) {
	fetcher := NewFetcher(newTestStore(t))
	assert.Error(t, fetcher.Fetch(context.Background(), ""))
}

func TestFetchRevalidation(t *testing.T) {
	const etag = `"v1"`
	var sawConditional bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			sawConditional = true
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Write([]byte("fresh feed"))
	}))
	defer srv.Close()

	store := newTestStore(t)
	fetcher := NewFetcher(store)

	// First fetch stores the body and the ETag.
	require.NoError(t, fetcher.Fetch(context.Background(), srv.URL))

	// Second fetch revalidates; 304 keeps the store and is a success.
	require.NoError(t, fetcher.Fetch(context.Background(), srv.URL))
	assert.True(t, sawConditional, "second fetch should send If-None-Match")

	body, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh feed"), body)
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/path/private.ics?token=abcd", "https://example.com/...(redacted)"},
		{"https://example.com", "https://example.com/...(redacted)"},
		{"garbage", "ics://...(redacted)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, redactURL(tt.in))
	}
}
