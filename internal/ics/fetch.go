package ics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	appLog "agendabot/internal/log"
)

// fetchMeta holds HTTP revalidation metadata for the feed URL, kept in a
// small JSON file beside the blob.
type fetchMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads the calendar feed into a Store.
//
// A fetch is a single GET with no retry and no backoff; the caller decides
// when to try again (startup and the periodic refresh cron). On any failure
// the store keeps its previous contents.
type Fetcher struct {
	client *http.Client
	store  *Store
}

// NewFetcher creates a Fetcher writing into store.
func NewFetcher(store *Store) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		store: store,
	}
}

// Fetch performs one conditional GET of url and swaps the store contents on
// a fresh 200. A 304 leaves the store as-is and counts as success. Every
// other outcome (transport error, non-2xx status, write failure) leaves the
// store untouched and is returned as an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) error {
	if url == "" {
		return errors.New("feed URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	meta, _ := f.loadMeta()
	// Conditional headers only apply while the blob they refer to exists.
	if _, ok := f.store.LastUpdate(); ok && meta.URL == url {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Info("feed fetch start", "url", redactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("feed fetch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("feed fetch read: %w", readErr)
		}
		if err := f.store.Replace(body); err != nil {
			return fmt.Errorf("feed store write: %w", err)
		}
		if err := f.saveMeta(fetchMeta{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}); err != nil {
			// Meta is an optimization; losing it only costs a full refetch.
			appLog.Error("feed meta save failed", err, "url", redactURL(url))
		}
		appLog.Info("feed fetch success", "url", redactURL(url), "bytes", len(body))
		return nil

	case http.StatusNotModified:
		appLog.Info("feed not modified", "url", redactURL(url))
		return nil

	default:
		return fmt.Errorf("feed fetch: unexpected status %s", resp.Status)
	}
}

func (f *Fetcher) metaPath() string {
	return f.store.Path() + ".meta.json"
}

func (f *Fetcher) loadMeta() (fetchMeta, error) {
	var meta fetchMeta
	data, err := os.ReadFile(f.metaPath())
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fetchMeta{}, err
	}
	return meta, nil
}

func (f *Fetcher) saveMeta(meta fetchMeta) error {
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.metaPath(), data, 0o600)
}

// redactURL hides path and query of a feed URL for logging; private ICS
// links routinely embed access tokens.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}

	return u[:j] + redactedSuffix
}
