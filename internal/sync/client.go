// Package sync uploads pending bookmarks to the cloud backend.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"xmarks/internal/types"
)

// Client is a minimal HTTP client for the bookmark sync backend.
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client

	syncPath string
}

// New creates a sync client. baseURL should be like
// "https://api.example.com/v1" (no trailing slash).
func New(baseURL, apiToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		http:     &http.Client{Timeout: timeout},
		syncPath: "/bookmarks/sync",
	}
}

// syncRequest is the upload payload.
type syncRequest struct {
	Bookmarks []types.LocalBookmark `json:"bookmarks"`
}

// SyncBookmarks uploads the given bookmarks in one call and returns the
// backend's per-post report. An empty batch is a no-op.
func (c *Client) SyncBookmarks(ctx context.Context, bookmarks []types.LocalBookmark) (types.SyncReport, error) {
	if c == nil {
		return types.SyncReport{}, errors.New("nil sync client")
	}
	if len(bookmarks) == 0 {
		return types.SyncReport{}, nil
	}

	body, err := json.Marshal(syncRequest{Bookmarks: bookmarks})
	if err != nil {
		return types.SyncReport{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.syncPath, bytes.NewReader(body))
	if err != nil {
		return types.SyncReport{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return types.SyncReport{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return types.SyncReport{}, fmt.Errorf("sync failed: status=%d body=%s", resp.StatusCode, string(b))
	}

	var report types.SyncReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return types.SyncReport{}, fmt.Errorf("sync: bad response: %w", err)
	}
	return report, nil
}
