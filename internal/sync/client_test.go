package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmarks/internal/types"
)

func TestSyncBookmarks(t *testing.T) {
	t.Run("uploads batch and decodes report", func(t *testing.T) {
		var gotAuth, gotRequestID string
		var gotReq struct {
			Bookmarks []types.LocalBookmark `json:"bookmarks"`
		}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/bookmarks/sync", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			gotRequestID = r.Header.Get("X-Request-ID")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			json.NewEncoder(w).Encode(types.SyncReport{
				Synced: 1,
				Errors: []types.SyncIssue{{PostID: "200", Error: "duplicate"}},
			})
		}))
		defer srv.Close()

		c := New(srv.URL+"/v1/", "token-abc", time.Second)
		report, err := c.SyncBookmarks(context.Background(), []types.LocalBookmark{
			{LocalID: "local_100", PostID: "100", SyncStatus: types.SyncPending},
			{LocalID: "local_200", PostID: "200", SyncStatus: types.SyncPending},
		})

		require.NoError(t, err)
		assert.Equal(t, "Bearer token-abc", gotAuth)
		assert.NotEmpty(t, gotRequestID)
		assert.Len(t, gotReq.Bookmarks, 2)
		assert.Equal(t, 1, report.Synced)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, "200", report.Errors[0].PostID)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		c := New(srv.URL, "token", time.Second)
		report, err := c.SyncBookmarks(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, report.Synced)
		assert.False(t, called)
	})

	t.Run("non-2xx surfaces status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusForbidden)
		}))
		defer srv.Close()

		c := New(srv.URL, "token", time.Second)
		_, err := c.SyncBookmarks(context.Background(), []types.LocalBookmark{{PostID: "100"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=403")
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}
