package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmarks/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "xmarks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(postID string, cat types.Category, status types.SyncStatus) types.LocalBookmark {
	return types.LocalBookmark{
		LocalID:      types.LocalID(postID),
		PostID:       postID,
		AuthorHandle: "alice",
		AuthorName:   "Alice",
		Content:      "content " + postID,
		MediaURLs:    []string{"https://pbs.twimg.com/media/" + postID + ".jpg"},
		ExternalURLs: []string{"https://example.com/" + postID},
		BookmarkedAt: "2026-08-29T10:00:00Z",
		Category:     cat,
		SyncStatus:   status,
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := newTestStore(t)

	b := sample("100", types.CategoryQuickTake, types.SyncPending)
	require.NoError(t, s.UpsertBookmarks([]types.LocalBookmark{b}))

	got, err := s.GetByPostID("100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b, *got)

	missing, err := s.GetByPostID("999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	s := newTestStore(t)

	b := sample("100", types.CategoryQuickTake, types.SyncPending)
	require.NoError(t, s.UpsertBookmarks([]types.LocalBookmark{b}))

	b.Category = types.CategoryThread
	b.IsThread = true
	b.ThreadID = "100"
	b.AuthorName = "Alice Renamed"
	b.AuthorAvatarURL = "https://pbs.twimg.com/profile_images/new.jpg"
	b.BookmarkedAt = "2026-08-30T00:00:00Z" // must not overwrite first capture
	require.NoError(t, s.UpsertBookmarks([]types.LocalBookmark{b}))

	got, err := s.GetByPostID("100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.CategoryThread, got.Category)
	assert.True(t, got.IsThread)
	assert.Equal(t, "Alice Renamed", got.AuthorName)
	assert.Equal(t, "https://pbs.twimg.com/profile_images/new.jpg", got.AuthorAvatarURL)
	assert.Equal(t, "2026-08-29T10:00:00Z", got.BookmarkedAt)

	all, err := s.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetAllOrdering(t *testing.T) {
	s := newTestStore(t)

	older := sample("100", types.CategoryQuickTake, types.SyncSynced)
	older.BookmarkedAt = "2026-08-28T10:00:00Z"
	newer := sample("200", types.CategoryQuickTake, types.SyncSynced)
	newer.BookmarkedAt = "2026-08-29T10:00:00Z"
	member := sample("201", types.CategoryThread, types.SyncPending)
	member.BookmarkedAt = newer.BookmarkedAt
	member.IsThread = true
	member.ThreadID = "200"
	member.ThreadPosition = 1

	require.NoError(t, s.UpsertBookmarks([]types.LocalBookmark{older, member, newer}))

	all, err := s.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "200", all[0].PostID)
	assert.Equal(t, "201", all[1].PostID)
	assert.Equal(t, "100", all[2].PostID)
}

func TestPendingAndSyncStatus(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBookmarks([]types.LocalBookmark{
		sample("100", types.CategoryQuickTake, types.SyncPending),
		sample("200", types.CategoryQuickTake, types.SyncSynced),
	}))

	pending, err := s.GetPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "100", pending[0].PostID)

	require.NoError(t, s.UpdateSyncStatus("100", types.SyncError, "backend rejected"))

	got, err := s.GetByPostID("100")
	require.NoError(t, err)
	assert.Equal(t, types.SyncError, got.SyncStatus)
	assert.Equal(t, "backend rejected", got.SyncError)

	pending, err = s.GetPending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGetByCategory(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBookmarks([]types.LocalBookmark{
		sample("100", types.CategoryArticle, types.SyncPending),
		sample("200", types.CategoryMedia, types.SyncPending),
		sample("300", types.CategoryArticle, types.SyncPending),
	}))

	articles, err := s.GetByCategory(types.CategoryArticle)
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	for _, b := range articles {
		assert.Equal(t, types.CategoryArticle, b.Category)
	}
}

func TestStatsDeleteClear(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBookmarks([]types.LocalBookmark{
		sample("100", types.CategoryQuickTake, types.SyncPending),
		sample("200", types.CategoryArticle, types.SyncError),
		sample("300", types.CategoryArticle, types.SyncSynced),
	}))

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByCategory[types.CategoryArticle])
	assert.Equal(t, 1, stats.ByCategory[types.CategoryQuickTake])
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Errors)

	require.NoError(t, s.Delete("100"))
	got, err := s.GetByPostID("100")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Clear())
	all, err := s.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}
