package merge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xmarks/internal/types"
)

func bookmark(postID string, cat types.Category) types.LocalBookmark {
	return types.LocalBookmark{
		LocalID:      types.LocalID(postID),
		PostID:       postID,
		AuthorHandle: "alice",
		Content:      "content of " + postID,
		BookmarkedAt: "2026-08-29T10:00:00Z",
		Category:     cat,
		SyncStatus:   types.SyncSynced,
	}
}

func threadResult(rootID string, ids ...string) types.ThreadFetchResult {
	posts := make([]types.ParsedThreadPost, len(ids))
	for i, id := range ids {
		posts[i] = types.ParsedThreadPost{
			PostID:       id,
			AuthorHandle: "alice",
			Content:      "thread post " + id,
			Position:     i,
		}
	}
	return types.ThreadFetchResult{OriginalPostID: rootID, Posts: posts}
}

func TestMergeThread(t *testing.T) {
	t.Run("root tagged and members synthesized", func(t *testing.T) {
		base := []types.LocalBookmark{bookmark("100", types.CategoryQuickTake)}
		out := MergeThread(base, "100", threadResult("100", "100", "101", "102"))

		require.Len(t, out, 3)
		root := out[0]
		assert.True(t, root.IsThread)
		assert.Equal(t, "100", root.ThreadID)
		assert.Equal(t, 0, root.ThreadPosition)
		assert.Equal(t, types.CategoryThread, root.Category)

		for i, b := range out[1:] {
			assert.Equal(t, "100", b.ThreadID)
			assert.Equal(t, i+1, b.ThreadPosition)
			assert.Equal(t, types.CategoryThread, b.Category)
			assert.Equal(t, types.SyncPending, b.SyncStatus)
			assert.Equal(t, root.BookmarkedAt, b.BookmarkedAt)
			assert.Equal(t, types.LocalID(b.PostID), b.LocalID)
		}
	})

	t.Run("existing bookmark updated not duplicated", func(t *testing.T) {
		base := []types.LocalBookmark{
			bookmark("100", types.CategoryQuickTake),
			bookmark("101", types.CategoryMedia),
		}
		out := MergeThread(base, "100", threadResult("100", "100", "101"))

		require.Len(t, out, 2)
		assert.Equal(t, "100", out[1].ThreadID)
		assert.Equal(t, 1, out[1].ThreadPosition)
		assert.Equal(t, types.CategoryThread, out[1].Category)
		assert.Equal(t, types.SyncSynced, out[1].SyncStatus, "existing sync state survives")

		seen := map[string]bool{}
		for _, b := range out {
			assert.False(t, seen[b.PostID])
			seen[b.PostID] = true
		}
	})

	t.Run("article bookmark is not demoted", func(t *testing.T) {
		base := []types.LocalBookmark{bookmark("100", types.CategoryArticle)}
		out := MergeThread(base, "100", threadResult("100", "100", "101"))
		assert.Equal(t, types.CategoryArticle, out[0].Category)
		assert.True(t, out[0].IsThread)
	})

	t.Run("mid-thread candidate drops the parsed opener", func(t *testing.T) {
		// Bookmarking post 200 midway through alice's thread: the detail page
		// yields the true opener 100 at position 0, which must not be merged
		// alongside the candidate.
		base := []types.LocalBookmark{bookmark("200", types.CategoryQuickTake)}
		out := MergeThread(base, "200", threadResult("200", "100", "200", "300"))

		require.Len(t, out, 2)
		positions := map[int][]string{}
		for _, b := range out {
			assert.True(t, b.IsThread)
			assert.Equal(t, "200", b.ThreadID)
			positions[b.ThreadPosition] = append(positions[b.ThreadPosition], b.PostID)
		}
		assert.Equal(t, map[int][]string{1: {"200"}, 2: {"300"}}, positions)
	})

	t.Run("failed or trivial results leave set unchanged", func(t *testing.T) {
		base := []types.LocalBookmark{bookmark("100", types.CategoryQuickTake)}

		out := MergeThread(base, "100", types.ThreadFetchResult{OriginalPostID: "100", Error: "http 429"})
		assert.Equal(t, base, out)

		out = MergeThread(base, "100", threadResult("100", "100"))
		assert.Equal(t, base, out)
	})

	t.Run("input slice never mutated", func(t *testing.T) {
		base := []types.LocalBookmark{bookmark("100", types.CategoryQuickTake)}
		MergeThread(base, "100", threadResult("100", "100", "101"))
		assert.False(t, base[0].IsThread)
		assert.Equal(t, types.CategoryQuickTake, base[0].Category)
	})
}

func TestMergeArticle(t *testing.T) {
	t.Run("success fills content and promotes category", func(t *testing.T) {
		b := bookmark("200", types.CategoryMedia)
		b.IsArticle = true
		b.ArticleFetchStatus = types.ArticleFetchPending

		out := MergeArticle(b, types.ArticleFetchResult{
			Content:           "long form body",
			Title:             "A Title",
			EstimatedReadTime: 3,
		})
		assert.Equal(t, types.ArticleFetched, out.ArticleFetchStatus)
		assert.Equal(t, "long form body", out.ArticleContent)
		assert.Equal(t, "A Title", out.ArticleTitle)
		assert.Equal(t, 3, out.EstimatedReadTime)
		assert.Equal(t, types.CategoryArticle, out.Category)
	})

	t.Run("failure marks status and keeps existing title", func(t *testing.T) {
		b := bookmark("200", types.CategoryArticle)
		b.ArticleTitle = "From the card"

		out := MergeArticle(b, types.ArticleFetchResult{Error: "no article content found"})
		assert.Equal(t, types.ArticleFetchFailed, out.ArticleFetchStatus)
		assert.Equal(t, "From the card", out.ArticleTitle)
		assert.Empty(t, out.ArticleContent)
	})
}

type stubThreadFetcher struct {
	results map[string]types.ThreadFetchResult
	calls   []string
}

func (s *stubThreadFetcher) FetchThread(_ context.Context, _, postID string) types.ThreadFetchResult {
	s.calls = append(s.calls, postID)
	if r, ok := s.results[postID]; ok {
		return r
	}
	return types.ThreadFetchResult{OriginalPostID: postID, Error: "not found"}
}

func (s *stubThreadFetcher) Delay() time.Duration { return time.Millisecond }

func TestExpandThreads(t *testing.T) {
	t.Run("candidates expanded, failures counted", func(t *testing.T) {
		starter := bookmark("100", types.CategoryQuickTake)
		starter.Content = "1/4 how we shipped the migration " + strings.Repeat("x", 10)
		broken := bookmark("300", types.CategoryQuickTake)
		broken.Content = "part 1 of the incident writeup"
		plain := bookmark("400", types.CategoryQuickTake)
		plain.Content = "just a short take"

		fetcher := &stubThreadFetcher{results: map[string]types.ThreadFetchResult{
			"100": threadResult("100", "100", "101"),
		}}

		var progress [][2]int
		out, failures, err := ExpandThreads(context.Background(), fetcher,
			[]types.LocalBookmark{starter, broken, plain},
			func(done, total int) { progress = append(progress, [2]int{done, total}) }, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"100", "300"}, fetcher.calls, "plain post is not a candidate")
		assert.Equal(t, 1, failures)
		assert.Len(t, out, 4)
		assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)
	})

	t.Run("cancellation stops the batch", func(t *testing.T) {
		a := bookmark("100", types.CategoryQuickTake)
		a.Content = "1/9 first"
		b := bookmark("200", types.CategoryQuickTake)
		b.Content = "1/9 second"

		ctx, cancel := context.WithCancel(context.Background())
		fetcher := &stubThreadFetcher{}
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		slow := &slowFetcher{inner: fetcher}
		_, _, err := ExpandThreads(ctx, slow, []types.LocalBookmark{a, b}, nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type slowFetcher struct{ inner *stubThreadFetcher }

func (s *slowFetcher) FetchThread(ctx context.Context, handle, postID string) types.ThreadFetchResult {
	return s.inner.FetchThread(ctx, handle, postID)
}

func (s *slowFetcher) Delay() time.Duration { return time.Second }

type stubArticleFetcher struct {
	results map[string]types.ArticleFetchResult
	calls   []string
}

func (s *stubArticleFetcher) FetchArticle(_ context.Context, _, postID string) types.ArticleFetchResult {
	s.calls = append(s.calls, postID)
	if r, ok := s.results[postID]; ok {
		return r
	}
	return types.ArticleFetchResult{Error: "render failed"}
}

func TestExpandArticles(t *testing.T) {
	pending := bookmark("500", types.CategoryArticle)
	pending.IsArticle = true

	fetched := bookmark("501", types.CategoryArticle)
	fetched.IsArticle = true
	fetched.ArticleContent = "already here"
	fetched.ArticleFetchStatus = types.ArticleFetched

	notArticle := bookmark("502", types.CategoryQuickTake)

	failing := bookmark("503", types.CategoryArticle)
	failing.IsArticle = true

	fetcher := &stubArticleFetcher{results: map[string]types.ArticleFetchResult{
		"500": {Content: "body", Title: "T", EstimatedReadTime: 1},
	}}

	out, failures, err := ExpandArticles(context.Background(), fetcher,
		[]types.LocalBookmark{pending, fetched, notArticle, failing},
		time.Millisecond, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"500", "503"}, fetcher.calls, "fetched and non-article bookmarks skipped")
	assert.Equal(t, 1, failures)
	assert.Equal(t, types.ArticleFetched, out[0].ArticleFetchStatus)
	assert.Equal(t, "body", out[0].ArticleContent)
	assert.Equal(t, "already here", out[1].ArticleContent)
	assert.Equal(t, types.ArticleFetchFailed, out[3].ArticleFetchStatus)
}
