// Package merge folds expansion results (reconstructed threads, fetched
// article content) back into the bookmark set, and runs the paced batch
// loops that produce those results.
package merge

import (
	"context"
	"log/slog"
	"time"

	"xmarks/internal/category"
	"xmarks/internal/thread"
	"xmarks/internal/types"
)

// ThreadFetcher reconstructs one thread per call. *thread.Fetcher
// satisfies it.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, authorHandle, postID string) types.ThreadFetchResult
	Delay() time.Duration
}

// ArticleFetcher retrieves long-form content for one post per call. The
// app layer binds session credentials into this before handing it over.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, authorHandle, postID string) types.ArticleFetchResult
}

// MergeThread folds one thread reconstruction into the bookmark set and
// returns the updated set. The input slice is never mutated. A failed or
// single-post result leaves the set unchanged: there is nothing to merge.
//
// On success the candidate bookmark becomes the thread root, existing
// bookmarks matching later thread posts are tagged into the thread at
// their positions, and posts not bookmarked on their own are synthesized
// as new pending bookmarks. No post ID ever appears twice in the output.
func MergeThread(bookmarks []types.LocalBookmark, candidateID string, result types.ThreadFetchResult) []types.LocalBookmark {
	if result.Error != "" || len(result.Posts) <= 1 {
		return bookmarks
	}

	out := make([]types.LocalBookmark, len(bookmarks))
	copy(out, bookmarks)

	byID := make(map[string]int, len(out))
	for i, b := range out {
		byID[b.PostID] = i
	}

	rootIdx, ok := byID[candidateID]
	if !ok {
		return bookmarks
	}

	root := &out[rootIdx]
	root.IsThread = true
	root.ThreadID = candidateID
	root.ThreadPosition = 0
	root.Category = category.Apply(root.Category, category.EventThreadMember)
	bookmarkedAt := root.BookmarkedAt

	// Position 0 is the candidate's slot. When the candidate sits mid-thread
	// the cascade returns the true opener at position 0; merging it would put
	// two bookmarks at the same position, so it is dropped. A candidate
	// parsed at a later position keeps that position instead.
	for _, p := range result.Posts {
		if p.Position == 0 {
			continue
		}
		if i, ok := byID[p.PostID]; ok {
			b := &out[i]
			b.IsThread = true
			b.ThreadID = candidateID
			b.ThreadPosition = p.Position
			b.Category = category.Apply(b.Category, category.EventThreadMember)
			continue
		}
		out = append(out, types.LocalBookmark{
			LocalID:         types.LocalID(p.PostID),
			PostID:          p.PostID,
			AuthorHandle:    p.AuthorHandle,
			AuthorName:      p.AuthorName,
			AuthorAvatarURL: p.AuthorAvatarURL,
			Content:         p.Content,
			MediaURLs:       p.MediaURLs,
			ExternalURLs:    p.ExternalURLs,
			CreatedAt:       p.CreatedAt,
			BookmarkedAt:    bookmarkedAt,
			Category:        types.CategoryThread,
			IsThread:        true,
			ThreadID:        candidateID,
			ThreadPosition:  p.Position,
			SyncStatus:      types.SyncPending,
		})
		byID[p.PostID] = len(out) - 1
	}

	return out
}

// MergeArticle applies one article fetch result to a bookmark and returns
// the updated copy. Failures are recorded in the fetch status so the
// bookmark is not retried on every pass.
func MergeArticle(b types.LocalBookmark, result types.ArticleFetchResult) types.LocalBookmark {
	if result.Error != "" {
		b.ArticleFetchStatus = types.ArticleFetchFailed
		return b
	}

	b.IsArticle = true
	b.ArticleContent = result.Content
	if result.Title != "" {
		b.ArticleTitle = result.Title
	}
	b.EstimatedReadTime = result.EstimatedReadTime
	b.ArticleFetchStatus = types.ArticleFetched
	b.Category = category.Apply(b.Category, category.EventArticleContent)
	return b
}

// ExpandThreads runs the thread reconstruction batch over every candidate
// bookmark, pacing requests by the fetcher's delay. progress, when
// non-nil, receives (processed, total) after each candidate. A failing
// candidate is counted and skipped, never aborts the batch; only context
// cancellation does. Returns the merged set and the failure count.
func ExpandThreads(ctx context.Context, fetcher ThreadFetcher, bookmarks []types.LocalBookmark, progress func(processed, total int), log *slog.Logger) ([]types.LocalBookmark, int, error) {
	if log == nil {
		log = slog.Default()
	}

	var candidates []string
	for _, b := range bookmarks {
		if thread.IsCandidate(b) {
			candidates = append(candidates, b.PostID)
		}
	}
	log.Info("merge: expanding threads", "candidates", len(candidates))

	byID := make(map[string]types.LocalBookmark, len(bookmarks))
	for _, b := range bookmarks {
		byID[b.PostID] = b
	}

	failures := 0
	for i, postID := range candidates {
		result := fetcher.FetchThread(ctx, byID[postID].AuthorHandle, postID)
		if result.Error != "" {
			failures++
		} else {
			bookmarks = MergeThread(bookmarks, postID, result)
		}
		if progress != nil {
			progress(i+1, len(candidates))
		}

		if i < len(candidates)-1 {
			select {
			case <-time.After(fetcher.Delay()):
			case <-ctx.Done():
				return bookmarks, failures, ctx.Err()
			}
		}
	}

	return bookmarks, failures, nil
}

// ExpandArticles fetches long-form content for every article bookmark
// still missing it, pacing requests by delay. Semantics mirror
// ExpandThreads: per-candidate failures are counted, cancellation stops
// the batch.
func ExpandArticles(ctx context.Context, fetcher ArticleFetcher, bookmarks []types.LocalBookmark, delay time.Duration, progress func(processed, total int), log *slog.Logger) ([]types.LocalBookmark, int, error) {
	if log == nil {
		log = slog.Default()
	}

	var candidates []int
	for i, b := range bookmarks {
		if b.IsArticle && b.ArticleContent == "" && b.ArticleFetchStatus != types.ArticleFetched {
			candidates = append(candidates, i)
		}
	}
	log.Info("merge: expanding articles", "candidates", len(candidates))

	out := make([]types.LocalBookmark, len(bookmarks))
	copy(out, bookmarks)

	failures := 0
	for i, idx := range candidates {
		b := out[idx]
		result := fetcher.FetchArticle(ctx, b.AuthorHandle, b.PostID)
		if result.Error != "" {
			failures++
		}
		out[idx] = MergeArticle(b, result)
		if progress != nil {
			progress(i+1, len(candidates))
		}

		if i < len(candidates)-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return out, failures, ctx.Err()
			}
		}
	}

	return out, failures, nil
}
