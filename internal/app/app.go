// Package app wires the capture pipeline: scrape, categorize, expand
// threads and articles, persist, and sync.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"

	"xmarks/internal/article"
	"xmarks/internal/auth"
	"xmarks/internal/category"
	"xmarks/internal/config"
	"xmarks/internal/merge"
	"xmarks/internal/scrape"
	"xmarks/internal/store"
	"xmarks/internal/sync"
	"xmarks/internal/thread"
	"xmarks/internal/types"
)

// ErrNotAuthenticated is returned when the pipeline runs without a stored
// X session.
var ErrNotAuthenticated = errors.New("not authenticated: run login first")

// App holds the application state.
type App struct {
	cfg         *config.Config
	authManager *auth.Manager
	scraper     *scrape.Scraper
	threads     *thread.Fetcher
	articles    *article.Fetcher
	store       *store.Store
	syncClient  *sync.Client
	log         *slog.Logger
}

// New assembles the application from config.
func New(cfg *config.Config, st *store.Store, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	cookiePath, err := auth.DefaultCookieStorePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cookie store path: %w", err)
	}
	cookieStore := auth.NewCookieStore(cookiePath)
	authManager := auth.NewManager(cookieStore)

	scraper := scrape.New(
		cfg.Scraping.Headless,
		time.Duration(cfg.Scraping.ExpandPacingMs)*time.Millisecond,
		time.Duration(cfg.Scraping.SettleDelayMs)*time.Millisecond,
		log,
	)

	threads := thread.NewFetcher(thread.Config{
		RequestDelay:    time.Duration(cfg.Threads.RequestDelayMs) * time.Millisecond,
		MaxRetries:      cfg.Threads.MaxRetries,
		RequestTimeout:  time.Duration(cfg.Threads.RequestTimeoutSec) * time.Second,
		MaxThreadLength: cfg.Threads.MaxThreadLength,
	}, nil, cookieStore.Header, log)

	articles := article.NewFetcher(
		cfg.Scraping.Headless,
		time.Duration(cfg.Articles.NavTimeoutSec)*time.Second,
		time.Duration(cfg.Articles.SettleDelayMs)*time.Millisecond,
		log,
	)

	var syncClient *sync.Client
	if cfg.Sync.Endpoint != "" {
		syncClient = sync.New(cfg.Sync.Endpoint, cfg.Sync.APIToken, 0)
	}

	return &App{
		cfg:         cfg,
		authManager: authManager,
		scraper:     scraper,
		threads:     threads,
		articles:    articles,
		store:       st,
		syncClient:  syncClient,
		log:         log,
	}, nil
}

// Auth exposes the auth manager for login/logout commands.
func (a *App) Auth() *auth.Manager {
	return a.authManager
}

// Store exposes the bookmark store for read-only commands.
func (a *App) Store() *store.Store {
	return a.store
}

// RunPipeline performs one full capture: scrape the bookmarks timeline,
// categorize, expand threads and articles, persist, and upload pending
// bookmarks. Expansion failures degrade the run, never abort it.
func (a *App) RunPipeline(ctx context.Context) error {
	if !a.authManager.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	cookies, err := a.authManager.GetCookies()
	if err != nil {
		return fmt.Errorf("failed to load session cookies: %w", err)
	}

	posts, err := a.scraper.ScrapeBookmarks(ctx, cookies)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	if len(posts) == 0 {
		a.log.Info("app: no bookmarks on timeline, nothing to do")
		return nil
	}

	bookmarks, err := a.buildBookmarks(posts)
	if err != nil {
		return err
	}

	bookmarks, threadFailures, err := merge.ExpandThreads(ctx, a.threads, bookmarks,
		func(done, total int) {
			a.log.Debug("app: thread expansion progress", "done", done, "total", total)
		}, a.log)
	if err != nil {
		return fmt.Errorf("thread expansion aborted: %w", err)
	}
	if threadFailures > 0 {
		a.log.Warn("app: some threads failed to expand", "failures", threadFailures)
	}

	fetchArticle := articleAdapter{fetcher: a.articles, cookies: cookies}
	bookmarks, articleFailures, err := merge.ExpandArticles(ctx, fetchArticle, bookmarks,
		a.threads.Delay(),
		func(done, total int) {
			a.log.Debug("app: article expansion progress", "done", done, "total", total)
		}, a.log)
	if err != nil {
		return fmt.Errorf("article expansion aborted: %w", err)
	}
	if articleFailures > 0 {
		a.log.Warn("app: some articles failed to fetch", "failures", articleFailures)
	}

	if err := a.store.UpsertBookmarks(bookmarks); err != nil {
		return fmt.Errorf("failed to persist bookmarks: %w", err)
	}
	a.log.Info("app: capture persisted", "bookmarks", len(bookmarks))

	return a.SyncPending(ctx)
}

// buildBookmarks turns extracted posts into bookmarks, carrying over the
// bookkeeping of any post already in the store so re-captures never reset
// sync or expansion state.
func (a *App) buildBookmarks(posts []types.ExtractedPost) ([]types.LocalBookmark, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	bookmarks := make([]types.LocalBookmark, 0, len(posts))
	for _, p := range posts {
		existing, err := a.store.GetByPostID(p.PostID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up bookmark %s: %w", p.PostID, err)
		}

		if existing != nil {
			b := *existing
			b.Content = p.Content
			b.AuthorName = p.AuthorName
			b.AuthorAvatarURL = p.AuthorAvatarURL
			b.MediaURLs = p.MediaURLs
			b.ExternalURLs = p.ExternalURLs
			bookmarks = append(bookmarks, b)
			continue
		}

		b := types.LocalBookmark{
			LocalID:         types.LocalID(p.PostID),
			PostID:          p.PostID,
			AuthorHandle:    p.AuthorHandle,
			AuthorName:      p.AuthorName,
			AuthorAvatarURL: p.AuthorAvatarURL,
			Content:         p.Content,
			MediaURLs:       p.MediaURLs,
			ExternalURLs:    p.ExternalURLs,
			CreatedAt:       p.CreatedAt,
			BookmarkedAt:    now,
			Category:        category.Categorize(p),
			SyncStatus:      types.SyncPending,
			IsArticle:       p.IsArticle,
			ArticleTitle:    p.ArticleTitle,
		}
		if b.IsArticle {
			b.ArticleFetchStatus = types.ArticleFetchPending
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, nil
}

// Watch keeps a live browser session on the bookmarks timeline and
// persists a lightweight capture (no thread or article expansion) every
// time the rendered post set changes. Blocks until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	if !a.authManager.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	cookies, err := a.authManager.GetCookies()
	if err != nil {
		return fmt.Errorf("failed to load session cookies: %w", err)
	}

	poll := time.Duration(a.cfg.Scraping.WatchPollMs) * time.Millisecond
	settle := time.Duration(a.cfg.Scraping.SettleDelayMs) * time.Millisecond

	return a.scraper.Watch(ctx, cookies, poll, settle, func(posts []types.ExtractedPost) {
		bookmarks, err := a.buildBookmarks(posts)
		if err != nil {
			a.log.Warn("app: watch capture failed", "error", err)
			return
		}
		if err := a.store.UpsertBookmarks(bookmarks); err != nil {
			a.log.Warn("app: watch persist failed", "error", err)
			return
		}
		a.log.Info("app: watch capture persisted", "bookmarks", len(bookmarks))
	})
}

// SyncPending uploads every pending bookmark and records the per-post
// outcome. A no-op when no sync backend is configured.
func (a *App) SyncPending(ctx context.Context) error {
	if a.syncClient == nil {
		a.log.Debug("app: no sync endpoint configured, skipping upload")
		return nil
	}

	pending, err := a.store.GetPending()
	if err != nil {
		return fmt.Errorf("failed to load pending bookmarks: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	report, err := a.syncClient.SyncBookmarks(ctx, pending)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	failed := make(map[string]string, len(report.Errors))
	for _, issue := range report.Errors {
		failed[issue.PostID] = issue.Error
	}

	for _, b := range pending {
		if msg, ok := failed[b.PostID]; ok {
			if err := a.store.UpdateSyncStatus(b.PostID, types.SyncError, msg); err != nil {
				return err
			}
			continue
		}
		if err := a.store.UpdateSyncStatus(b.PostID, types.SyncSynced, ""); err != nil {
			return err
		}
	}

	a.log.Info("app: sync complete", "synced", report.Synced, "errors", len(report.Errors))
	return nil
}

// articleAdapter binds the browser session cookies so the batch loop sees
// the narrower per-post interface.
type articleAdapter struct {
	fetcher *article.Fetcher
	cookies []*network.Cookie
}

func (ad articleAdapter) FetchArticle(ctx context.Context, authorHandle, postID string) types.ArticleFetchResult {
	return ad.fetcher.FetchArticle(ctx, ad.cookies, authorHandle, postID)
}
