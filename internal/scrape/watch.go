package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/bep/debounce"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"xmarks/internal/browser"
	"xmarks/internal/extract"
	"xmarks/internal/types"
)

// countPostsJS samples the number of rendered post elements, the cheap
// mutation signal the watcher polls for.
const countPostsJS = `document.querySelectorAll('article[data-testid="tweet"]').length`

// Watch keeps a browser session on the bookmarks timeline and re-scrapes
// whenever the rendered post set changes. An initial scrape fires once the
// page is ready; subsequent mutations are debounced by settle so a burst of
// renders produces one scrape. onPosts receives each scrape's result.
// Blocks until ctx is cancelled.
func (s *Scraper) Watch(ctx context.Context, cookies []*network.Cookie, poll, settle time.Duration, onPosts func([]types.ExtractedPost)) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(s.headless)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := browser.InjectCookies(browserCtx, cookies); err != nil {
		return fmt.Errorf("failed to inject cookies: %w", err)
	}

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(BookmarksURL),
		chromedp.WaitVisible(extract.PrimaryColumn, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to load bookmarks timeline: %w", err)
	}

	rescan := func() {
		posts, err := s.capture(browserCtx)
		if err != nil {
			s.log.Warn("scrape: watcher capture failed", "error", err)
			return
		}
		onPosts(posts)
	}

	// Page-ready counts as the first trigger.
	rescan()

	debounced := debounce.New(settle)
	lastCount := -1

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var count int
			if err := chromedp.Run(browserCtx, chromedp.Evaluate(countPostsJS, &count)); err != nil {
				s.log.Warn("scrape: watcher poll failed", "error", err)
				continue
			}
			if count != lastCount {
				lastCount = count
				debounced(rescan)
			}
		}
	}
}
