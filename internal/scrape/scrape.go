// Package scrape drives a browser session over the X bookmarks timeline and
// turns the rendered page into extracted post records.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"xmarks/internal/browser"
	"xmarks/internal/extract"
	"xmarks/internal/types"
)

// BookmarksURL is the timeline this scraper targets.
const BookmarksURL = "https://x.com/i/bookmarks"

const (
	scrapeTimeout = 5 * time.Minute

	// maxExpandClicks bounds the show-more pre-pass against pages that keep
	// rendering new truncation controls.
	maxExpandClicks = 60
)

// Scraper owns the browser-driven timeline scrape.
type Scraper struct {
	headless     bool
	expandPacing time.Duration
	settleDelay  time.Duration
	log          *slog.Logger
}

// New creates a scraper. expandPacing spaces out show-more activations;
// settleDelay is the single post-expansion wait before capture.
func New(headless bool, expandPacing, settleDelay time.Duration, log *slog.Logger) *Scraper {
	if log == nil {
		log = slog.Default()
	}
	return &Scraper{
		headless:     headless,
		expandPacing: expandPacing,
		settleDelay:  settleDelay,
		log:          log,
	}
}

// ScrapeBookmarks opens the bookmarks timeline in a fresh browser context
// and returns all currently rendered posts, deduplicated, in DOM order.
func (s *Scraper) ScrapeBookmarks(ctx context.Context, cookies []*network.Cookie) ([]types.ExtractedPost, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(s.headless)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, scrapeTimeout)
	defer timeoutCancel()

	if err := browser.InjectCookies(browserCtx, cookies); err != nil {
		return nil, fmt.Errorf("failed to inject cookies: %w", err)
	}

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(BookmarksURL),
		chromedp.WaitVisible(extract.PrimaryColumn, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to load bookmarks timeline: %w", err)
	}

	return s.capture(browserCtx)
}

// capture runs the show-more pre-pass and parses the settled page.
func (s *Scraper) capture(ctx context.Context) ([]types.ExtractedPost, error) {
	if err := s.expandTruncated(ctx); err != nil {
		return nil, fmt.Errorf("failed to expand truncated posts: %w", err)
	}

	var pageHTML string
	if err := chromedp.Run(ctx,
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to capture page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	posts := FromDocument(doc)
	s.log.Info("scrape: parsed timeline", "posts", len(posts))
	return posts, nil
}

// expandShowMoreJS clicks the first remaining truncation control and reports
// how many were visible. Both the dedicated control and bare "Show more"
// spans inside posts count.
const expandShowMoreJS = `
	(() => {
		const controls = Array.from(document.querySelectorAll('[data-testid="tweet-text-show-more-link"]'));
		document.querySelectorAll('article[data-testid="tweet"] span').forEach((s) => {
			if (s.textContent.trim() === 'Show more') controls.push(s);
		});
		if (controls.length === 0) return 0;
		controls[0].click();
		return controls.length;
	})()
`

// expandTruncated activates truncation controls one at a time with a pacing
// delay, then waits once for layout to settle. This must run before capture
// or extracted content would be cut off.
func (s *Scraper) expandTruncated(ctx context.Context) error {
	clicked := 0
	for i := 0; i < maxExpandClicks; i++ {
		var remaining int
		if err := chromedp.Run(ctx, chromedp.Evaluate(expandShowMoreJS, &remaining)); err != nil {
			return err
		}
		if remaining == 0 {
			break
		}
		clicked++
		select {
		case <-time.After(s.expandPacing):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if clicked > 0 {
		s.log.Debug("scrape: expanded truncated posts", "count", clicked)
		select {
		case <-time.After(s.settleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// FromDocument extracts every post element in the parsed page, keeping the
// first occurrence per post ID. The same post can render twice, e.g. in
// quote contexts.
func FromDocument(doc *goquery.Document) []types.ExtractedPost {
	var posts []types.ExtractedPost
	seen := make(map[string]bool)

	extract.PostElements(doc).Each(func(_ int, sel *goquery.Selection) {
		post, ok := extract.Post(sel)
		if !ok || seen[post.PostID] {
			return
		}
		seen[post.PostID] = true
		posts = append(posts, post)
	})

	return posts
}
