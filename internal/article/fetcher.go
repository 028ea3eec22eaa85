package article

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
	"xmarks/internal/types"
)

// detailURL is the canonical post page; X Articles render their full
// content there after client-side hydration.
const detailURL = "https://x.com/%s/status/%s"

// Fetcher retrieves long-form article content by rendering the post detail
// page in an isolated browser context. The context never touches the
// user's own session view and is torn down after every fetch, success or
// failure.
type Fetcher struct {
	headless    bool
	navTimeout  time.Duration
	settleDelay time.Duration
	log         *slog.Logger
}

// NewFetcher creates an article fetcher. settleDelay is the extra wait
// after navigation for client-side rendering of the long-form body.
func NewFetcher(headless bool, navTimeout, settleDelay time.Duration, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		headless:    headless,
		navTimeout:  navTimeout,
		settleDelay: settleDelay,
		log:         log,
	}
}

// FetchArticle renders the post's detail page and extracts the article
// body, title, and read-time estimate. All failures are reported in the
// result's Error field; nothing propagates as a Go error.
func (f *Fetcher) FetchArticle(ctx context.Context, cookies []*network.Cookie, authorHandle, postID string) types.ArticleFetchResult {
	pageHTML, err := f.renderDetail(ctx, cookies, fmt.Sprintf(detailURL, authorHandle, postID))
	if err != nil {
		f.log.Warn("article: render failed", "post_id", postID, "error", err)
		return types.ArticleFetchResult{Error: err.Error()}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return types.ArticleFetchResult{Error: err.Error()}
	}

	content, title := Extract(doc)
	if content == "" {
		return types.ArticleFetchResult{Error: "no article content found"}
	}

	f.log.Debug("article: extracted", "post_id", postID, "chars", len(content))
	return types.ArticleFetchResult{
		Content:           content,
		Title:             title,
		EstimatedReadTime: ReadTime(content),
	}
}

// renderDetail opens the URL in its own browser context, waits for
// navigation plus the settle delay, and captures the rendered DOM. The
// deferred cancels close the context unconditionally.
func (f *Fetcher) renderDetail(ctx context.Context, cookies []*network.Cookie, url string) (string, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(f.headless)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, f.navTimeout)
	defer timeoutCancel()

	if err := browser.InjectCookies(browserCtx, cookies); err != nil {
		return "", fmt.Errorf("failed to inject cookies: %w", err)
	}

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settleDelay),
	); err != nil {
		return "", fmt.Errorf("failed to render detail page: %w", err)
	}

	var pageHTML string
	if err := chromedp.Run(browserCtx,
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("failed to capture detail page: %w", err)
	}
	return pageHTML, nil
}
