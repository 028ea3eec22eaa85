// Package extract parses individual rendered post elements into typed
// records. All functions are pure reads of the provided element tree:
// running them twice on the same markup yields identical results.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"xmarks/internal/types"
)

// statusIDPattern matches a post permalink. X post IDs are snowflakes of at
// least 15 digits; shorter numeric paths are other resources.
var statusIDPattern = regexp.MustCompile(`/status/(\d{15,})`)

// relativeTimePattern matches relative-time labels like "5h" or "2d" that
// must not be mistaken for article titles.
var relativeTimePattern = regexp.MustCompile(`^\d+[hmd]$`)

// PostElements returns every rendered post element in the document, in DOM
// order.
func PostElements(doc *goquery.Document) *goquery.Selection {
	return doc.Find(PostArticle)
}

// Post parses one post element. ok is false when the element is missing a
// required signal (permalink ID or author handle), meaning it is not a post.
func Post(sel *goquery.Selection) (post types.ExtractedPost, ok bool) {
	id := postID(sel)
	if id == "" {
		return types.ExtractedPost{}, false
	}

	handle, name, avatar := authorInfo(sel)
	if handle == "" {
		return types.ExtractedPost{}, false
	}

	post = types.ExtractedPost{
		PostID:          id,
		AuthorHandle:    handle,
		AuthorName:      name,
		AuthorAvatarURL: avatar,
		Content:         content(sel),
		MediaURLs:       mediaURLs(sel),
		ExternalURLs:    externalURLs(sel),
		CreatedAt:       sel.Find(PostTimestamp).First().AttrOr("datetime", ""),
		HasVideo:        hasVideo(sel),
	}

	post.IsReply = isReply(sel)
	if post.IsReply {
		post.ReplyToPostID = replyToID(sel)
	}

	post.IsArticle, post.ArticleTitle = detectArticle(sel)
	return post, true
}

// postID locates the first status permalink and returns its numeric ID.
func postID(sel *goquery.Selection) string {
	var id string
	sel.Find(StatusLink).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if m := statusIDPattern.FindStringSubmatch(a.AttrOr("href", "")); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	return id
}

// authorInfo scans profile links for the author. The handle is the first
// single-segment path that is not a reserved route.
func authorInfo(sel *goquery.Selection) (handle, name, avatar string) {
	avatar = sel.Find(AvatarImage).First().AttrOr("src", "")

	sel.Find(`a[href^="/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if href == "/" || strings.Contains(href, "/status/") || strings.Contains(href, "/i/") {
			return true
		}
		candidate := strings.TrimPrefix(href, "/")
		if candidate == "" || strings.Contains(candidate, "/") {
			return true
		}
		handle = candidate
		name = strings.TrimSpace(a.Find("span").First().Text())
		return false
	})

	if handle != "" && name == "" {
		name = handle
	}
	return handle, name, avatar
}

// content walks the text container's direct child nodes, preserving line
// breaks and resolving emoji images to their alt text.
func content(sel *goquery.Selection) string {
	textSel := sel.Find(PostText).First()
	if textSel.Length() == 0 {
		return ""
	}

	var b strings.Builder
	textSel.Contents().Each(func(_ int, n *goquery.Selection) {
		node := n.Get(0)
		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
		case html.ElementNode:
			switch node.Data {
			case "img":
				b.WriteString(n.AttrOr("alt", ""))
			case "a", "span":
				b.WriteString(n.Text())
			case "br":
				b.WriteString("\n")
			}
		}
	})

	return strings.TrimSpace(b.String())
}

// mediaURLs collects image and video media in DOM order. Poster URLs found
// through the video-player container and GIF-labelled videos are added only
// if not already present; the straight image/video passes append verbatim.
func mediaURLs(sel *goquery.Selection) []string {
	var urls []string

	sel.Find(MediaImage).Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); src != "" {
			urls = append(urls, src)
		}
	})

	sel.Find("video").Each(func(_ int, v *goquery.Selection) {
		// Local blob references are ephemeral and useless outside the page.
		if src := v.Find("source").First().AttrOr("src", ""); src != "" && !strings.HasPrefix(src, "blob:") {
			urls = append(urls, src)
		}
		if poster := v.AttrOr("poster", ""); poster != "" {
			urls = append(urls, poster)
		}
	})

	sel.Find(VideoPlayer).Each(func(_ int, container *goquery.Selection) {
		if container.Find(VideoComponent).Length() == 0 {
			return
		}
		if poster := container.Find("video").First().AttrOr("poster", ""); poster != "" && !contains(urls, poster) {
			urls = append(urls, poster)
		}
	})

	sel.Find(GIFVideo).Each(func(_ int, gif *goquery.Selection) {
		if poster := gif.AttrOr("poster", ""); poster != "" && !contains(urls, poster) {
			urls = append(urls, poster)
		}
	})

	return urls
}

// externalURLs collects expanded link targets from shortened-link anchors,
// preferring the title attribute over the visible text. Deduplicated.
func externalURLs(sel *goquery.Selection) []string {
	var urls []string
	seen := make(map[string]bool)

	sel.Find(ShortLink).Each(func(_ int, a *goquery.Selection) {
		expanded := a.AttrOr("title", "")
		if expanded == "" {
			expanded = strings.TrimSpace(a.Text())
		}
		if !strings.HasPrefix(expanded, "http") || seen[expanded] {
			return
		}
		seen[expanded] = true
		urls = append(urls, expanded)
	})

	return urls
}

// isReply reports whether the post is a reply. The "Replying to" social
// context label is authoritative; the connector-line style probe is a weaker
// fallback that can only flip the flag, never identify the parent.
func isReply(sel *goquery.Selection) bool {
	if strings.Contains(sel.Find(SocialContext).Text(), "Replying to") {
		return true
	}
	return hasThreadConnector(sel)
}

// hasThreadConnector probes the first layout column for the vertical line X
// draws between connected posts, rendered as an inline background-color.
func hasThreadConnector(sel *goquery.Selection) bool {
	col := sel.ChildrenFiltered("div").
		ChildrenFiltered("div").
		ChildrenFiltered("div").
		First()
	return col.Find(`div[style*="background-color"]`).Length() > 0
}

// replyToID parses the parent post's ID from a status link inside the
// social-context label, when present.
func replyToID(sel *goquery.Selection) string {
	href := sel.Find(SocialContextReply).First().AttrOr("href", "")
	if m := statusIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// hasVideo checks the markers X uses for playable video across its render
// variants.
func hasVideo(sel *goquery.Selection) bool {
	if sel.Find(VideoPlayer).Length() > 0 {
		return true
	}

	found := false
	sel.Find("video").EachWithBreak(func(_ int, v *goquery.Selection) bool {
		if strings.Contains(v.AttrOr("poster", ""), "ext_tw_video") {
			found = true
			return false
		}
		return true
	})
	if found {
		return true
	}

	if sel.Find(VideoComponent).Length() > 0 || sel.Find(PlayButton).Length() > 0 {
		return true
	}
	return sel.Find(VideoAria).Length() > 0
}

// detectArticle applies the X Article heuristics. Primary: an article
// preview renders as media with no inline text, unlike ordinary image posts
// which carry both. Secondary: explicit article-route links, checked when
// the primary signal is absent.
func detectArticle(sel *goquery.Selection) (bool, string) {
	hasText := strings.TrimSpace(sel.Find(PostText).Text()) != ""
	hasMedia := sel.Find(MediaImage).Length() > 0 ||
		sel.Find(PhotoBlock).Length() > 0 ||
		sel.Find("video").Length() > 0

	if !hasText && hasMedia {
		title := articleTitle(sel)
		if title == "" {
			title = sel.Find(MediaImage).First().AttrOr("alt", "")
		}
		return true, title
	}

	isArticle := false
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if strings.HasSuffix(href, "/article") ||
			strings.Contains(href, "/i/articles/") ||
			strings.Contains(href, "/i/notes/") {
			isArticle = true
			return false
		}
		return true
	})
	return isArticle, ""
}

// articleTitle looks for a span plausibly holding the preview card title:
// 10-200 characters, not a handle, URL, or relative-time label.
func articleTitle(sel *goquery.Selection) string {
	title := ""
	sel.Find(DirectionalSpan).EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if len(text) > 10 && len(text) < 200 &&
			!strings.HasPrefix(text, "@") &&
			!strings.HasPrefix(text, "http") &&
			!strings.Contains(text, ".com/") &&
			!relativeTimePattern.MatchString(text) {
			title = text
			return false
		}
		return true
	})
	return title
}

func contains(urls []string, u string) bool {
	for _, existing := range urls {
		if existing == u {
			return true
		}
	}
	return false
}
