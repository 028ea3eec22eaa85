package thread

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"xmarks/internal/types"
)

var (
	nextDataPattern    = regexp.MustCompile(`(?s)<script[^>]*id="__NEXT_DATA__"[^>]*>(.*?)</script>`)
	inlineTweetPattern = regexp.MustCompile(`"tweet_results":\s*(\{[^}]+\})`)
	statusIDPattern    = regexp.MustCompile(`/status/(\d{15,})`)
	unicodeEscape      = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
)

// strategy attempts to extract same-author posts from a fetched detail
// page. Returning nil hands off to the next strategy.
type strategy func(pageHTML, authorHandle string) []types.ParsedThreadPost

// strategies in preference order: full embedded page state, individually
// parsed inline post objects, then bare permalink IDs with proximity text.
var strategies = []strategy{
	postsFromEmbeddedState,
	postsFromInlineObjects,
	postsFromStatusLinks,
}

// ParseThread runs the strategy cascade over a detail page, stopping at the
// first strategy that yields anything, then deduplicates by post ID (first
// occurrence wins), caps the result at maxLen, and assigns positions.
func ParseThread(pageHTML, authorHandle string, maxLen int) []types.ParsedThreadPost {
	var posts []types.ParsedThreadPost
	for _, s := range strategies {
		if posts = s(pageHTML, authorHandle); len(posts) > 0 {
			break
		}
	}

	seen := make(map[string]bool)
	unique := posts[:0]
	for _, p := range posts {
		if seen[p.PostID] {
			continue
		}
		seen[p.PostID] = true
		unique = append(unique, p)
	}

	if maxLen > 0 && len(unique) > maxLen {
		unique = unique[:maxLen]
	}
	for i := range unique {
		unique[i].Position = i
	}
	return unique
}

// postsFromEmbeddedState locates the full-page-state JSON blob and searches
// it for post records, keeping only the thread author's posts.
func postsFromEmbeddedState(pageHTML, authorHandle string) []types.ParsedThreadPost {
	m := nextDataPattern.FindStringSubmatch(pageHTML)
	if m == nil {
		return nil
	}

	var root any
	if err := json.Unmarshal([]byte(m[1]), &root); err != nil {
		return nil
	}

	var posts []types.ParsedThreadPost
	findPostObjects(root, func(obj map[string]any) {
		if p, ok := parsePostObject(obj, authorHandle); ok {
			posts = append(posts, p)
		}
	})
	return posts
}

// postsFromInlineObjects regex-scans for inline post objects and parses
// each match independently; malformed fragments are skipped without
// aborting the scan.
func postsFromInlineObjects(pageHTML, authorHandle string) []types.ParsedThreadPost {
	var posts []types.ParsedThreadPost
	for _, m := range inlineTweetPattern.FindAllStringSubmatch(pageHTML, -1) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(m[1]), &obj); err != nil {
			continue
		}
		if p, ok := parsePostObject(obj, authorHandle); ok {
			posts = append(posts, p)
		}
	}
	return posts
}

// postsFromStatusLinks is the last resort: permalink IDs scraped straight
// from the markup, each paired with whatever text sits near it. Author
// defaults to the thread author; media and links stay empty.
func postsFromStatusLinks(pageHTML, authorHandle string) []types.ParsedThreadPost {
	var posts []types.ParsedThreadPost
	seen := make(map[string]bool)

	for _, m := range statusIDPattern.FindAllStringSubmatch(pageHTML, -1) {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true

		proximity, err := regexp.Compile(`(?i)"text"\s*:\s*"([^"]*)"[^}]*` + id)
		if err != nil {
			continue
		}
		cm := proximity.FindStringSubmatch(pageHTML)
		if cm == nil {
			continue
		}
		content := decodeUnicodeEscapes(cm[1])
		if content == "" {
			continue
		}

		posts = append(posts, types.ParsedThreadPost{
			PostID:       id,
			AuthorHandle: authorHandle,
			AuthorName:   authorHandle,
			Content:      content,
		})
	}
	return posts
}

// parsePostObject resolves a post record from either of X's two known
// nesting shapes. Posts by anyone other than the thread author are
// rejected; that filter is what separates thread continuations from other
// accounts' replies.
func parsePostObject(obj map[string]any, filterAuthor string) (types.ParsedThreadPost, bool) {
	postData, ok := obj["legacy"].(map[string]any)
	if !ok {
		postData = obj
	}

	userData, ok := nested(obj, "core", "user_results", "result", "legacy").(map[string]any)
	if !ok {
		userData, _ = nested(obj, "user", "legacy").(map[string]any)
	}

	postID := stringAt(postData, "id_str")
	if postID == "" {
		postID = stringAt(obj, "rest_id")
	}
	if postID == "" {
		return types.ParsedThreadPost{}, false
	}

	handle := ""
	if userData != nil {
		handle = stringAt(userData, "screen_name")
	}
	if !strings.EqualFold(handle, filterAuthor) {
		return types.ParsedThreadPost{}, false
	}

	content := stringAt(postData, "full_text")
	if content == "" {
		content = stringAt(postData, "text")
	}

	name := stringAt(userData, "name")
	if name == "" {
		name = handle
	}

	return types.ParsedThreadPost{
		PostID:          postID,
		AuthorHandle:    handle,
		AuthorName:      name,
		AuthorAvatarURL: stringAt(userData, "profile_image_url_https"),
		Content:         content,
		MediaURLs:       mediaFromEntities(postData),
		ExternalURLs:    urlsFromEntities(postData),
		CreatedAt:       stringAt(postData, "created_at"),
	}, true
}

// mediaFromEntities reads media URLs from the extended entities, falling
// back to the plain entities block.
func mediaFromEntities(postData map[string]any) []string {
	media, ok := nested(postData, "extended_entities", "media").([]any)
	if !ok {
		media, _ = nested(postData, "entities", "media").([]any)
	}

	var urls []string
	for _, entry := range media {
		if m, ok := entry.(map[string]any); ok {
			if u := stringAt(m, "media_url_https"); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

// urlsFromEntities reads expanded external links, skipping self-links back
// to the platform.
func urlsFromEntities(postData map[string]any) []string {
	entries, _ := nested(postData, "entities", "urls").([]any)

	var urls []string
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		u := stringAt(m, "expanded_url")
		if u == "" || strings.Contains(u, "twitter.com") || strings.Contains(u, "x.com") {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func decodeUnicodeEscapes(s string) string {
	return unicodeEscape.ReplaceAllStringFunc(s, func(m string) string {
		code, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(code))
	})
}
