// Package category assigns bookmark categories and owns the transitions
// applied when expansion discovers more about an existing bookmark.
package category

import "xmarks/internal/types"

// Categorize maps an extracted post's signals to a category. Precedence:
// article beats reply beats media beats the quick-take default.
func Categorize(p types.ExtractedPost) types.Category {
	switch {
	case p.IsArticle:
		return types.CategoryArticle
	case p.IsReply:
		return types.CategoryThread
	case len(p.MediaURLs) > 0:
		return types.CategoryMedia
	default:
		return types.CategoryQuickTake
	}
}

// Event is something the expansion pipeline learned about a bookmark after
// its initial categorization.
type Event string

const (
	// EventThreadMember fires when a bookmark turns out to belong to a
	// reconstructed thread.
	EventThreadMember Event = "thread_member"
	// EventArticleContent fires when long-form article content was fetched
	// for a bookmark.
	EventArticleContent Event = "article_content"
)

// transitions is the (category, event) -> category table. Absent entries
// keep the current category. Article is sticky: discovering thread
// membership never demotes an article, mirroring the precedence Categorize
// applies at extraction time.
var transitions = map[types.Category]map[Event]types.Category{
	types.CategoryQuickTake: {
		EventThreadMember:   types.CategoryThread,
		EventArticleContent: types.CategoryArticle,
	},
	types.CategoryMedia: {
		EventThreadMember:   types.CategoryThread,
		EventArticleContent: types.CategoryArticle,
	},
	types.CategoryThread: {
		EventArticleContent: types.CategoryArticle,
	},
}

// Apply returns the category a bookmark moves to when ev is discovered.
func Apply(current types.Category, ev Event) types.Category {
	if next, ok := transitions[current][ev]; ok {
		return next
	}
	return current
}
