package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xmarks/internal/types"
)

func TestCategorize(t *testing.T) {
	t.Run("article wins over reply and media", func(t *testing.T) {
		p := types.ExtractedPost{
			IsArticle: true,
			IsReply:   true,
			MediaURLs: []string{"https://pbs.twimg.com/media/abc.jpg"},
		}
		assert.Equal(t, types.CategoryArticle, Categorize(p))
	})

	t.Run("reply wins over media", func(t *testing.T) {
		p := types.ExtractedPost{
			IsReply:   true,
			MediaURLs: []string{"https://pbs.twimg.com/media/abc.jpg"},
		}
		assert.Equal(t, types.CategoryThread, Categorize(p))
	})

	t.Run("media when only media present", func(t *testing.T) {
		p := types.ExtractedPost{MediaURLs: []string{"https://pbs.twimg.com/media/abc.jpg"}}
		assert.Equal(t, types.CategoryMedia, Categorize(p))
	})

	t.Run("plain text defaults to quick take", func(t *testing.T) {
		p := types.ExtractedPost{Content: "just a thought"}
		assert.Equal(t, types.CategoryQuickTake, Categorize(p))
	})

	t.Run("external links do not count as media", func(t *testing.T) {
		p := types.ExtractedPost{
			Content:      "read this",
			ExternalURLs: []string{"https://example.com/essay"},
		}
		assert.Equal(t, types.CategoryQuickTake, Categorize(p))
	})
}

func TestApply(t *testing.T) {
	cases := []struct {
		name    string
		current types.Category
		event   Event
		want    types.Category
	}{
		{"quick take joins thread", types.CategoryQuickTake, EventThreadMember, types.CategoryThread},
		{"media joins thread", types.CategoryMedia, EventThreadMember, types.CategoryThread},
		{"thread stays thread", types.CategoryThread, EventThreadMember, types.CategoryThread},
		{"article not demoted by thread membership", types.CategoryArticle, EventThreadMember, types.CategoryArticle},
		{"quick take becomes article on content fetch", types.CategoryQuickTake, EventArticleContent, types.CategoryArticle},
		{"thread becomes article on content fetch", types.CategoryThread, EventArticleContent, types.CategoryArticle},
		{"article stays article", types.CategoryArticle, EventArticleContent, types.CategoryArticle},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Apply(tc.current, tc.event))
		})
	}
}
