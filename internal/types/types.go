// Package types holds the shared data model for the bookmark pipeline.
package types

// Category classifies a bookmark by the kind of content it holds.
type Category string

const (
	CategoryQuickTake Category = "quick_take"
	CategoryThread    Category = "thread"
	CategoryArticle   Category = "article"
	CategoryMedia     Category = "media"
)

// SyncStatus tracks whether a bookmark has been uploaded to the cloud backend.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// ArticleFetchStatus tracks the state of long-form content retrieval for a
// bookmark detected as an X Article.
type ArticleFetchStatus string

const (
	ArticleFetchPending ArticleFetchStatus = "pending"
	ArticleFetched      ArticleFetchStatus = "fetched"
	ArticleFetchFailed  ArticleFetchStatus = "error"
)

// ExtractedPost is one post parsed out of the rendered bookmarks timeline.
// CreatedAt is the post's own timestamp in ISO-8601, empty when the markup
// carried none.
type ExtractedPost struct {
	PostID          string   `json:"post_id"`
	AuthorHandle    string   `json:"author_handle"`
	AuthorName      string   `json:"author_name"`
	AuthorAvatarURL string   `json:"author_avatar_url"`
	Content         string   `json:"content"`
	MediaURLs       []string `json:"media_urls"`
	ExternalURLs    []string `json:"external_urls"`
	CreatedAt       string   `json:"created_at"`
	IsReply         bool     `json:"is_reply"`
	ReplyToPostID   string   `json:"reply_to_post_id"`
	HasVideo        bool     `json:"has_video"`
	IsArticle       bool     `json:"is_article"`
	ArticleTitle    string   `json:"article_title"`
}

// ParsedThreadPost is one same-author post recovered from a thread detail
// page. Position is the 0-based index within the reconstructed thread,
// assigned after dedup and truncation.
type ParsedThreadPost struct {
	PostID          string   `json:"post_id"`
	AuthorHandle    string   `json:"author_handle"`
	AuthorName      string   `json:"author_name"`
	AuthorAvatarURL string   `json:"author_avatar_url"`
	Content         string   `json:"content"`
	MediaURLs       []string `json:"media_urls"`
	ExternalURLs    []string `json:"external_urls"`
	CreatedAt       string   `json:"created_at"`
	Position        int      `json:"position"`
}

// ThreadFetchResult is the outcome of reconstructing one thread. Error is
// set (and Posts empty) when the fetch or every parse strategy failed; a
// per-thread failure never surfaces as a Go error past the batch boundary.
type ThreadFetchResult struct {
	OriginalPostID string             `json:"original_post_id"`
	Posts          []ParsedThreadPost `json:"posts"`
	Error          string             `json:"error,omitempty"`
}

// ArticleFetchResult is the outcome of fetching long-form article content.
// EstimatedReadTime is minutes, 0 when no content was recovered.
type ArticleFetchResult struct {
	Content           string `json:"content"`
	Title             string `json:"title"`
	EstimatedReadTime int    `json:"estimated_read_time"`
	Error             string `json:"error,omitempty"`
}

// LocalBookmark is the persisted unit: an extracted post plus capture,
// categorization, thread, article, and sync state. Identity is PostID;
// LocalID is derived from it and serves as the storage key.
type LocalBookmark struct {
	LocalID         string   `json:"local_id"`
	PostID          string   `json:"post_id"`
	AuthorHandle    string   `json:"author_handle"`
	AuthorName      string   `json:"author_name"`
	AuthorAvatarURL string   `json:"author_avatar_url"`
	Content         string   `json:"content"`
	MediaURLs       []string `json:"media_urls"`
	ExternalURLs    []string `json:"external_urls"`
	CreatedAt       string   `json:"created_at"`

	BookmarkedAt   string   `json:"bookmarked_at"`
	Category       Category `json:"category"`
	IsThread       bool     `json:"is_thread"`
	ThreadID       string   `json:"thread_id,omitempty"`
	ThreadPosition int      `json:"thread_position"`

	SyncStatus SyncStatus `json:"sync_status"`
	SyncError  string     `json:"sync_error,omitempty"`

	IsArticle          bool               `json:"is_article"`
	ArticleTitle       string             `json:"article_title,omitempty"`
	ArticleContent     string             `json:"article_content,omitempty"`
	EstimatedReadTime  int                `json:"estimated_read_time,omitempty"`
	ArticleFetchStatus ArticleFetchStatus `json:"article_fetch_status,omitempty"`
}

// LocalID derives the stable storage identity for a post.
func LocalID(postID string) string {
	return "local_" + postID
}

// SyncReport summarizes one cloud sync call.
type SyncReport struct {
	Synced int         `json:"synced"`
	Errors []SyncIssue `json:"errors"`
}

// SyncIssue is a per-post upload failure reported by the backend.
type SyncIssue struct {
	PostID string `json:"post_id"`
	Error  string `json:"error"`
}
