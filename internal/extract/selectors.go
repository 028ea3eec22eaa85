package extract

// X.com DOM selectors.
// These are isolated here because X changes their DOM frequently.
// Update these when scraping breaks.

const (
	// Timeline structure
	PrimaryColumn = `[data-testid="primaryColumn"]`
	PostArticle   = `article[data-testid="tweet"]`

	// Post content
	PostText      = `[data-testid="tweetText"]`
	PostTimestamp = `time`
	StatusLink    = `a[href*="/status/"]`
	AvatarImage   = `img[src*="profile_images"]`
	MediaImage    = `img[src*="pbs.twimg.com/media"]`
	PhotoBlock    = `[data-testid="tweetPhoto"]`
	ShortLink     = `a[href*="t.co"]`

	// Reply context
	SocialContext      = `[data-testid="socialContext"]`
	SocialContextReply = `[data-testid="socialContext"] a[href*="/status/"]`

	// Video markers
	VideoPlayer    = `[data-testid="videoPlayer"]`
	VideoComponent = `[data-testid="videoComponent"]`
	PlayButton     = `[data-testid="playButton"]`
	VideoAria      = `[aria-label*="Video"], [aria-label*="Play video"]`
	GIFVideo       = `video[aria-label*="GIF"], video[aria-label*="Animated"]`

	// Article detection
	DirectionalSpan = `span[dir="ltr"]`
	CardWrapper     = `[data-testid="card.wrapper"]`
	CardLayoutTitle = `[data-testid^="card.layout"]`

	// Truncation controls
	ShowMoreControl = `[data-testid="tweet-text-show-more-link"]`
)
