// Package article fetches and extracts long-form X Article content from a
// post's detail page.
package article

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"xmarks/internal/extract"
)

const (
	// wordsPerMinute is the reading speed behind the read-time estimate.
	wordsPerMinute = 200

	// minMainContent is the length below which the longest text block is
	// not trusted as the article body.
	minMainContent = 50
	// minAssembledContent is the length below which assembled paragraphs
	// trigger the last-resort column scan.
	minAssembledContent = 100
	// maxFallbackLines bounds the column scan to keep UI noise out.
	maxFallbackLines = 20
)

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Extract pulls the article body and title out of a rendered detail page.
// The long-form content empirically renders as the longest text block on
// the page; when that is absent the extraction degrades through paragraph
// assembly and finally a raw column scan.
func Extract(doc *goquery.Document) (content, title string) {
	mainPost := doc.Find(extract.PostArticle).First()
	if mainPost.Length() == 0 {
		return "", ""
	}

	title = cardTitle(mainPost)
	content = longestTextBlock(doc)

	if len(content) < minMainContent {
		if assembled := assembleParagraphs(doc); assembled != "" {
			content = assembled
		}
	}

	if len(content) < minAssembledContent {
		if scanned := scanColumnText(doc); scanned != "" {
			content = scanned
		}
	}

	content = strings.TrimSpace(multiNewline.ReplaceAllString(content, "\n\n"))
	return content, title
}

// cardTitle reads the article title from the link-preview card: the
// card-layout title element, else a plausible directional span.
func cardTitle(mainPost *goquery.Selection) string {
	card := mainPost.Find(extract.CardWrapper)
	if card.Length() == 0 {
		return ""
	}

	if title := strings.TrimSpace(card.Find(extract.CardLayoutTitle).First().Text()); title != "" {
		return title
	}

	title := ""
	card.Find(extract.DirectionalSpan).EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if len(text) > 10 && len(text) < 200 {
			title = text
			return false
		}
		return true
	})
	return title
}

// longestTextBlock returns the longest post-text block on the page.
func longestTextBlock(doc *goquery.Document) string {
	longest := ""
	doc.Find(extract.PostText).Each(func(_ int, el *goquery.Selection) {
		if text := strings.TrimSpace(el.Text()); len(text) > len(longest) {
			longest = text
		}
	})
	return longest
}

// assembleParagraphs collects paragraph-like rich text, filtering short
// strings, UI boilerplate, and handle-prefixed lines.
func assembleParagraphs(doc *goquery.Document) string {
	var paragraphs []string
	seen := make(map[string]bool)

	doc.Find(`[dir="auto"] > span, p[dir="auto"]`).Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if len(text) <= 50 ||
			strings.Contains(text, "keyboard shortcuts") ||
			strings.HasPrefix(text, "@") ||
			seen[text] {
			return
		}
		seen[text] = true
		paragraphs = append(paragraphs, text)
	})

	return strings.Join(paragraphs, "\n\n")
}

// scanColumnText is the last resort: all text under the main content
// column, line-split, with UI chrome filtered and a bounded line count.
func scanColumnText(doc *goquery.Document) string {
	column := doc.Find(extract.PrimaryColumn)
	if column.Length() == 0 {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(column.Text(), "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 50 || strings.Contains(line, "keyboard") || strings.HasPrefix(line, "©") {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxFallbackLines {
			break
		}
	}

	return strings.Join(lines, "\n\n")
}

// ReadTime estimates reading minutes from a whitespace-split word count.
// Returns 0 for empty content.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
