// Package store persists bookmarks in a local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"xmarks/internal/types"
)

// Store handles all database operations.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bookmarks (
		local_id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL UNIQUE,
		author_handle TEXT NOT NULL,
		author_name TEXT,
		author_avatar_url TEXT,
		content TEXT NOT NULL,
		media_urls TEXT,
		external_urls TEXT,
		created_at TEXT,
		bookmarked_at TEXT NOT NULL,
		category TEXT NOT NULL,
		is_thread BOOLEAN NOT NULL DEFAULT 0,
		thread_id TEXT,
		thread_position INTEGER NOT NULL DEFAULT 0,
		sync_status TEXT NOT NULL,
		sync_error TEXT,
		is_article BOOLEAN NOT NULL DEFAULT 0,
		article_title TEXT,
		article_content TEXT,
		estimated_read_time INTEGER NOT NULL DEFAULT 0,
		article_fetch_status TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_sync_status ON bookmarks(sync_status);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_category ON bookmarks(category);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_bookmarked_at ON bookmarks(bookmarked_at);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_thread_id ON bookmarks(thread_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

const bookmarkColumns = `local_id, post_id, author_handle, author_name, author_avatar_url,
	content, media_urls, external_urls, created_at, bookmarked_at,
	category, is_thread, thread_id, thread_position,
	sync_status, sync_error,
	is_article, article_title, article_content, estimated_read_time, article_fetch_status`

// UpsertBookmarks writes the bookmarks in one transaction. Existing rows
// are updated in place; first capture wins for bookmarked_at. local_id is
// derived from post_id, so conflicting on it is conflicting on the post.
func (s *Store) UpsertBookmarks(bookmarks []types.LocalBookmark) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO bookmarks (` + bookmarkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET
			author_name = excluded.author_name,
			author_avatar_url = excluded.author_avatar_url,
			content = excluded.content,
			media_urls = excluded.media_urls,
			external_urls = excluded.external_urls,
			category = excluded.category,
			is_thread = excluded.is_thread,
			thread_id = excluded.thread_id,
			thread_position = excluded.thread_position,
			sync_status = excluded.sync_status,
			sync_error = excluded.sync_error,
			is_article = excluded.is_article,
			article_title = excluded.article_title,
			article_content = excluded.article_content,
			estimated_read_time = excluded.estimated_read_time,
			article_fetch_status = excluded.article_fetch_status
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bookmarks {
		mediaJSON, _ := json.Marshal(b.MediaURLs)
		externalJSON, _ := json.Marshal(b.ExternalURLs)

		if _, err := stmt.Exec(
			b.LocalID, b.PostID, b.AuthorHandle, b.AuthorName, b.AuthorAvatarURL,
			b.Content, string(mediaJSON), string(externalJSON), b.CreatedAt, b.BookmarkedAt,
			string(b.Category), b.IsThread, b.ThreadID, b.ThreadPosition,
			string(b.SyncStatus), b.SyncError,
			b.IsArticle, b.ArticleTitle, b.ArticleContent, b.EstimatedReadTime, string(b.ArticleFetchStatus),
		); err != nil {
			return fmt.Errorf("failed to upsert bookmark %s: %w", b.PostID, err)
		}
	}

	return tx.Commit()
}

// GetByPostID returns the bookmark for a post, or (nil, nil) when absent.
func (s *Store) GetByPostID(postID string) (*types.LocalBookmark, error) {
	row := s.db.QueryRow(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE post_id = ?`, postID)
	b, err := scanBookmark(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetAll returns every bookmark, newest capture first. Threads stay
// contiguous because members share the root's bookmarked_at.
func (s *Store) GetAll() ([]types.LocalBookmark, error) {
	rows, err := s.db.Query(`
		SELECT ` + bookmarkColumns + ` FROM bookmarks
		ORDER BY bookmarked_at DESC, thread_position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookmarks(rows)
}

// GetPending returns bookmarks not yet uploaded.
func (s *Store) GetPending() ([]types.LocalBookmark, error) {
	rows, err := s.db.Query(`
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE sync_status = ?
		ORDER BY bookmarked_at ASC
	`, string(types.SyncPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookmarks(rows)
}

// GetByCategory returns bookmarks in one category, newest first.
func (s *Store) GetByCategory(cat types.Category) ([]types.LocalBookmark, error) {
	rows, err := s.db.Query(`
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE category = ?
		ORDER BY bookmarked_at DESC
	`, string(cat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookmarks(rows)
}

// UpdateSyncStatus records one bookmark's upload outcome.
func (s *Store) UpdateSyncStatus(postID string, status types.SyncStatus, syncErr string) error {
	_, err := s.db.Exec(`
		UPDATE bookmarks SET sync_status = ?, sync_error = ? WHERE post_id = ?
	`, string(status), syncErr, postID)
	return err
}

// Delete removes one bookmark by post ID.
func (s *Store) Delete(postID string) error {
	_, err := s.db.Exec(`DELETE FROM bookmarks WHERE post_id = ?`, postID)
	return err
}

// Clear removes every bookmark.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM bookmarks`)
	return err
}

// Stats summarizes the local collection.
type Stats struct {
	Total      int
	ByCategory map[types.Category]int
	Pending    int
	Errors     int
}

// GetStats counts bookmarks overall, per category, and by sync trouble.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{ByCategory: make(map[types.Category]int)}

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM bookmarks GROUP BY category`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return stats, err
		}
		stats.ByCategory[types.Category(cat)] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bookmarks WHERE sync_status = ?`,
		string(types.SyncPending)).Scan(&stats.Pending); err != nil {
		return stats, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bookmarks WHERE sync_status = ?`,
		string(types.SyncError)).Scan(&stats.Errors); err != nil {
		return stats, err
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (types.LocalBookmark, error) {
	var b types.LocalBookmark
	var category, syncStatus, fetchStatus string
	var mediaJSON, externalJSON string

	err := row.Scan(
		&b.LocalID, &b.PostID, &b.AuthorHandle, &b.AuthorName, &b.AuthorAvatarURL,
		&b.Content, &mediaJSON, &externalJSON, &b.CreatedAt, &b.BookmarkedAt,
		&category, &b.IsThread, &b.ThreadID, &b.ThreadPosition,
		&syncStatus, &b.SyncError,
		&b.IsArticle, &b.ArticleTitle, &b.ArticleContent, &b.EstimatedReadTime, &fetchStatus,
	)
	if err != nil {
		return b, err
	}

	json.Unmarshal([]byte(mediaJSON), &b.MediaURLs)
	json.Unmarshal([]byte(externalJSON), &b.ExternalURLs)
	b.Category = types.Category(category)
	b.SyncStatus = types.SyncStatus(syncStatus)
	b.ArticleFetchStatus = types.ArticleFetchStatus(fetchStatus)
	return b, nil
}

func scanBookmarks(rows *sql.Rows) ([]types.LocalBookmark, error) {
	var bookmarks []types.LocalBookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}
