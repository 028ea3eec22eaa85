// Package auth manages the X.com session: interactive login, cookie
// persistence, and credential material for both browser and plain HTTP
// requests.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"xmarks/internal/config"
)

// sessionCookies are the credentials X requires; a session missing either
// is not usable.
var sessionCookies = []string{"auth_token", "ct0"}

// CookieStore handles storage of X.com session cookies.
type CookieStore struct {
	path string
}

// StoredCookies represents the persisted cookie data.
type StoredCookies struct {
	Cookies    []*network.Cookie `json:"cookies"`
	CapturedAt time.Time         `json:"captured_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// NewCookieStore creates a cookie store at the given path.
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// DefaultCookieStorePath returns the default path for cookie storage.
func DefaultCookieStorePath() (string, error) {
	configDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies.json"), nil
}

// Save persists cookies to disk.
// TODO: Encrypt cookies at rest
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	dir := filepath.Dir(cs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	// The session is only as fresh as its soonest-expiring credential.
	var earliestExpiry time.Time
	for _, c := range cookies {
		if !isSessionCookie(c.Name) {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
			earliestExpiry = exp
		}
	}

	stored := StoredCookies{
		Cookies:    cookies,
		CapturedAt: time.Now(),
		ExpiresAt:  earliestExpiry,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk.
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

// IsValid checks that stored cookies exist, carry every required session
// cookie, and have not expired.
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}

	if time.Now().After(stored.ExpiresAt) {
		return false
	}

	found := make(map[string]bool)
	for _, c := range stored.Cookies {
		if isSessionCookie(c.Name) {
			found[c.Name] = true
		}
	}
	for _, name := range sessionCookies {
		if !found[name] {
			return false
		}
	}
	return true
}

// Clear removes stored cookies.
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetXCookies returns only the x.com cookies, for browser injection.
func (cs *CookieStore) GetXCookies() ([]*network.Cookie, error) {
	stored, err := cs.Load()
	if err != nil {
		return nil, err
	}

	var xCookies []*network.Cookie
	for _, c := range stored.Cookies {
		if c.Domain == ".x.com" || c.Domain == "x.com" {
			xCookies = append(xCookies, c)
		}
	}

	return xCookies, nil
}

// Header renders the x.com cookies as a Cookie header value for plain
// HTTP requests. Empty when no session is stored.
func (cs *CookieStore) Header() string {
	cookies, err := cs.GetXCookies()
	if err != nil {
		return ""
	}

	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

func isSessionCookie(name string) bool {
	for _, n := range sessionCookies {
		if name == n {
			return true
		}
	}
	return false
}
