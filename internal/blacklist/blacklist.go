// Package blacklist decides which pages are off limits for extraction.
// Patterns live in a TOML file the user edits by hand; a page matching any
// pattern renders a restricted notice instead of being fetched.
package blacklist

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/logger"
)

// fileFormat is the TOML layout of the blacklist file:
//
//	patterns = [
//	  "*.bank.example/*",
//	  "https://mail.example/*",
//	]
type fileFormat struct {
	Patterns []string `toml:"patterns"`
}

// defaultPatterns cover pages extraction can never make sense of.
var defaultPatterns = []string{
	"chrome://*",
	"chrome-extension://*",
	"about:*",
}

// Blacklist matches page URLs against configured glob-style patterns.
// A pattern matches against the URL with its scheme stripped, so
// "mail.example/*" blocks both http and https.
type Blacklist struct {
	patterns []string
}

// DefaultPath returns the blacklist file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".thinkbot", "blacklist.toml")
}

// Load reads the blacklist file. A missing file yields just the built-in
// defaults; a malformed file is an error.
func Load(path string) (*Blacklist, error) {
	b := &Blacklist{patterns: append([]string(nil), defaultPatterns...)}
	if path == "" {
		return b, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, errors.E(errors.Op("blacklist.Load"), errors.KindIO, err)
	}

	var f fileFormat
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.E(errors.Op("blacklist.Load"), errors.KindInvalid, err)
	}
	b.patterns = append(b.patterns, f.Patterns...)
	logger.Debug("Blacklist: Loaded %d user patterns from %s", len(f.Patterns), path)
	return b, nil
}

// Patterns returns the active pattern list, defaults included.
func (b *Blacklist) Patterns() []string {
	return append([]string(nil), b.patterns...)
}

// Matches reports whether a URL is blacklisted.
func (b *Blacklist) Matches(pageURL string) bool {
	_, ok := b.Match(pageURL)
	return ok
}

// Match returns the first pattern matching the URL.
func (b *Blacklist) Match(pageURL string) (string, bool) {
	stripped := stripScheme(pageURL)
	for _, pattern := range b.patterns {
		if matchPattern(pattern, pageURL) || matchPattern(stripScheme(pattern), stripped) {
			logger.Debug("Blacklist: %s matched pattern %q", pageURL, pattern)
			return pattern, true
		}
	}
	return "", false
}

func stripScheme(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[i+len("://"):]
	}
	return u
}

// matchPattern does glob matching where '*' spans any run of characters,
// including '/'. Path-style globbing would make "mail.example/*" miss
// nested paths, which is never what a blacklist author wants.
func matchPattern(pattern, s string) bool {
	if pattern == "" {
		return false
	}
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}

	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(s, parts[i])
		if idx < 0 {
			return false
		}
		s = s[idx+len(parts[i]):]
	}

	last := parts[len(parts)-1]
	return last == "" || strings.HasSuffix(s, last)
}
