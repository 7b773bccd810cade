package storage

import (
	"path/filepath"
	"testing"

	"github.com/wookiisky/think-bot/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)

	key := ChatKey("https://example.com/a", "tab1")
	if err := s.Put(key, []byte("history")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "history" {
		t.Errorf("Get = %q", got)
	}

	// Overwrite replaces, not appends.
	if err := s.Put(key, []byte("v2")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _ = s.Get(key)
	if string(got) != "v2" {
		t.Errorf("Get after overwrite = %q", got)
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(key); !errors.Is(err, errors.KindNotFound) {
		t.Errorf("Get after delete = %v, want not-found", err)
	}

	// Deleting again is fine.
	if err := s.Delete(key); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestClearURL(t *testing.T) {
	s := openTestStore(t)

	url := "https://example.com/page"
	other := "https://example.com/other"
	s.Put(PageKey(url), []byte("content"))
	s.Put(ChatKey(url, ""), []byte("default chat"))
	s.Put(ChatKey(url, "summarize"), []byte("tab chat"))
	s.Put(LoadingKey(url, "summarize"), []byte("loading"))
	s.Put(PageKey(other), []byte("other content"))

	if err := s.ClearURL(url); err != nil {
		t.Fatalf("ClearURL: %v", err)
	}

	for _, key := range []string{PageKey(url), ChatKey(url, ""), ChatKey(url, "summarize"), LoadingKey(url, "summarize")} {
		if _, err := s.Get(key); !errors.Is(err, errors.KindNotFound) {
			t.Errorf("Key %s survived ClearURL", key)
		}
	}
	if _, err := s.Get(PageKey(other)); err != nil {
		t.Error("ClearURL should not touch other pages")
	}
}

func TestRecentURLs(t *testing.T) {
	s := openTestStore(t)

	urls := []string{"https://a.test", "https://b.test", "https://c.test"}
	for _, u := range urls {
		if err := s.TouchRecentURL(u, "title for "+u); err != nil {
			t.Fatalf("TouchRecentURL: %v", err)
		}
	}
	// Revisit the first so it moves to the top.
	if err := s.TouchRecentURL(urls[0], "revisited"); err != nil {
		t.Fatalf("TouchRecentURL revisit: %v", err)
	}

	recent, err := s.RecentURLs(10)
	if err != nil {
		t.Fatalf("RecentURLs: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("RecentURLs returned %d entries, want 3", len(recent))
	}
	if recent[0].URL != urls[0] || recent[0].Title != "revisited" {
		t.Errorf("Most recent = %+v, want revisited %s", recent[0], urls[0])
	}
}

func TestUsage(t *testing.T) {
	s := openTestStore(t)

	u, err := s.Usage()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.UsedBytes != 0 {
		t.Errorf("Empty store UsedBytes = %d", u.UsedBytes)
	}

	key := PageKey("https://example.com")
	value := []byte("0123456789")
	s.Put(key, value)

	u, err = s.Usage()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	want := int64(len(key) + len(value))
	if u.UsedBytes != want {
		t.Errorf("UsedBytes = %d, want %d", u.UsedBytes, want)
	}
	if u.QuotaBytes != SoftQuota {
		t.Errorf("QuotaBytes = %d, want %d", u.QuotaBytes, SoftQuota)
	}
	if u.Percent() <= 0 {
		t.Error("Percent should be positive after a write")
	}
}

func TestClearAll(t *testing.T) {
	s := openTestStore(t)

	s.Put(PageKey("https://x.test"), []byte("a"))
	s.TouchRecentURL("https://x.test", "x")

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	u, _ := s.Usage()
	if u.UsedBytes != 0 {
		t.Error("ClearAll should empty the kv table")
	}
	recent, _ := s.RecentURLs(10)
	if len(recent) != 0 {
		t.Error("ClearAll should empty the recent list")
	}
}
