package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestTracker_DuplicateLoadGuard(t *testing.T) {
	tr := NewTracker()

	if !tr.Begin("https://x.test", "") {
		t.Fatal("First Begin should succeed")
	}
	if tr.Begin("https://x.test", "") {
		t.Error("Begin while loading should be rejected")
	}
	// A different tab on the same page loads independently.
	if !tr.Begin("https://x.test", "summarize") {
		t.Error("Begin for another tab should succeed")
	}

	tr.Finish("https://x.test", "")
	if tr.State("https://x.test", "") != StateLoaded {
		t.Error("Finish should transition to loaded")
	}
	if !tr.Begin("https://x.test", "") {
		t.Error("Begin after Finish should succeed (re-extract)")
	}
}

func TestTracker_FailAndRestrict(t *testing.T) {
	tr := NewTracker()
	tr.Begin("https://x.test", "")
	tr.Fail("https://x.test", "", "server said no")

	if tr.State("https://x.test", "") != StateError {
		t.Error("Fail should transition to error")
	}
	if tr.ErrorMessage("https://x.test", "") != "server said no" {
		t.Error("Error message should be recorded")
	}

	tr.Restrict("chrome://settings", "")
	if tr.State("chrome://settings", "") != StateRestricted {
		t.Error("Restrict should transition to restricted")
	}
}

func TestTracker_WaitingForReload(t *testing.T) {
	tr := NewTracker()
	tr.SetWaitingForReload("https://x.test", "", true)
	if !tr.WaitingForReload("https://x.test", "") {
		t.Fatal("Reload flag should be set")
	}
	// Begin clears the flag: the reload happened.
	tr.Begin("https://x.test", "")
	if tr.WaitingForReload("https://x.test", "") {
		t.Error("Begin should clear the reload flag")
	}
}

func TestTracker_RestoreTimeoutRendersOnce(t *testing.T) {
	tr := NewTracker()
	cached := CachedState{Status: CachedStatusTimeout, Timestamp: 123}

	if !tr.Restore("https://x.test", "", cached) {
		t.Fatal("First timeout restore should render")
	}
	if tr.State("https://x.test", "") != StateError {
		t.Error("Timeout restores as an error state")
	}
	if tr.Restore("https://x.test", "", cached) {
		t.Error("Second timeout restore should be suppressed")
	}

	// Loading markers restore every time.
	if !tr.Restore("https://y.test", "", CachedState{Status: CachedStatusLoading}) {
		t.Error("Loading restore should render")
	}
	if tr.State("https://y.test", "") != StateLoading {
		t.Error("Loading marker restores as loading")
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Begin("https://x.test", "")
	tr.Begin("https://x.test", "tab")
	tr.Begin("https://y.test", "")

	tr.Reset("https://x.test")
	if tr.State("https://x.test", "") != StateIdle || tr.State("https://x.test", "tab") != StateIdle {
		t.Error("Reset should clear all tabs of the page")
	}
	if tr.State("https://y.test", "") != StateLoading {
		t.Error("Reset should not touch other pages")
	}
}

func TestCachedStateRoundTrip(t *testing.T) {
	s := CachedState{Status: CachedStatusLoading, Method: MethodJina, Timestamp: 42}
	got := DecodeCachedState(EncodeCachedState(s))
	if got != s {
		t.Errorf("Round trip = %+v, want %+v", got, s)
	}

	if got := DecodeCachedState([]byte("garbage")); got.Status != "" {
		t.Errorf("Garbage decodes to %+v, want zero value", got)
	}
}

func TestExtractReadable(t *testing.T) {
	page := `<html><head><title>The Title</title></head><body>
<nav>skip this nav</nav>
<article>
<h2>Section</h2>
<p>First paragraph of the article body with enough words to matter.</p>
<ul><li>item one</li><li>item two</li></ul>
<script>ignore();</script>
</article>
<footer>skip this footer</footer>
</body></html>`

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	content := extractReadable(doc)

	if !strings.HasPrefix(content, "# The Title") {
		t.Errorf("Content should start with the title heading, got %q", content)
	}
	for _, want := range []string{"## Section", "First paragraph", "- item one"} {
		if !strings.Contains(content, want) {
			t.Errorf("Content missing %q:\n%s", want, content)
		}
	}
	for _, skip := range []string{"skip this nav", "skip this footer", "ignore()"} {
		if strings.Contains(content, skip) {
			t.Errorf("Content should not contain %q", skip)
		}
	}
}

func TestIsRestrictedURL(t *testing.T) {
	restricted := []string{"chrome://settings", "about:blank", "file:///etc/hosts", "ftp://x.test"}
	for _, u := range restricted {
		if !isRestrictedURL(u) {
			t.Errorf("%s should be restricted", u)
		}
	}
	for _, u := range []string{"https://x.test", "http://x.test/page"} {
		if isRestrictedURL(u) {
			t.Errorf("%s should be extractable", u)
		}
	}
}
