package extract

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wookiisky/think-bot/internal/errors"
)

// fakeExtractor returns scripted results per call.
type fakeExtractor struct {
	name    string
	results []fakeResult
	calls   int
}

type fakeResult struct {
	content string
	err     error
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.content, r.err
}

// fastPolicy removes all waiting so tests run instantly.
func fastPolicy(attempts int) Policy {
	return Policy{
		Attempts: attempts,
		Backoff:  func(int) time.Duration { return 0 },
		Settle:   0,
	}
}

func contentFailure() error {
	return errors.ExtractFailed(MethodReadability, "https://x.test", fmt.Errorf("no readable content found"))
}

func disconnection() error {
	return errors.ExtractFailed(MethodReadability, "https://x.test", fmt.Errorf("read: connection reset by peer"))
}

func TestLoadWithRetry_SucceedsFirstTry(t *testing.T) {
	primary := &fakeExtractor{name: MethodReadability, results: []fakeResult{{content: "text"}}}

	res, err := LoadWithRetry(context.Background(), fastPolicy(3), primary, nil, "https://x.test")
	if err != nil {
		t.Fatalf("LoadWithRetry: %v", err)
	}
	if res.Content != "text" || res.Method != MethodReadability {
		t.Errorf("Result = %+v", res)
	}
	if primary.calls != 1 {
		t.Errorf("Primary called %d times, want 1", primary.calls)
	}
}

func TestLoadWithRetry_FallsBackOnceAndStays(t *testing.T) {
	primary := &fakeExtractor{name: MethodReadability, results: []fakeResult{
		{err: contentFailure()},
	}}
	fallback := &fakeExtractor{name: MethodJina, results: []fakeResult{
		{err: errors.ExtractFailed(MethodJina, "https://x.test", fmt.Errorf("status 500"))},
		{content: "jina markdown"},
	}}

	res, err := LoadWithRetry(context.Background(), fastPolicy(3), primary, fallback, "https://x.test")
	if err != nil {
		t.Fatalf("LoadWithRetry: %v", err)
	}
	if res.Method != MethodJina || res.Content != "jina markdown" {
		t.Errorf("Result = %+v", res)
	}
	// The fallback is one-shot: after switching, failures stay on jina
	// rather than bouncing back to readability.
	if primary.calls != 1 {
		t.Errorf("Primary called %d times, want 1", primary.calls)
	}
	if fallback.calls != 2 {
		t.Errorf("Fallback called %d times, want 2", fallback.calls)
	}
}

func TestLoadWithRetry_ExhaustsAttempts(t *testing.T) {
	primary := &fakeExtractor{name: MethodReadability, results: []fakeResult{
		{err: errors.ExtractFailed(MethodReadability, "https://x.test", fmt.Errorf("status 500"))},
	}}

	_, err := LoadWithRetry(context.Background(), fastPolicy(3), primary, nil, "https://x.test")
	if err == nil {
		t.Fatal("Expected failure after retries exhausted")
	}
	if primary.calls != 3 {
		t.Errorf("Primary called %d times, want 3", primary.calls)
	}
}

func TestLoadWithRetry_RestrictedFailsImmediately(t *testing.T) {
	primary := &fakeExtractor{name: MethodReadability, results: []fakeResult{
		{err: errors.PageRestricted("chrome://settings")},
	}}
	fallback := &fakeExtractor{name: MethodJina, results: []fakeResult{{content: "never"}}}

	_, err := LoadWithRetry(context.Background(), fastPolicy(3), primary, fallback, "chrome://settings")
	if !errors.Is(err, errors.KindPermission) {
		t.Fatalf("Error = %v, want permission kind", err)
	}
	if primary.calls != 1 || fallback.calls != 0 {
		t.Errorf("Calls = %d/%d, restricted pages should not retry or fall back", primary.calls, fallback.calls)
	}
}

func TestLoadWithRetry_DisconnectionRetriesWithoutFallback(t *testing.T) {
	primary := &fakeExtractor{name: MethodReadability, results: []fakeResult{
		{err: disconnection()},
		{content: "after settle"},
	}}
	fallback := &fakeExtractor{name: MethodJina, results: []fakeResult{{content: "never"}}}

	res, err := LoadWithRetry(context.Background(), fastPolicy(3), primary, fallback, "https://x.test")
	if err != nil {
		t.Fatalf("LoadWithRetry: %v", err)
	}
	if res.Method != MethodReadability {
		t.Errorf("Method = %s, disconnection should not trigger the fallback", res.Method)
	}
	if fallback.calls != 0 {
		t.Error("Fallback should be untouched after a disconnection retry")
	}
}

func TestLoadWithRetry_CancelledContext(t *testing.T) {
	primary := &fakeExtractor{name: MethodReadability, results: []fakeResult{
		{err: errors.ExtractFailed(MethodReadability, "https://x.test", fmt.Errorf("status 500"))},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadWithRetry(ctx, fastPolicy(3), primary, nil, "https://x.test")
	if err == nil {
		t.Fatal("Expected error")
	}
	if primary.calls != 1 {
		t.Errorf("Primary called %d times after cancellation, want 1", primary.calls)
	}
}
