package llm

import (
	"context"
	"sync"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/logger"
)

// chunkBuffer sizes per-branch channels so a fast provider does not block on
// a slow consumer during bursts.
const chunkBuffer = 100

// Engine runs streaming requests, one worker goroutine per branch. Branches
// are independent: cancelling or failing one never affects its siblings.
type Engine struct {
	mu       sync.Mutex
	inflight map[string]context.CancelFunc
	client   StreamClient
}

// NewEngine creates an engine backed by the given client. Pass
// NewHTTPClient() in production; tests substitute a fake.
func NewEngine(client StreamClient) *Engine {
	return &Engine{
		inflight: make(map[string]context.CancelFunc),
		client:   client,
	}
}

// Send starts a streaming request for branchID and returns its chunk channel.
// The channel is closed after the final Done chunk. A second Send for a
// branch that is still streaming is rejected with an error chunk.
func (e *Engine) Send(ctx context.Context, branchID string, model config.Model, messages []Message, systemPrompt string) <-chan StreamChunk {
	ch := make(chan StreamChunk, chunkBuffer)

	e.mu.Lock()
	if _, exists := e.inflight[branchID]; exists {
		e.mu.Unlock()
		logger.Warn("LLM: Branch %s already streaming, rejecting duplicate send", branchID)
		ch <- StreamChunk{BranchID: branchID, Done: true,
			Err: errors.E(errors.Op("llm.Send"), errors.KindInvalid, "branch is already streaming")}
		close(ch)
		return ch
	}
	streamCtx, cancel := context.WithCancel(ctx)
	e.inflight[branchID] = cancel
	e.mu.Unlock()

	log := logger.WithBranch(branchID)
	log.Debug("Starting stream", "model", model.Name, "provider", model.Provider)

	go func() {
		defer close(ch)
		defer func() {
			e.mu.Lock()
			delete(e.inflight, branchID)
			e.mu.Unlock()
			cancel()
		}()

		err := e.client.Stream(streamCtx, model, messages, systemPrompt, func(text string) error {
			select {
			case ch <- StreamChunk{BranchID: branchID, Content: text}:
				return nil
			case <-streamCtx.Done():
				return streamCtx.Err()
			}
		})

		// The final send must not block forever if the consumer walked
		// away with the buffer full; cancellation unblocks it.
		finish := func(chunk StreamChunk) {
			select {
			case ch <- chunk:
			case <-streamCtx.Done():
			}
		}

		if streamCtx.Err() == context.Canceled {
			// The branch was stopped from the UI; it is already gone from the
			// conversation, so report a clean end rather than an error. The
			// send is best-effort; channel close also signals the end.
			log.Debug("Stream cancelled")
			select {
			case ch <- StreamChunk{BranchID: branchID, Done: true}:
			default:
			}
			return
		}
		if err != nil {
			log.Error("Stream failed", "err", err)
			finish(StreamChunk{BranchID: branchID, Done: true, Err: errors.BranchRequestFailed(branchID, err)})
			return
		}
		log.Debug("Stream complete")
		finish(StreamChunk{BranchID: branchID, Done: true})
	}()

	return ch
}

// Cancel stops the in-flight request for a branch. Returns false when the
// branch is not streaming (already finished or never started).
func (e *Engine) Cancel(branchID string) bool {
	e.mu.Lock()
	cancel, ok := e.inflight[branchID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// CancelAll stops every in-flight request. Used on shutdown and on Clear.
func (e *Engine) CancelAll() {
	e.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(e.inflight))
	for _, cancel := range e.inflight {
		cancels = append(cancels, cancel)
	}
	e.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// IsStreaming reports whether a branch has an in-flight request.
func (e *Engine) IsStreaming(branchID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inflight[branchID]
	return ok
}

// ActiveCount returns the number of in-flight requests.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inflight)
}
