package chat

import (
	"testing"
)

func fannedOutConversation(t *testing.T, models ...string) (*Conversation, []Branch) {
	t.Helper()

	c := New()
	c.AppendUser(UserMessage{Content: "what is this page about?"})
	branches := c.OpenAssistant(models)
	if len(branches) != len(models) {
		t.Fatalf("OpenAssistant created %d branches, want %d", len(branches), len(models))
	}
	return c, branches
}

func TestOpenAssistant_FanOut(t *testing.T) {
	c, branches := fannedOutConversation(t, "gpt-4o", "gemini-pro")

	for _, b := range branches {
		if b.Status != BranchLoading {
			t.Errorf("New branch status = %s, want loading", b.Status)
		}
		if b.ID == "" {
			t.Error("Branch should get a generated ID")
		}
	}
	if c.Len() != 1 {
		t.Errorf("Conversation has %d turns, want 1", c.Len())
	}
	if !c.HasLoadingBranches() {
		t.Error("Conversation should report loading branches")
	}
}

func TestOpenAssistant_Guards(t *testing.T) {
	c := New()
	if got := c.OpenAssistant([]string{"m"}); got != nil {
		t.Error("OpenAssistant on empty conversation should be a no-op")
	}

	c.AppendUser(UserMessage{Content: "hi"})
	c.OpenAssistant([]string{"m"})
	if got := c.OpenAssistant([]string{"m"}); got != nil {
		t.Error("OpenAssistant on an opened turn should be a no-op")
	}
}

func TestAppendChunk_StreamLifecycle(t *testing.T) {
	c, branches := fannedOutConversation(t, "gpt-4o")
	id := branches[0].ID

	if !c.AppendChunk(id, "Hello") || !c.AppendChunk(id, ", world") {
		t.Fatal("Chunks for a loading branch should be accepted")
	}

	if !c.FinishBranch(id) {
		t.Fatal("FinishBranch should succeed for a loading branch")
	}

	b, _ := c.FindBranch(id)
	if b.Content != "Hello, world" {
		t.Errorf("Content = %q", b.Content)
	}
	if b.Status != BranchDone {
		t.Errorf("Status = %s, want done", b.Status)
	}

	// Late chunk after completion must be dropped, not appended.
	if c.AppendChunk(id, "ghost") {
		t.Error("Chunk for a settled branch should be dropped")
	}
	b, _ = c.FindBranch(id)
	if b.Content != "Hello, world" {
		t.Error("Settled branch content should be unchanged by late chunks")
	}
}

func TestAppendChunk_UnknownBranchDropped(t *testing.T) {
	c, _ := fannedOutConversation(t, "gpt-4o")

	// A chunk for a deleted/unknown branch id must be ignored. This covers
	// the optimistic stop-delete: the worker may still emit after removal.
	if c.AppendChunk("no-such-branch", "late data") {
		t.Error("Chunk for unknown branch should be dropped")
	}
}

func TestFailBranch(t *testing.T) {
	c, branches := fannedOutConversation(t, "gpt-4o")
	id := branches[0].ID

	if !c.FailBranch(id, "rate limited") {
		t.Fatal("FailBranch should succeed for a loading branch")
	}
	b, _ := c.FindBranch(id)
	if b.Status != BranchError || b.ErrorMessage != "rate limited" {
		t.Errorf("Branch = %+v, want error status with message", b)
	}

	// Failing again is a no-op.
	if c.FailBranch(id, "other") {
		t.Error("FailBranch on a settled branch should be a no-op")
	}
}

func TestDeleteBranch_KeepsTurnWhileOthersRemain(t *testing.T) {
	c, branches := fannedOutConversation(t, "gpt-4o", "gemini-pro")

	deleted, turnRemoved := c.DeleteBranch(branches[0].ID)
	if !deleted || turnRemoved {
		t.Fatalf("DeleteBranch = (%v,%v), want (true,false)", deleted, turnRemoved)
	}
	if c.Len() != 1 {
		t.Error("Turn should survive while a branch remains")
	}
	if len(c.Turns()[0].Branches) != 1 {
		t.Error("One branch should remain")
	}
}

func TestDeleteBranch_ZeroBranchInvariant(t *testing.T) {
	c, branches := fannedOutConversation(t, "gpt-4o")

	deleted, turnRemoved := c.DeleteBranch(branches[0].ID)
	if !deleted || !turnRemoved {
		t.Fatalf("DeleteBranch = (%v,%v), want (true,true)", deleted, turnRemoved)
	}

	// The user message goes with the turn; the re-derived history must
	// contain no dangling entries.
	if c.Len() != 0 {
		t.Error("Turn (including user message) should be removed with its last branch")
	}
	if len(c.History()) != 0 {
		t.Error("History after zero-branch removal should be empty")
	}
}

func TestDeleteBranch_Unknown(t *testing.T) {
	c, _ := fannedOutConversation(t, "gpt-4o")
	if deleted, _ := c.DeleteBranch("missing"); deleted {
		t.Error("Deleting an unknown branch should report false")
	}
}

func TestAddBranch_ReBranch(t *testing.T) {
	c, branches := fannedOutConversation(t, "gpt-4o")
	c.FinishBranch(branches[0].ID)

	created := c.AddBranch(branches[0].ID, "gemini-pro")
	if created == nil {
		t.Fatal("AddBranch should succeed next to an existing branch")
	}
	if created.Status != BranchLoading {
		t.Error("Re-branched response should start loading")
	}
	if len(c.Turns()[0].Branches) != 2 {
		t.Error("Turn should now carry two branches")
	}

	if c.AddBranch("missing", "m") != nil {
		t.Error("AddBranch next to an unknown branch should fail")
	}
}
