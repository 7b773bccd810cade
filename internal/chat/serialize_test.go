package chat

import (
	"testing"
)

func TestHistoryRoundTrip(t *testing.T) {
	c := New()
	c.AppendUser(UserMessage{Content: "summarize", DisplayText: "Summarize", IsQuickInput: true})
	branches := c.OpenAssistant([]string{"gpt-4o", "gemini-pro"})
	c.AppendChunk(branches[0].ID, "A summary.")
	c.FinishBranch(branches[0].ID)
	c.FailBranch(branches[1].ID, "timeout")

	messages := c.History()
	if len(messages) != 2 {
		t.Fatalf("History has %d messages, want 2", len(messages))
	}

	restored := FromHistory(messages)
	again := restored.History()
	if len(again) != len(messages) {
		t.Fatalf("Round-trip message count %d, want %d", len(again), len(messages))
	}
	for i := range messages {
		if again[i].Role != messages[i].Role || again[i].Content != messages[i].Content {
			t.Errorf("Message %d mismatch: %+v vs %+v", i, again[i], messages[i])
		}
	}

	orig := messages[1].Responses
	rt := again[1].Responses
	if len(rt) != len(orig) {
		t.Fatalf("Round-trip branch count %d, want %d", len(rt), len(orig))
	}
	for i := range orig {
		if rt[i].Status != orig[i].Status || rt[i].Content != orig[i].Content || rt[i].ErrorMessage != orig[i].ErrorMessage {
			t.Errorf("Branch %d mismatch: %+v vs %+v", i, rt[i], orig[i])
		}
	}
}

func TestHistory_SanitizesObjectArtifact(t *testing.T) {
	c := New()
	c.AppendUser(UserMessage{Content: "q"})
	branches := c.OpenAssistant([]string{"m"})
	c.AppendChunk(branches[0].ID, "[object Object]real text[object Object]")
	c.FinishBranch(branches[0].ID)

	messages := c.History()
	if got := messages[1].Responses[0].Content; got != "real text" {
		t.Errorf("Content = %q, want artifact stripped", got)
	}
}

func TestHistory_OmitsEmptyAssistantTurn(t *testing.T) {
	c := New()
	c.AppendUser(UserMessage{Content: "pending"})
	// Turn has a user message but no assistant fan-out yet.
	messages := c.History()
	if len(messages) != 1 || messages[0].Role != RoleUser {
		t.Errorf("History = %+v, want lone user message", messages)
	}
}

func TestHistory_LoadingBranchEmitsPartialBuffer(t *testing.T) {
	c := New()
	c.AppendUser(UserMessage{Content: "q"})
	branches := c.OpenAssistant([]string{"m"})
	c.AppendChunk(branches[0].ID, "partial")

	messages := c.History()
	resp := messages[1].Responses[0]
	if resp.Status != string(BranchLoading) || resp.Content != "partial" {
		t.Errorf("Loading branch stored as %+v", resp)
	}
}

func TestFromHistory_SkipsLegacyAssistantEntries(t *testing.T) {
	messages := []StoredMessage{
		{Role: RoleUser, Content: "old question"},
		{Role: RoleAssistant, Content: "flat answer without responses"},
		{Role: RoleUser, Content: "new question"},
		{Role: RoleAssistant, Responses: []StoredBranch{
			{BranchID: "b1", Model: "m", Content: "answer", Status: string(BranchDone)},
		}},
	}

	c := FromHistory(messages)
	// The legacy pair is dropped entirely; only the structured turn survives.
	if c.Len() != 1 {
		t.Fatalf("Conversation has %d turns, want 1", c.Len())
	}
	if got := c.Turns()[0].User.Content; got != "new question" {
		t.Errorf("Surviving turn user content = %q", got)
	}
}

func TestFromHistory_UnknownStatusBecomesError(t *testing.T) {
	messages := []StoredMessage{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Responses: []StoredBranch{
			{BranchID: "b1", Model: "m", Content: "x", Status: "streaming"},
		}},
	}
	c := FromHistory(messages)
	if got := c.Turns()[0].Branches[0].Status; got != BranchError {
		t.Errorf("Unknown stored status mapped to %s, want error", got)
	}
}

func TestMarshalHistory_RoundTrip(t *testing.T) {
	c := New()
	c.AppendUser(UserMessage{Content: "q", ImageBase64: "data:image/png;base64,AAAA"})
	branches := c.OpenAssistant([]string{"m"})
	c.AppendChunk(branches[0].ID, "a")
	c.FinishBranch(branches[0].ID)

	data, err := c.MarshalHistory()
	if err != nil {
		t.Fatalf("MarshalHistory: %v", err)
	}
	restored, err := UnmarshalHistory(data)
	if err != nil {
		t.Fatalf("UnmarshalHistory: %v", err)
	}
	if restored.Len() != 1 {
		t.Fatalf("Restored %d turns, want 1", restored.Len())
	}
	if got := restored.Turns()[0].User.ImageBase64; got != "data:image/png;base64,AAAA" {
		t.Errorf("ImageBase64 = %q", got)
	}
}

func TestLooksLikeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain prose", "Just a sentence about nothing in particular.", false},
		{"single signature", "Some text with `inline code` only.", false},
		{"headers and list", "# Title\n\n- first\n- second", true},
		{"fence and bold", "```go\nfmt.Println(1)\n```\nThis is **important**.", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeMarkdown(tt.text); got != tt.want {
				t.Errorf("LooksLikeMarkdown(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
