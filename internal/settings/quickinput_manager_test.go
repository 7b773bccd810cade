package settings

import (
	"testing"

	"github.com/wookiisky/think-bot/internal/config"
)

func testInput(id, display string) config.QuickInput {
	return config.QuickInput{
		ID:           id,
		DisplayText:  display,
		SendText:     "send " + display,
		LastModified: 1000,
	}
}

func newInputManager(t *testing.T, inputs ...config.QuickInput) (*QuickInputManager, *[]ChangeKind) {
	t.Helper()

	cfg := config.Default()
	cfg.SetQuickInputs(inputs)

	changes := []ChangeKind{}
	mgr := NewQuickInputManager()
	mgr.Init(cfg, func(kind ChangeKind) {
		changes = append(changes, kind)
	})
	return mgr, &changes
}

func TestQuickInput_UpdateIdempotent(t *testing.T) {
	mgr, changes := newInputManager(t, testInput("q1", "Summarize"))

	edited, _ := mgr.Get("q1")
	edited.BranchModelIDs = []string{"m1", "m2"}

	if !mgr.Update(edited) {
		t.Fatal("First update should apply")
	}
	after, _ := mgr.Get("q1")
	stamp := after.LastModified

	if mgr.Update(edited) {
		t.Error("Second identical update should be a no-op")
	}
	again, _ := mgr.Get("q1")
	if again.LastModified != stamp {
		t.Error("LastModified should not move on an idempotent write")
	}
	if len(*changes) != 1 {
		t.Errorf("Callback fired %d times, want 1", len(*changes))
	}
}

func TestQuickInput_SoftDeleteLifecycle(t *testing.T) {
	mgr, _ := newInputManager(t, testInput("q1", "Summarize"), testInput("q2", "Explain"))

	if !mgr.Remove("q1") {
		t.Fatal("Remove should apply")
	}
	if len(mgr.All()) != 2 {
		t.Error("Soft-deleted input should remain in All()")
	}
	if len(mgr.Visible()) != 1 {
		t.Error("Soft-deleted input should be hidden from Visible()")
	}

	if got := mgr.CleanupDeleted(); got != 1 {
		t.Errorf("CleanupDeleted() = %d, want 1", got)
	}
	if len(mgr.All()) != 1 {
		t.Error("Cleanup should physically remove the deleted input")
	}
}

func TestQuickInput_AutoTriggered(t *testing.T) {
	auto := testInput("q1", "Auto")
	auto.AutoTrigger = true
	deleted := testInput("q2", "Dead")
	deleted.AutoTrigger = true
	deleted.IsDeleted = true

	mgr, _ := newInputManager(t, auto, deleted, testInput("q3", "Manual"))

	got := mgr.AutoTriggered()
	if len(got) != 1 || got[0].ID != "q1" {
		t.Errorf("AutoTriggered() = %+v, want only q1", got)
	}
}

func TestQuickInput_AllowsModel(t *testing.T) {
	open := config.QuickInput{ID: "q1"}
	if !open.AllowsModel("anything") {
		t.Error("Empty restriction list should allow every model")
	}

	restricted := config.QuickInput{ID: "q2", BranchModelIDs: []string{"m1"}}
	if !restricted.AllowsModel("m1") || restricted.AllowsModel("m2") {
		t.Error("Restriction list should gate fan-out models")
	}
}

func TestQuickInput_Reorder(t *testing.T) {
	mgr, changes := newInputManager(t,
		testInput("q1", "A"), testInput("q2", "B"))

	if !mgr.Reorder(1, 0) {
		t.Fatal("Reorder should apply")
	}
	visible := mgr.Visible()
	if visible[0].ID != "q2" {
		t.Errorf("First visible = %s, want q2", visible[0].ID)
	}
	if len(*changes) != 1 || (*changes)[0] != ChangeOrder {
		t.Errorf("Reorder should fire one ChangeOrder callback, got %v", *changes)
	}
}
