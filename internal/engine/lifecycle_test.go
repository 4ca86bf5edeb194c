package engine

import (
	"errors"
	"testing"

	"github.com/ovasilenko/synchro/internal/errs"
)

func TestCreateQuest_NormalizesPrefix(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q0")

	quest, err := eng.CreateQuest("reforest", "u1")
	if err != nil {
		t.Fatalf("CreateQuest failed: %v", err)
	}
	if quest.ID != "quest_reforest" {
		t.Errorf("Expected quest_reforest, got %q", quest.ID)
	}
	if quest.CreatorID != "u1" {
		t.Errorf("Expected creator u1, got %q", quest.CreatorID)
	}
	if quest.Held() {
		t.Error("New quest must have no holder")
	}

	// Already-prefixed ids pass through unchanged.
	quest2, err := eng.CreateQuest("quest_clean_water", "u1")
	if err != nil {
		t.Fatalf("CreateQuest failed: %v", err)
	}
	if quest2.ID != "quest_clean_water" {
		t.Errorf("Expected quest_clean_water, got %q", quest2.ID)
	}
}

func TestCreateQuest_RejectsDuplicate(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q0")

	if _, err := eng.CreateQuest("reforest", "u1"); err != nil {
		t.Fatalf("CreateQuest failed: %v", err)
	}
	// The raw and prefixed spellings collide after normalization.
	_, err := eng.CreateQuest("quest_reforest", "u1")
	if !errors.Is(err, errs.ErrPreconditionFailed) {
		t.Errorf("Expected ErrPreconditionFailed, got %v", err)
	}
}

func TestCreateQuest_RejectsUnknownCreator(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)

	_, err := eng.CreateQuest("reforest", "ghost")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, ok := eng.Quest("quest_reforest"); ok {
		t.Error("Failed create must not leave a quest behind")
	}
}

func TestCreateQuest_RejectsEmptyID(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q0")

	if _, err := eng.CreateQuest("   ", "u1"); !errors.Is(err, errs.ErrPreconditionFailed) {
		t.Errorf("Expected ErrPreconditionFailed, got %v", err)
	}
}

func TestArchive_RoundTrip(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")

	if err := eng.Archive("u1", "q1"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	u, _ := eng.User("u1")
	if !u.HasArchived("q1") {
		t.Error("Expected q1 archived for u1")
	}

	if err := eng.Unarchive("u1", "q1"); err != nil {
		t.Fatalf("Unarchive failed: %v", err)
	}
	u, _ = eng.User("u1")
	if u.HasArchived("q1") {
		t.Error("Expected archived set restored to its prior state")
	}
	if len(u.ArchivedQuestIDs) != 0 {
		t.Errorf("Expected empty archived set, got %d entries", len(u.ArchivedQuestIDs))
	}
}

func TestArchive_IsPerUser(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u2", "q1")

	if err := eng.Archive("u1", "q1"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	u2, _ := eng.User("u2")
	if u2.HasArchived("q1") {
		t.Error("Archiving must be per-user, not global")
	}
}

func TestArchive_UnknownQuestOrUser(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")

	if err := eng.Archive("u1", "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown quest, got %v", err)
	}
	if err := eng.Archive("ghost", "q1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUnarchive_NotArchived(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")

	err := eng.Unarchive("u1", "q1")
	if !errors.Is(err, errs.ErrPreconditionFailed) {
		t.Errorf("Expected ErrPreconditionFailed, got %v", err)
	}
}

func TestSeedDemo(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.SeedDemo()

	if eng.Empty() {
		t.Fatal("Expected seeded engine to be non-empty")
	}
	q, ok := eng.Quest("quest_reforest")
	if !ok {
		t.Fatal("Expected quest_reforest to exist")
	}
	if q.HolderID != "user_earth" {
		t.Errorf("Expected user_earth to steward quest_reforest, got %q", q.HolderID)
	}
	earth, _ := eng.User("user_earth")
	if len(earth.HeldQuestIDs) != 2 {
		t.Errorf("Expected user_earth to hold 2 quests, got %d", len(earth.HeldQuestIDs))
	}

	// Seeding twice must not duplicate holdings.
	eng.SeedDemo()
	earth, _ = eng.User("user_earth")
	if len(earth.HeldQuestIDs) != 2 {
		t.Errorf("Expected reseed to be idempotent, got %d held quests", len(earth.HeldQuestIDs))
	}
}
