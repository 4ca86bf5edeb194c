package engine

import (
	"testing"
	"time"
)

func TestDashboard_SortsQuestsByAttention(t *testing.T) {
	eng, clock := newTestEngine(PolicyGuarded)

	eng.RecordSwitch("u1", "q_small")
	clock.Advance(10 * time.Second)
	eng.RecordSwitch("u1", "q_big")
	clock.Advance(60 * time.Second)
	eng.RecordSwitch("u1", "q_small")

	d := eng.Dashboard("u1")
	if len(d.ActiveQuests) != 2 {
		t.Fatalf("Expected 2 active quests, got %d", len(d.ActiveQuests))
	}
	if d.ActiveQuests[0].ID != "q_big" {
		t.Errorf("Expected q_big first (60s), got %q", d.ActiveQuests[0].ID)
	}
	if d.ActiveQuests[1].ID != "q_small" {
		t.Errorf("Expected q_small second (10s), got %q", d.ActiveQuests[1].ID)
	}
}

func TestDashboard_SplitsArchivedForSelectedUser(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u1", "q2")
	eng.Archive("u1", "q1")

	d := eng.Dashboard("u1")
	if len(d.ActiveQuests) != 1 || d.ActiveQuests[0].ID != "q2" {
		t.Errorf("Expected only q2 active, got %+v", d.ActiveQuests)
	}
	if len(d.ArchivedQuests) != 1 || d.ArchivedQuests[0].ID != "q1" {
		t.Errorf("Expected q1 archived, got %+v", d.ArchivedQuests)
	}

	// Another user sees everything active.
	d2 := eng.Dashboard("u2")
	if len(d2.ActiveQuests) != 2 {
		t.Errorf("Expected 2 active quests for unknown selection, got %d", len(d2.ActiveQuests))
	}
	if d2.SelectedUser != nil {
		t.Error("Expected no selected user view for unknown user")
	}
}

func TestDashboard_UnknownSelectedUserIsNotAnError(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")

	d := eng.Dashboard("ghost")
	if d.SelectedUser != nil {
		t.Error("Expected nil selected user")
	}
	if len(d.Users) != 1 {
		t.Errorf("Expected global user list, got %d", len(d.Users))
	}
	if d.Feed != nil {
		t.Error("Expected no feed for unknown user")
	}
}

func TestSwitchFeed_NewestFirst(t *testing.T) {
	eng, clock := newTestEngine(PolicyGuarded)

	eng.RecordSwitch("u1", "q1")
	clock.Advance(time.Second)
	eng.RecordSwitch("u1", "q2")
	clock.Advance(time.Second)
	eng.RecordSwitch("u1", "q3")
	eng.RecordSwitch("u2", "q1")

	feed := eng.SwitchFeed("u1")
	if len(feed) != 3 {
		t.Fatalf("Expected 3 feed entries, got %d", len(feed))
	}
	want := []string{"q3", "q2", "q1"}
	for i, qid := range want {
		if feed[i].QuestID != qid {
			t.Errorf("Expected feed[%d] = %s, got %s", i, qid, feed[i].QuestID)
		}
	}
}

func TestAccomplishmentFeed_NewestFirst(t *testing.T) {
	eng, clock := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	clock.Advance(time.Second)
	eng.RecordSwitch("u1", "q2")

	eng.Claim("q1", "u1")
	clock.Advance(time.Second)
	eng.Claim("q2", "u1")

	feed := eng.AccomplishmentFeed("u1")
	if len(feed) != 2 {
		t.Fatalf("Expected 2 accomplishments, got %d", len(feed))
	}
	if feed[0].QuestID != "q2" || feed[1].QuestID != "q1" {
		t.Errorf("Expected newest first [q2 q1], got [%s %s]", feed[0].QuestID, feed[1].QuestID)
	}
}

func TestGratitude(t *testing.T) {
	eng, clock := newTestEngine(PolicyGuarded)

	eng.RecordSwitch("u1", "q1")
	clock.Advance(30 * time.Second)
	eng.RecordSwitch("u1", "q2")
	clock.Advance(20 * time.Second)
	eng.RecordSwitch("u1", "q1")

	// u1 holds q1 (30s) and q2 (20s).
	eng.Claim("q1", "u1")
	eng.Claim("q2", "u1")

	if got := eng.Gratitude("u1"); got != 50*time.Second {
		t.Errorf("Expected gratitude 50s, got %v", got)
	}
	if got := eng.Gratitude("ghost"); got != 0 {
		t.Errorf("Expected zero gratitude for unknown user, got %v", got)
	}
}

func TestDashboard_SnapshotsAreCopies(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	eng.Claim("q1", "u1")

	d := eng.Dashboard("u1")
	d.Users[0].HeldQuestIDs[0] = "mutated"
	d.Events[0].QuestID = "mutated"

	d2 := eng.Dashboard("u1")
	if d2.Users[0].HeldQuestIDs[0] != "q1" {
		t.Error("Mutating a dashboard snapshot leaked into engine state")
	}
	if d2.Events[0].QuestID != "q1" {
		t.Error("Mutating an event snapshot leaked into engine state")
	}
}
