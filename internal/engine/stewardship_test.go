package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ovasilenko/synchro/internal/errs"
)

func TestClaim_GuardedRejectsHeldQuest(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u2", "q2")

	if _, err := eng.Claim("q1", "u1"); err != nil {
		t.Fatalf("First claim failed: %v", err)
	}
	_, err := eng.Claim("q1", "u2")
	if !errors.Is(err, errs.ErrPreconditionFailed) {
		t.Fatalf("Expected ErrPreconditionFailed, got %v", err)
	}

	q, _ := eng.Quest("q1")
	if q.HolderID != "u1" {
		t.Errorf("Expected holder u1, got %q", q.HolderID)
	}
	u2, _ := eng.User("u2")
	if u2.Holds("q1") {
		t.Error("Failed claim must not touch the claimant's held list")
	}
}

func TestClaim_OpenEvictsPriorHolder(t *testing.T) {
	eng, _ := newTestEngine(PolicyOpen)
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u2", "q1")

	if _, err := eng.Claim("q1", "u1"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if _, err := eng.Claim("q1", "u2"); err != nil {
		t.Fatalf("Second claim failed under open policy: %v", err)
	}

	q, _ := eng.Quest("q1")
	if q.HolderID != "u2" {
		t.Errorf("Expected holder u2, got %q", q.HolderID)
	}
	u1, _ := eng.User("u1")
	if u1.Holds("q1") {
		t.Error("Evicted holder must lose the quest from its held list")
	}
	u2, _ := eng.User("u2")
	if !u2.Holds("q1") {
		t.Error("New holder must gain the quest in its held list")
	}
}

func TestClaim_OpenEmitsNoEvent(t *testing.T) {
	eng, _ := newTestEngine(PolicyOpen)
	eng.RecordSwitch("u1", "q1")

	ev, err := eng.Claim("q1", "u1")
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if ev != nil {
		t.Errorf("Open claim must not emit an accomplishment event, got %+v", ev)
	}
	if got := eng.AccomplishmentFeed("u1"); len(got) != 0 {
		t.Errorf("Expected empty accomplishment feed, got %d entries", len(got))
	}
}

func TestClaim_UnknownQuestOrUser(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")

	if _, err := eng.Claim("missing", "u1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown quest, got %v", err)
	}
	if _, err := eng.Claim("q1", "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestAccomplish_NotifiesContributors(t *testing.T) {
	eng, clock := newTestEngine(PolicyGuarded)

	// u1 and u2 both contribute to q1, u1 twice. u3 never touches it.
	eng.RecordSwitch("u1", "q1")
	clock.Advance(time.Second)
	eng.RecordSwitch("u2", "q1")
	clock.Advance(time.Second)
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u3", "q2")

	ev, err := eng.Claim("q1", "u1")
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if ev == nil {
		t.Fatal("Expected an accomplishment event")
	}
	want := []string{"u1", "u2"}
	if !reflect.DeepEqual(ev.Recipients, want) {
		t.Errorf("Expected recipients %v, got %v", want, ev.Recipients)
	}

	if got := eng.AccomplishmentFeed("u2"); len(got) != 1 {
		t.Errorf("Expected 1 notification for u2, got %d", len(got))
	}
	if got := eng.AccomplishmentFeed("u3"); len(got) != 0 {
		t.Errorf("Expected no notification for u3, got %d", len(got))
	}
}

func TestAccomplish_AccomplisherAlwaysNotified(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)

	// u2 accomplishes a quest it never switched to.
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u2", "q2")

	ev, err := eng.Claim("q1", "u2")
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	want := []string{"u1", "u2"}
	if !reflect.DeepEqual(ev.Recipients, want) {
		t.Errorf("Expected recipients %v, got %v", want, ev.Recipients)
	}
}

func TestAssign_RequiresCurrentHolder(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u2", "q2")
	eng.RecordSwitch("u3", "q2")
	eng.Claim("q1", "u1")

	_, err := eng.Assign("q1", "u2", "u3")
	if !errors.Is(err, errs.ErrPreconditionFailed) {
		t.Fatalf("Expected ErrPreconditionFailed, got %v", err)
	}

	q, _ := eng.Quest("q1")
	if q.HolderID != "u1" {
		t.Errorf("Failed assign must leave holder unchanged, got %q", q.HolderID)
	}
	u3, _ := eng.User("u3")
	if u3.Holds("q1") {
		t.Error("Failed assign must leave held lists unchanged")
	}
}

func TestAssign_HandsOffAndNotifiesRecipientOnly(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	eng.RecordSwitch("u2", "q2")
	eng.Claim("q1", "u1")

	ev, err := eng.Assign("q1", "u1", "u2")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if !reflect.DeepEqual(ev.Recipients, []string{"u2"}) {
		t.Errorf("Expected recipients [u2], got %v", ev.Recipients)
	}

	q, _ := eng.Quest("q1")
	if q.HolderID != "u2" {
		t.Errorf("Expected holder u2, got %q", q.HolderID)
	}
	u1, _ := eng.User("u1")
	if u1.Holds("q1") {
		t.Error("Previous holder must lose the quest")
	}
	u2, _ := eng.User("u2")
	if !u2.Holds("q1") {
		t.Error("New holder must gain the quest")
	}
}

func TestAssign_UnknownParties(t *testing.T) {
	eng, _ := newTestEngine(PolicyGuarded)
	eng.RecordSwitch("u1", "q1")
	eng.Claim("q1", "u1")

	if _, err := eng.Assign("missing", "u1", "u1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown quest, got %v", err)
	}
	if _, err := eng.Assign("q1", "missing", "u1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown from user, got %v", err)
	}
	if _, err := eng.Assign("q1", "u1", "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown to user, got %v", err)
	}
}
