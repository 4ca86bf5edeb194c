package engine

import (
	"fmt"
	"time"

	"github.com/ovasilenko/synchro/internal/domain"
	"github.com/ovasilenko/synchro/internal/errs"
)

// Claim makes userID the exclusive holder of questID under the configured
// policy. Under PolicyOpen the previous holder is evicted and no event is
// emitted (the returned event is nil). Under PolicyGuarded the claim is an
// accomplishment: it fails if the quest is already held, and on success an
// AccomplishmentEvent is broadcast to the de-duplicated set of users who
// ever switched to the quest, plus the accomplisher.
//
// Both user and quest must already exist; mutation is all-or-nothing.
func (e *Engine) Claim(questID, userID string) (*domain.AccomplishmentEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.claimAt(questID, userID, e.clock.Now(), true)
}

func (e *Engine) claimAt(questID, userID string, now time.Time, journal bool) (*domain.AccomplishmentEvent, error) {
	quest, ok := e.quests[questID]
	if !ok {
		return nil, fmt.Errorf("claim %q: unknown quest: %w", questID, errs.ErrNotFound)
	}
	user, ok := e.users[userID]
	if !ok {
		return nil, fmt.Errorf("claim %q: unknown user %q: %w", questID, userID, errs.ErrNotFound)
	}

	var ev *domain.AccomplishmentEvent
	switch e.policy {
	case PolicyOpen:
		// Last writer wins: evict the previous holder.
		if quest.Held() {
			if prev, ok := e.users[quest.HolderID]; ok {
				prev.DropHeld(questID)
			}
		}
		quest.HolderID = userID
		if !user.Holds(questID) {
			user.HeldQuestIDs = append(user.HeldQuestIDs, questID)
		}
	case PolicyGuarded:
		if quest.Held() {
			return nil, fmt.Errorf("accomplish %q: already held by %q: %w",
				questID, quest.HolderID, errs.ErrPreconditionFailed)
		}
		quest.HolderID = userID
		user.HeldQuestIDs = append(user.HeldQuestIDs, questID)
		ev = &domain.AccomplishmentEvent{
			ActorID:    userID,
			QuestID:    questID,
			Timestamp:  now,
			Recipients: e.contributorsLocked(quest, userID),
		}
		e.accomplishments = append(e.accomplishments, ev)
	default:
		return nil, fmt.Errorf("claim %q: unknown policy %q", questID, e.policy)
	}

	if journal {
		e.appendJournal(domain.JournalEntry{
			Op: domain.OpClaim, UserID: userID, QuestID: questID, At: now,
		})
	}
	return copyAccomplishment(ev), nil
}

// Assign hands questID off from its current holder to toID. It fails if
// fromID is not the current holder or any party is unknown, leaving holder
// and held-lists unchanged. The emitted event notifies toID only.
func (e *Engine) Assign(questID, fromID, toID string) (*domain.AccomplishmentEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assignAt(questID, fromID, toID, e.clock.Now(), true)
}

func (e *Engine) assignAt(questID, fromID, toID string, now time.Time, journal bool) (*domain.AccomplishmentEvent, error) {
	quest, ok := e.quests[questID]
	if !ok {
		return nil, fmt.Errorf("assign %q: unknown quest: %w", questID, errs.ErrNotFound)
	}
	from, ok := e.users[fromID]
	if !ok {
		return nil, fmt.Errorf("assign %q: unknown user %q: %w", questID, fromID, errs.ErrNotFound)
	}
	to, ok := e.users[toID]
	if !ok {
		return nil, fmt.Errorf("assign %q: unknown user %q: %w", questID, toID, errs.ErrNotFound)
	}
	if quest.HolderID != fromID {
		return nil, fmt.Errorf("assign %q: %q is not the current holder: %w",
			questID, fromID, errs.ErrPreconditionFailed)
	}

	from.DropHeld(questID)
	quest.HolderID = toID
	if !to.Holds(questID) {
		to.HeldQuestIDs = append(to.HeldQuestIDs, questID)
	}
	ev := &domain.AccomplishmentEvent{
		ActorID:    fromID,
		QuestID:    questID,
		Timestamp:  now,
		Recipients: []string{toID},
	}
	e.accomplishments = append(e.accomplishments, ev)

	if journal {
		e.appendJournal(domain.JournalEntry{
			Op: domain.OpAssign, QuestID: questID, FromID: fromID, ToID: toID, At: now,
		})
	}
	return copyAccomplishment(ev), nil
}

// contributorsLocked returns every user with at least one switch event
// targeting the quest, plus the accomplisher, de-duplicated and in first
// appearance order.
func (e *Engine) contributorsLocked(quest *domain.Quest, accomplisher string) []string {
	seen := make(map[string]struct{}, len(quest.EventIDs)+1)
	out := make([]string, 0, len(quest.EventIDs)+1)
	for _, id := range quest.EventIDs {
		uid := e.switchByID(id).UserID
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	if _, dup := seen[accomplisher]; !dup {
		out = append(out, accomplisher)
	}
	return out
}

func copyAccomplishment(ev *domain.AccomplishmentEvent) *domain.AccomplishmentEvent {
	if ev == nil {
		return nil
	}
	c := *ev
	c.Recipients = append([]string(nil), ev.Recipients...)
	return &c
}
