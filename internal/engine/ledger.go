package engine

import (
	"fmt"
	"time"

	"github.com/ovasilenko/synchro/internal/domain"
	"github.com/ovasilenko/synchro/internal/errs"
)

// RecordSwitch declares questID as userID's new current quest. The elapsed
// time since the user's previous switch is credited to the quest they are
// leaving; the new event remains an open interval until a further switch
// closes it. Unknown users and quests are created on first reference.
//
// This is the only writer of quest attention totals and chain links.
func (e *Engine) RecordSwitch(userID, questID string) (domain.SwitchEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordSwitchAt(userID, questID, e.clock.Now(), true)
}

func (e *Engine) recordSwitchAt(userID, questID string, now time.Time, journal bool) (domain.SwitchEvent, error) {
	if userID == "" || questID == "" {
		return domain.SwitchEvent{}, fmt.Errorf("record switch: empty identifier: %w", errs.ErrNotFound)
	}

	// Validate ordering before touching any state so a failure leaves
	// nothing behind, not even an auto-created quest.
	var prev *domain.SwitchEvent
	if u, ok := e.users[userID]; ok {
		if prevID := u.LastEventID(); prevID != 0 {
			prev = e.switchByID(prevID)
			if now.Before(prev.Timestamp) {
				return domain.SwitchEvent{}, fmt.Errorf(
					"record switch for %q: timestamp %s precedes previous event at %s: %w",
					userID, now.Format(time.RFC3339Nano), prev.Timestamp.Format(time.RFC3339Nano),
					errs.ErrInvalidOrdering)
			}
		}
	}

	user := e.getOrCreateUser(userID, now)
	quest := e.getOrCreateQuest(questID, now)

	ev := &domain.SwitchEvent{
		ID:        int64(len(e.switches)) + 1,
		UserID:    userID,
		QuestID:   questID,
		Timestamp: now,
	}
	if prev != nil {
		ev.PrevID = prev.ID
		ev.DurationOnPrev = now.Sub(prev.Timestamp)
		e.quests[prev.QuestID].Attention += ev.DurationOnPrev
	}

	e.switches = append(e.switches, ev)
	user.EventIDs = append(user.EventIDs, ev.ID)
	quest.EventIDs = append(quest.EventIDs, ev.ID)

	if journal {
		e.appendJournal(domain.JournalEntry{
			Op: domain.OpSwitch, UserID: userID, QuestID: questID, At: now,
		})
	}
	return *ev, nil
}

// CurrentQuest returns the quest of the user's most recent switch event,
// or "" if the user is unknown or has never switched.
func (e *Engine) CurrentQuest(userID string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentQuestLocked(userID)
}

func (e *Engine) currentQuestLocked(userID string) string {
	u, ok := e.users[userID]
	if !ok {
		return ""
	}
	last := u.LastEventID()
	if last == 0 {
		return ""
	}
	return e.switchByID(last).QuestID
}
