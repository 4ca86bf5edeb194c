// Package domain contains core domain types for the Synchronicity Engine.
package domain

import "time"

// User represents a participant in the system. Entities are addressed by
// identifier; cross-references (events, held quests, archived quests) are
// stored as identifiers rather than pointers.
type User struct {
	ID        string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// EventIDs is the user's switch-event chain in append order. The chain
	// order always agrees with timestamp order.
	EventIDs []int64 `json:"event_ids,omitempty"`

	// HeldQuestIDs lists quests this user currently stewards or has
	// accomplished, in claim order.
	HeldQuestIDs []string `json:"held_quest_ids,omitempty"`

	// ArchivedQuestIDs is a per-user visibility filter, not deletion.
	ArchivedQuestIDs map[string]struct{} `json:"-"`
}

// LastEventID returns the id of the user's most recent switch event,
// or 0 if the user has never switched.
func (u *User) LastEventID() int64 {
	if len(u.EventIDs) == 0 {
		return 0
	}
	return u.EventIDs[len(u.EventIDs)-1]
}

// HasArchived reports whether the user has archived the given quest.
func (u *User) HasArchived(questID string) bool {
	_, ok := u.ArchivedQuestIDs[questID]
	return ok
}

// Holds reports whether the given quest is in the user's held list.
func (u *User) Holds(questID string) bool {
	for _, id := range u.HeldQuestIDs {
		if id == questID {
			return true
		}
	}
	return false
}

// DropHeld removes the given quest from the user's held list.
func (u *User) DropHeld(questID string) {
	for i, id := range u.HeldQuestIDs {
		if id == questID {
			u.HeldQuestIDs = append(u.HeldQuestIDs[:i], u.HeldQuestIDs[i+1:]...)
			return
		}
	}
}
