package domain

import (
	"fmt"
	"time"
)

// SwitchEvent records a user declaring a new current quest. Immutable once
// constructed; the closing delta for the previous attention interval is
// computed at construction and carried on the new event.
type SwitchEvent struct {
	ID        int64     `json:"event_id"`
	UserID    string    `json:"user_id"`
	QuestID   string    `json:"quest_id"`
	Timestamp time.Time `json:"timestamp"`

	// PrevID links to the user's immediately preceding switch event,
	// 0 if this is the first event in the chain.
	PrevID int64 `json:"prev_id,omitempty"`

	// DurationOnPrev is the time spent on the previous event's quest,
	// meaningful only when PrevID != 0.
	DurationOnPrev time.Duration `json:"duration_on_prev,omitempty"`
}

// First reports whether this is the first event in its user's chain.
func (e SwitchEvent) First() bool {
	return e.PrevID == 0
}

// Label returns the display identifier used by the dashboard ("event_<n>").
func (e SwitchEvent) Label() string {
	return fmt.Sprintf("event_%d", e.ID)
}

// AccomplishmentEvent records a quest being accomplished or handed off.
// Immutable; independent of the switch-event chain.
type AccomplishmentEvent struct {
	ActorID   string    `json:"actor_id"`
	QuestID   string    `json:"quest_id"`
	Timestamp time.Time `json:"timestamp"`

	// Recipients is the de-duplicated set of users this event is
	// addressed to, in notification order.
	Recipients []string `json:"recipients"`
}

// AddressedTo reports whether the event notifies the given user.
func (e AccomplishmentEvent) AddressedTo(userID string) bool {
	for _, id := range e.Recipients {
		if id == userID {
			return true
		}
	}
	return false
}

// EventKind tags the variants of Event.
type EventKind string

const (
	KindSwitch         EventKind = "switch"
	KindAccomplishment EventKind = "accomplishment"
)

// Event is the tagged union over event variants, used where both kinds flow
// through the same channel (live feed, journal notifications). Exactly one
// of Switch and Accomplishment is set, per Kind.
type Event struct {
	Kind           EventKind            `json:"kind"`
	Switch         *SwitchEvent         `json:"switch,omitempty"`
	Accomplishment *AccomplishmentEvent `json:"accomplishment,omitempty"`
}

// At returns the variant's timestamp.
func (e Event) At() time.Time {
	switch e.Kind {
	case KindSwitch:
		return e.Switch.Timestamp
	case KindAccomplishment:
		return e.Accomplishment.Timestamp
	}
	return time.Time{}
}
