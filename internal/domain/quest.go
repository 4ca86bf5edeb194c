package domain

import "time"

// Quest is a trackable task with accumulated attention time and an optional
// exclusive holder (steward or accomplisher, depending on claim policy).
type Quest struct {
	ID        string    `json:"quest_id"`
	CreatedAt time.Time `json:"created_at"`

	// CreatorID is set at creation and never changes. Empty for quests
	// auto-created by a switch.
	CreatorID string `json:"creator_id,omitempty"`

	// HolderID is the current exclusive holder, empty when unclaimed.
	HolderID string `json:"holder_id,omitempty"`

	// Attention is the total wall-clock time credited to this quest by
	// closed attention intervals. Non-negative and non-decreasing.
	Attention time.Duration `json:"attention"`

	// EventIDs lists every switch event that targeted this quest, in
	// append order.
	EventIDs []int64 `json:"event_ids,omitempty"`
}

// Held reports whether the quest currently has an exclusive holder.
func (q *Quest) Held() bool {
	return q.HolderID != ""
}
