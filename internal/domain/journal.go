package domain

import "time"

// JournalOp identifies a mutating engine operation in the journal.
type JournalOp string

const (
	OpSwitch    JournalOp = "switch"
	OpClaim     JournalOp = "claim"
	OpAssign    JournalOp = "assign"
	OpCreate    JournalOp = "create"
	OpArchive   JournalOp = "archive"
	OpUnarchive JournalOp = "unarchive"
)

// JournalEntry is one recorded mutation. Entries replayed in order with
// their original timestamps rebuild the in-memory state exactly.
type JournalEntry struct {
	Op      JournalOp `json:"op"`
	UserID  string    `json:"user_id,omitempty"`
	QuestID string    `json:"quest_id,omitempty"`
	FromID  string    `json:"from_id,omitempty"`
	ToID    string    `json:"to_id,omitempty"`
	At      time.Time `json:"at"`
}
