package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/ovasilenko/synchro/internal/domain"
)

// JournalSink adapts a Repository to the engine's write-behind journal.
// Append failures are logged, never surfaced; journal durability is
// best-effort.
type JournalSink struct {
	repo Repository
}

// NewJournalSink creates a sink writing to the given repository.
func NewJournalSink(repo Repository) *JournalSink {
	return &JournalSink{repo: repo}
}

// Append persists one journal entry.
func (s *JournalSink) Append(entry domain.JournalEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.AppendJournal(ctx, entry); err != nil {
		slog.Error("Journal append failed", "op", entry.Op, "error", err)
	}
}
