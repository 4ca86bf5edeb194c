// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ovasilenko/synchro/internal/domain"
)

// Repository defines the interface for persisting device sessions and the
// mutation journal. The engine itself is in-memory; the journal exists so a
// restarted process can rebuild state by replaying it.
type Repository interface {
	// SelectedUser returns the user currently selected on a device,
	// or "" if the device has no selection.
	SelectedUser(ctx context.Context, deviceID string) (string, error)

	// SetSelectedUser records the device's selected user.
	SetSelectedUser(ctx context.Context, deviceID, userID string) error

	// AppendJournal appends one mutation entry.
	AppendJournal(ctx context.Context, entry domain.JournalEntry) error

	// LoadJournal returns all journal entries in append order.
	LoadJournal(ctx context.Context) ([]domain.JournalEntry, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
