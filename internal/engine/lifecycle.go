package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/ovasilenko/synchro/internal/domain"
	"github.com/ovasilenko/synchro/internal/errs"
)

// NormalizeQuestID trims the raw id and ensures it carries the configured
// quest prefix.
func (e *Engine) NormalizeQuestID(rawID string) string {
	id := strings.TrimSpace(rawID)
	if id == "" {
		return ""
	}
	if !strings.HasPrefix(id, e.questPrefix) {
		id = e.questPrefix + id
	}
	return id
}

// CreateQuest explicitly creates a quest with the given creator. The raw id
// is normalized to the quest prefix; duplicates and unknown creators are
// rejected without mutation. The created quest has no holder.
func (e *Engine) CreateQuest(rawID, creatorID string) (domain.Quest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createQuestAt(rawID, creatorID, e.clock.Now(), true)
}

func (e *Engine) createQuestAt(rawID, creatorID string, now time.Time, journal bool) (domain.Quest, error) {
	id := e.NormalizeQuestID(rawID)
	if id == "" {
		return domain.Quest{}, fmt.Errorf("create quest: empty id: %w", errs.ErrPreconditionFailed)
	}
	if _, ok := e.users[creatorID]; !ok {
		return domain.Quest{}, fmt.Errorf("create quest %q: unknown creator %q: %w", id, creatorID, errs.ErrNotFound)
	}
	if _, exists := e.quests[id]; exists {
		return domain.Quest{}, fmt.Errorf("create quest %q: already exists: %w", id, errs.ErrPreconditionFailed)
	}

	quest := &domain.Quest{ID: id, CreatedAt: now, CreatorID: creatorID}
	e.quests[id] = quest

	if journal {
		e.appendJournal(domain.JournalEntry{
			Op: domain.OpCreate, UserID: creatorID, QuestID: id, At: now,
		})
	}
	return *quest, nil
}

// Archive hides questID from userID's active view. Archiving is per-user
// and reversible; archiving an already-archived quest is a no-op.
func (e *Engine) Archive(userID, questID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.archiveAt(userID, questID, e.clock.Now(), true)
}

func (e *Engine) archiveAt(userID, questID string, now time.Time, journal bool) error {
	user, ok := e.users[userID]
	if !ok {
		return fmt.Errorf("archive %q: unknown user %q: %w", questID, userID, errs.ErrNotFound)
	}
	if _, ok := e.quests[questID]; !ok {
		return fmt.Errorf("archive %q: unknown quest: %w", questID, errs.ErrNotFound)
	}

	user.ArchivedQuestIDs[questID] = struct{}{}

	if journal {
		e.appendJournal(domain.JournalEntry{
			Op: domain.OpArchive, UserID: userID, QuestID: questID, At: now,
		})
	}
	return nil
}

// Unarchive restores questID to userID's active view. Unarchiving a quest
// that is not currently archived fails.
func (e *Engine) Unarchive(userID, questID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unarchiveAt(userID, questID, e.clock.Now(), true)
}

func (e *Engine) unarchiveAt(userID, questID string, now time.Time, journal bool) error {
	user, ok := e.users[userID]
	if !ok {
		return fmt.Errorf("unarchive %q: unknown user %q: %w", questID, userID, errs.ErrNotFound)
	}
	if !user.HasArchived(questID) {
		return fmt.Errorf("unarchive %q: not archived by %q: %w", questID, userID, errs.ErrPreconditionFailed)
	}

	delete(user.ArchivedQuestIDs, questID)

	if journal {
		e.appendJournal(domain.JournalEntry{
			Op: domain.OpUnarchive, UserID: userID, QuestID: questID, At: now,
		})
	}
	return nil
}
