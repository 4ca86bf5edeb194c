// Package engine implements the attention-accounting core: the per-user
// switch-event chains, per-quest attention totals, stewardship rules and
// notification fan-out. All state is in-memory; a single RWMutex serializes
// mutations, reads return copied snapshots.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/ovasilenko/synchro/internal/domain"
)

// Clock supplies timestamps for new events. Injectable for testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Journal receives one entry per successful mutation. Appends are
// best-effort write-behind; implementations handle their own errors.
type Journal interface {
	Append(entry domain.JournalEntry)
}

// ClaimPolicy selects the stewardship variant.
type ClaimPolicy string

const (
	// PolicyOpen lets any user claim any quest, evicting the prior holder.
	PolicyOpen ClaimPolicy = "open"
	// PolicyGuarded lets a quest be accomplished only while unheld, and
	// fans out a notification to every contributing user.
	PolicyGuarded ClaimPolicy = "guarded"
)

// DefaultQuestPrefix is the conventional quest identifier prefix.
const DefaultQuestPrefix = "quest_"

// Options configures a new Engine.
type Options struct {
	Policy      ClaimPolicy
	QuestPrefix string
	Clock       Clock
}

// Engine owns the canonical collections of users, quests and events.
type Engine struct {
	mu          sync.RWMutex
	clock       Clock
	policy      ClaimPolicy
	questPrefix string

	users  map[string]*domain.User
	quests map[string]*domain.Quest

	// switches is the global append-only switch log; switches[i].ID == i+1.
	switches        []*domain.SwitchEvent
	accomplishments []*domain.AccomplishmentEvent

	journal Journal
}

// New creates an empty engine.
func New(opts Options) *Engine {
	if opts.Policy == "" {
		opts.Policy = PolicyGuarded
	}
	if opts.QuestPrefix == "" {
		opts.QuestPrefix = DefaultQuestPrefix
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	return &Engine{
		clock:       opts.Clock,
		policy:      opts.Policy,
		questPrefix: opts.QuestPrefix,
		users:       make(map[string]*domain.User),
		quests:      make(map[string]*domain.Quest),
	}
}

// Policy returns the configured claim policy.
func (e *Engine) Policy() ClaimPolicy {
	return e.policy
}

// AttachJournal starts recording mutations. Attach after Replay so the
// replayed entries are not written back.
func (e *Engine) AttachJournal(j Journal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.journal = j
}

// Replay applies journal entries in order using their recorded timestamps,
// rebuilding the in-memory state. Entries are not re-journaled.
func (e *Engine) Replay(entries []domain.JournalEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, en := range entries {
		var err error
		switch en.Op {
		case domain.OpSwitch:
			_, err = e.recordSwitchAt(en.UserID, en.QuestID, en.At, false)
		case domain.OpClaim:
			_, err = e.claimAt(en.QuestID, en.UserID, en.At, false)
		case domain.OpAssign:
			_, err = e.assignAt(en.QuestID, en.FromID, en.ToID, en.At, false)
		case domain.OpCreate:
			_, err = e.createQuestAt(en.QuestID, en.UserID, en.At, false)
		case domain.OpArchive:
			err = e.archiveAt(en.UserID, en.QuestID, en.At, false)
		case domain.OpUnarchive:
			err = e.unarchiveAt(en.UserID, en.QuestID, en.At, false)
		default:
			err = fmt.Errorf("unknown op %q", en.Op)
		}
		if err != nil {
			return fmt.Errorf("replay journal entry %d: %w", i, err)
		}
	}
	return nil
}

// Empty reports whether the engine holds no users and no quests.
func (e *Engine) Empty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.users) == 0 && len(e.quests) == 0
}

// SeedDemo installs the demo users, quests and initial stewardship. Seeded
// state is deterministic and not journaled; callers seed before Replay.
func (e *Engine) SeedDemo() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	for _, uid := range []string{"user_earth", "user_sky", "user_ocean"} {
		e.getOrCreateUser(uid, now)
	}
	seed := []struct{ quest, steward string }{
		{"quest_reforest", "user_earth"},
		{"quest_clean_water", "user_sky"},
		{"quest_solar_energy", "user_earth"},
	}
	for _, s := range seed {
		q := e.getOrCreateQuest(s.quest, now)
		if q.Held() {
			continue
		}
		q.HolderID = s.steward
		e.users[s.steward].HeldQuestIDs = append(e.users[s.steward].HeldQuestIDs, s.quest)
	}
}

func (e *Engine) getOrCreateUser(id string, now time.Time) *domain.User {
	if u, ok := e.users[id]; ok {
		return u
	}
	u := &domain.User{
		ID:               id,
		CreatedAt:        now,
		ArchivedQuestIDs: make(map[string]struct{}),
	}
	e.users[id] = u
	return u
}

func (e *Engine) getOrCreateQuest(id string, now time.Time) *domain.Quest {
	if q, ok := e.quests[id]; ok {
		return q
	}
	q := &domain.Quest{ID: id, CreatedAt: now}
	e.quests[id] = q
	return q
}

func (e *Engine) appendJournal(entry domain.JournalEntry) {
	if e.journal != nil {
		e.journal.Append(entry)
	}
}

// switchByID returns the switch event with the given id, nil if unknown.
// Callers hold the lock.
func (e *Engine) switchByID(id int64) *domain.SwitchEvent {
	if id < 1 || id > int64(len(e.switches)) {
		return nil
	}
	return e.switches[id-1]
}
