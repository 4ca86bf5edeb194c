package engine

import (
	"sort"
	"time"

	"github.com/ovasilenko/synchro/internal/domain"
)

// UserView is a read-side projection of one user.
type UserView struct {
	ID             string        `json:"user_id"`
	CurrentQuestID string        `json:"current_quest_id,omitempty"`
	Gratitude      time.Duration `json:"gratitude"`
	HeldQuestIDs   []string      `json:"held_quest_ids,omitempty"`
}

// QuestView is a read-side projection of one quest. Archived is relative to
// the dashboard's selected user.
type QuestView struct {
	ID        string        `json:"quest_id"`
	Attention time.Duration `json:"attention"`
	HolderID  string        `json:"holder_id,omitempty"`
	CreatorID string        `json:"creator_id,omitempty"`
	Archived  bool          `json:"archived,omitempty"`
}

// Dashboard is the presentation-facing snapshot. All slices are copies;
// mutating them never affects engine state.
type Dashboard struct {
	SelectedUserID  string                       `json:"selected_user_id,omitempty"`
	SelectedUser    *UserView                    `json:"selected_user,omitempty"`
	Users           []UserView                   `json:"users"`
	ActiveQuests    []QuestView                  `json:"active_quests"`
	ArchivedQuests  []QuestView                  `json:"archived_quests,omitempty"`
	Events          []domain.SwitchEvent         `json:"events"`
	Feed            []domain.SwitchEvent         `json:"feed,omitempty"`
	Accomplishments []domain.AccomplishmentEvent `json:"accomplishments,omitempty"`
}

// Dashboard builds the full read view for the given selected user. An
// unknown or empty selected user yields the global view with empty per-user
// sections, never an error.
func (e *Engine) Dashboard(selectedUserID string) Dashboard {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d := Dashboard{
		SelectedUserID: selectedUserID,
		Users:          make([]UserView, 0, len(e.users)),
		Events:         e.eventsLocked(),
	}

	userIDs := make([]string, 0, len(e.users))
	for id := range e.users {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)
	for _, id := range userIDs {
		v := e.userViewLocked(e.users[id])
		d.Users = append(d.Users, v)
		if id == selectedUserID {
			selected := v
			d.SelectedUser = &selected
		}
	}

	selected := e.users[selectedUserID]
	for _, q := range e.quests {
		v := QuestView{
			ID:        q.ID,
			Attention: q.Attention,
			HolderID:  q.HolderID,
			CreatorID: q.CreatorID,
		}
		if selected != nil && selected.HasArchived(q.ID) {
			v.Archived = true
			d.ArchivedQuests = append(d.ArchivedQuests, v)
		} else {
			d.ActiveQuests = append(d.ActiveQuests, v)
		}
	}
	sortQuestViews(d.ActiveQuests)
	sortQuestViews(d.ArchivedQuests)

	if selected != nil {
		d.Feed = e.switchFeedLocked(selected)
		d.Accomplishments = e.accomplishmentFeedLocked(selectedUserID)
	}
	return d
}

// SwitchFeed returns the user's own switch events, newest first.
func (e *Engine) SwitchFeed(userID string) []domain.SwitchEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.users[userID]
	if !ok {
		return nil
	}
	return e.switchFeedLocked(u)
}

// AccomplishmentFeed returns accomplishment events addressed to the user,
// newest first.
func (e *Engine) AccomplishmentFeed(userID string) []domain.AccomplishmentEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accomplishmentFeedLocked(userID)
}

// Events returns the global switch log in chronological order.
func (e *Engine) Events() []domain.SwitchEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.eventsLocked()
}

// Gratitude is the sum of accumulated attention over quests the user
// currently holds. Zero for unknown users.
func (e *Engine) Gratitude(userID string) time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.users[userID]
	if !ok {
		return 0
	}
	return e.gratitudeLocked(u)
}

// User returns a snapshot of the user, false if unknown.
func (e *Engine) User(userID string) (domain.User, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.users[userID]
	if !ok {
		return domain.User{}, false
	}
	c := *u
	c.EventIDs = append([]int64(nil), u.EventIDs...)
	c.HeldQuestIDs = append([]string(nil), u.HeldQuestIDs...)
	c.ArchivedQuestIDs = make(map[string]struct{}, len(u.ArchivedQuestIDs))
	for id := range u.ArchivedQuestIDs {
		c.ArchivedQuestIDs[id] = struct{}{}
	}
	return c, true
}

// Quest returns a snapshot of the quest, false if unknown.
func (e *Engine) Quest(questID string) (domain.Quest, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	q, ok := e.quests[questID]
	if !ok {
		return domain.Quest{}, false
	}
	c := *q
	c.EventIDs = append([]int64(nil), q.EventIDs...)
	return c, true
}

func (e *Engine) userViewLocked(u *domain.User) UserView {
	return UserView{
		ID:             u.ID,
		CurrentQuestID: e.currentQuestLocked(u.ID),
		Gratitude:      e.gratitudeLocked(u),
		HeldQuestIDs:   append([]string(nil), u.HeldQuestIDs...),
	}
}

func (e *Engine) gratitudeLocked(u *domain.User) time.Duration {
	var total time.Duration
	for _, qid := range u.HeldQuestIDs {
		if q, ok := e.quests[qid]; ok {
			total += q.Attention
		}
	}
	return total
}

func (e *Engine) eventsLocked() []domain.SwitchEvent {
	out := make([]domain.SwitchEvent, len(e.switches))
	for i, ev := range e.switches {
		out[i] = *ev
	}
	return out
}

func (e *Engine) switchFeedLocked(u *domain.User) []domain.SwitchEvent {
	out := make([]domain.SwitchEvent, 0, len(u.EventIDs))
	for i := len(u.EventIDs) - 1; i >= 0; i-- {
		out = append(out, *e.switchByID(u.EventIDs[i]))
	}
	return out
}

func (e *Engine) accomplishmentFeedLocked(userID string) []domain.AccomplishmentEvent {
	var out []domain.AccomplishmentEvent
	for i := len(e.accomplishments) - 1; i >= 0; i-- {
		ev := e.accomplishments[i]
		if ev.AddressedTo(userID) {
			out = append(out, *copyAccomplishment(ev))
		}
	}
	return out
}

func sortQuestViews(qs []QuestView) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Attention != qs[j].Attention {
			return qs[i].Attention > qs[j].Attention
		}
		return qs[i].ID < qs[j].ID
	})
}
