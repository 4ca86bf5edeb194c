package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ovasilenko/synchro/internal/session"
)

// RegisterRoutes registers the JSON API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/me", h.GetMe)
		r.Post("/select-user", h.SelectUser)
		r.Post("/switch", h.Switch)
		r.Post("/quests", h.CreateQuest)
		r.Post("/quests/{questID}/claim", h.Claim)
		r.Post("/quests/{questID}/assign", h.Assign)
		r.Post("/quests/{questID}/archive", h.Archive)
		r.Post("/quests/{questID}/unarchive", h.Unarchive)
	})
}

// GetDashboard returns the full dashboard snapshot for the selected user.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	selected := session.SelectedUserFromContext(r.Context())
	JSON(w, http.StatusOK, h.eng.Dashboard(selected))
}

// GetMe returns the device's selected user, if any.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	selected := session.SelectedUserFromContext(r.Context())
	resp := map[string]interface{}{
		"device_id":        session.DeviceIDFromContext(r.Context()),
		"selected_user_id": selected,
	}
	if u, ok := h.eng.User(selected); ok {
		resp["current_quest_id"] = h.eng.CurrentQuest(u.ID)
		resp["gratitude"] = h.eng.Gratitude(u.ID)
	}
	JSON(w, http.StatusOK, resp)
}

// SelectUser persists the device's selected user.
func (h *Handler) SelectUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decode(r, &req); err != nil || req.UserID == "" {
		Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	deviceID := session.DeviceIDFromContext(r.Context())
	if err := h.repo.SetSelectedUser(r.Context(), deviceID, req.UserID); err != nil {
		slog.Error("Failed to persist selected user", "device_id", deviceID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to persist selection")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"selected_user_id": req.UserID})
}

// Switch records a task switch for a user. The acting user defaults to the
// device's selected user.
func (h *Handler) Switch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		QuestID string `json:"quest_id"`
	}
	if err := decode(r, &req); err != nil || req.QuestID == "" {
		Error(w, http.StatusBadRequest, "quest_id is required")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = session.SelectedUserFromContext(r.Context())
	}
	if userID == "" {
		Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	ev, err := h.eng.RecordSwitch(userID, req.QuestID)
	if err != nil {
		Fail(w, err)
		return
	}
	h.hub.BroadcastSwitch(ev)
	JSON(w, http.StatusCreated, ev)
}

// CreateQuest explicitly creates a quest. The creator defaults to the
// device's selected user.
func (h *Handler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestID   string `json:"quest_id"`
		CreatorID string `json:"creator_id"`
	}
	if err := decode(r, &req); err != nil || req.QuestID == "" {
		Error(w, http.StatusBadRequest, "quest_id is required")
		return
	}
	creator := req.CreatorID
	if creator == "" {
		creator = session.SelectedUserFromContext(r.Context())
	}

	quest, err := h.eng.CreateQuest(req.QuestID, creator)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusCreated, quest)
}

// Claim makes the acting user the quest's holder under the configured
// policy (steward under "open", accomplisher under "guarded").
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	questID := chi.URLParam(r, "questID")
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = session.SelectedUserFromContext(r.Context())
	}

	ev, err := h.eng.Claim(questID, userID)
	if err != nil {
		Fail(w, err)
		return
	}
	h.hub.BroadcastAccomplishment(ev)

	resp := map[string]interface{}{"quest_id": questID, "holder_id": userID, "policy": h.eng.Policy()}
	if ev != nil {
		resp["accomplishment"] = ev
	}
	JSON(w, http.StatusOK, resp)
}

// Assign hands a quest off from its current holder to another user.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	questID := chi.URLParam(r, "questID")
	var req struct {
		FromUserID string `json:"from_user_id"`
		ToUserID   string `json:"to_user_id"`
	}
	if err := decode(r, &req); err != nil || req.ToUserID == "" {
		Error(w, http.StatusBadRequest, "to_user_id is required")
		return
	}
	from := req.FromUserID
	if from == "" {
		from = session.SelectedUserFromContext(r.Context())
	}

	ev, err := h.eng.Assign(questID, from, req.ToUserID)
	if err != nil {
		Fail(w, err)
		return
	}
	h.hub.BroadcastAccomplishment(ev)
	JSON(w, http.StatusOK, ev)
}

// Archive hides a quest from the acting user's active view.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.toggleArchive(w, r, h.eng.Archive)
}

// Unarchive restores a quest to the acting user's active view.
func (h *Handler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.toggleArchive(w, r, h.eng.Unarchive)
}

func (h *Handler) toggleArchive(w http.ResponseWriter, r *http.Request, op func(userID, questID string) error) {
	questID := chi.URLParam(r, "questID")
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = session.SelectedUserFromContext(r.Context())
	}

	if err := op(userID, questID); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"quest_id": questID, "user_id": userID})
}
