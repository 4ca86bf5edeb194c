// Package web serves the server-rendered dashboard and its form endpoints.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ovasilenko/synchro/internal/engine"
	"github.com/ovasilenko/synchro/internal/feed"
	"github.com/ovasilenko/synchro/internal/session"
	"github.com/ovasilenko/synchro/internal/store"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.tmpl").Funcs(template.FuncMap{
	"fmtdur": func(d time.Duration) string {
		return d.Truncate(time.Second).String()
	},
	"fmttime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
}).ParseFS(templateFS, "templates/index.tmpl"))

// Server renders the HTML dashboard.
type Server struct {
	eng  *engine.Engine
	repo store.Repository
	hub  *feed.Hub
}

// NewServer creates a dashboard server.
func NewServer(eng *engine.Engine, repo store.Repository, hub *feed.Hub) *Server {
	return &Server{eng: eng, repo: repo, hub: hub}
}

// RegisterRoutes registers the dashboard page and its form endpoints.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/", s.Index)
	r.Post("/select-user", s.SelectUser)
	r.Post("/switch-task", s.SwitchTask)
	r.Post("/claim-steward", s.ClaimSteward)
	r.Post("/assign", s.Assign)
	r.Post("/create-quest", s.CreateQuest)
	r.Post("/archive", s.Archive)
	r.Post("/unarchive", s.Unarchive)
}

type dashboardPage struct {
	engine.Dashboard
	Policy   engine.ClaimPolicy
	ErrorMsg string
}

// Index renders the dashboard for the device's selected user. If the device
// has no selection yet, the first user (if any) is shown.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	selected := session.SelectedUserFromContext(r.Context())
	d := s.eng.Dashboard(selected)
	if d.SelectedUser == nil && len(d.Users) > 0 {
		d = s.eng.Dashboard(d.Users[0].ID)
	}

	page := dashboardPage{
		Dashboard: d,
		Policy:    s.eng.Policy(),
		ErrorMsg:  r.URL.Query().Get("error"),
	}
	if err := indexTemplate.Execute(w, page); err != nil {
		slog.Error("Failed to render dashboard", "error", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
	}
}

// SelectUser persists the device's selected user and redirects home.
func (s *Server) SelectUser(w http.ResponseWriter, r *http.Request) {
	userID := r.FormValue("user_id")
	if userID == "" {
		redirectWithError(w, r, "user_id is required")
		return
	}
	s.persistSelection(r, userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SwitchTask records a task switch from the dashboard form.
func (s *Server) SwitchTask(w http.ResponseWriter, r *http.Request) {
	userID := s.actingUser(r)
	questID := r.FormValue("quest_id")

	ev, err := s.eng.RecordSwitch(userID, questID)
	if err != nil {
		redirectWithError(w, r, err.Error())
		return
	}
	s.hub.BroadcastSwitch(ev)
	s.persistSelection(r, userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ClaimSteward claims or accomplishes a quest, per the configured policy.
func (s *Server) ClaimSteward(w http.ResponseWriter, r *http.Request) {
	userID := s.actingUser(r)
	questID := r.FormValue("quest_id")

	ev, err := s.eng.Claim(questID, userID)
	if err != nil {
		redirectWithError(w, r, err.Error())
		return
	}
	s.hub.BroadcastAccomplishment(ev)
	s.persistSelection(r, userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Assign hands a quest off to another user.
func (s *Server) Assign(w http.ResponseWriter, r *http.Request) {
	fromID := r.FormValue("from_user_id")
	if fromID == "" {
		fromID = s.actingUser(r)
	}
	questID := r.FormValue("quest_id")
	toID := r.FormValue("to_user_id")

	ev, err := s.eng.Assign(questID, fromID, toID)
	if err != nil {
		redirectWithError(w, r, err.Error())
		return
	}
	s.hub.BroadcastAccomplishment(ev)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CreateQuest creates a quest with the acting user as creator.
func (s *Server) CreateQuest(w http.ResponseWriter, r *http.Request) {
	creatorID := s.actingUser(r)
	rawID := r.FormValue("quest_id")

	if _, err := s.eng.CreateQuest(rawID, creatorID); err != nil {
		redirectWithError(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Archive hides a quest from the acting user's active view.
func (s *Server) Archive(w http.ResponseWriter, r *http.Request) {
	s.toggleArchive(w, r, s.eng.Archive)
}

// Unarchive restores a quest to the acting user's active view.
func (s *Server) Unarchive(w http.ResponseWriter, r *http.Request) {
	s.toggleArchive(w, r, s.eng.Unarchive)
}

func (s *Server) toggleArchive(w http.ResponseWriter, r *http.Request, op func(userID, questID string) error) {
	userID := s.actingUser(r)
	questID := r.FormValue("quest_id")

	if err := op(userID, questID); err != nil {
		redirectWithError(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// actingUser resolves the user a form action applies to: the explicit
// user_id field if present, otherwise the device's selected user.
func (s *Server) actingUser(r *http.Request) string {
	if userID := r.FormValue("user_id"); userID != "" {
		return userID
	}
	return session.SelectedUserFromContext(r.Context())
}

func (s *Server) persistSelection(r *http.Request, userID string) {
	deviceID := session.DeviceIDFromContext(r.Context())
	if deviceID == "" {
		return
	}
	if err := s.repo.SetSelectedUser(r.Context(), deviceID, userID); err != nil {
		slog.Warn("Failed to persist selected user", "device_id", deviceID, "error", err)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
