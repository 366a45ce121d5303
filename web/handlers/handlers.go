// Package handlers serves the plant tracker web pages. Each browser gets its
// own controller session, identified by a cookie.
package handlers

import (
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mgmu/planttracker/internal/controller"
	"github.com/mgmu/planttracker/internal/plants"
)

const (
	IndexRoute   = "/"
	SubmitRoute  = "/plants"
	EditRoute    = "/plants/edit"
	CancelRoute  = "/plants/cancel"
	DeleteRoute  = "/plants/delete"
	RefreshRoute = "/plants/refresh"

	// SessionCookie names the cookie holding the session identifier.
	SessionCookie = "hortus_session"
	sessionIdle   = 24 * time.Hour
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Renderer renders the embedded templates for echo.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type session struct {
	state    *controller.Session
	lastSeen time.Time
}

// HandlerEnv holds what the page handlers share: the controller and the
// sessions of every browser.
type HandlerEnv struct {
	ctrl   *controller.Controller
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

// New returns handlers driving ctrl. A nil logger uses slog.Default().
func New(ctrl *controller.Controller, logger *slog.Logger) *HandlerEnv {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandlerEnv{
		ctrl:     ctrl,
		logger:   logger,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Register adds the page routes to e.
func (h *HandlerEnv) Register(e *echo.Echo) {
	e.GET(IndexRoute, h.Index)
	e.POST(SubmitRoute, h.Submit)
	e.POST(EditRoute, h.Edit)
	e.POST(CancelRoute, h.Cancel)
	e.POST(DeleteRoute, h.Delete)
	e.POST(RefreshRoute, h.Refresh)
}

// Index renders the form and the plant list. A browser seen for the first
// time gets a new session whose list is loaded from the store. Every operation
// finishes before its redirect, so the page never shows a loading state.
func (h *HandlerEnv) Index(c echo.Context) error {
	s, fresh := h.session(c)
	if fresh {
		h.ctrl.LoadList(c.Request().Context(), s)
	}
	return c.Render(http.StatusOK, "index.gohtml", s.Snapshot())
}

// Submit sends the form to the controller, which adds or updates a plant
// depending on the session's mode.
func (h *HandlerEnv) Submit(c echo.Context) error {
	s, _ := h.session(c)
	d := plants.Draft{
		Name:             c.FormValue("name"),
		Description:      c.FormValue("description"),
		WateringSchedule: c.FormValue("wateringSchedule"),
	}
	h.ctrl.Submit(c.Request().Context(), s, d)
	return h.back(c)
}

// Edit switches the session to edit mode for the plant named by the form.
func (h *HandlerEnv) Edit(c echo.Context) error {
	s, _ := h.session(c)
	if p, ok := h.lookup(c, s); ok {
		h.ctrl.StartEdit(s, p)
	}
	return h.back(c)
}

// Cancel returns the session to add mode.
func (h *HandlerEnv) Cancel(c echo.Context) error {
	s, _ := h.session(c)
	h.ctrl.CancelEdit(s)
	return h.back(c)
}

// Delete removes the plant named by the form.
func (h *HandlerEnv) Delete(c echo.Context) error {
	s, _ := h.session(c)
	if p, ok := h.lookup(c, s); ok {
		h.ctrl.Delete(c.Request().Context(), s, p)
	}
	return h.back(c)
}

// Refresh reloads the list from the store.
func (h *HandlerEnv) Refresh(c echo.Context) error {
	s, _ := h.session(c)
	h.ctrl.LoadList(c.Request().Context(), s)
	return h.back(c)
}

func (h *HandlerEnv) back(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, IndexRoute)
}

// lookup finds the plant named by the form's id, or by its name when no id
// is given, in the session's current list.
func (h *HandlerEnv) lookup(c echo.Context, s *controller.Session) (plants.Plant, bool) {
	list := s.Snapshot().Plants
	if raw := c.FormValue("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && id > 0 {
			for _, p := range list {
				if p.ID == id {
					return p, true
				}
			}
		}
	} else if name := c.FormValue("name"); name != "" {
		for _, p := range list {
			if p.Name == name {
				return p, true
			}
		}
	}
	h.logger.Warn("plant not in session list", "id", c.FormValue("id"), "name", c.FormValue("name"))
	return plants.Plant{}, false
}

// session returns the caller's session, creating it and setting the cookie
// when the request carries no known identifier.
func (h *HandlerEnv) session(c echo.Context) (*controller.Session, bool) {
	now := h.now()

	h.mu.Lock()
	defer h.mu.Unlock()

	if ck, err := c.Cookie(SessionCookie); err == nil {
		if s, ok := h.sessions[ck.Value]; ok {
			s.lastSeen = now
			return s.state, false
		}
	}

	for id, s := range h.sessions {
		if now.Sub(s.lastSeen) > sessionIdle {
			delete(h.sessions, id)
		}
	}

	id := uuid.NewString()
	s := &session{state: controller.NewSession(), lastSeen: now}
	h.sessions[id] = s
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Debug("new session", "session", id)
	return s.state, true
}
