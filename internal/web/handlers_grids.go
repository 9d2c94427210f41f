package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/admingrid/internal/core"
	"github.com/JonMunkholm/admingrid/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// gridGroup is one group of the grid listing.
type gridGroup struct {
	Name  string            `json:"group"`
	Grids []core.Definition `json:"grids"`
}

// gridGroups lists registered grids by group.
func (s *Server) gridGroups() []gridGroup {
	reg := s.service.Registry()
	groups := make([]gridGroup, 0)
	for _, name := range reg.Groups() {
		groups = append(groups, gridGroup{Name: name, Grids: reg.ByGroup(name)})
	}
	return groups
}

// handleDashboard renders the grid index page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var groups []templates.GridGroup
	for _, g := range s.gridGroups() {
		links := make([]templates.GridLink, len(g.Grids))
		for i, def := range g.Grids {
			links[i] = templates.GridLink{Key: def.Key, Label: def.Label}
		}
		groups = append(groups, templates.GridGroup{Title: groupTitle(g.Name), Grids: links})
	}
	if err := templates.Dashboard(groups).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// groupTitle turns a group key ("promo_codes") into a heading ("Promo Codes").
func groupTitle(name string) string {
	if name == "" {
		return "Other"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// handleListGrids returns all grids organized by group.
func (s *Server) handleListGrids(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gridGroups())
}

// handleGridPage opens a fresh view of a grid and renders it as a page.
func (s *Server) handleGridPage(w http.ResponseWriter, r *http.Request) {
	gridKey := chi.URLParam(r, "gridKey")

	vs, err := s.service.OpenView(r.Context(), gridKey)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	v, err := s.service.View(vs.ID, widthParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.GridPage(v).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// healthResponse reports liveness plus engine load.
type healthResponse struct {
	Status   string                   `json:"status"`
	Grids    int                      `json:"grids"`
	Sessions int                      `json:"sessions"`
	Exports  core.ExportLimiterStatus `json:"exports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Grids:    s.service.Registry().Len(),
		Sessions: s.service.SessionCount(),
		Exports:  s.service.ExportStatus(),
	})
}

// handleAuditLog returns recent engine activity, newest first.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries := s.service.Audit().Recent(core.AuditLogFilter{
		Grid:   q.Get("grid"),
		Action: core.AuditAction(q.Get("action")),
		Limit:  limitParam(r, core.DefaultHistoryLimit),
	})
	writeJSON(w, http.StatusOK, entries)
}
