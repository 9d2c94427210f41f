package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/admingrid/internal/core"
	"github.com/JonMunkholm/admingrid/internal/logging"
	"github.com/JonMunkholm/admingrid/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// respondView writes the current view: a grid fragment for HTMX, JSON otherwise.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, viewID string, status int) {
	v, err := s.service.View(viewID, widthParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.GridView(v).Render(r.Context(), w)
		return
	}
	writeJSON(w, status, v)
}

// mutate applies fn to the view's Controller and responds with the new view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(c *core.Controller, p params) error) {
	viewID := chi.URLParam(r, "viewID")
	p, err := readParams(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if err := s.service.Update(viewID, func(c *core.Controller) error { return fn(c, p) }); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.respondView(w, r, viewID, http.StatusOK)
}

// handleOpenView opens a view session for the grid named in the body.
func (s *Server) handleOpenView(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if p["grid"] == "" {
		s.respondError(w, r, badRequest("missing grid"), 0)
		return
	}

	vs, err := s.service.OpenView(r.Context(), p["grid"])
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.Header().Set("Location", "/api/views/"+vs.ID)
	s.respondView(w, r, vs.ID, http.StatusCreated)
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r, chi.URLParam(r, "viewID"), http.StatusOK)
}

func (s *Server) handleCloseView(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CloseView(r.Context(), chi.URLParam(r, "viewID")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		c.SetSearchTerm(p["term"])
		return nil
	})
}

func (s *Server) handleStatusFilter(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		c.SetStatusFilter(p["status"])
		return nil
	})
}

func (s *Server) handleSortMode(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		return c.SetSortBy(core.SortMode(p["mode"]))
	})
}

func (s *Server) handleColumnSort(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	s.mutate(w, r, func(c *core.Controller, p params) error {
		c.HandleSort(field)
		return nil
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		n, err := p.int("page")
		if err != nil {
			return err
		}
		c.HandlePage(n)
		return nil
	})
}

func (s *Server) handlePageSize(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		if p["page_size"] == "all" {
			return c.SetPageSize(core.AllPages)
		}
		n, err := p.int("page_size")
		if err != nil {
			return err
		}
		return c.SetPageSize(n)
	})
}

func (s *Server) handleDateRange(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		dr, err := p.dateRange()
		if err != nil {
			return err
		}
		return c.SetDateRange(dr)
	})
}

// handlePredicate applies a jq filter expression; an empty one clears it.
func (s *Server) handlePredicate(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	p, err := readParams(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if err := s.service.SetPredicate(viewID, p["expr"]); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.respondView(w, r, viewID, http.StatusOK)
}

// handleRefresh re-fetches the view's records. A failed fetch leaves the
// view as it was and reports the error.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	if err := s.service.RefreshView(r.Context(), viewID); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.respondView(w, r, viewID, http.StatusOK)
}

func (s *Server) handleToggleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, r, func(c *core.Controller, p params) error {
		c.ToggleSelect(id)
		return nil
	})
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		c.SelectAll()
		return nil
	})
}

func (s *Server) handleSelectAllFiltered(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		c.SelectAllFiltered()
		return nil
	})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(c *core.Controller, p params) error {
		c.ClearSelection()
		return nil
	})
}

// handleRecord returns one record of the view for a row action.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.RecordByID(chi.URLParam(r, "viewID"), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleBulkAction runs a bulk action over the current selection.
func (s *Server) handleBulkAction(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	action := chi.URLParam(r, "action")

	result, err := s.service.RunBulkAction(r.Context(), viewID, action)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.WithFields(r.Context(), "view_id", viewID, "action", action).
		Info("bulk action complete", "count", result.Count)
	writeJSON(w, http.StatusOK, result)
}

// handleSelectionEvents streams selection changes of a view as server-sent
// events until the client disconnects or the view closes.
func (s *Server) handleSelectionEvents(w http.ResponseWriter, r *http.Request) {
	events, cancel, err := s.service.SubscribeSelection(chi.URLParam(r, "viewID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		logging.FromContext(r.Context()).Warn("selection stream: flush unsupported", "error", err)
		return
	}

	for seq := 1; ; seq++ {
		select {
		case ev, ok := <-events:
			if !ok {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				rc.Flush()
				return
			}
			data, _ := json.Marshal(ev)
			fmt.Fprintf(w, "id: %d\nevent: selection\ndata: %s\n\n", seq, data)
			if err := rc.Flush(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
