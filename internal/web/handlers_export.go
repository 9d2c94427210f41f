package web

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/admingrid/internal/core"
	"github.com/go-chi/chi/v5"
)

// exportField is one field row of the export dialog.
type exportField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Included bool   `json:"included"`
}

// exportPreviewResponse is what the export dialog renders before download.
type exportPreviewResponse struct {
	Title    string        `json:"title"`
	Filename string        `json:"filename"`
	Fields   []exportField `json:"fields"`
	Preview  core.Preview  `json:"preview"`
}

// exporter builds a configured Exporter for the request.
func (s *Server) exporter(r *http.Request) (*core.Exporter, error) {
	req, err := readExportRequest(r)
	if err != nil {
		return nil, err
	}
	exp, err := s.service.NewExporter(r.Context(), chi.URLParam(r, "gridKey"), req.ViewID)
	if err != nil {
		return nil, err
	}
	if err := req.apply(exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *Server) handleExportPreview(w http.ResponseWriter, r *http.Request) {
	exp, err := s.exporter(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	fields := make([]exportField, 0)
	for _, f := range exp.Fields() {
		fields = append(fields, exportField{Key: f.Key, Label: f.Label, Included: exp.IsIncluded(f.Key)})
	}
	writeJSON(w, http.StatusOK, exportPreviewResponse{
		Title:    exp.Title(),
		Filename: exp.Filename(core.FormatCSV),
		Fields:   fields,
		Preview:  exp.Preview(),
	})
}

// handleExportFile renders the export into memory first, so a failed render
// (no fields, busy limiter) still gets a proper error response.
func (s *Server) handleExportFile(format core.ExportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, err := s.exporter(r)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}

		var buf bytes.Buffer
		if err := s.service.Export(r.Context(), format, exp, &buf); err != nil {
			s.respondError(w, r, err, 0)
			return
		}

		contentType := "text/csv; charset=utf-8"
		if format == core.FormatPDF {
			contentType = "application/pdf"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", contentDisposition(exp.Filename(format)))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ExportStatus())
}
