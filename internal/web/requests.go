package web

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/admingrid/internal/core"
)

// maxBodySize bounds request bodies; grid mutations are a few fields.
const maxBodySize = 64 << 10

// dateLayout is the wire format of date filters (HTML date inputs).
const dateLayout = "2006-01-02"

// params is a flat request payload. JSON objects and form posts both decode
// into it, so HTMX forms and API clients share handlers.
type params map[string]string

// readParams decodes a JSON object or form body. An empty body yields no params.
func readParams(r *http.Request) (params, error) {
	out := make(params)
	if isJSONBody(r) {
		var raw map[string]any
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil && err != io.EOF {
			return nil, badRequest("decode body: %v", err)
		}
		for k, v := range raw {
			if v == nil {
				out[k] = ""
				continue
			}
			out[k] = core.Stringify(v)
		}
		return out, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		return nil, badRequest("parse form: %v", err)
	}
	for k := range r.Form {
		out[k] = r.Form.Get(k)
	}
	return out, nil
}

// int returns an integer param; missing keys are an error.
func (p params) int(key string) (int, error) {
	v, ok := p[key]
	if !ok || strings.TrimSpace(v) == "" {
		return 0, badRequest("missing %s", key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return n, nil
}

// dateRange reads start_date and end_date; blank bounds are open.
func (p params) dateRange() (core.DateRange, error) {
	start, err := parseDateParam("start_date", p["start_date"])
	if err != nil {
		return core.DateRange{}, err
	}
	end, err := parseDateParam("end_date", p["end_date"])
	if err != nil {
		return core.DateRange{}, err
	}
	return core.DateRange{Start: start, End: end}, nil
}

func parseDateParam(name, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, badRequest("%s must be YYYY-MM-DD", name)
	}
	return t, nil
}

// exportRequest configures one export.
type exportRequest struct {
	ViewID string `json:"view_id"`
	// Fields lists included keys in export order. Nil keeps every field; an
	// empty list includes none.
	Fields      []string `json:"fields"`
	Excluded    []string `json:"excluded"`
	Status      string   `json:"status"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	PreviewRows int      `json:"preview_rows"`
}

func readExportRequest(r *http.Request) (exportRequest, error) {
	var req exportRequest
	if isJSONBody(r) {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
		if err := dec.Decode(&req); err != nil && err != io.EOF {
			return req, badRequest("decode export request: %v", err)
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		return req, badRequest("parse form: %v", err)
	}
	req.ViewID = r.Form.Get("view_id")
	if _, ok := r.Form["fields"]; ok {
		req.Fields = nonEmpty(r.Form["fields"])
	}
	req.Excluded = nonEmpty(r.Form["excluded"])
	req.Status = r.Form.Get("status")
	req.StartDate = r.Form.Get("start_date")
	req.EndDate = r.Form.Get("end_date")
	if v := r.Form.Get("preview_rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, badRequest("preview_rows must be an integer")
		}
		req.PreviewRows = n
	}
	return req, nil
}

// apply configures exp from the request.
func (req exportRequest) apply(exp *core.Exporter) error {
	if req.Fields != nil {
		exp.SetFieldOrder(req.Fields)
		keep := make(map[string]bool, len(req.Fields))
		for _, k := range req.Fields {
			keep[k] = true
		}
		for _, f := range exp.Fields() {
			if !keep[f.Key] && exp.IsIncluded(f.Key) {
				exp.ToggleField(f.Key)
			}
		}
	}
	for _, k := range req.Excluded {
		if exp.IsIncluded(k) {
			exp.ToggleField(k)
		}
	}

	exp.SetStatusFilter(req.Status)

	dr, err := params{"start_date": req.StartDate, "end_date": req.EndDate}.dateRange()
	if err != nil {
		return err
	}
	if err := exp.SetDateRange(dr); err != nil {
		return err
	}

	if req.PreviewRows != 0 {
		if err := exp.SetPreviewRows(req.PreviewRows); err != nil {
			return err
		}
	}
	return nil
}

// widthParam is the viewport width used to pick a layout; 0 means desktop.
func widthParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("width"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// limitParam parses a positive "limit" query parameter.
func limitParam(r *http.Request, defaultVal int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return defaultVal
	}
	return n
}

func isJSONBody(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// contentDisposition names a downloaded file.
func contentDisposition(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

