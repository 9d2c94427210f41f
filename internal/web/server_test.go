package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/admingrid/internal/config"
	"github.com/JonMunkholm/admingrid/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []core.Record {
	statuses := []string{"paid", "pending", "refunded"}
	out := make([]core.Record, 0, 12)
	for i := 1; i <= 12; i++ {
		out = append(out, core.Record{
			"id":         i,
			"name":       "Member " + string(rune('A'+i-1)),
			"status":     statuses[i%len(statuses)],
			"amount":     float64(i * 10),
			"created_at": time.Date(2024, time.March, i, 9, 0, 0, 0, time.UTC).Format(time.RFC3339),
		})
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Security: config.SecurityConfig{EnableCSP: true},
		Rate:     config.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	reg := core.NewRegistry()
	require.NoError(t, reg.Add(core.Definition{
		Key:         "registrations",
		Group:       "events",
		Label:       "Registrations",
		StatusField: "status",
		PageSize:    5,
		Columns: []core.Column{
			{Accessor: "name", Header: "Name", Sortable: true},
			{Accessor: "status", Header: "Status"},
			{Accessor: "amount", Header: "Amount", Sortable: true},
			{Accessor: "created_at", Header: "Registered"},
		},
		Actions: []core.Action{{Key: "email", Label: "Email", Bulk: true}},
	}))
	src := core.RecordSourceFunc(func(ctx context.Context, def core.Definition) ([]core.Record, error) {
		return testRecords(), nil
	})
	svc := core.NewService(reg, src, core.ServiceOptions{})
	return NewServer(svc, cfg)
}

func do(t *testing.T, s *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) core.View {
	t.Helper()
	var v core.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func openView(t *testing.T, s *Server) core.View {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/views", `{"grid":"registrations"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeView(t, rec)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 1, h.Grids)
	assert.Equal(t, core.DefaultMaxConcurrentExports, h.Exports.Available)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestListGrids(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/api/grids", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var groups []gridGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "events", groups[0].Name)
	assert.Equal(t, "registrations", groups[0].Grids[0].Key)
}

func TestOpenView(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodPost, "/api/views", `{"grid":"registrations"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	v := decodeView(t, rec)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "/api/views/"+v.ID, rec.Header().Get("Location"))
	assert.Equal(t, 12, v.State.TotalItems)
	assert.Equal(t, 3, v.State.TotalPages)
	assert.Len(t, v.Rows, 5)
	assert.Equal(t, core.LayoutDesktop, v.Layout)

	rec = do(t, s, http.MethodPost, "/api/views", `{"grid":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "GRID002", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, "/api/views", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "REQ001", decodeError(t, rec).Code)
}

func TestViewMutations(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)
	base := "/api/views/" + v.ID

	rec := do(t, s, http.MethodPost, base+"/page", `{"page": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decodeView(t, rec).State.Page)

	rec = do(t, s, http.MethodPost, base+"/search", `{"term":"member a"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeView(t, rec)
	assert.Equal(t, 1, got.State.TotalItems)
	assert.Equal(t, 1, got.State.Page, "search resets to the first page")

	rec = do(t, s, http.MethodPost, base+"/search", `{"term":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/status", `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decodeView(t, rec).State.TotalItems)

	rec = do(t, s, http.MethodPost, base+"/page-size", `{"page_size":"all"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeView(t, rec).State.TotalPages)

	rec = do(t, s, http.MethodPost, base+"/sort/amount", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.SortSpec{Key: "amount", Direction: core.DirAsc}, decodeView(t, rec).State.Sort)

	rec = do(t, s, http.MethodPost, base+"/predicate", `{"expr":".amount > 100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeView(t, rec)
	assert.Equal(t, ".amount > 100", got.Predicate)
	assert.Equal(t, 1, got.State.TotalItems, "paid and above 100 leaves Member L")
}

func TestViewMutations_FormEncoded(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)

	form := url.Values{"page": {"3"}}
	req := httptest.NewRequest(http.MethodPost, "/api/views/"+v.ID+"/page", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decodeView(t, rec).State.Page)
}

func TestViewMutations_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)
	base := "/api/views/" + v.ID

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad page size", "/page-size", `{"page_size": -5}`, http.StatusBadRequest, "VAL001"},
		{"inverted date range", "/date-range", `{"start_date":"2024-05-01","end_date":"2024-04-01"}`, http.StatusBadRequest, "VAL002"},
		{"bad predicate", "/predicate", `{"expr":".amount >"}`, http.StatusBadRequest, "VAL003"},
		{"bad sort mode", "/sort", `{"mode":"sideways"}`, http.StatusBadRequest, "VAL004"},
		{"unparsable date", "/date-range", `{"start_date":"yesterday"}`, http.StatusBadRequest, "REQ001"},
		{"missing page", "/page", `{}`, http.StatusBadRequest, "REQ001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, base+tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	rec := do(t, s, http.MethodGet, "/api/views/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "GRID001", decodeError(t, rec).Code)
}

func TestCloseView(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)

	rec := do(t, s, http.MethodDelete, "/api/views/"+v.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/views/"+v.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectionAndBulkAction(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)
	base := "/api/views/" + v.ID

	rec := do(t, s, http.MethodPost, base+"/actions/email", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SEL001", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, base+"/select/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"3"}, decodeView(t, rec).State.SelectedIDs)

	rec = do(t, s, http.MethodPost, base+"/actions/email", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result core.BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Count)

	rec = do(t, s, http.MethodPost, base+"/actions/delete", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "GRID003", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, base+"/select-all-filtered", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeView(t, rec).State.SelectedIDs, 12)

	rec = do(t, s, http.MethodPost, base+"/clear-selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeView(t, rec).State.SelectedIDs)

	rec = do(t, s, http.MethodPost, base+"/select-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeView(t, rec).State.SelectedIDs, 5, "select all covers the current page")
}

func TestRecord(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)

	rec := do(t, s, http.MethodGet, "/api/views/"+v.ID+"/records/4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Member D", got["name"])

	rec = do(t, s, http.MethodGet, "/api/views/"+v.ID+"/records/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "GRID004", decodeError(t, rec).Code)
}

func TestHTMXRendersFragment(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)

	rec := do(t, s, http.MethodPost, "/api/views/"+v.ID+"/select/1", "", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, `id="view-`+v.ID+`"`)
	assert.Contains(t, body, "1 selected")
	assert.Contains(t, body, `class="pill"`)

	rec = do(t, s, http.MethodGet, "/api/views/missing", "", "HX-Request", "true")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-code="GRID001"`)
}

func TestPages(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/grid/registrations"`)
	assert.Contains(t, rec.Body.String(), "<h2>Events</h2>")

	rec = do(t, s, http.MethodGet, "/grid/registrations?width=400", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-layout="mobile"`)
	assert.Contains(t, rec.Body.String(), `class="cards"`)

	rec = do(t, s, http.MethodGet, "/grid/registrations?width=900", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="compact"`)

	rec = do(t, s, http.MethodGet, "/grid/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "GRID002")
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/export/registrations/csv", `{"fields":["amount","name"],"status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "registrations_export.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Amount,Name", strings.TrimSpace(lines[0]))
	assert.Equal(t, "30.00,Member C", strings.TrimSpace(lines[1]))
}

func TestExportFromView(t *testing.T) {
	s := newTestServer(t, testConfig())
	v := openView(t, s)

	rec := do(t, s, http.MethodPost, "/api/export/registrations/preview", `{"view_id":"`+v.ID+`","excluded":["created_at"],"preview_rows":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got exportPreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 12, got.Preview.Total)
	assert.Len(t, got.Preview.Rows, 3)
	assert.Equal(t, []string{"Name", "Status", "Amount"}, got.Preview.Headers)
	require.Len(t, got.Fields, 4)
	assert.False(t, got.Fields[3].Included)
}

func TestExportErrors(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"no fields", "/api/export/registrations/csv", `{"fields":[]}`, http.StatusBadRequest, "EXP001"},
		{"no fields pdf", "/api/export/registrations/pdf", `{"excluded":["name","status","amount","created_at"]}`, http.StatusBadRequest, "EXP001"},
		{"bad preview size", "/api/export/registrations/preview", `{"preview_rows":7}`, http.StatusBadRequest, "VAL001"},
		{"unknown grid", "/api/export/nope/csv", `{}`, http.StatusNotFound, "GRID002"},
		{"expired view", "/api/export/registrations/csv", `{"view_id":"gone"}`, http.StatusNotFound, "GRID001"},
		{"bad json", "/api/export/registrations/csv", `{"fields":`, http.StatusBadRequest, "REQ001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestExportPDF(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/export/registrations/pdf", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = do(t, s, http.MethodGet, "/api/audit-log?action=export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []core.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "pdf", entries[0].Detail)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1, ExportLimit: 1}
	s := newTestServer(t, cfg)

	rec := do(t, s, http.MethodGet, "/api/grids", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/grids", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestSelectionEvents(t *testing.T) {
	s := newTestServer(t, testConfig())
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	v := openView(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/views/"+v.ID+"/selection/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rec := do(t, s, http.MethodPost, "/api/views/"+v.ID+"/select/2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	reader := bufio.NewReader(resp.Body)
	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			break
		}
	}

	var ev core.SelectionEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, v.ID, ev.ViewID)
	assert.Equal(t, []string{"2"}, ev.SelectedIDs)
}
