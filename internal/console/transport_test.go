package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/store"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testEnv struct {
	router *mux.Router
	store  *store.FileStore
}

func newTestEnv(t *testing.T, checks map[string]Pinger) *testEnv {
	t.Helper()
	root := t.TempDir()
	dataDir, uploadDir := filepath.Join(root, "data"), filepath.Join(root, "uploads")
	fs, err := store.NewFileStore(dataDir, uploadDir)
	if err != nil {
		t.Fatal(err)
	}
	if checks == nil {
		checks = map[string]Pinger{"files": fs}
	}

	transport := NewTransport(Deps{
		Analyses: fs,
		Roles:    fs,
		Settings: fs,
		Uploads:  fs,
		Checks:   checks,
		Dirs:     fs,
	}, slog.Default())

	r := mux.NewRouter()
	transport.RegisterRoutes(r)
	return &testEnv{router: r, store: fs}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func seedAnalyses(t *testing.T, fs *store.FileStore) {
	t.Helper()
	err := fs.AppendAnalyses(context.Background(), []model.Analysis{
		{
			ID:       "a1",
			Metadata: model.Metadata{Filename: "weekly_20240105_093000.txt", Topic: "weekly", Date: "2024-01-05"},
			ActionItems: []model.ActionItem{
				{Description: "下一步整理报告", Deadline: "周五"},
				{Description: "需要更新计划"},
			},
			Complaints:      []model.Complaint{{Content: "客户投诉交付延迟"}},
			ManagerAnalysis: map[string]int{"Mark": 2, "Eric": 0},
		},
		{
			ID:              "a2",
			Metadata:        model.Metadata{Filename: "review.txt", Topic: "review"},
			ActionItems:     []model.ActionItem{{Description: "安排复盘"}},
			Complaints:      []model.Complaint{},
			ManagerAnalysis: map[string]int{"Mark": 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestHandleIndex_RedirectsToDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/", "")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestHandleUploadPage(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.store.SaveUpload(context.Background(), "standup.txt", strings.NewReader("hi")); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/upload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`id="uploadForm"`,
		`id="analyzeBtn"`,
		`name="analysis_method" value="local" checked`,
		`name="analysis_method" value="ai"`,
		"standup.txt",
		model.DefaultSettings().SystemName,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHandleDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAnalyses(t, env.store)

	rec := env.do(t, http.MethodGet, "/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	stats := decode[model.DashboardStats](t, rec)

	if stats.TotalMeetings != 2 || stats.TotalActions != 3 || stats.TotalComplaints != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalManagers != 4 {
		t.Errorf("TotalManagers = %d, want 4", stats.TotalManagers)
	}
	if len(stats.Recent) != 2 {
		t.Errorf("len(Recent) = %d, want 2", len(stats.Recent))
	}
}

func TestHandleMeetingRecords_Empty(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/meeting_records", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestHandleActionItems_Counts(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAnalyses(t, env.store)

	view := decode[actionItemsView](t, env.do(t, http.MethodGet, "/action_items", ""))
	if view.TotalCount != 3 || view.PendingCount != 1 || view.CompletedCount != 2 {
		t.Errorf("counts = total %d pending %d completed %d", view.TotalCount, view.PendingCount, view.CompletedCount)
	}
}

func TestHandleComplaints_Flattened(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAnalyses(t, env.store)

	view := decode[complaintsView](t, env.do(t, http.MethodGet, "/complaints", ""))
	if len(view.Complaints) != 1 {
		t.Fatalf("len(Complaints) = %d, want 1", len(view.Complaints))
	}
	c := view.Complaints[0]
	if c.AnalysisID != "a1" || c.Topic != "weekly" || c.Content != "客户投诉交付延迟" {
		t.Errorf("complaint = %+v", c)
	}
}

func TestHandleManagerAnalysis_Totals(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAnalyses(t, env.store)

	view := decode[managerView](t, env.do(t, http.MethodGet, "/manager_analysis", ""))
	if len(view.Managers) != 4 || len(view.Meetings) != 2 {
		t.Fatalf("managers %d meetings %d", len(view.Managers), len(view.Meetings))
	}
	if view.Totals["Mark"] != 3 {
		t.Errorf("Totals[Mark] = %d, want 3", view.Totals["Mark"])
	}
	if v, ok := view.Totals["David"]; !ok || v != 0 {
		t.Errorf("Totals[David] = %d, %v, want 0, true", v, ok)
	}
}

func TestRoles_CRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []string{
		`{"company":"Acme","name":"Alice","title":"PM"}`,
		`{"company":"Acme","name":"Bob","title":"QA"}`,
		`{"company":"Globex","name":"Carol","title":"CTO"}`,
	} {
		if rec := env.do(t, http.MethodPost, "/roles", body); rec.Code != http.StatusCreated {
			t.Fatalf("POST /roles status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	view := decode[rolesView](t, env.do(t, http.MethodGet, "/roles", ""))
	if len(view.Roles) != 3 || view.CompanyCount != 2 {
		t.Fatalf("roles = %+v, company_count = %d", view.Roles, view.CompanyCount)
	}
	if len(view.Managers) != 4 || len(view.Customers) != 3 {
		t.Errorf("directory = %d managers, %d customers, want 4 and 3", len(view.Managers), len(view.Customers))
	}

	if rec := env.do(t, http.MethodPut, "/roles/1", `{"company":"Acme","name":"Bob","title":"Lead"}`); rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/roles/0", ""); rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	roles, err := env.store.ListRoles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Role{
		{Company: "Acme", Name: "Bob", Title: "Lead"},
		{Company: "Globex", Name: "Carol", Title: "CTO"},
	}
	if len(roles) != len(want) {
		t.Fatalf("roles = %+v, want %+v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Errorf("roles[%d] = %+v, want %+v", i, roles[i], want[i])
		}
	}
}

func TestRoles_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"missing title", http.MethodPost, "/roles", `{"company":"Acme","name":"Alice"}`, http.StatusBadRequest},
		{"blank name", http.MethodPost, "/roles", `{"company":"Acme","name":"  ","title":"PM"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/roles", `{`, http.StatusBadRequest},
		{"update out of range", http.MethodPut, "/roles/5", `{"company":"A","name":"B","title":"C"}`, http.StatusNotFound},
		{"delete out of range", http.MethodDelete, "/roles/0", "", http.StatusNotFound},
		{"non-numeric index", http.MethodDelete, "/roles/abc", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			if rec := env.do(t, tt.method, tt.target, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSettings_MasksAndKeepsKey(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/settings",
		`{"system_name":"Ops","ai_url":"https://ai.example.com/v1/chat","ai_model":"m1","ai_api_key":"sk-secret-1234","prompt":"p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[model.Settings](t, env.do(t, http.MethodGet, "/settings", ""))
	if got.AIAPIKey != "****1234" {
		t.Errorf("masked key = %q, want ****1234", got.AIAPIKey)
	}
	if got.SystemName != "Ops" || got.AIModel != "m1" {
		t.Errorf("settings = %+v", got)
	}

	// Posting the masked value back must not overwrite the real key.
	body, _ := json.Marshal(got)
	if rec := env.do(t, http.MethodPost, "/settings", string(body)); rec.Code != http.StatusOK {
		t.Fatalf("second save status = %d", rec.Code)
	}
	stored, err := env.store.Settings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stored.AIAPIKey != "sk-secret-1234" {
		t.Errorf("stored key = %q, want original", stored.AIAPIKey)
	}
}

func TestSettings_PartialUpdateKeepsStoredFields(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/settings", `{"ai_model":"m2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	stored, err := env.store.Settings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := model.DefaultSettings()
	want.AIModel = "m2"
	if stored != want {
		t.Errorf("stored = %+v, want %+v", stored, want)
	}
}

func TestSettings_RejectsBadURL(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, u := range []string{"ftp://ai.example.com", "not a url", "https://"} {
		rec := env.do(t, http.MethodPost, "/settings", `{"ai_url":"`+u+`"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("ai_url %q: status = %d, want 400", u, rec.Code)
		}
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"abc":         "****",
		"sk-abcdefgh": "****efgh",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		report := decode[healthReport](t, rec)
		if report.Status != "ok" || !report.DataDir || !report.UploadDir || report.Checks["files"] != "ok" {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("missing upload dir", func(t *testing.T) {
		env := newTestEnv(t, nil)
		_, uploadDir := env.store.Dirs()
		if err := os.RemoveAll(uploadDir); err != nil {
			t.Fatal(err)
		}

		rec := env.do(t, http.MethodGet, "/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		report := decode[healthReport](t, rec)
		if !report.DataDir || report.UploadDir {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("failing check", func(t *testing.T) {
		env := newTestEnv(t, map[string]Pinger{"postgres": failingPinger{}})
		rec := env.do(t, http.MethodGet, "/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		report := decode[healthReport](t, rec)
		if report.Status != "degraded" || report.Checks["postgres"] != "connection refused" {
			t.Errorf("report = %+v", report)
		}
	})
}

func TestHandleRoutes_ListsRegisteredRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.router.HandleFunc("/analyze", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodPost)

	var body struct {
		Routes []routeInfo `json:"routes"`
	}
	rec := env.do(t, http.MethodGet, "/routes", "")
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	found := map[string]bool{}
	for _, r := range body.Routes {
		for _, m := range r.Methods {
			found[m+" "+r.Path] = true
		}
	}
	for _, want := range []string{"GET /dashboard", "PUT /roles/{index:[0-9]+}", "POST /analyze", "POST /debug_csv"} {
		if !found[want] {
			t.Errorf("route %q not listed", want)
		}
	}
}

func csvUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("csv_file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(content))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/debug_csv", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleDebugCSV(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, csvUpload(t, "roles.csv", "\xEF\xBB\xBFcompany,name,title\nAcme,Alice,PM\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	report := decode[csvDebug](t, rec)
	if !report.HasBOM || report.LineCount != 2 {
		t.Errorf("report = %+v", report)
	}
	if report.CleanedPreview != "company,name,title\nAcme,Alice,PM\n" {
		t.Errorf("CleanedPreview = %q", report.CleanedPreview)
	}
	if len(report.FirstLines) != 2 || report.FirstLines[0] != "company,name,title" {
		t.Errorf("FirstLines = %q", report.FirstLines)
	}
}

func TestHandleDebugCSV_RejectsExtension(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, csvUpload(t, "roles.xlsx", "x"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDebugCSV_TooLarge(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, csvUpload(t, "big.csv", strings.Repeat("a,b\n", maxDebugCSV/4+1)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if body := decode[model.ErrorResponse](t, rec); body.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("body = %+v", body)
	}
}
