package console

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/meetinsight/meeting-insight/internal/meeting"
	"github.com/meetinsight/meeting-insight/internal/platform/errs"
	"github.com/meetinsight/meeting-insight/internal/platform/respond"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Transport serves the upload page and the JSON console endpoints.
type Transport struct {
	deps   Deps
	logger *slog.Logger
	router *mux.Router

	// rolesMu serializes read-modify-write cycles on the role list.
	rolesMu sync.Mutex
}

// NewTransport creates the console transport.
func NewTransport(deps Deps, logger *slog.Logger) *Transport {
	return &Transport{deps: deps, logger: logger}
}

// RegisterRoutes attaches the console handlers to r. The router is kept so
// GET /routes can list every route registered on it, including other
// transports'.
func (t *Transport) RegisterRoutes(r *mux.Router) {
	t.router = r

	r.HandleFunc("/", t.handleIndex).Methods(http.MethodGet).Name("index")
	r.HandleFunc("/upload", t.handleUploadPage).Methods(http.MethodGet).Name("upload_page")
	r.HandleFunc("/dashboard", t.handleDashboard).Methods(http.MethodGet).Name("dashboard")
	r.HandleFunc("/meeting_records", t.handleMeetingRecords).Methods(http.MethodGet).Name("meeting_records")
	r.HandleFunc("/action_items", t.handleActionItems).Methods(http.MethodGet).Name("action_items")
	r.HandleFunc("/complaints", t.handleComplaints).Methods(http.MethodGet).Name("complaints")
	r.HandleFunc("/manager_analysis", t.handleManagerAnalysis).Methods(http.MethodGet).Name("manager_analysis")
	r.HandleFunc("/roles", t.handleListRoles).Methods(http.MethodGet).Name("list_roles")
	r.HandleFunc("/roles", t.handleAddRole).Methods(http.MethodPost).Name("add_role")
	r.HandleFunc("/roles/{index:[0-9]+}", t.handleUpdateRole).Methods(http.MethodPut).Name("update_role")
	r.HandleFunc("/roles/{index:[0-9]+}", t.handleDeleteRole).Methods(http.MethodDelete).Name("delete_role")
	r.HandleFunc("/settings", t.handleGetSettings).Methods(http.MethodGet).Name("get_settings")
	r.HandleFunc("/settings", t.handleSaveSettings).Methods(http.MethodPost).Name("save_settings")
	r.HandleFunc("/health", t.handleHealth).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/routes", t.handleRoutes).Methods(http.MethodGet).Name("routes")
	r.HandleFunc("/debug_csv", t.handleDebugCSV).Methods(http.MethodPost).Name("debug_csv")
}

func (t *Transport) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

type methodOption struct {
	Value   string
	Label   string
	Checked bool
}

type uploadPage struct {
	SystemName string
	Methods    []methodOption
	Uploads    []string
}

func (t *Transport) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	settings, err := t.deps.Settings.Settings(r.Context())
	if err != nil {
		t.storageError(w, "Failed to load settings.", err)
		return
	}
	uploads, err := t.deps.Uploads.ListUploads(r.Context())
	if err != nil {
		t.storageError(w, "Failed to list uploaded files.", err)
		return
	}

	data := uploadPage{
		SystemName: settings.SystemName,
		Methods: []methodOption{
			{Value: meeting.MethodLocal, Label: "本地模型", Checked: true},
			{Value: meeting.MethodAI, Label: "AI 模型"},
		},
		Uploads: uploads,
	}

	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "upload.html", data); err != nil {
		t.logger.Error("failed to render upload page", "error", err)
		respond.Error(w, t.logger, http.StatusInternalServerError, "Failed to render the upload page.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (t *Transport) storageError(w http.ResponseWriter, message string, err error) {
	t.logger.Error("storage failure", "error", err)
	respond.AppError(w, t.logger, &errs.AppError{Kind: errs.Storage, Message: message, Cause: err})
}
