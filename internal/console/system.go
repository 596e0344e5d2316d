package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/meetinsight/meeting-insight/internal/platform/errs"
	"github.com/meetinsight/meeting-insight/internal/platform/respond"
)

const (
	healthTimeout   = 3 * time.Second
	maxDebugCSV     = 4 << 20
	debugPreview    = 1000
	debugFirstLines = 10
)

type healthReport struct {
	Status    string            `json:"status"`
	Time      time.Time         `json:"time"`
	DataDir   bool              `json:"data_dir"`
	UploadDir bool              `json:"upload_dir"`
	Checks    map[string]string `json:"checks"`
}

type routeInfo struct {
	Name    string   `json:"name,omitempty"`
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

type csvDebug struct {
	Filename        string   `json:"filename"`
	Size            int      `json:"size"`
	HasBOM          bool     `json:"has_bom"`
	LineCount       int      `json:"line_count"`
	OriginalPreview string   `json:"original_preview"`
	CleanedPreview  string   `json:"cleaned_preview"`
	FirstLines      []string `json:"first_lines"`
}

// handleHealth reports 503 when a directory is missing or any check fails.
func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	dataDir, uploadDir := t.deps.Dirs.Dirs()
	report := healthReport{
		Status:    "ok",
		Time:      time.Now().UTC(),
		DataDir:   isDir(dataDir),
		UploadDir: isDir(uploadDir),
		Checks:    make(map[string]string, len(t.deps.Checks)),
	}
	healthy := report.DataDir && report.UploadDir
	for name, check := range t.deps.Checks {
		if err := check.Ping(ctx); err != nil {
			t.logger.Warn("health check failed", "check", name, "error", err)
			report.Checks[name] = err.Error()
			healthy = false
			continue
		}
		report.Checks[name] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		report.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	respond.JSON(w, t.logger, status, report)
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (t *Transport) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	routes := []routeInfo{}
	if t.router != nil {
		err := t.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
			path, err := route.GetPathTemplate()
			if err != nil {
				return nil
			}
			methods, err := route.GetMethods()
			if err != nil {
				methods = []string{}
			}
			routes = append(routes, routeInfo{Name: route.GetName(), Path: path, Methods: methods})
			return nil
		})
		if err != nil {
			t.logger.Error("failed to walk routes", "error", err)
			respond.Error(w, t.logger, http.StatusInternalServerError, "Failed to list routes.")
			return
		}
	}

	sort.SliceStable(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	respond.JSON(w, t.logger, http.StatusOK, map[string]any{"routes": routes})
}

func (t *Transport) handleDebugCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDebugCSV)

	file, header, err := r.FormFile("csv_file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.AppError(w, t.logger, &errs.AppError{Kind: errs.TooLarge, Message: "File is too large.", Cause: err})
			return
		}
		respond.Error(w, t.logger, http.StatusBadRequest, "A csv_file upload is required.")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".txt" {
		respond.Error(w, t.logger, http.StatusBadRequest, "Only .csv and .txt files are accepted.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(w, t.logger, http.StatusBadRequest, "Failed to read the uploaded file.")
		return
	}

	cleaned := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	report := csvDebug{
		Filename:        header.Filename,
		Size:            len(data),
		HasBOM:          len(cleaned) != len(data),
		OriginalPreview: preview(string(data)),
		CleanedPreview:  preview(string(cleaned)),
		FirstLines:      []string{},
	}

	sc := bufio.NewScanner(bytes.NewReader(cleaned))
	sc.Buffer(make([]byte, 0, 64<<10), maxDebugCSV)
	for sc.Scan() {
		report.LineCount++
		if len(report.FirstLines) < debugFirstLines {
			report.FirstLines = append(report.FirstLines, sc.Text())
		}
	}

	respond.JSON(w, t.logger, http.StatusOK, report)
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > debugPreview {
		runes = runes[:debugPreview]
	}
	return string(runes)
}
