package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/meetinsight/meeting-insight/internal/meeting"
	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/errs"
	"github.com/meetinsight/meeting-insight/internal/platform/respond"
)

const (
	analyzeTimeout   = 60 * time.Second
	maxAnalyzeBody   = 1 << 20 // 1 MB
	multipartMemory  = 8 << 20
	uploadFilesField = "files"
	methodField      = "analysis_method"
)

// Transport handles the upload and analysis endpoints.
type Transport struct {
	service        *Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewTransport creates an HTTP transport backed by the given service.
func NewTransport(service *Service, logger *slog.Logger, maxUploadBytes int64) *Transport {
	return &Transport{service: service, logger: logger, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the transport's handlers to the given router.
func (t *Transport) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/upload", t.handleUpload).Methods(http.MethodPost).Name("upload")
	r.HandleFunc("/analyze", t.handleAnalyze).Methods(http.MethodPost).Name("analyze")
	r.HandleFunc("/analyses", t.handleList).Methods(http.MethodGet).Name("list_analyses")
}

func (t *Transport) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, t.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.AppError(w, t.logger, &errs.AppError{Kind: errs.TooLarge, Message: "The upload exceeds the size limit.", Cause: err})
			return
		}
		respond.Error(w, t.logger, http.StatusBadRequest, "Invalid upload. Please send multipart form data with one or more \"files\" parts.")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadFilesField]
	if len(headers) == 0 {
		respond.Error(w, t.logger, http.StatusBadRequest, "No files were uploaded.")
		return
	}

	files := make([]UploadedFile, 0, len(headers))
	for _, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			respond.Error(w, t.logger, http.StatusBadRequest, "Failed to read an uploaded file.")
			return
		}
		files = append(files, UploadedFile{Name: fh.Filename, Content: content})
	}

	method := r.FormValue(methodField)
	if method == "" {
		method = meeting.MethodLocal
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	result, err := t.service.Upload(ctx, method, files)
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}

	respond.JSON(w, t.logger, http.StatusOK, result)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (t *Transport) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)

	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, t.logger, http.StatusBadRequest, "Invalid request body. Please send a JSON object with \"filenames\" and \"analysis_method\" fields.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	result, err := t.service.AnalyzeStored(ctx, req)
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}

	respond.JSON(w, t.logger, http.StatusOK, result)
}

func (t *Transport) handleList(w http.ResponseWriter, r *http.Request) {
	analyses, err := t.service.List(r.Context())
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}
	respond.JSON(w, t.logger, http.StatusOK, analyses)
}
