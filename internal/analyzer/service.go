package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/meetinsight/meeting-insight/internal/meeting"
	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/errs"
	"github.com/meetinsight/meeting-insight/internal/platform/requestid"
	"github.com/meetinsight/meeting-insight/internal/store"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UploadedFile is one file part received by POST /upload.
type UploadedFile struct {
	Name    string
	Content []byte
}

// Service stores transcripts, runs the selected provider over them and
// records the results.
type Service struct {
	providers ProviderResolver
	pool      *meeting.Pool
	analyses  AnalysisStore
	uploads   UploadStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires a Service.
func NewService(providers ProviderResolver, pool *meeting.Pool, analyses AnalysisStore, uploads UploadStore, logger *slog.Logger) *Service {
	return &Service{
		providers: providers,
		pool:      pool,
		analyses:  analyses,
		uploads:   uploads,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload saves every .txt file, analyzes them with method and appends the
// results. Other files are returned in Skipped.
func (s *Service) Upload(ctx context.Context, method string, files []UploadedFile) (*model.UploadResult, error) {
	logger := s.logger.With("method", method, "request_id", requestid.FromContext(ctx))

	provider, err := s.ready(ctx, method)
	if err != nil {
		return nil, err
	}

	result := &model.UploadResult{Analyses: []model.Analysis{}, Skipped: []string{}}
	var transcripts []meeting.Transcript
	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f.Name), ".txt") {
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}

		content := bytes.TrimPrefix(f.Content, utf8BOM)
		if !utf8.Valid(content) {
			logger.Warn("skipping non-UTF-8 transcript", "file", f.Name)
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}

		name, err := s.uploads.SaveUpload(ctx, f.Name, bytes.NewReader(content))
		if errors.Is(err, store.ErrInvalidName) {
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}
		if err != nil {
			return nil, s.storageError(logger, "Failed to save the uploaded file.", err)
		}
		transcripts = append(transcripts, meeting.Transcript{Filename: name, Content: string(content)})
	}

	analyses, err := s.run(ctx, logger, provider, transcripts)
	if err != nil {
		return nil, err
	}
	result.Analyses = analyses

	logger.Info("upload analyzed", "analyzed", len(analyses), "skipped", len(result.Skipped))
	return result, nil
}

// AnalyzeStored re-analyzes previously uploaded transcripts. An empty
// filename list selects every stored upload.
func (s *Service) AnalyzeStored(ctx context.Context, req model.AnalyzeRequest) (*model.AnalyzeResult, error) {
	logger := s.logger.With("method", req.AnalysisMethod, "request_id", requestid.FromContext(ctx))

	provider, err := s.ready(ctx, req.AnalysisMethod)
	if err != nil {
		return nil, err
	}

	names := req.Filenames
	if len(names) == 0 {
		names, err = s.uploads.ListUploads(ctx)
		if err != nil {
			return nil, s.storageError(logger, "Failed to list uploaded files.", err)
		}
	}

	transcripts := make([]meeting.Transcript, 0, len(names))
	for _, name := range names {
		data, err := s.uploads.ReadUpload(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &errs.AppError{
				Kind:    errs.NotFound,
				Message: fmt.Sprintf("Transcript %q has not been uploaded.", name),
				Cause:   err,
			}
		}
		if err != nil {
			return nil, s.storageError(logger, "Failed to read an uploaded file.", err)
		}
		transcripts = append(transcripts, meeting.Transcript{Filename: name, Content: string(data)})
	}

	analyses, err := s.run(ctx, logger, provider, transcripts)
	if err != nil {
		return nil, err
	}

	logger.Info("stored transcripts analyzed", "analyzed", len(analyses))
	return &model.AnalyzeResult{Analyses: analyses}, nil
}

// ready resolves method and, when the provider supports it, checks its
// configuration before any file is saved.
func (s *Service) ready(ctx context.Context, method string) (meeting.Provider, error) {
	provider, err := s.providers.Lookup(method)
	if err != nil {
		return nil, err
	}
	if c, ok := provider.(meeting.Checker); ok {
		if err := c.Check(ctx); err != nil {
			return nil, err
		}
	}
	return provider, nil
}

// List returns every stored analysis.
func (s *Service) List(ctx context.Context) ([]model.Analysis, error) {
	analyses, err := s.analyses.ListAnalyses(ctx)
	if err != nil {
		return nil, s.storageError(s.logger, "Failed to load analyses.", err)
	}
	return analyses, nil
}

// run analyzes the batch and persists it. The first failing transcript
// fails the whole batch and nothing is stored.
func (s *Service) run(ctx context.Context, logger *slog.Logger, provider meeting.Provider, transcripts []meeting.Transcript) ([]model.Analysis, error) {
	analyses := make([]model.Analysis, 0, len(transcripts))
	if len(transcripts) == 0 {
		return analyses, nil
	}

	for _, r := range s.pool.AnalyzeAll(ctx, provider, transcripts) {
		if r.Err != nil {
			err := r.Err
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = &errs.AppError{
					Kind:    errs.Timeout,
					Message: "Analysis timed out. Try fewer or smaller transcripts.",
					Cause:   err,
				}
			}

			attrs := []any{"error", err, "file", r.Transcript.Filename}
			var appErr *errs.AppError
			if errors.As(err, &appErr) && appErr.UpstreamStatus != 0 {
				attrs = append(attrs, "upstream_status", appErr.UpstreamStatus)
			}
			logger.Error("analysis failed", attrs...)
			return nil, err
		}

		a := *r.Analysis
		a.ID = uuid.NewString()
		a.CreatedAt = s.now().UTC()
		analyses = append(analyses, a)
	}

	if err := s.analyses.AppendAnalyses(ctx, analyses); err != nil {
		return nil, s.storageError(logger, "Failed to save analysis results.", err)
	}
	return analyses, nil
}

func (s *Service) storageError(logger *slog.Logger, message string, err error) error {
	logger.Error("storage failure", "error", err)
	return &errs.AppError{Kind: errs.Storage, Message: message, Cause: err}
}
