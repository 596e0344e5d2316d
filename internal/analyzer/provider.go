package analyzer

import (
	"context"
	"io"

	"github.com/meetinsight/meeting-insight/internal/meeting"
	"github.com/meetinsight/meeting-insight/internal/model"
)

// ProviderResolver picks the analysis engine for a request's method name.
type ProviderResolver interface {
	Lookup(method string) (meeting.Provider, error)
}

// AnalysisStore persists analysis results.
type AnalysisStore interface {
	AppendAnalyses(ctx context.Context, analyses []model.Analysis) error
	ListAnalyses(ctx context.Context) ([]model.Analysis, error)
}

// UploadStore keeps uploaded transcripts so they can be re-analyzed.
type UploadStore interface {
	SaveUpload(ctx context.Context, name string, r io.Reader) (string, error)
	ReadUpload(ctx context.Context, name string) ([]byte, error)
	ListUploads(ctx context.Context) ([]string, error)
}
