package console

import (
	"context"

	"github.com/meetinsight/meeting-insight/internal/model"
)

// AnalysisLister reads stored analyses.
type AnalysisLister interface {
	ListAnalyses(ctx context.Context) ([]model.Analysis, error)
}

// RoleStore reads and replaces the role list.
type RoleStore interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	SaveRoles(ctx context.Context, roles []model.Role) error
}

// SettingsStore reads and replaces system settings.
type SettingsStore interface {
	Settings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error
}

// UploadLister lists stored transcripts.
type UploadLister interface {
	ListUploads(ctx context.Context) ([]string, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DirReporter reports the directories data and uploads are kept in.
type DirReporter interface {
	Dirs() (dataDir, uploadDir string)
}

// Deps bundles what the console reads and writes.
type Deps struct {
	Analyses AnalysisLister
	Roles    RoleStore
	Settings SettingsStore
	Uploads  UploadLister
	Dirs     DirReporter
	Checks   map[string]Pinger
}
