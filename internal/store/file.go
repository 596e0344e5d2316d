package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/meetinsight/meeting-insight/internal/model"
)

const (
	analysesFile = "analyses.json"
	rolesFile    = "roles.csv"
	settingsFile = "settings.json"
)

var (
	utf8BOM     = []byte{0xEF, 0xBB, 0xBF}
	roleColumns = []string{"company", "name", "title"}
)

// FileStore keeps everything as files: JSON and CSV under dataDir,
// transcripts under uploadDir.
type FileStore struct {
	dataDir   string
	uploadDir string
	mu        sync.RWMutex
}

// NewFileStore creates both directories if needed.
func NewFileStore(dataDir, uploadDir string) (*FileStore, error) {
	for _, dir := range []string{dataDir, uploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &FileStore{dataDir: dataDir, uploadDir: uploadDir}, nil
}

// ListAnalyses returns every stored analysis in insertion order.
func (s *FileStore) ListAnalyses(_ context.Context) ([]model.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readAnalyses()
}

// AppendAnalyses adds analyses to the end of analyses.json.
func (s *FileStore) AppendAnalyses(_ context.Context, analyses []model.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAnalyses()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(append(existing, analyses...), "", "    ")
	if err != nil {
		return fmt.Errorf("encode analyses: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dataDir, analysesFile), data)
}

func (s *FileStore) readAnalyses() ([]model.Analysis, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, analysesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Analysis{}, nil
	}
	if err != nil {
		return nil, err
	}

	analyses := []model.Analysis{}
	if err := json.Unmarshal(data, &analyses); err != nil {
		return nil, fmt.Errorf("decode %s: %w", analysesFile, err)
	}
	return analyses, nil
}

// ListRoles reads roles.csv. Columns are matched by header name; a missing
// file yields no roles.
func (s *FileStore) ListRoles(_ context.Context) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dataDir, rolesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Role{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRoles(bytes.TrimPrefix(data, utf8BOM))
}

func decodeRoles(data []byte) ([]model.Role, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []model.Role{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", rolesFile, err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}
	field := func(rec []string, col string) string {
		if i, ok := index[col]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	roles := []model.Role{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return roles, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", rolesFile, err)
		}
		roles = append(roles, model.Role{
			Company: field(rec, "company"),
			Name:    field(rec, "name"),
			Title:   field(rec, "title"),
		})
	}
}

// SaveRoles rewrites roles.csv with a UTF-8 BOM so spreadsheet tools detect the encoding.
func (s *FileStore) SaveRoles(_ context.Context, roles []model.Role) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(roleColumns); err != nil {
		return err
	}
	for _, role := range roles {
		if err := w.Write([]string{role.Company, role.Name, role.Title}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(filepath.Join(s.dataDir, rolesFile), buf.Bytes())
}

// Settings returns the saved settings, or the defaults when none were saved.
func (s *FileStore) Settings(_ context.Context) (model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dataDir, settingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, err
	}

	var settings model.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.Settings{}, fmt.Errorf("decode %s: %w", settingsFile, err)
	}
	return settings, nil
}

// SaveSettings replaces settings.json.
func (s *FileStore) SaveSettings(_ context.Context, settings model.Settings) error {
	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(filepath.Join(s.dataDir, settingsFile), data)
}

// SaveUpload stores r under the cleaned base name and returns that name.
// An existing upload with the same name is replaced.
func (s *FileStore) SaveUpload(_ context.Context, name string, r io.Reader) (string, error) {
	clean, err := CleanUploadName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(filepath.Join(s.uploadDir, clean), data); err != nil {
		return "", err
	}
	return clean, nil
}

// ReadUpload returns the content of a stored upload.
func (s *FileStore) ReadUpload(_ context.Context, name string) ([]byte, error) {
	clean, err := CleanUploadName(name)
	if err != nil || clean != name {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.uploadDir, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return data, err
}

// ListUploads returns the names of stored uploads, sorted.
func (s *FileStore) ListUploads(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Ping reports whether both directories are still present.
func (s *FileStore) Ping(_ context.Context) error {
	for _, dir := range []string{s.dataDir, s.uploadDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
	}
	return nil
}

// Dirs returns the data and upload directories.
func (s *FileStore) Dirs() (dataDir, uploadDir string) {
	return s.dataDir, s.uploadDir
}
