package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meetinsight/meeting-insight/internal/model"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	root := t.TempDir()
	s, err := NewFileStore(filepath.Join(root, "data"), filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStore_Analyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.ListAnalyses(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("ListAnalyses on empty store = %v, %v", got, err)
	}

	first := model.Analysis{ID: "1", Metadata: model.Metadata{Filename: "a.txt"}, CreatedAt: time.Unix(0, 0).UTC()}
	second := model.Analysis{ID: "2", Metadata: model.Metadata{Filename: "b.txt"}, CreatedAt: time.Unix(1, 0).UTC()}
	if err := s.AppendAnalyses(ctx, []model.Analysis{first}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendAnalyses(ctx, []model.Analysis{second}); err != nil {
		t.Fatal(err)
	}

	got, err = s.ListAnalyses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("ListAnalyses = %+v, want [1 2]", got)
	}
}

func TestFileStore_AppendAnalyses_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			_ = s.AppendAnalyses(ctx, []model.Analysis{{ID: string(rune('a' + i))}})
		})
	}
	wg.Wait()

	got, err := s.ListAnalyses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("got %d analyses, want 10", len(got))
	}
}

func TestFileStore_Roles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	roles := []model.Role{
		{Company: "YungSen Corp", Name: "YungSen", Title: "客户代表"},
		{Company: "adline Inc", Name: "adline", Title: "技术经理, 华南"},
	}
	if err := s.SaveRoles(ctx, roles); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(s.dataDir, rolesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), string(utf8BOM)+"company,name,title\n") {
		t.Errorf("roles.csv header = %q", raw)
	}

	got, err := s.ListRoles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, roles) {
		t.Errorf("ListRoles = %+v, want %+v", got, roles)
	}
}

func TestFileStore_ListRoles_ReordersColumns(t *testing.T) {
	s := newTestStore(t)
	csv := "title,name,company\nPM,Mark,Acme\n"
	if err := os.WriteFile(filepath.Join(s.dataDir, rolesFile), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListRoles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Role{{Company: "Acme", Name: "Mark", Title: "PM"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListRoles = %+v, want %+v", got, want)
	}
}

func TestFileStore_Settings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Settings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != model.DefaultSettings() {
		t.Errorf("Settings = %+v, want defaults", got)
	}

	custom := model.Settings{SystemName: "Weekly", AIURL: "https://llm.example.com", AIModel: "m", AIAPIKey: "k", Prompt: "p"}
	if err := s.SaveSettings(ctx, custom); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Settings(ctx); got != custom {
		t.Errorf("Settings = %+v, want %+v", got, custom)
	}
}

func TestFileStore_Uploads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	name, err := s.SaveUpload(ctx, `C:\Users\amy\周会_20240115_093000.txt`, strings.NewReader("需要处理。"))
	if err != nil {
		t.Fatal(err)
	}
	if name != "周会_20240115_093000.txt" {
		t.Errorf("name = %q", name)
	}
	if _, err := s.SaveUpload(ctx, "b.txt", strings.NewReader("b")); err != nil {
		t.Fatal(err)
	}

	data, err := s.ReadUpload(ctx, name)
	if err != nil || string(data) != "需要处理。" {
		t.Errorf("ReadUpload = %q, %v", data, err)
	}

	names, err := s.ListUploads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"b.txt", "周会_20240115_093000.txt"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ListUploads = %q, want %q", names, want)
	}

	for _, bad := range []string{"missing.txt", "../data/settings.json", "sub/b.txt"} {
		if _, err := s.ReadUpload(ctx, bad); !errors.Is(err, ErrNotFound) {
			t.Errorf("ReadUpload(%q) err = %v, want ErrNotFound", bad, err)
		}
	}
}

func TestCleanUploadName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "notes.txt", want: "notes.txt"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `dir\file.txt`, want: "file.txt"},
		{in: "", wantErr: true},
		{in: "..", wantErr: true},
		{in: ".env", wantErr: true},
		{in: "dir/", want: "dir"},
	}

	for _, tt := range tests {
		got, err := CleanUploadName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("CleanUploadName(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanUploadName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileStore_Ping(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := os.RemoveAll(s.uploadDir); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping succeeded with upload dir removed")
	}
}
