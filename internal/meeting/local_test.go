package meeting

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/meetinsight/meeting-insight/internal/model"
)

const sampleTranscript = "项目进度需要加快。客户投诉了品质问题！Mark负责资源分配？下一步我们总结经验。"

func TestLocalAnalyzer_Analyze(t *testing.T) {
	a := NewLocalAnalyzer()

	got, err := a.Analyze(context.Background(), Transcript{
		Filename: "周会_20240115_093000.txt",
		Content:  sampleTranscript,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Metadata.Topic != "周会" {
		t.Errorf("Topic = %q, want %q", got.Metadata.Topic, "周会")
	}
	if got.AnalysisMethod != model.MethodLocal {
		t.Errorf("AnalysisMethod = %q, want %q", got.AnalysisMethod, model.MethodLocal)
	}

	wantSummary := []string{"项目进度需要加快", "客户投诉了品质问题", "Mark负责资源分配"}
	if !reflect.DeepEqual(got.Summary, wantSummary) {
		t.Errorf("Summary = %q, want %q", got.Summary, wantSummary)
	}

	wantActions := []model.ActionItem{{Description: "项目进度需要加快"}, {Description: "Mark负责资源分配"}}
	if !reflect.DeepEqual(got.ActionItems, wantActions) {
		t.Errorf("ActionItems = %+v, want %+v", got.ActionItems, wantActions)
	}

	wantComplaints := []model.Complaint{{Content: "客户投诉了品质问题"}}
	if !reflect.DeepEqual(got.Complaints, wantComplaints) {
		t.Errorf("Complaints = %+v, want %+v", got.Complaints, wantComplaints)
	}

	wantGT := model.GTScores{Performance: 0, Shield: 0, Wash: 1, Delay: 1}
	if got.GTAnalysis != wantGT {
		t.Errorf("GTAnalysis = %+v, want %+v", got.GTAnalysis, wantGT)
	}

	wantManagers := map[string]int{"Mark": 1, "Eric": 0, "Chester": 0, "David": 0}
	if !reflect.DeepEqual(got.ManagerAnalysis, wantManagers) {
		t.Errorf("ManagerAnalysis = %v, want %v", got.ManagerAnalysis, wantManagers)
	}
}

func TestLocalAnalyzer_EmptyTranscript(t *testing.T) {
	got, err := NewLocalAnalyzer().Analyze(context.Background(), Transcript{Filename: "empty.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary == nil || got.ActionItems == nil || got.Complaints == nil {
		t.Error("empty transcript must yield empty, non-nil slices")
	}
	if len(got.Summary) != 0 || len(got.ActionItems) != 0 || len(got.Complaints) != 0 {
		t.Errorf("expected no findings, got %+v", got)
	}
}

func TestLocalAnalyzer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalAnalyzer().Analyze(ctx, Transcript{Filename: "x.txt", Content: "需要处理。"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
