package meeting

import (
	"context"
	"strings"

	"github.com/meetinsight/meeting-insight/internal/model"
)

// LocalAnalyzer extracts meeting insights with keyword rules and no
// network access.
type LocalAnalyzer struct {
	managers []model.Manager
}

// NewLocalAnalyzer returns an analyzer that scores the default managers.
func NewLocalAnalyzer() *LocalAnalyzer {
	return &LocalAnalyzer{managers: DefaultManagers()}
}

// Analyze runs every extraction rule over the transcript.
func (a *LocalAnalyzer) Analyze(ctx context.Context, t Transcript) (*model.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sentences := SplitSentences(t.Content)
	return &model.Analysis{
		Metadata:        ExtractMetadata(t.Filename),
		Summary:         summarize(sentences),
		ActionItems:     extractActionItems(sentences),
		Complaints:      extractComplaints(sentences),
		GTAnalysis:      scoreGT(sentences),
		ManagerAnalysis: a.scoreManagers(sentences),
		AnalysisMethod:  model.MethodLocal,
	}, nil
}

func summarize(sentences []string) []string {
	n := min(len(sentences), summarySentences)
	out := make([]string, n)
	copy(out, sentences[:n])
	return out
}

func extractActionItems(sentences []string) []model.ActionItem {
	items := []model.ActionItem{}
	for _, s := range sentences {
		if containsAny(s, actionKeywords) {
			items = append(items, model.ActionItem{Description: s})
		}
	}
	return items
}

func extractComplaints(sentences []string) []model.Complaint {
	complaints := []model.Complaint{}
	for _, s := range sentences {
		if containsAny(s, complaintKeywords) {
			complaints = append(complaints, model.Complaint{Content: s})
		}
	}
	return complaints
}

func scoreGT(sentences []string) model.GTScores {
	return model.GTScores{
		Performance: countHits(sentences, performanceKeywords),
		Shield:      countHits(sentences, shieldKeywords),
		Wash:        countHits(sentences, washKeywords),
		Delay:       countHits(sentences, delayKeywords),
	}
}

// scoreManagers counts, per manager, the sentences that mention the manager
// by name or touch one of their responsibilities.
func (a *LocalAnalyzer) scoreManagers(sentences []string) map[string]int {
	scores := make(map[string]int, len(a.managers))
	for _, m := range a.managers {
		var n int
		for _, s := range sentences {
			if strings.Contains(s, m.Name) || containsAny(s, m.Responsibilities) {
				n++
			}
		}
		scores[m.Name] = n
	}
	return scores
}
