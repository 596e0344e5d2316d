package console

import (
	"net/http"

	"github.com/meetinsight/meeting-insight/internal/meeting"
	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/respond"
)

const recentAnalyses = 5

type actionItemsView struct {
	Analyses       []model.Analysis `json:"analyses"`
	Roles          []model.Role     `json:"roles"`
	TotalCount     int              `json:"total_count"`
	CompletedCount int              `json:"completed_count"`
	PendingCount   int              `json:"pending_count"`
}

type complaintEntry struct {
	AnalysisID string `json:"analysis_id"`
	Topic      string `json:"topic"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

type complaintsView struct {
	Complaints []complaintEntry `json:"complaints"`
	Roles      []model.Role     `json:"roles"`
}

type managerScores struct {
	AnalysisID string         `json:"analysis_id"`
	Topic      string         `json:"topic"`
	Date       string         `json:"date"`
	Scores     map[string]int `json:"scores"`
}

type managerView struct {
	Managers []model.Manager `json:"managers"`
	Meetings []managerScores `json:"meetings"`
	Totals   map[string]int  `json:"totals"`
}

func (t *Transport) handleDashboard(w http.ResponseWriter, r *http.Request) {
	analyses, ok := t.loadAnalyses(w, r)
	if !ok {
		return
	}
	uploads, err := t.deps.Uploads.ListUploads(r.Context())
	if err != nil {
		t.storageError(w, "Failed to list uploaded files.", err)
		return
	}

	stats := model.DashboardStats{
		TotalFiles:    len(uploads),
		TotalMeetings: len(analyses),
		TotalManagers: len(meeting.DefaultManagers()),
		Recent:        analyses[max(0, len(analyses)-recentAnalyses):],
	}
	for _, a := range analyses {
		stats.TotalActions += len(a.ActionItems)
		stats.TotalComplaints += len(a.Complaints)
	}

	respond.JSON(w, t.logger, http.StatusOK, stats)
}

func (t *Transport) handleMeetingRecords(w http.ResponseWriter, r *http.Request) {
	analyses, ok := t.loadAnalyses(w, r)
	if !ok {
		return
	}
	respond.JSON(w, t.logger, http.StatusOK, analyses)
}

// handleActionItems counts an item with a deadline as pending and one
// without as completed.
func (t *Transport) handleActionItems(w http.ResponseWriter, r *http.Request) {
	analyses, ok := t.loadAnalyses(w, r)
	if !ok {
		return
	}
	roles, ok := t.loadRoles(w, r)
	if !ok {
		return
	}

	view := actionItemsView{Analyses: analyses, Roles: roles}
	for _, a := range analyses {
		for _, item := range a.ActionItems {
			view.TotalCount++
			if item.Deadline != "" {
				view.PendingCount++
			} else {
				view.CompletedCount++
			}
		}
	}

	respond.JSON(w, t.logger, http.StatusOK, view)
}

func (t *Transport) handleComplaints(w http.ResponseWriter, r *http.Request) {
	analyses, ok := t.loadAnalyses(w, r)
	if !ok {
		return
	}
	roles, ok := t.loadRoles(w, r)
	if !ok {
		return
	}

	view := complaintsView{Complaints: []complaintEntry{}, Roles: roles}
	for _, a := range analyses {
		for _, c := range a.Complaints {
			view.Complaints = append(view.Complaints, complaintEntry{
				AnalysisID: a.ID,
				Topic:      a.Metadata.Topic,
				Filename:   a.Metadata.Filename,
				Content:    c.Content,
			})
		}
	}

	respond.JSON(w, t.logger, http.StatusOK, view)
}

func (t *Transport) handleManagerAnalysis(w http.ResponseWriter, r *http.Request) {
	analyses, ok := t.loadAnalyses(w, r)
	if !ok {
		return
	}

	view := managerView{
		Managers: meeting.DefaultManagers(),
		Meetings: make([]managerScores, 0, len(analyses)),
		Totals:   map[string]int{},
	}
	for _, m := range view.Managers {
		view.Totals[m.Name] = 0
	}
	for _, a := range analyses {
		view.Meetings = append(view.Meetings, managerScores{
			AnalysisID: a.ID,
			Topic:      a.Metadata.Topic,
			Date:       a.Metadata.Date,
			Scores:     a.ManagerAnalysis,
		})
		for name, score := range a.ManagerAnalysis {
			view.Totals[name] += score
		}
	}

	respond.JSON(w, t.logger, http.StatusOK, view)
}

func (t *Transport) loadAnalyses(w http.ResponseWriter, r *http.Request) ([]model.Analysis, bool) {
	analyses, err := t.deps.Analyses.ListAnalyses(r.Context())
	if err != nil {
		t.storageError(w, "Failed to load analyses.", err)
		return nil, false
	}
	return analyses, true
}

func (t *Transport) loadRoles(w http.ResponseWriter, r *http.Request) ([]model.Role, bool) {
	roles, err := t.deps.Roles.ListRoles(r.Context())
	if err != nil {
		t.storageError(w, "Failed to load roles.", err)
		return nil, false
	}
	return roles, true
}
