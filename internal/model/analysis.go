package model

import "time"

// Analysis method identifiers recorded on results.
const (
	MethodLocal = "local_model"
	MethodAI    = "ai_model"
)

// Analysis holds the complete result of analyzing one meeting transcript.
type Analysis struct {
	ID              string         `json:"id"`
	Metadata        Metadata       `json:"metadata"`
	Summary         []string       `json:"summary"`
	ActionItems     []ActionItem   `json:"action_items"`
	Complaints      []Complaint    `json:"complaints"`
	GTAnalysis      GTScores       `json:"gt_analysis"`
	ManagerAnalysis map[string]int `json:"manager_analysis"`
	AnalysisMethod  string         `json:"analysis_method"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Metadata is derived from the transcript's filename.
type Metadata struct {
	Filename string `json:"filename"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Topic    string `json:"topic"`
}

// ActionItem is a sentence that assigns or tracks work.
type ActionItem struct {
	Description string `json:"description"`
	Deadline    string `json:"deadline,omitempty"`
}

// Complaint is a sentence that raises a problem.
type Complaint struct {
	Content string `json:"content"`
}

// GTScores counts keyword hits per grassroots-tragedy category.
type GTScores struct {
	Performance int `json:"performance"`
	Shield      int `json:"shield"`
	Wash        int `json:"wash"`
	Delay       int `json:"delay"`
}

// UploadResult is the JSON body returned by POST /upload.
type UploadResult struct {
	Analyses []Analysis `json:"analyses"`
	Skipped  []string   `json:"skipped"`
}

// AnalyzeRequest is the JSON body accepted by POST /analyze.
type AnalyzeRequest struct {
	Filenames      []string `json:"filenames"`
	AnalysisMethod string   `json:"analysis_method"`
}

// AnalyzeResult is the JSON body returned by POST /analyze.
type AnalyzeResult struct {
	Analyses []Analysis `json:"analyses"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
