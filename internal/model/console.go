package model

// Role is a meeting participant known to the system.
type Role struct {
	Company string `json:"company"`
	Name    string `json:"name"`
	Title   string `json:"title"`
}

// Manager is one of the built-in managers whose responsibilities are scored.
type Manager struct {
	Name             string   `json:"name"`
	Title            string   `json:"title"`
	Responsibilities []string `json:"responsibilities"`
}

// Customer is one of the built-in customer contacts.
type Customer struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Title   string `json:"title"`
}

// Settings is the user-editable system configuration.
type Settings struct {
	SystemName string `json:"system_name"`
	AIURL      string `json:"ai_url"`
	AIModel    string `json:"ai_model"`
	AIAPIKey   string `json:"ai_api_key"`
	Prompt     string `json:"prompt"`
}

// DefaultSettings returns the settings used before any have been saved.
func DefaultSettings() Settings {
	return Settings{
		SystemName: "会议分析系统",
		AIURL:      "https://api.deepseek.com/v1/chat/completions",
		AIModel:    "deepseek-chat",
		Prompt:     "请分析会议对话",
	}
}

// DashboardStats summarizes stored analyses.
type DashboardStats struct {
	TotalFiles      int        `json:"total_files"`
	TotalMeetings   int        `json:"total_meetings"`
	TotalActions    int        `json:"total_actions"`
	TotalComplaints int        `json:"total_complaints"`
	TotalManagers   int        `json:"total_managers"`
	Recent          []Analysis `json:"recent"`
}
