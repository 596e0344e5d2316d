package console

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/respond"
)

const maskPrefix = "****"

// maskKey keeps only the last four characters of an API key.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	runes := []rune(key)
	if len(runes) <= 4 {
		return maskPrefix
	}
	return maskPrefix + string(runes[len(runes)-4:])
}

func (t *Transport) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := t.deps.Settings.Settings(r.Context())
	if err != nil {
		t.storageError(w, "Failed to load settings.", err)
		return
	}
	settings.AIAPIKey = maskKey(settings.AIAPIKey)
	respond.JSON(w, t.logger, http.StatusOK, settings)
}

// handleSaveSettings keeps the stored value of every field posted empty, and
// the stored API key when the posted one is still masked.
func (t *Transport) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var posted model.Settings
	if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
		respond.Error(w, t.logger, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	if posted.AIURL != "" {
		u, err := url.Parse(posted.AIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			respond.Error(w, t.logger, http.StatusBadRequest, "ai_url must be an absolute http(s) URL.")
			return
		}
	}

	current, err := t.deps.Settings.Settings(r.Context())
	if err != nil {
		t.storageError(w, "Failed to load settings.", err)
		return
	}
	if posted.AIAPIKey == "" || strings.HasPrefix(posted.AIAPIKey, maskPrefix) {
		posted.AIAPIKey = current.AIAPIKey
	}
	keep(&posted.SystemName, current.SystemName)
	keep(&posted.AIURL, current.AIURL)
	keep(&posted.AIModel, current.AIModel)
	keep(&posted.Prompt, current.Prompt)

	if err := t.deps.Settings.SaveSettings(r.Context(), posted); err != nil {
		t.storageError(w, "Failed to save settings.", err)
		return
	}

	t.logger.Info("settings saved", "ai_url", posted.AIURL, "ai_model", posted.AIModel)
	respond.JSON(w, t.logger, http.StatusOK, messageResponse{Success: true, Message: "设置保存成功"})
}

func keep(field *string, current string) {
	if strings.TrimSpace(*field) == "" {
		*field = current
	}
}
