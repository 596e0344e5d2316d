package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/errs"
	"github.com/meetinsight/meeting-insight/internal/platform/requestid"
)

const (
	maxRedirects    = 5
	maxAIReplyBytes = 10 << 20
	userAgent       = "MeetingInsight/1.0"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// replyInstructions is appended to the configured prompt so the model
// answers with a machine-readable object.
const replyInstructions = `
Reply with a single JSON object and nothing else:
{"summary": ["..."], "action_items": [{"description": "...", "deadline": "YYYY-MM-DD or empty"}], "complaints": [{"content": "..."}]}`

// SettingsSource supplies the current AI endpoint settings.
type SettingsSource interface {
	Settings(ctx context.Context) (model.Settings, error)
}

// AIAnalyzer asks an OpenAI-compatible chat-completions endpoint for the
// summary, action items and complaints; keyword scores are computed locally.
type AIAnalyzer struct {
	settings SettingsSource
	client   *http.Client
	scorer   *LocalAnalyzer
}

// NewAIAnalyzer returns an analyzer whose requests time out after timeout.
// Connections to private/reserved addresses are refused unless allowPrivate.
func NewAIAnalyzer(settings SettingsSource, timeout time.Duration, allowPrivate bool) *AIAnalyzer {
	return newAIAnalyzer(settings, &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         aiDialer(allowPrivate).DialContext,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: redirectPolicy,
	})
}

func newAIAnalyzer(settings SettingsSource, client *http.Client) *AIAnalyzer {
	return &AIAnalyzer{settings: settings, client: client, scorer: NewLocalAnalyzer()}
}

func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type aiReply struct {
	Summary     []string           `json:"summary"`
	ActionItems []model.ActionItem `json:"action_items"`
	Complaints  []model.Complaint  `json:"complaints"`
}

// Check reports whether the stored settings are usable: an API key and an
// absolute http(s) URL.
func (a *AIAnalyzer) Check(ctx context.Context) error {
	_, err := a.loadSettings(ctx)
	return err
}

// Analyze sends the transcript to the configured model.
func (a *AIAnalyzer) Analyze(ctx context.Context, t Transcript) (*model.Analysis, error) {
	settings, err := a.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	content, err := a.chat(ctx, settings, t.Content)
	if err != nil {
		return nil, err
	}

	var reply aiReply
	if err := json.Unmarshal([]byte(extractJSON(content)), &reply); err != nil {
		return nil, &errs.AppError{
			Kind:    errs.ParsingFailed,
			Message: "The AI reply was not the expected JSON object.",
			Cause:   err,
		}
	}

	local, err := a.scorer.Analyze(ctx, t)
	if err != nil {
		return nil, err
	}

	local.Summary = nonNil(reply.Summary)
	local.ActionItems = nonNil(reply.ActionItems)
	local.Complaints = nonNil(reply.Complaints)
	local.AnalysisMethod = model.MethodAI
	return local, nil
}

func (a *AIAnalyzer) loadSettings(ctx context.Context) (model.Settings, error) {
	settings, err := a.settings.Settings(ctx)
	if err != nil {
		return model.Settings{}, &errs.AppError{Kind: errs.Storage, Message: "Failed to load AI settings.", Cause: err}
	}
	if err := validateSettings(settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func validateSettings(s model.Settings) error {
	if s.AIAPIKey == "" {
		return &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "AI analysis is not configured. Set an API key in the settings.",
		}
	}
	u, err := url.Parse(s.AIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "The configured AI URL must be an absolute http(s) URL.",
			Cause:   err,
		}
	}
	return nil
}

func (a *AIAnalyzer) chat(ctx context.Context, s model.Settings, transcript string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.AIModel,
		Messages: []chatMessage{
			{Role: "system", Content: s.Prompt + replyInstructions},
			{Role: "user", Content: transcript},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.AIURL, bytes.NewReader(body))
	if err != nil {
		return "", &errs.AppError{Kind: errs.InvalidInput, Message: "Invalid AI URL.", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.AIAPIKey)
	req.Header.Set("User-Agent", userAgent)
	requestid.Propagate(req)

	resp, err := a.client.Do(req)
	if err != nil {
		kind := errs.Unreachable
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			kind = errs.Timeout
		}
		return "", &errs.AppError{Kind: kind, Message: "The AI endpoint could not be reached.", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, maxAIReplyBytes)
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(limited, 512))
		return "", &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: resp.StatusCode,
			Message:        "The AI endpoint returned an error status.",
			Cause:          errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	var chat chatResponse
	if err := json.NewDecoder(limited).Decode(&chat); err != nil {
		return "", &errs.AppError{Kind: errs.ParsingFailed, Message: "Failed to decode the AI response.", Cause: err}
	}
	if len(chat.Choices) == 0 {
		return "", &errs.AppError{Kind: errs.ParsingFailed, Message: "The AI response contained no choices."}
	}
	return chat.Choices[0].Message.Content, nil
}

// extractJSON pulls the JSON object out of a reply that may wrap it in a
// markdown fence or surrounding prose.
func extractJSON(reply string) string {
	if start := strings.Index(reply, "```"); start != -1 {
		rest := reply[start+3:]
		// Drop a language tag such as json or JSON on the fence line.
		if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.ContainsAny(rest[:nl], "{[") {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start != -1 && end > start {
		return reply[start : end+1]
	}
	return reply
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
