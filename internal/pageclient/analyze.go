package pageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meetinsight/meeting-insight/internal/platform/errs"
)

// ErrNoMethodSelected is returned when the analyze button is clicked while
// no analysis method radio is checked.
var ErrNoMethodSelected = errors.New("pageclient: no analysis method selected")

// analyzeRequest is the body of POST /analyze. Filenames has no selection
// control on the page and is always sent as an empty list.
type analyzeRequest struct {
	Filenames      []string `json:"filenames"`
	AnalysisMethod string   `json:"analysis_method"`
}

// AnalyzeHandler posts the checked analysis method to the analyze endpoint.
type AnalyzeHandler struct {
	client   *http.Client
	endpoint string
	methods  *RadioGroup
}

// Methods returns the radio group the handler reads.
func (h *AnalyzeHandler) Methods() *RadioGroup { return h.methods }

// Click sends one JSON POST for the checked method. With nothing checked
// no request is sent.
func (h *AnalyzeHandler) Click(ctx context.Context) Outcome {
	method, ok := h.methods.Checked()
	if !ok {
		return Outcome{Err: &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "no radio in group " + h.methods.Name() + " is checked",
			Cause:   ErrNoMethodSelected,
		}}
	}

	body, err := json.Marshal(analyzeRequest{Filenames: []string{}, AnalysisMethod: method})
	if err != nil {
		return Outcome{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return requestError(h.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return send(h.client, req)
}
