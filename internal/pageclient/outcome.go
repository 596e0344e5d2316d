package pageclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/meetinsight/meeting-insight/internal/platform/errs"
	"github.com/meetinsight/meeting-insight/internal/platform/requestid"
)

const maxResponseBody = 10 << 20

// Outcome is the result of one handler activation. A response with a
// non-2xx status but a JSON body is not a failure: the status is carried in
// StatusCode and the decoded body in Payload.
type Outcome struct {
	StatusCode int
	Payload    any
	Err        error
}

// Failed reports whether the activation produced no usable response.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// OK reports a decoded response with a 2xx status.
func (o Outcome) OK() bool {
	return o.Err == nil && o.StatusCode >= 200 && o.StatusCode < 300
}

// send issues req and decodes the JSON reply.
func send(client *http.Client, req *http.Request) Outcome {
	requestid.Propagate(req)

	resp, err := client.Do(req)
	if err != nil {
		return Outcome{Err: transportError(req, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Outcome{StatusCode: resp.StatusCode, Err: transportError(req, err)}
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Outcome{
			StatusCode: resp.StatusCode,
			Err: &errs.AppError{
				Kind:           errs.ParsingFailed,
				UpstreamStatus: resp.StatusCode,
				Message:        fmt.Sprintf("%s %s returned a non-JSON body", req.Method, req.URL.Path),
				Cause:          err,
			},
		}
	}
	return Outcome{StatusCode: resp.StatusCode, Payload: payload}
}

func transportError(req *http.Request, err error) error {
	kind := errs.Unreachable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = errs.Timeout
	}
	return &errs.AppError{
		Kind:    kind,
		Message: fmt.Sprintf("%s %s failed", req.Method, req.URL.Redacted()),
		Cause:   err,
	}
}

func requestError(endpoint string, err error) Outcome {
	return Outcome{Err: &errs.AppError{
		Kind:    errs.InvalidInput,
		Message: fmt.Sprintf("cannot build request for %q", endpoint),
		Cause:   err,
	}}
}
