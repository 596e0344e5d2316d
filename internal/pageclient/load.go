package pageclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/meetinsight/meeting-insight/internal/platform/errs"
	"github.com/meetinsight/meeting-insight/internal/platform/requestid"
)

const (
	maxPageBody = 10 << 20
	userAgent   = "MeetingInsightClient/1.0"
)

// limitedReadCloser reads from a LimitReader but closes the original body.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

// Load fetches and parses the page at pageURL. A nil client uses a client
// without a timeout.
func Load(ctx context.Context, client *http.Client, pageURL string) (*Document, error) {
	if client == nil {
		client = &http.Client{}
	}

	body, err := fetch(ctx, client, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := Parse(body)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.ParsingFailed, Message: "Failed to parse the page.", Cause: err}
	}
	return doc, nil
}

func fetch(ctx context.Context, client *http.Client, pageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: fmt.Sprintf("Invalid page URL %q.", pageURL), Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")
	requestid.Propagate(req)

	resp, err := client.Do(req) //nolint:bodyclose // body is returned to caller via limitedReadCloser
	if err != nil {
		return nil, transportError(req, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: resp.StatusCode,
			Message:        fmt.Sprintf("The page returned HTTP %d.", resp.StatusCode),
		}
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, maxPageBody),
		Closer: resp.Body,
	}, nil
}
