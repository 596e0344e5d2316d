package pageclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// UploadHandler posts the upload form's data set to the upload endpoint.
// The form's own action and method are never used.
type UploadHandler struct {
	client   *http.Client
	endpoint string
	form     *Form
}

// Form returns the bound form.
func (h *UploadHandler) Form() *Form { return h.form }

// Submit sends the form's current data set as multipart/form-data in one
// POST and returns the decoded JSON reply.
func (h *UploadHandler) Submit(ctx context.Context) Outcome {
	body, contentType, err := encodeMultipart(h.form.dataSet())
	if err != nil {
		return Outcome{Err: fmt.Errorf("encode upload form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return requestError(h.endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	return send(h.client, req)
}

// encodeMultipart writes fields in order. A file input with nothing
// attached becomes an empty part with an empty filename.
func encodeMultipart(fields []field) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if !f.isFile {
			if err := w.WriteField(f.name, f.value); err != nil {
				return nil, "", err
			}
			continue
		}
		part, err := w.CreateFormFile(f.name, f.file.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.file.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
