package pageclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// ErrNotBound is returned when activating a handler whose element was
// absent from the page.
var ErrNotBound = errors.New("pageclient: handler not bound")

// Elements names the page elements the handlers attach to.
type Elements struct {
	UploadFormID    string
	AnalyzeButtonID string
	MethodGroup     string
}

// Endpoints are resolved against Config.BaseURL.
type Endpoints struct {
	Upload  string
	Analyze string
}

// Config controls how a page is bound. A zero Timeout leaves requests
// unbounded; callers can still bound a call through its context.
type Config struct {
	BaseURL    string
	Elements   Elements
	Endpoints  Endpoints
	HTTPClient *http.Client
	Timeout    time.Duration
}

// DefaultConfig returns the element ids and endpoints of the upload page.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Elements: Elements{
			UploadFormID:    "uploadForm",
			AnalyzeButtonID: "analyzeBtn",
			MethodGroup:     "analysis_method",
		},
		Endpoints: Endpoints{
			Upload:  "/upload",
			Analyze: "/analyze",
		},
	}
}

// Bindings holds the handlers attached to a page. A handler is nil when its
// element was not found.
type Bindings struct {
	Upload  *UploadHandler
	Analyze *AnalyzeHandler
	timeout time.Duration
}

// Bind attaches the handlers to doc. Missing elements are not an error;
// the matching handler is simply left unbound.
func Bind(doc *Document, cfg Config) *Bindings {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	b := &Bindings{timeout: cfg.Timeout}
	if form, ok := doc.Form(cfg.Elements.UploadFormID); ok {
		b.Upload = &UploadHandler{
			client:   client,
			endpoint: resolve(cfg.BaseURL, cfg.Endpoints.Upload),
			form:     form,
		}
	}
	if doc.HasElement(cfg.Elements.AnalyzeButtonID) {
		b.Analyze = &AnalyzeHandler{
			client:   client,
			endpoint: resolve(cfg.BaseURL, cfg.Endpoints.Analyze),
			methods:  doc.RadioGroup(cfg.Elements.MethodGroup),
		}
	}
	return b
}

// SubmitUpload activates the upload form.
func (b *Bindings) SubmitUpload(ctx context.Context) Outcome {
	if b.Upload == nil {
		return Outcome{Err: ErrNotBound}
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.Upload.Submit(ctx)
}

// ClickAnalyze activates the analyze button.
func (b *Bindings) ClickAnalyze(ctx context.Context) Outcome {
	if b.Analyze == nil {
		return Outcome{Err: ErrNotBound}
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.Analyze.Click(ctx)
}

func (b *Bindings) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

// resolve joins ref onto base. An unparsable pair is returned unchanged so
// the error surfaces when the request is built.
func resolve(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return base + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	return b.ResolveReference(r).String()
}
