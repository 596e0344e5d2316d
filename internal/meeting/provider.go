package meeting

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/errs"
)

// Request method names accepted from clients.
const (
	MethodLocal = "local"
	MethodAI    = "ai"
)

// Transcript is one uploaded meeting record.
type Transcript struct {
	Filename string
	Content  string
}

// Provider defines the contract for any meeting analysis engine.
type Provider interface {
	Analyze(ctx context.Context, t Transcript) (*model.Analysis, error)
}

// Checker is implemented by providers whose configuration can be verified
// before any transcript is stored or sent.
type Checker interface {
	Check(ctx context.Context) error
}

// Registry resolves request method names to providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry returns a registry that serves the local analyzer under
// "local" and, when ai is non-nil, the AI analyzer under "ai".
func NewRegistry(local Provider, ai Provider) *Registry {
	r := &Registry{providers: map[string]Provider{MethodLocal: local}}
	if ai != nil {
		r.providers[MethodAI] = ai
	}
	return r
}

// Lookup returns the provider registered for method.
func (r *Registry) Lookup(method string) (Provider, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "The \"analysis_method\" field is required.",
		}
	}
	p, ok := r.providers[method]
	if !ok {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: fmt.Sprintf("Unknown analysis method %q. Supported: %s.", method, strings.Join(r.Methods(), ", ")),
		}
	}
	return p, nil
}

// Methods lists the registered method names in sorted order.
func (r *Registry) Methods() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
