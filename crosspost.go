// Package crosspost resolves one authored submission into the concrete
// content each destination receives: a length-limited title, a converted and
// capped tag list, and a description rendered in the destination's markup
// dialect.
package crosspost

import (
	"context"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/orchestrator"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
	"github.com/crosspost-dev/go-crosspost/pkg/submission"
)

// Options is the keyed field record for the defaults or one destination.
type Options = model.Options

// Result is the resolved content for one destination.
type Result = model.Result

// Capability describes what one destination supports.
type Capability = model.Capability

// Dialect names a description markup format.
type Dialect = model.Dialect

// Document is the rich-text description tree.
type Document = richtext.Document

// Target, Request and Resolution alias the orchestrator types.
type (
	Target     = orchestrator.Target
	Request    = orchestrator.Request
	Resolution = orchestrator.Resolution
)

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module. The embedded description templates are wired in unless the caller
// passes its own WithTemplates.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	var defaults []orchestrator.Option
	if templates, err := NewTemplates(""); err == nil {
		defaults = append(defaults, orchestrator.WithTemplates(templates))
	}
	return orchestrator.New(append(defaults, options...)...)
}

// Resolve resolves defaults for each named destination using the built-in
// schema table unless options say otherwise.
func Resolve(ctx context.Context, defaults Options, destinations map[string]Options, order []string, options ...orchestrator.Option) ([]Resolution, error) {
	req := Request{Defaults: defaults}
	for _, name := range order {
		req.Targets = append(req.Targets, Target{Destination: name, Options: destinations[name]})
	}
	return NewOrchestrator(options...).Resolve(ctx, req)
}

// ResolveSubmission resolves a decoded submission for every destination it
// declares, in declaration order.
func ResolveSubmission(ctx context.Context, sub submission.Submission, options ...orchestrator.Option) ([]Resolution, error) {
	return Resolve(ctx, sub.Defaults, sub.Destinations, sub.Order, options...)
}
