// Package template renders descriptions for destinations whose markup is
// described by a template rather than a built-in emitter. It produces
// model.DescriptionRenderer hooks for the custom dialect.
//
// Templates receive the destination, title, tags, insert flags, the document
// as plain text and as each built-in dialect, and the raw blocks. They decide
// themselves whether and where to place the title and tags. Templates whose
// name ends in ".html" produce HTML; their output is sanitized.
package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	rtemplate "github.com/crosspost-dev/go-crosspost/pkg/render/template"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithRegistry overrides the emitters used to pre-render the document.
func WithRegistry(reg *render.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer binds template names to description hooks.
type Renderer struct {
	engine   rtemplate.TemplateRenderer
	registry *render.Registry
	logger   *zap.Logger
}

// New returns a Renderer executing templates on engine.
func New(engine rtemplate.TemplateRenderer, opts ...Option) (*Renderer, error) {
	if engine == nil {
		return nil, errors.New("template renderer: engine is required")
	}
	r := &Renderer{
		engine:   engine,
		registry: renderers.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Hook returns the description renderer for the named template.
func (r *Renderer) Hook(name string) model.DescriptionRenderer {
	return model.DescriptionRendererFunc(func(ctx context.Context, input model.DescriptionInput) (string, error) {
		return r.RenderDescription(ctx, name, input)
	})
}

// RenderDescription executes the named template for input.
func (r *Renderer) RenderDescription(ctx context.Context, name string, input model.DescriptionInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("template renderer: %s: template name is required", input.Destination)
	}

	data, err := r.templateData(input)
	if err != nil {
		return "", err
	}
	out, err := r.engine.RenderTemplate(name, data)
	if err != nil {
		return "", fmt.Errorf("template renderer: %s: %w", input.Destination, err)
	}
	out = strings.TrimSpace(out)
	if strings.HasSuffix(name, ".html") {
		out = outputPolicy().Sanitize(out)
	}
	r.logger.Debug("description template rendered",
		zap.String("destination", input.Destination),
		zap.String("template", name),
		zap.Int("length", len(out)),
	)
	return out, nil
}

func (r *Renderer) templateData(input model.DescriptionInput) (map[string]any, error) {
	data := map[string]any{
		"destination": input.Destination,
		"title":       input.Title,
		"tags":        append([]string{}, input.Tags...),
		"insertTitle": input.InsertTitle,
		"insertTags":  input.InsertTags,
		"text":        input.Document.PlainText(),
		"blocks":      input.Document.Clone(),
	}
	for _, dialect := range r.registry.List() {
		emitter, err := r.registry.Get(dialect)
		if err != nil {
			return nil, err
		}
		data[string(dialect)] = render.Walk(emitter, input.Document)
	}
	return data, nil
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func outputPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}
