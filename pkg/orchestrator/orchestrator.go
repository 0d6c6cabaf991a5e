package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crosspost-dev/go-crosspost/pkg/merge"
	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers"
	"github.com/crosspost-dev/go-crosspost/pkg/resolve"
	"github.com/crosspost-dev/go-crosspost/pkg/schema"
	"github.com/crosspost-dev/go-crosspost/pkg/tagconv"
	"github.com/crosspost-dev/go-crosspost/pkg/tagtransform"
)

const tracerName = "github.com/crosspost-dev/go-crosspost/pkg/orchestrator"

// Templates binds template names to description hooks for the custom and
// runtime dialects. *renderers/template.Renderer satisfies it.
type Templates interface {
	Hook(name string) model.DescriptionRenderer
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithTable injects the field-schema table. Without one the embedded
// built-in table is loaded.
func WithTable(table schema.Table) Option {
	return func(o *Orchestrator) {
		o.table = table
		o.tableSpecified = true
	}
}

// WithSource sets the tag converter source.
func WithSource(source tagconv.Source) Option {
	return func(o *Orchestrator) {
		o.source = source
	}
}

// WithRegistry injects the dialect emitter registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithTransforms injects the tag transform registry used to bind transform
// names declared in the schema table.
func WithTransforms(transforms *tagtransform.Registry) Option {
	return func(o *Orchestrator) {
		o.transforms = transforms
	}
}

// WithTemplates supplies the hooks for destinations whose capability names a
// description template.
func WithTemplates(templates Templates) Option {
	return func(o *Orchestrator) {
		o.templates = templates
	}
}

// WithTransformer registers a Transformer that patches each destination
// record before it is resolved.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTracer overrides the OpenTelemetry tracer. The global provider is used
// otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithConcurrency bounds how many destinations resolve at once. Values below
// one fall back to GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// Orchestrator coordinates resolution for every destination of a request.
// Missing dependencies are initialised with the built-in implementations so
// callers can start with a single constructor call.
type Orchestrator struct {
	table          schema.Table
	tableSpecified bool
	source         tagconv.Source
	registry       *render.Registry
	transforms     *tagtransform.Registry
	templates      Templates
	transformer    Transformer
	logger         *zap.Logger
	tracer         trace.Tracer
	concurrency    int

	resolver      *resolve.Resolver
	initialiseErr error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Target is one destination of a request. Capability is optional; when nil
// it is built from the schema table.
type Target struct {
	Destination string
	Options     model.Options
	Capability  *model.Capability
}

// Request carries the shared default record and the destinations to resolve
// it for.
type Request struct {
	Defaults model.Options
	Targets  []Target
}

// Resolution is the outcome for one target. Err is set when that destination
// could not be resolved; Result is then the zero value.
type Resolution struct {
	Destination string
	Result      model.Result
	Err         error
}

// job is a target with everything resolved up front.
type job struct {
	destination string
	options     model.Options
	capability  model.Capability
	scope       schema.Scope
}

// Resolve computes one Resolution per target, in target order. A failing
// destination records its error and never affects the others; the returned
// error is reserved for request-level problems.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) ([]Resolution, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.Resolve",
		trace.WithAttributes(attribute.Int("crosspost.targets", len(req.Targets))))
	defer span.End()

	results := make([]Resolution, len(req.Targets))
	jobs := make([]*job, len(req.Targets))
	for i, target := range req.Targets {
		results[i].Destination = target.Destination
		j, err := o.prepare(ctx, target)
		if err != nil {
			results[i].Err = err
			continue
		}
		jobs[i] = j
	}

	idx, batched := o.fetch(ctx, req.Defaults, jobs)

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, j := range jobs {
		if j == nil {
			continue
		}
		g.Go(func() error {
			results[i].Result, results[i].Err = o.resolveOne(ctx, req.Defaults, j, idx, batched)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			o.logger.Warn("destination failed",
				zap.String("destination", res.Destination),
				zap.Error(res.Err),
			)
		}
	}
	span.SetAttributes(attribute.Int("crosspost.failed", failed))
	o.logger.Info("submission resolved",
		zap.Int("destinations", len(results)),
		zap.Int("failed", failed),
		zap.Bool("batched_lookup", batched),
	)
	return results, nil
}

func (o *Orchestrator) prepare(ctx context.Context, target Target) (*job, error) {
	if target.Destination == "" {
		return nil, errors.New("orchestrator: destination name is required")
	}
	options := target.Options.Clone()
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, target.Destination, &options); err != nil {
			return nil, fmt.Errorf("orchestrator: %s: transform: %w", target.Destination, err)
		}
	}

	scope := o.table.Scope(target.Destination)
	var capability model.Capability
	if target.Capability != nil {
		capability = *target.Capability
		if capability.Destination == "" {
			capability.Destination = target.Destination
		}
	} else {
		built, err := o.Capability(target.Destination)
		if err != nil {
			return nil, err
		}
		capability = built
	}
	return &job{
		destination: target.Destination,
		options:     options,
		capability:  capability,
		scope:       scope,
	}, nil
}

// Capability builds the capability descriptor for destination from the
// schema table, binding tag transforms and the description template.
func (o *Orchestrator) Capability(destination string) (model.Capability, error) {
	spec := o.table.Scope(destination).Capability()
	capability := model.Capability{
		Destination:        destination,
		TagsSupported:      spec.TagsSupported != nil && *spec.TagsSupported,
		MaxTags:            spec.MaxTags,
		DescriptionDialect: spec.Dialect,
	}

	transform, err := o.transforms.Build(spec.TagTransforms)
	if err != nil {
		return model.Capability{}, fmt.Errorf("orchestrator: %s: %w", destination, err)
	}
	capability.TagTransform = transform

	if spec.Dialect.Delegated() && spec.Template != "" && o.templates != nil {
		capability.DescriptionRenderer = o.templates.Hook(spec.Template)
	}
	return capability, nil
}

// fetch issues the single batched converter lookup for every destination
// that supports tags. A failed lookup is logged and each destination then
// looks its tags up on its own.
func (o *Orchestrator) fetch(ctx context.Context, defaults model.Options, jobs []*job) (tagconv.Index, bool) {
	var union []string
	for _, j := range jobs {
		if j == nil || !j.capability.TagsSupported {
			continue
		}
		union = append(union, merge.Tags(defaults.Tags, j.options.Tags).Tags...)
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.lookupConverters",
		trace.WithAttributes(attribute.Int("crosspost.tags", len(union))))
	defer span.End()

	idx, err := tagconv.Fetch(ctx, o.source, union)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batched lookup failed")
		o.logger.Warn("batched converter lookup failed, falling back to per-destination lookup",
			zap.Int("tags", len(union)),
			zap.Error(err),
		)
		return tagconv.Index{}, false
	}
	return idx, true
}

func (o *Orchestrator) resolveOne(ctx context.Context, defaults model.Options, j *job, idx tagconv.Index, batched bool) (result model.Result, err error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.resolveDestination",
		trace.WithAttributes(
			attribute.String("crosspost.destination", j.destination),
			attribute.String("crosspost.dialect", string(j.capability.DescriptionDialect)),
		))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("orchestrator: %s: panic: %v", j.destination, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if batched {
		return o.resolver.ResolveWithIndex(ctx, j.capability, j.scope, defaults, j.options, idx)
	}
	return o.resolver.Resolve(ctx, j.capability, j.scope, defaults, j.options)
}

// Table returns the schema table in use.
func (o *Orchestrator) Table() schema.Table {
	return o.table
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.registry == nil {
		o.registry = renderers.NewRegistry()
	}
	if o.transforms == nil {
		o.transforms = tagtransform.Default()
	}
	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}
	if !o.tableSpecified {
		table, err := schema.LoadFS(schema.EmbeddedFS())
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load builtin schema: %w", err)
		}
		o.table = table
	}

	o.resolver = resolve.New(
		resolve.WithSource(o.source),
		resolve.WithRegistry(o.registry),
		resolve.WithLogger(o.logger),
	)
}
