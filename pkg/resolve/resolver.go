// Package resolve computes the content one destination receives: the title
// and other text fields, the tag list and the rendered description. All
// resolvers are pure over their inputs except for the converter lookup,
// which is one batched query per call (or none, when an index is supplied).
package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/crosspost-dev/go-crosspost/pkg/merge"
	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers"
	"github.com/crosspost-dev/go-crosspost/pkg/schema"
	"github.com/crosspost-dev/go-crosspost/pkg/tagconv"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithSource sets the tag converter source. Without one, tags are never
// converted.
func WithSource(source tagconv.Source) Option {
	return func(r *Resolver) {
		r.source = source
	}
}

// WithRegistry overrides the dialect emitters.
func WithRegistry(reg *render.Registry) Option {
	return func(r *Resolver) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver resolves options records against a destination's capability and
// field schema. It is safe for concurrent use.
type Resolver struct {
	source   tagconv.Source
	registry *render.Registry
	logger   *zap.Logger
}

// New constructs a Resolver using the built-in emitters by default.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		registry: renderers.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Text resolves a scalar text field: merged value, trimmed, hard cut to the
// field's maxLength and trimmed again.
func (r *Resolver) Text(scope schema.Scope, defaults, destination model.Options, field string) string {
	def, _ := defaults.Text(field)
	dest, _ := destination.Text(field)
	return limitText(merge.Text(def, dest), scope.MaxLength(field))
}

func limitText(value string, maxLength *int) string {
	value = strings.TrimSpace(value)
	if maxLength == nil {
		return value
	}
	return strings.TrimSpace(render.Truncate(value, *maxLength))
}

// Tags resolves the tag list, issuing one converter lookup for the merged
// tags. Destinations without tag support never reach the lookup.
func (r *Resolver) Tags(ctx context.Context, capability model.Capability, scope schema.Scope, defaults, destination model.Options) ([]string, error) {
	if !capability.TagsSupported {
		return []string{}, nil
	}
	idx, err := r.fetch(ctx, defaults, destination)
	if err != nil {
		return nil, err
	}
	return r.TagsWithIndex(capability, scope, defaults, destination, idx), nil
}

// TagsWithIndex runs the tag pipeline against an already fetched converter
// index: merge, convert, trim and drop empties, transform, dedupe, cap.
func (r *Resolver) TagsWithIndex(capability model.Capability, scope schema.Scope, defaults, destination model.Options, idx tagconv.Index) []string {
	if !capability.TagsSupported {
		return []string{}
	}
	merged := merge.Tags(defaults.Tags, destination.Tags).Tags

	out := make([]string, 0, len(merged))
	seen := make(map[string]struct{}, len(merged))
	for _, tag := range merged {
		tag = strings.TrimSpace(idx.Convert(capability.Destination, tag))
		if tag == "" {
			continue
		}
		if capability.TagTransform != nil {
			tag = capability.TagTransform(tag)
			if tag == "" {
				continue
			}
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if limit := maxTags(scope.MaxTags(), capability.MaxTags); limit != nil && len(out) > *limit {
		out = out[:max(*limit, 0)]
	}
	return out
}

// maxTags returns the tighter of two optional ceilings.
func maxTags(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a < *b:
		return a
	default:
		return b
	}
}

// Description renders the merged description for the destination's dialect.
// A nil result means the destination takes no description. Built-in dialects
// are fitted to the description maxLength without splitting markup; output
// of delegated dialects is hard cut.
func (r *Resolver) Description(ctx context.Context, capability model.Capability, scope schema.Scope, defaults, destination model.Options, title string, tags []string) (*string, error) {
	dialect := capability.DescriptionDialect
	if dialect == model.DialectNone {
		return nil, nil
	}

	setting := merge.Description(defaults.Description, destination.Description)
	maxLength := scope.MaxLength(model.FieldDescription)

	if dialect.Delegated() {
		if capability.DescriptionRenderer == nil {
			return nil, fmt.Errorf("resolve: %s: %w", capability.Destination, render.ErrMissingRenderer)
		}
		out, err := capability.DescriptionRenderer.RenderDescription(ctx, model.DescriptionInput{
			Destination: capability.Destination,
			Document:    setting.Document.Clone(),
			Title:       title,
			Tags:        append([]string{}, tags...),
			InsertTitle: setting.InsertTitle,
			InsertTags:  setting.InsertTags,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve: %s: %s renderer: %w", capability.Destination, dialect, err)
		}
		if maxLength != nil {
			out = render.Truncate(out, *maxLength)
		}
		return &out, nil
	}

	emitter, err := r.registry.Get(dialect)
	if err != nil {
		return nil, fmt.Errorf("resolve: %s: %w", capability.Destination, err)
	}
	out := render.Fit(emitter, render.Input{
		Document:    setting.Document,
		Title:       title,
		Tags:        tags,
		InsertTitle: setting.InsertTitle,
		InsertTags:  setting.InsertTags,
	}, maxLength)
	return &out, nil
}

// Resolve computes the full result for one destination.
func (r *Resolver) Resolve(ctx context.Context, capability model.Capability, scope schema.Scope, defaults, destination model.Options) (model.Result, error) {
	var idx tagconv.Index
	if capability.TagsSupported {
		var err error
		if idx, err = r.fetch(ctx, defaults, destination); err != nil {
			return model.Result{}, err
		}
	}
	return r.ResolveWithIndex(ctx, capability, scope, defaults, destination, idx)
}

// ResolveWithIndex is Resolve with the converter lookup already done.
func (r *Resolver) ResolveWithIndex(ctx context.Context, capability model.Capability, scope schema.Scope, defaults, destination model.Options, idx tagconv.Index) (model.Result, error) {
	result := model.Result{
		Destination:    capability.Destination,
		Title:          r.Text(scope, defaults, destination, model.FieldTitle),
		ContentWarning: r.Text(scope, defaults, destination, model.FieldContentWarning),
		Tags:           r.TagsWithIndex(capability, scope, defaults, destination, idx),
		Rating:         merge.Rating(defaults.Rating, destination.Rating),
		Fields:         r.fields(scope, defaults, destination),
	}

	description, err := r.Description(ctx, capability, scope, defaults, destination, result.Title, result.Tags)
	if err != nil {
		return model.Result{}, err
	}
	result.Description = description

	r.logger.Debug("destination resolved",
		zap.String("destination", capability.Destination),
		zap.Int("tags", len(result.Tags)),
		zap.Bool("description", description != nil),
	)
	return result, nil
}

// fields merges the extra fields and applies text limits to text-kind
// values.
func (r *Resolver) fields(scope schema.Scope, defaults, destination model.Options) map[string]any {
	kinds := scope.Kinds()
	merged := merge.Fields(defaults.Fields, destination.Fields, kinds)
	for key, value := range merged {
		text, ok := value.(string)
		if !ok || kinds[key] != schema.KindText {
			continue
		}
		merged[key] = limitText(text, scope.MaxLength(key))
	}
	return merged
}

func (r *Resolver) fetch(ctx context.Context, defaults, destination model.Options) (tagconv.Index, error) {
	merged := merge.Tags(defaults.Tags, destination.Tags).Tags
	idx, err := tagconv.Fetch(ctx, r.source, merged)
	if err != nil {
		return tagconv.Index{}, fmt.Errorf("resolve: %w", err)
	}
	return idx, nil
}
