package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/orchestrator"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/render/template/gotemplate"
	tplrenderer "github.com/crosspost-dev/go-crosspost/pkg/renderers/template"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
	"github.com/crosspost-dev/go-crosspost/pkg/schema"
	"github.com/crosspost-dev/go-crosspost/pkg/tagconv"
	"github.com/crosspost-dev/go-crosspost/pkg/testsupport"
)

func submissionDefaults() model.Options {
	return model.Options{
		Title: "Sunset over the harbour",
		Tags:  model.TagSetting{Tags: []string{"digital art", "sunset", "café"}},
		Description: model.DescriptionSetting{
			Document: richtext.Document{richtext.Paragraph(richtext.Text("Painted live."))},
		},
		Rating: model.RatingGeneral,
	}
}

func targets(names ...string) []orchestrator.Target {
	out := make([]orchestrator.Target, 0, len(names))
	for _, name := range names {
		out = append(out, orchestrator.Target{Destination: name})
	}
	return out
}

func TestOrchestrator_ResolvesBuiltinDestinations(t *testing.T) {
	t.Parallel()

	src := tagconv.NewMemorySource(tagconv.Entry{
		Tag:       "sunset",
		ConvertTo: map[string]string{"furaffinity": "sunset sky"},
	})
	orch := orchestrator.New(
		orchestrator.WithSource(src),
		orchestrator.WithTracer(noop.NewTracerProvider().Tracer("test")),
	)

	results, err := orch.Resolve(testsupport.Context(), orchestrator.Request{
		Defaults: submissionDefaults(),
		Targets:  targets("bluesky", "discord", "furaffinity", "mastodon", "tumblr"),
	})
	require.NoError(t, err)

	want := []orchestrator.Resolution{
		{Destination: "bluesky", Result: model.Result{
			Destination: "bluesky",
			Title:       "Sunset over the harbour",
			Tags:        []string{"#digitalart", "#sunset", "#café"},
			Description: ptr("Painted live."),
			Rating:      model.RatingGeneral,
		}},
		{Destination: "discord", Result: model.Result{
			Destination: "discord",
			Title:       "Sunset over the harbour",
			Tags:        []string{},
			Description: ptr("Painted live."),
			Rating:      model.RatingGeneral,
		}},
		{Destination: "furaffinity", Result: model.Result{
			Destination: "furaffinity",
			Title:       "Sunset over the harbour",
			Tags:        []string{"digital_art", "sunset_sky", "cafe"},
			Description: ptr("Painted live."),
			Rating:      model.RatingGeneral,
		}},
		{Destination: "mastodon", Result: model.Result{
			Destination: "mastodon",
			Title:       "Sunset over the harbour",
			Tags:        []string{"#digitalart", "#sunset", "#café"},
			Description: ptr("<div>Painted live.</div>"),
			Rating:      model.RatingGeneral,
		}},
		{Destination: "tumblr", Result: model.Result{
			Destination: "tumblr",
			Title:       "Sunset over the harbour",
			Tags:        []string{"digital art", "sunset", "café"},
			Rating:      model.RatingGeneral,
		}},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("resolutions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, src.Lookups(), "one batched lookup for every destination")
}

func TestOrchestrator_UnsupportedTagsNeverQueried(t *testing.T) {
	t.Parallel()

	src := tagconv.NewMemorySource()
	orch := orchestrator.New(orchestrator.WithSource(src))

	results, err := orch.Resolve(context.Background(), orchestrator.Request{
		Defaults: submissionDefaults(),
		Targets:  targets("discord"),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Empty(t, results[0].Result.Tags)
	assert.Equal(t, 0, src.Lookups())
}

func TestOrchestrator_FailuresAreIsolated(t *testing.T) {
	t.Parallel()

	panicking := model.DescriptionRendererFunc(func(context.Context, model.DescriptionInput) (string, error) {
		panic("template exploded")
	})
	orch := orchestrator.New(orchestrator.WithTable(schema.NewTable(schema.Schema{})))

	results, err := orch.Resolve(context.Background(), orchestrator.Request{
		Defaults: submissionDefaults(),
		Targets: []orchestrator.Target{
			{Destination: "custom", Capability: &model.Capability{DescriptionDialect: model.DialectCustom}},
			{Destination: "plain", Capability: &model.Capability{DescriptionDialect: model.DialectPlainText}},
			{Destination: "rtf", Capability: &model.Capability{DescriptionDialect: "rtf"}},
			{Destination: ""},
			{Destination: "panics", Capability: &model.Capability{DescriptionDialect: model.DialectRuntime, DescriptionRenderer: panicking}},
			{Destination: "none", Capability: &model.Capability{DescriptionDialect: model.DialectNone}},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 6)

	assert.ErrorIs(t, results[0].Err, render.ErrMissingRenderer)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "plain", results[1].Result.Destination)
	assert.Equal(t, "Painted live.", results[1].Result.DescriptionOrEmpty())
	assert.ErrorIs(t, results[2].Err, render.ErrUnsupportedDialect)
	assert.Error(t, results[3].Err)
	require.Error(t, results[4].Err)
	assert.Contains(t, results[4].Err.Error(), "template exploded")
	require.NoError(t, results[5].Err)
	assert.Nil(t, results[5].Result.Description)

	for i, name := range []string{"custom", "plain", "rtf", "", "panics", "none"} {
		assert.Equal(t, name, results[i].Destination, "results keep target order")
	}
}

func TestOrchestrator_FallsBackWhenBatchedLookupFails(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	src := tagconv.SourceFunc(func(_ context.Context, tags []string) ([]tagconv.Entry, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("connection reset")
		}
		var out []tagconv.Entry
		for _, tag := range tags {
			if tag == "a" {
				out = append(out, tagconv.Entry{Tag: "a", ConvertTo: map[string]string{"default": "converted"}})
			}
		}
		return out, nil
	})

	core, logs := observer.New(zap.WarnLevel)
	orch := orchestrator.New(
		orchestrator.WithSource(src),
		orchestrator.WithLogger(zap.New(core)),
		orchestrator.WithTable(schema.NewTable(schema.Schema{})),
	)

	capability := &model.Capability{TagsSupported: true, DescriptionDialect: model.DialectNone}
	results, err := orch.Resolve(context.Background(), orchestrator.Request{
		Defaults: model.Options{Tags: model.TagSetting{Tags: []string{"a"}}},
		Targets: []orchestrator.Target{
			{Destination: "one", Capability: capability, Options: model.Options{Tags: model.TagSetting{Tags: []string{"b"}}}},
			{Destination: "two", Capability: capability},
		},
	})
	require.NoError(t, err)
	for _, res := range results {
		require.NoError(t, res.Err)
	}
	assert.Equal(t, []string{"converted", "b"}, results[0].Result.Tags)
	assert.Equal(t, []string{"converted"}, results[1].Result.Tags)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, logs.FilterMessageSnippet("batched converter lookup failed").Len())
}

func TestOrchestrator_TemplateHookForCustomDialect(t *testing.T) {
	t.Parallel()

	engine, err := gotemplate.New(gotemplate.WithFS(fstest.MapFS{
		"pixiv.tpl": {Data: []byte(`{% if insertTitle %}【{{ title|safe }}】{% endif %}{{ text|safe }}`)},
	}))
	require.NoError(t, err)
	templates, err := tplrenderer.New(engine)
	require.NoError(t, err)

	orch := orchestrator.New(orchestrator.WithTemplates(templates))
	defaults := submissionDefaults()
	defaults.Description.InsertTitle = true

	results, err := orch.Resolve(context.Background(), orchestrator.Request{
		Defaults: defaults,
		Targets:  targets("pixiv"),
	})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "【Sunset over the harbour】Painted live.", results[0].Result.DescriptionOrEmpty())

	without := orchestrator.New()
	results, err = without.Resolve(context.Background(), orchestrator.Request{
		Defaults: defaults,
		Targets:  targets("pixiv"),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, render.ErrMissingRenderer)
}

func TestOrchestrator_Capability(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New()
	capability, err := orch.Capability("bluesky")
	require.NoError(t, err)
	assert.True(t, capability.TagsSupported)
	assert.Equal(t, 8, *capability.MaxTags)
	assert.Equal(t, model.DialectPlainText, capability.DescriptionDialect)
	require.NotNil(t, capability.TagTransform)
	assert.Equal(t, "#fanart", capability.TagTransform("fan art"))

	unknown, err := orch.Capability("somewhere-else")
	require.NoError(t, err)
	assert.True(t, unknown.TagsSupported, "default schema declares tags")
	assert.Equal(t, model.DialectPlainText, unknown.DescriptionDialect)
	assert.Nil(t, unknown.TagTransform)

	table := schema.NewTable(schema.Schema{})
	table.Destinations["broken"] = schema.Schema{Capability: &schema.CapabilitySpec{TagTransforms: []string{"reverse"}}}
	_, err = orchestrator.New(orchestrator.WithTable(table)).Capability("broken")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "broken"))
}

func TestOrchestrator_ContextErrors(t *testing.T) {
	t.Parallel()

	orch := orchestrator.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orch.Resolve(ctx, orchestrator.Request{Targets: targets("bluesky")})
	assert.ErrorIs(t, err, context.Canceled)

	//nolint:staticcheck // a nil context is rejected explicitly
	_, err = orch.Resolve(nil, orchestrator.Request{})
	assert.Error(t, err)
}

func TestOrchestrator_DoesNotMutateRequest(t *testing.T) {
	t.Parallel()

	defaults := submissionDefaults()
	before := defaults.Clone()
	stamp := orchestrator.TransformerFunc(func(_ context.Context, _ string, options *model.Options) error {
		options.Tags.Tags = append(options.Tags.Tags, "stamped")
		return nil
	})
	target := orchestrator.Target{Destination: "tumblr", Options: model.Options{Tags: model.TagSetting{Tags: []string{"own"}}}}

	results, err := orchestrator.New(orchestrator.WithTransformer(stamp), orchestrator.WithConcurrency(1)).
		Resolve(context.Background(), orchestrator.Request{Defaults: defaults, Targets: []orchestrator.Target{target}})
	require.NoError(t, err)
	assert.Contains(t, results[0].Result.Tags, "stamped")
	assert.Equal(t, before, defaults)
	assert.Equal(t, []string{"own"}, target.Options.Tags.Tags)
}

func ptr(s string) *string {
	return &s
}
