package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

func TestOptionsCloneIsDeep(t *testing.T) {
	original := model.Options{
		Title: "Title",
		Tags:  model.TagSetting{Tags: []string{"a", "b"}},
		Description: model.DescriptionSetting{
			Document: richtext.Document{richtext.Paragraph(richtext.Text("body"))},
		},
		Fields: map[string]any{"nsfw": true},
	}

	clone := original.Clone()
	clone.Tags.Tags[0] = "changed"
	clone.Description.Document[0].Content[0].Text = "changed"
	clone.Fields["nsfw"] = false

	want := model.Options{
		Title: "Title",
		Tags:  model.TagSetting{Tags: []string{"a", "b"}},
		Description: model.DescriptionSetting{
			Document: richtext.Document{richtext.Paragraph(richtext.Text("body"))},
		},
		Fields: map[string]any{"nsfw": true},
	}
	if diff := cmp.Diff(want, original); diff != "" {
		t.Fatalf("clone mutated original (-want +got):\n%s", diff)
	}
}

func TestOptionsText(t *testing.T) {
	opts := model.Options{
		Title:          "t",
		ContentWarning: "cw",
		Fields:         map[string]any{"summary": "s", "nsfw": true},
	}
	cases := map[string]struct {
		value string
		ok    bool
	}{
		model.FieldTitle:          {"t", true},
		model.FieldContentWarning: {"cw", true},
		"summary":                 {"s", true},
		"nsfw":                    {"", false},
		"missing":                 {"", false},
	}
	for name, want := range cases {
		value, ok := opts.Text(name)
		if value != want.value || ok != want.ok {
			t.Errorf("Text(%q) = (%q, %v), want (%q, %v)", name, value, ok, want.value, want.ok)
		}
	}
}

func TestParseDialect(t *testing.T) {
	got, err := model.ParseDialect(" Markdown ")
	if err != nil || got != model.DialectMarkdown {
		t.Fatalf("ParseDialect = (%q, %v)", got, err)
	}
	if _, err := model.ParseDialect("rtf"); err == nil {
		t.Fatalf("expected unknown dialect error")
	}
	if !model.DialectRuntime.Delegated() || model.DialectHTML.Delegated() {
		t.Fatalf("unexpected Delegated result")
	}
}

func TestParseRating(t *testing.T) {
	got, err := model.ParseRating("ADULT")
	if err != nil || got != model.RatingAdult {
		t.Fatalf("ParseRating = (%q, %v)", got, err)
	}
	if got, err := model.ParseRating(""); err != nil || got != "" {
		t.Fatalf("expected undefined rating, got (%q, %v)", got, err)
	}
	if _, err := model.ParseRating("spicy"); err == nil {
		t.Fatalf("expected unknown rating error")
	}
}
