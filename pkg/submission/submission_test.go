package submission_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
	"github.com/crosspost-dev/go-crosspost/pkg/submission"
)

func TestLoadYAML(t *testing.T) {
	sub, err := submission.Load(filepath.Join("testdata", "submission.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff([]string{"mastodon", "furaffinity", "tumblr"}, sub.Order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	wantDefaults := model.Options{
		Title:  "Sunset over the harbour",
		Rating: model.RatingGeneral,
		Tags:   model.TagSetting{Tags: []string{"digital art", "sunset"}},
		Description: model.DescriptionSetting{
			InsertTags: true,
			Document: richtext.Document{richtext.Paragraph(
				richtext.StyledText("Painted", richtext.Styles{Bold: true}),
				richtext.Text(" live at "),
				richtext.Link("https://example.com/pier", richtext.Text("the pier")),
				richtext.Text("."),
			)},
		},
	}
	if diff := cmp.Diff(wantDefaults, sub.Defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	mastodon := sub.Destination("mastodon")
	if mastodon.ContentWarning != "bright colours" || !mastodon.Description.OverrideDefault {
		t.Fatalf("mastodon record = %#v", mastodon)
	}
	if got := mastodon.Description.Document.PlainText(); got != "Painted live." {
		t.Fatalf("html description = %q", got)
	}

	furaffinity := sub.Destination("furaffinity")
	if !furaffinity.Tags.OverrideDefault || len(furaffinity.Tags.Tags) != 1 {
		t.Fatalf("furaffinity tags = %#v", furaffinity.Tags)
	}
	if furaffinity.Fields["category"] != "artwork" {
		t.Fatalf("furaffinity fields = %#v", furaffinity.Fields)
	}

	if diff := cmp.Diff(model.Options{Description: model.DescriptionSetting{Document: richtext.Document{}}}, sub.Destination("tumblr")); diff != "" {
		t.Fatalf("empty record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Options{}, sub.Destination("undeclared")); diff != "" {
		t.Fatalf("undeclared record mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFSJSON(t *testing.T) {
	sub, err := submission.LoadFS(os.DirFS("testdata"), "submission.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := richtext.Document{
		richtext.Heading(2, richtext.Text("Hi")),
		richtext.Paragraph(richtext.StyledText("bold", richtext.Styles{Bold: true})),
	}
	if diff := cmp.Diff(want, sub.Defaults.Description.Document); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}

	plain := richtext.Document{
		richtext.Paragraph(richtext.Text("line one")),
		richtext.Paragraph(richtext.Text("line two")),
	}
	if diff := cmp.Diff(plain, sub.Destination("bluesky").Description.Document); diff != "" {
		t.Fatalf("plain description mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"empty":              {doc: "   ", want: "empty"},
		"malformed":          {doc: "defaults: [", want: "decode"},
		"bad rating":         {doc: "defaults: {rating: spicy}", want: "unknown rating"},
		"two sources":        {doc: "defaults: {description: {markdown: a, html: b}}", want: "only one of"},
		"bad block":          {doc: "defaults: {description: {blocks: [{type: table}]}}", want: "unknown block type"},
		"destinations list":  {doc: "destinations: [a, b]", want: "must be a mapping"},
		"duplicate":          {doc: "destinations:\n  a: {}\n  a: {}\n", want: "a"},
		"bad destination":    {doc: "destinations: {x: {rating: nope}}", want: "x"},
		"heading level zero": {doc: "defaults: {description: {blocks: [{type: heading}]}}", want: "heading level"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := submission.Decode([]byte(tc.doc))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}

	if _, err := submission.LoadFS(nil, "x.yaml"); err == nil {
		t.Fatalf("expected error for nil filesystem")
	}
	if _, err := submission.Load(filepath.Join("testdata", "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
