package renderers_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
	"github.com/crosspost-dev/go-crosspost/pkg/testsupport"
)

func postyDocument() richtext.Document {
	return richtext.Document{
		richtext.Paragraph(
			richtext.StyledText("Hello, ", richtext.Styles{Bold: true}),
			richtext.Text("World!"),
		),
		richtext.Paragraph(richtext.Link("https://postybirb.com", richtext.Text("Posted using PostyBirb"))),
	}
}

func kitchenSink() richtext.Document {
	item := func(kind richtext.BlockType, content ...richtext.Inline) richtext.Block {
		return richtext.Block{Type: kind, Content: content}
	}
	return richtext.Document{
		richtext.Heading(2, richtext.Text("Gallery update")),
		richtext.Paragraph(
			richtext.Text("New piece: "),
			richtext.StyledText("fox & hound", richtext.Styles{Italic: true, TextColor: "red"}),
			richtext.Text(" "),
			richtext.Link("https://example.com/a_b", richtext.StyledText("view", richtext.Styles{Bold: true})),
			richtext.Text("."),
		),
		item(richtext.BlockBulletListItem, richtext.Text("sketch")),
		item(richtext.BlockBulletListItem, richtext.StyledText("old", richtext.Styles{Strike: true})),
		item(richtext.BlockNumberedListItem, richtext.Text("first")),
		item(richtext.BlockNumberedListItem, richtext.Text("second")),
		item(richtext.BlockQuote, richtext.Text("stay *safe*")),
		richtext.Paragraph(richtext.Link("javascript:alert(1)", richtext.Text("bad link"))),
	}
}

func TestRegistryDialects(t *testing.T) {
	want := []model.Dialect{model.DialectBBCode, model.DialectHTML, model.DialectMarkdown, model.DialectPlainText}
	if diff := cmp.Diff(want, renderers.NewRegistry().List()); diff != "" {
		t.Fatalf("dialects mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripScenario(t *testing.T) {
	reg := renderers.NewRegistry()
	tests := map[model.Dialect]string{
		model.DialectPlainText: "Hello, World!\r\nPosted using PostyBirb",
		model.DialectHTML:      `<div><span><b>Hello, </b></span>World!</div><div><a target="_blank" href="https://postybirb.com">Posted using PostyBirb</a></div>`,
		model.DialectMarkdown:  "**Hello,** World!\n\n[Posted using PostyBirb](https://postybirb.com)",
		model.DialectBBCode:    "[b]Hello, [/b]World!\n[url=https://postybirb.com]Posted using PostyBirb[/url]",
	}
	for dialect, want := range tests {
		t.Run(string(dialect), func(t *testing.T) {
			emitter, err := reg.Get(dialect)
			if err != nil {
				t.Fatalf("get emitter: %v", err)
			}
			got := render.Render(emitter, render.Input{Document: postyDocument()})
			if got != want {
				t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
			}
		})
	}
}

func TestKitchenSinkGoldens(t *testing.T) {
	reg := renderers.NewRegistry()
	in := render.Input{
		Document:    kitchenSink(),
		Title:       "Fox",
		Tags:        []string{"art", "#fox"},
		InsertTitle: true,
		InsertTags:  true,
	}
	for _, dialect := range reg.List() {
		t.Run(string(dialect), func(t *testing.T) {
			emitter, err := reg.Get(dialect)
			if err != nil {
				t.Fatalf("get emitter: %v", err)
			}
			got := render.Render(emitter, in)
			path := filepath.Join("testdata", "kitchen_sink."+string(dialect)+".golden")
			if testsupport.WriteMaybeGolden(t, path, []byte(got)) {
				return
			}
			want := testsupport.MustReadGoldenString(t, path)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("golden mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	reg := renderers.NewRegistry()
	for _, dialect := range reg.List() {
		emitter, _ := reg.Get(dialect)
		in := render.Input{Document: kitchenSink(), Title: "Fox", Tags: []string{"a"}, InsertTitle: true, InsertTags: true}
		first := render.Render(emitter, in)
		for i := 0; i < 5; i++ {
			if again := render.Render(emitter, in); again != first {
				t.Fatalf("%s: output changed between runs", dialect)
			}
		}
	}
}

func TestFitNeverSplitsMarkup(t *testing.T) {
	reg := renderers.NewRegistry()
	emitter, _ := reg.Get(model.DialectHTML)
	max := 40
	got := render.Fit(emitter, render.Input{Document: postyDocument()}, &max)
	want := "<div><span><b>Hello, </b></span>Wo</div>"
	if got != want {
		t.Fatalf("fit mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestMarkdownPlainTextSurvivesReimport(t *testing.T) {
	emitter, err := renderers.NewRegistry().Get(model.DialectMarkdown)
	if err != nil {
		t.Fatalf("get emitter: %v", err)
	}
	doc := richtext.Document{
		richtext.Paragraph(richtext.Text("# not a heading")),
		richtext.Paragraph(richtext.Text("1. not a list")),
		richtext.Paragraph(richtext.Text("<img src=x onerror=alert(1)>")),
		richtext.Paragraph(richtext.Text("> not a quote")),
		richtext.Paragraph(richtext.Text("- not a bullet")),
		richtext.Paragraph(richtext.Text("+ nor this")),
		richtext.Paragraph(richtext.Text("2) nor this")),
		richtext.Paragraph(richtext.Text("Tom &amp; Jerry & friends")),
		richtext.Paragraph(richtext.Text(`a\b * c_d`)),
	}

	out := render.Walk(emitter, doc)
	if diff := cmp.Diff(doc.Normalize(), richtext.FromMarkdown(out)); diff != "" {
		t.Fatalf("reimport mismatch (-want +got):\n%s\nmarkdown:\n%s", diff, out)
	}
}

func TestBBCodeNeutralisesUserMarkup(t *testing.T) {
	emitter, err := renderers.NewRegistry().Get(model.DialectBBCode)
	if err != nil {
		t.Fatalf("get emitter: %v", err)
	}
	tests := map[string]struct {
		doc  richtext.Document
		want string
	}{
		"literal tags in text": {
			doc:  richtext.Document{richtext.Paragraph(richtext.Text("literal [b]x[/b] "))},
			want: "literal [noparse][[/noparse]b]x[noparse][[/noparse]/b] ",
		},
		"color cannot open tags": {
			doc: richtext.Document{richtext.Paragraph(
				richtext.StyledText("y", richtext.Styles{TextColor: "red][url=https://evil.example]z"}),
			)},
			want: "y",
		},
		"hex color is kept": {
			doc:  richtext.Document{richtext.Paragraph(richtext.StyledText("y", richtext.Styles{TextColor: "#ff0000"}))},
			want: "[color=#ff0000]y[/color]",
		},
		"brackets in href are encoded": {
			doc:  richtext.Document{richtext.Paragraph(richtext.Link("https://example.com/a]b", richtext.Text("go")))},
			want: "[url=https://example.com/a%5Db]go[/url]",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := render.Walk(emitter, tt.doc); got != tt.want {
				t.Fatalf("render mismatch\nwant: %q\n got: %q", tt.want, got)
			}
		})
	}
}

func TestHTMLDropsUnsafeColor(t *testing.T) {
	emitter, err := renderers.NewRegistry().Get(model.DialectHTML)
	if err != nil {
		t.Fatalf("get emitter: %v", err)
	}
	doc := richtext.Document{richtext.Paragraph(
		richtext.StyledText("y", richtext.Styles{TextColor: "red;background:url(x)"}),
	)}
	if got, want := render.Walk(emitter, doc), "<div><span>y</span></div>"; got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}
