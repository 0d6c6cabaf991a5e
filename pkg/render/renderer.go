package render

import (
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// BlockPosition tells an emitter where a block sits in the document.
type BlockPosition struct {
	// Index is the block's position in the document.
	Index int
	// Ordinal is the 1-based number of a numbered list item within its run.
	Ordinal int
	// ListStart and ListEnd mark the first and last item of a run of list
	// items of the same type.
	ListStart bool
	ListEnd   bool
}

// Emitter is the per-dialect strategy the tree walker calls for every node.
// Implementations are stateless; traversal lives in Walk.
type Emitter interface {
	Dialect() model.Dialect
	// Text renders a text run with its styles applied.
	Text(text string, styles richtext.Styles) string
	// Link wraps already-rendered inner content.
	Link(href, inner string) string
	// Block wraps already-rendered inline content.
	Block(block richtext.Block, inner string, pos BlockPosition) string
	// BlockSeparator joins rendered blocks and the inserted title and tags.
	BlockSeparator() string
	Title(title string) string
	Tags(tags []string) string
}

// Input is everything the built-in rendering needs for one destination.
type Input struct {
	Document    richtext.Document
	Title       string
	Tags        []string
	InsertTitle bool
	InsertTags  bool
}

// Walk renders the document body with e.
func Walk(e Emitter, doc richtext.Document) string {
	parts := make([]string, 0, len(doc))
	ordinal := 0
	for i, block := range doc {
		pos := BlockPosition{Index: i}
		if isListItem(block.Type) {
			pos.ListStart = i == 0 || doc[i-1].Type != block.Type
			pos.ListEnd = i == len(doc)-1 || doc[i+1].Type != block.Type
			if block.Type == richtext.BlockNumberedListItem {
				if pos.ListStart {
					ordinal = 0
				}
				ordinal++
				pos.Ordinal = ordinal
			}
		}
		parts = append(parts, e.Block(block, walkInlines(e, block.Content), pos))
	}
	return strings.Join(parts, e.BlockSeparator())
}

func walkInlines(e Emitter, inlines []richtext.Inline) string {
	var b strings.Builder
	for _, inline := range inlines {
		switch inline.Type {
		case richtext.InlineLink:
			b.WriteString(e.Link(inline.Href, walkInlines(e, inline.Content)))
		default:
			if inline.Text == "" {
				continue
			}
			b.WriteString(e.Text(inline.Text, inline.Styles))
		}
	}
	return b.String()
}

func isListItem(t richtext.BlockType) bool {
	return t == richtext.BlockBulletListItem || t == richtext.BlockNumberedListItem
}

// Render produces the full description: the optional title, the body and the
// optional tags, joined by the dialect's block separator. Empty parts are
// skipped.
func Render(e Emitter, in Input) string {
	parts := make([]string, 0, 3)
	if in.InsertTitle && strings.TrimSpace(in.Title) != "" {
		parts = append(parts, e.Title(in.Title))
	}
	if body := Walk(e, in.Document); body != "" {
		parts = append(parts, body)
	}
	if in.InsertTags && len(in.Tags) > 0 {
		if tags := e.Tags(in.Tags); tags != "" {
			parts = append(parts, tags)
		}
	}
	return strings.Join(parts, e.BlockSeparator())
}

// Hashtags joins tags as space-separated hashtags, leaving an existing "#"
// prefix alone.
func Hashtags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		out = append(out, tag)
	}
	return strings.Join(out, " ")
}
