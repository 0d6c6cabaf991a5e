// Package bbcode renders descriptions with BBCode tags as accepted by most
// forum and gallery software. Literal brackets in text are wrapped in
// [noparse] so they never open a tag.
package bbcode

import (
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// Emitter implements render.Emitter for BBCode.
type Emitter struct{}

var _ render.Emitter = Emitter{}

// New returns the BBCode emitter.
func New() Emitter {
	return Emitter{}
}

func (Emitter) Dialect() model.Dialect { return model.DialectBBCode }

var bracketEscaper = strings.NewReplacer("[", "[noparse][[/noparse]")

func escape(text string) string { return bracketEscaper.Replace(text) }

func (Emitter) Text(text string, styles richtext.Styles) string {
	out := escape(text)
	if styles.Strike {
		out = "[s]" + out + "[/s]"
	}
	if styles.Underline {
		out = "[u]" + out + "[/u]"
	}
	if styles.Italic {
		out = "[i]" + out + "[/i]"
	}
	if styles.Bold {
		out = "[b]" + out + "[/b]"
	}
	if color, ok := render.SafeColor(styles.Color()); ok {
		out = "[color=" + color + "]" + out + "[/color]"
	}
	return out
}

func (Emitter) Link(href, inner string) string {
	safe, ok := render.SafeHref(href)
	if !ok {
		return inner
	}
	safe = strings.NewReplacer("[", "%5B", "]", "%5D").Replace(safe)
	return "[url=" + safe + "]" + inner + "[/url]"
}

func (Emitter) Block(block richtext.Block, inner string, pos render.BlockPosition) string {
	switch block.Type {
	case richtext.BlockHeading:
		return "[b]" + inner + "[/b]"
	case richtext.BlockQuote:
		return "[quote]" + inner + "[/quote]"
	case richtext.BlockBulletListItem:
		return wrapList("[list]", inner, pos)
	case richtext.BlockNumberedListItem:
		return wrapList("[list=1]", inner, pos)
	default:
		return inner
	}
}

func (Emitter) BlockSeparator() string { return "\n" }

func (Emitter) Title(title string) string {
	return "[b]" + escape(strings.TrimSpace(title)) + "[/b]"
}

func (Emitter) Tags(tags []string) string { return escape(render.Hashtags(tags)) }

func wrapList(open, inner string, pos render.BlockPosition) string {
	var b strings.Builder
	if pos.ListStart {
		b.WriteString(open + "\n")
	}
	b.WriteString("[*]" + inner)
	if pos.ListEnd {
		b.WriteString("\n[/list]")
	}
	return b.String()
}
