// Package html renders descriptions as HTML fragments: one <div> per
// paragraph, inline marks as <b>, <i>, <u> and <s> inside a <span>, and links
// opening in a new tab.
package html

import (
	"html"
	"strconv"
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// Emitter implements render.Emitter for HTML.
type Emitter struct{}

var _ render.Emitter = Emitter{}

// New returns the HTML emitter.
func New() Emitter {
	return Emitter{}
}

func (Emitter) Dialect() model.Dialect { return model.DialectHTML }

func (Emitter) Text(text string, styles richtext.Styles) string {
	out := escape(text)
	if styles.Plain() {
		return out
	}
	if styles.Strike {
		out = "<s>" + out + "</s>"
	}
	if styles.Underline {
		out = "<u>" + out + "</u>"
	}
	if styles.Italic {
		out = "<i>" + out + "</i>"
	}
	if styles.Bold {
		out = "<b>" + out + "</b>"
	}
	if color, ok := render.SafeColor(styles.Color()); ok {
		return `<span style="color: ` + html.EscapeString(color) + `">` + out + "</span>"
	}
	return "<span>" + out + "</span>"
}

func (Emitter) Link(href, inner string) string {
	safe, ok := render.SafeHref(href)
	if !ok {
		return inner
	}
	return `<a target="_blank" href="` + html.EscapeString(safe) + `">` + inner + "</a>"
}

func (Emitter) Block(block richtext.Block, inner string, pos render.BlockPosition) string {
	switch block.Type {
	case richtext.BlockHeading:
		tag := "h" + strconv.Itoa(clampLevel(block.Props.Level))
		return "<" + tag + ">" + inner + "</" + tag + ">"
	case richtext.BlockQuote:
		return "<blockquote>" + inner + "</blockquote>"
	case richtext.BlockBulletListItem:
		return wrapList("ul", inner, pos)
	case richtext.BlockNumberedListItem:
		return wrapList("ol", inner, pos)
	default:
		return "<div>" + inner + "</div>"
	}
}

func (Emitter) BlockSeparator() string { return "" }

func (Emitter) Title(title string) string {
	return "<div><b>" + escape(title) + "</b></div>"
}

func (Emitter) Tags(tags []string) string {
	joined := render.Hashtags(tags)
	if joined == "" {
		return ""
	}
	return "<div>" + escape(joined) + "</div>"
}

func wrapList(list, inner string, pos render.BlockPosition) string {
	var b strings.Builder
	if pos.ListStart {
		b.WriteString("<" + list + ">")
	}
	b.WriteString("<li>" + inner + "</li>")
	if pos.ListEnd {
		b.WriteString("</" + list + ">")
	}
	return b.String()
}

func escape(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	default:
		return level
	}
}
