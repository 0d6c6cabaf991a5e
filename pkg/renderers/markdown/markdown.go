// Package markdown renders descriptions as CommonMark with GitHub-style
// strikethrough. Underline and text color have no Markdown form and are
// dropped.
package markdown

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// Emitter implements render.Emitter for Markdown.
type Emitter struct{}

var _ render.Emitter = Emitter{}

// New returns the Markdown emitter.
func New() Emitter {
	return Emitter{}
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
	"~", `\~`,
	"<", `\<`,
)

// escapeText escapes inline syntax. An ampersand is escaped only when it
// could start an entity reference.
func escapeText(text string) string {
	out := escaper.Replace(text)
	if !strings.Contains(out, "&") {
		return out
	}
	var b strings.Builder
	for i := 0; i < len(out); i++ {
		if out[i] == '&' && i+1 < len(out) && (out[i+1] == '#' || isASCIILetter(out[i+1])) {
			b.WriteByte('\\')
		}
		b.WriteByte(out[i])
	}
	return b.String()
}

// escapeLineStarts neutralises block markers at the start of every line so
// text never turns into headings, lists, quotes or setext underlines.
func escapeLineStarts(inner string) string {
	lines := strings.Split(inner, "\n")
	for i, line := range lines {
		lines[i] = escapeLineStart(line)
	}
	return strings.Join(lines, "\n")
}

func escapeLineStart(line string) string {
	indent := 0
	for indent < len(line) && indent < 3 && line[indent] == ' ' {
		indent++
	}
	rest := line[indent:]
	if rest == "" {
		return line
	}
	switch rest[0] {
	case '#', '>', '-', '+', '=':
		return line[:indent] + "\\" + rest
	}
	digits := 0
	for digits < len(rest) && digits < 9 && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(rest) && (rest[digits] == '.' || rest[digits] == ')') {
		return line[:indent] + rest[:digits] + "\\" + rest[digits:]
	}
	return line
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (Emitter) Dialect() model.Dialect { return model.DialectMarkdown }

// Text escapes the run and applies emphasis. Surrounding whitespace is moved
// outside the delimiters, since "** bold**" is not emphasis.
func (Emitter) Text(text string, styles richtext.Styles) string {
	if !styles.Bold && !styles.Italic && !styles.Strike {
		return escapeText(text)
	}
	core := strings.TrimFunc(text, unicode.IsSpace)
	if core == "" {
		return text
	}
	start := strings.Index(text, core)
	lead, trail := text[:start], text[start+len(core):]

	out := escapeText(core)
	if styles.Italic {
		out = "*" + out + "*"
	}
	if styles.Bold {
		out = "**" + out + "**"
	}
	if styles.Strike {
		out = "~~" + out + "~~"
	}
	return lead + out + trail
}

func (Emitter) Link(href, inner string) string {
	safe, ok := render.SafeHref(href)
	if !ok {
		return inner
	}
	return "[" + inner + "](" + destination(safe) + ")"
}

func (Emitter) Block(block richtext.Block, inner string, pos render.BlockPosition) string {
	inner = escapeLineStarts(inner)
	switch block.Type {
	case richtext.BlockHeading:
		level := block.Props.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + inner
	case richtext.BlockQuote:
		return "> " + strings.ReplaceAll(inner, "\n", "\n> ")
	case richtext.BlockBulletListItem:
		return "- " + inner
	case richtext.BlockNumberedListItem:
		return strconv.Itoa(pos.Ordinal) + ". " + inner
	default:
		return inner
	}
}

func (Emitter) BlockSeparator() string { return "\n\n" }

func (Emitter) Title(title string) string {
	return "**" + escapeText(strings.TrimSpace(title)) + "**"
}

func (Emitter) Tags(tags []string) string { return render.Hashtags(tags) }

// destination keeps link targets on one token.
func destination(href string) string {
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29").Replace(href)
}
