package richtext

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var markdownParser = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
	),
).Parser()

// FromMarkdown parses CommonMark (plus strikethrough and bare-URL linkify) into
// a Document. Constructs without a rich-text equivalent degrade to their text:
// code blocks become paragraphs, images keep their alt text, raw HTML and
// thematic breaks are dropped. Nested lists are flattened.
func FromMarkdown(src string) Document {
	source := []byte(src)
	root := markdownParser.Parse(text.NewReader(source))

	doc := Document{}
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		doc = appendMarkdownBlock(doc, node, source, BlockParagraph)
	}
	return doc.Normalize()
}

func appendMarkdownBlock(doc Document, node ast.Node, source []byte, itemType BlockType) Document {
	switch n := node.(type) {
	case *ast.Heading:
		return append(doc, Block{
			Type:    BlockHeading,
			Props:   BlockProps{Level: n.Level},
			Content: markdownInlines(n, source),
		})
	case *ast.Paragraph, *ast.TextBlock:
		return append(doc, Block{Type: itemType, Content: markdownInlines(n, source)})
	case *ast.List:
		childType := BlockBulletListItem
		if n.IsOrdered() {
			childType = BlockNumberedListItem
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			for child := item.FirstChild(); child != nil; child = child.NextSibling() {
				doc = appendMarkdownBlock(doc, child, source, childType)
			}
		}
		return doc
	case *ast.Blockquote:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			doc = appendMarkdownBlock(doc, child, source, BlockQuote)
		}
		return doc
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := node.Lines()
		parts := make([]string, 0, lines.Len())
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			parts = append(parts, strings.TrimRight(string(segment.Value(source)), "\n"))
		}
		return append(doc, Block{Type: itemType, Content: []Inline{Text(strings.Join(parts, "\n"))}})
	default:
		return doc
	}
}

func markdownInlines(node ast.Node, source []byte) []Inline {
	var out []Inline
	collectMarkdownInlines(node, source, Styles{}, &out)
	return out
}

func collectMarkdownInlines(node ast.Node, source []byte, styles Styles, out *[]Inline) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			value := string(n.Segment.Value(source))
			if !n.IsRaw() {
				value = unescapeMarkdown(value)
			}
			switch {
			case n.HardLineBreak():
				value += "\n"
			case n.SoftLineBreak():
				value += " "
			}
			*out = append(*out, StyledText(value, styles))
		case *ast.String:
			*out = append(*out, StyledText(string(n.Value), styles))
		case *ast.Emphasis:
			next := styles
			if n.Level >= 2 {
				next.Bold = true
			} else {
				next.Italic = true
			}
			collectMarkdownInlines(n, source, next, out)
		case *east.Strikethrough:
			next := styles
			next.Strike = true
			collectMarkdownInlines(n, source, next, out)
		case *ast.Link:
			var inner []Inline
			collectMarkdownInlines(n, source, styles, &inner)
			*out = append(*out, Link(string(n.Destination), inner...))
		case *ast.AutoLink:
			url := string(n.URL(source))
			*out = append(*out, Link(url, StyledText(string(n.Label(source)), styles)))
		case *ast.RawHTML:
			continue
		default:
			collectMarkdownInlines(child, source, styles, out)
		}
	}
}

// unescapeMarkdown resolves backslash escapes and entity references in one
// pass. An escaped ampersand never starts a reference.
func unescapeMarkdown(value string) string {
	if !strings.ContainsAny(value, `\&`) {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '\\' && i+1 < len(value) && util.IsPunct(value[i+1]) {
			b.WriteByte(value[i+1])
			i++
			continue
		}
		if c == '&' {
			if end := strings.IndexByte(value[i:], ';'); end > 1 && end <= 32 {
				ref := []byte(value[i : i+end+1])
				resolved := util.ResolveEntityNames(util.ResolveNumericReferences(ref))
				if string(resolved) != string(ref) {
					b.Write(resolved)
					i += end
					continue
				}
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
