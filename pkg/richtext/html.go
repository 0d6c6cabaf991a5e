package richtext

import (
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	importPolicyOnce sync.Once
	importPolicy     *bluemonday.Policy
)

func htmlImportPolicy() *bluemonday.Policy {
	importPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements(
			"p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6",
			"ul", "ol", "li", "blockquote",
			"b", "strong", "i", "em", "u", "s", "strike", "del", "span",
		)
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowStandardURLs()
		policy.AllowURLSchemes("http", "https", "mailto")
		importPolicy = policy
	})
	return importPolicy
}

// FromHTML sanitizes an HTML fragment and converts it into a Document.
// Block-level elements start new blocks; b/strong, i/em, u and s/strike/del
// become marks; anchors become links. Anything outside the allow-list is
// stripped before the tree is walked.
func FromHTML(src string) (Document, error) {
	cleaned := htmlImportPolicy().Sanitize(src)
	nodes, err := html.ParseFragment(strings.NewReader(cleaned), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, err
	}

	b := &htmlBuilder{}
	for _, node := range nodes {
		b.walk(node, Styles{}, "")
	}
	b.flush()
	return b.doc.Normalize(), nil
}

type htmlBuilder struct {
	doc     Document
	current *Block
	kind    BlockType
	level   int
}

func (b *htmlBuilder) open(kind BlockType, level int) {
	b.flush()
	b.kind = kind
	b.level = level
}

func (b *htmlBuilder) flush() {
	if b.current != nil && len(b.current.Content) > 0 {
		b.doc = append(b.doc, *b.current)
	}
	b.current = nil
	b.kind = ""
	b.level = 0
}

func (b *htmlBuilder) append(inline Inline) {
	if b.current == nil {
		kind := b.kind
		if kind == "" {
			kind = BlockParagraph
		}
		b.current = &Block{Type: kind}
		if kind == BlockHeading {
			b.current.Props.Level = b.level
		}
	}
	b.current.Content = append(b.current.Content, inline)
}

func (b *htmlBuilder) walk(node *html.Node, styles Styles, listKind string) {
	switch node.Type {
	case html.TextNode:
		value := collapseSpace(node.Data)
		if strings.TrimSpace(value) == "" && b.current == nil {
			return
		}
		b.append(StyledText(value, styles))
		return
	case html.ElementNode:
	default:
		b.walkChildren(node, styles, listKind)
		return
	}

	switch node.DataAtom {
	case atom.P, atom.Div:
		b.open(BlockParagraph, 0)
		b.walkChildren(node, styles, listKind)
		b.flush()
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level, _ := strconv.Atoi(node.Data[1:])
		b.open(BlockHeading, level)
		b.walkChildren(node, styles, listKind)
		b.flush()
	case atom.Ul:
		b.flush()
		b.walkChildren(node, styles, "ul")
	case atom.Ol:
		b.flush()
		b.walkChildren(node, styles, "ol")
	case atom.Li:
		kind := BlockBulletListItem
		if listKind == "ol" {
			kind = BlockNumberedListItem
		}
		b.open(kind, 0)
		b.walkChildren(node, styles, listKind)
		b.flush()
	case atom.Blockquote:
		b.open(BlockQuote, 0)
		b.walkChildren(node, styles, listKind)
		b.flush()
	case atom.Br:
		b.append(StyledText("\n", styles))
	case atom.B, atom.Strong:
		next := styles
		next.Bold = true
		b.walkChildren(node, next, listKind)
	case atom.I, atom.Em:
		next := styles
		next.Italic = true
		b.walkChildren(node, next, listKind)
	case atom.U:
		next := styles
		next.Underline = true
		b.walkChildren(node, next, listKind)
	case atom.S, atom.Strike, atom.Del:
		next := styles
		next.Strike = true
		b.walkChildren(node, next, listKind)
	case atom.A:
		link := Link(attr(node, "href"))
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			link.Content = append(link.Content, linkText(child, styles)...)
		}
		b.append(link)
	default:
		b.walkChildren(node, styles, listKind)
	}
}

func (b *htmlBuilder) walkChildren(node *html.Node, styles Styles, listKind string) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.walk(child, styles, listKind)
	}
}

// linkText flattens an anchor's subtree into styled text runs.
func linkText(node *html.Node, styles Styles) []Inline {
	if node.Type == html.TextNode {
		return []Inline{StyledText(collapseSpace(node.Data), styles)}
	}
	next := styles
	switch node.DataAtom {
	case atom.B, atom.Strong:
		next.Bold = true
	case atom.I, atom.Em:
		next.Italic = true
	case atom.U:
		next.Underline = true
	case atom.S, atom.Strike, atom.Del:
		next.Strike = true
	}
	var out []Inline
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, linkText(child, next)...)
	}
	return out
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(value string) string {
	if value == "" {
		return ""
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(value[0]) {
		out = " " + out
	}
	if isSpace(value[len(value)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}
