package richtext

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BlockType names the kind of a top-level block.
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading          BlockType = "heading"
	BlockBulletListItem   BlockType = "bulletListItem"
	BlockNumberedListItem BlockType = "numberedListItem"
	BlockQuote            BlockType = "quote"
)

// InlineType distinguishes styled text runs from links.
type InlineType string

const (
	InlineText InlineType = "text"
	InlineLink InlineType = "link"
)

// Styles captures the marks applied to a text run. TextColor accepts any CSS
// color token; the empty string and "default" both mean no color.
type Styles struct {
	Bold      bool   `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty" yaml:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty" yaml:"underline,omitempty"`
	Strike    bool   `json:"strike,omitempty" yaml:"strike,omitempty"`
	TextColor string `json:"textColor,omitempty" yaml:"textColor,omitempty"`
}

// Color returns the effective text color, normalising "default" to empty.
func (s Styles) Color() string {
	color := strings.TrimSpace(s.TextColor)
	if strings.EqualFold(color, "default") {
		return ""
	}
	return color
}

// Plain reports whether no mark or color is applied.
func (s Styles) Plain() bool {
	return !s.Bold && !s.Italic && !s.Underline && !s.Strike && s.Color() == ""
}

// Inline is either a text run (Type text) or a link wrapping further text
// runs (Type link). Links never contain links.
type Inline struct {
	Type    InlineType `json:"type" yaml:"type"`
	Text    string     `json:"text,omitempty" yaml:"text,omitempty"`
	Styles  Styles     `json:"styles,omitempty" yaml:"styles,omitempty"`
	Href    string     `json:"href,omitempty" yaml:"href,omitempty"`
	Content []Inline   `json:"content,omitempty" yaml:"content,omitempty"`
}

// BlockProps carries per-block attributes.
type BlockProps struct {
	Level int `json:"level,omitempty" yaml:"level,omitempty"`
}

// Block is a top-level node holding an ordered run of inlines.
type Block struct {
	ID      string     `json:"id,omitempty" yaml:"id,omitempty"`
	Type    BlockType  `json:"type" yaml:"type"`
	Props   BlockProps `json:"props,omitempty" yaml:"props,omitempty"`
	Content []Inline   `json:"content,omitempty" yaml:"content,omitempty"`
}

// Document is an ordered sequence of blocks. The JSON form is the BlockNote
// block array.
type Document []Block

// Text builds a plain text run.
func Text(value string) Inline {
	return Inline{Type: InlineText, Text: value}
}

// StyledText builds a text run with the supplied marks.
func StyledText(value string, styles Styles) Inline {
	return Inline{Type: InlineText, Text: value, Styles: styles}
}

// Link builds a link wrapping the supplied text runs.
func Link(href string, content ...Inline) Inline {
	return Inline{Type: InlineLink, Href: href, Content: content}
}

// Paragraph builds a paragraph block.
func Paragraph(content ...Inline) Block {
	return Block{Type: BlockParagraph, Content: content}
}

// Heading builds a heading block of the given level.
func Heading(level int, content ...Inline) Block {
	return Block{Type: BlockHeading, Props: BlockProps{Level: level}, Content: content}
}

// Empty reports whether the document has no visible text.
func (d Document) Empty() bool {
	return d.TextLength() == 0
}

// Clone returns a deep copy so callers can hand documents across goroutines
// without sharing backing arrays.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, block := range d {
		block.Content = cloneInlines(block.Content)
		out[i] = block
	}
	return out
}

func cloneInlines(in []Inline) []Inline {
	if in == nil {
		return nil
	}
	out := make([]Inline, len(in))
	for i, inline := range in {
		inline.Content = cloneInlines(inline.Content)
		out[i] = inline
	}
	return out
}

// Validate checks the structural invariants: known block and inline types,
// heading levels within 1..6, and links that only wrap text.
func (d Document) Validate() error {
	for i, block := range d {
		switch block.Type {
		case BlockParagraph, BlockBulletListItem, BlockNumberedListItem, BlockQuote:
		case BlockHeading:
			if block.Props.Level < 1 || block.Props.Level > 6 {
				return fmt.Errorf("richtext: block %d: heading level %d out of range", i, block.Props.Level)
			}
		default:
			return fmt.Errorf("richtext: block %d: unknown block type %q", i, block.Type)
		}
		for j, inline := range block.Content {
			if err := validateInline(inline, false); err != nil {
				return fmt.Errorf("richtext: block %d inline %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func validateInline(inline Inline, insideLink bool) error {
	switch inline.Type {
	case InlineText:
		if len(inline.Content) > 0 {
			return fmt.Errorf("text inline cannot hold content")
		}
	case InlineLink:
		if insideLink {
			return fmt.Errorf("links cannot be nested")
		}
		for _, child := range inline.Content {
			if err := validateInline(child, true); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown inline type %q", inline.Type)
	}
	return nil
}

// Parse decodes a BlockNote JSON payload. A JSON null or empty payload yields
// an empty document.
func Parse(data []byte) (Document, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("richtext: decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}
