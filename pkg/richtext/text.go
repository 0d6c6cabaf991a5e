package richtext

import (
	"strings"
	"unicode/utf8"
)

// TextLength counts the visible runes across every block. Markup, hrefs and
// block separators are not counted.
func (d Document) TextLength() int {
	total := 0
	for _, block := range d {
		total += inlinesLength(block.Content)
	}
	return total
}

func inlinesLength(inlines []Inline) int {
	total := 0
	for _, inline := range inlines {
		switch inline.Type {
		case InlineLink:
			total += inlinesLength(inline.Content)
		default:
			total += utf8.RuneCountInString(inline.Text)
		}
	}
	return total
}

// TruncateText keeps the first n visible runes. Blocks and inlines after the
// cut are dropped; markup is never split because the cut happens on the tree,
// not on rendered output. The receiver is not modified.
func (d Document) TruncateText(n int) Document {
	if n <= 0 {
		return Document{}
	}
	if d.TextLength() <= n {
		return d.Clone()
	}

	out := make(Document, 0, len(d))
	remaining := n
	for _, block := range d {
		if remaining <= 0 {
			break
		}
		length := inlinesLength(block.Content)
		if length <= remaining {
			block.Content = cloneInlines(block.Content)
			out = append(out, block)
			remaining -= length
			continue
		}
		block.Content, _ = truncateInlines(block.Content, remaining)
		out = append(out, block)
		remaining = 0
	}
	return out
}

func truncateInlines(inlines []Inline, budget int) ([]Inline, int) {
	out := make([]Inline, 0, len(inlines))
	for _, inline := range inlines {
		if budget <= 0 {
			break
		}
		switch inline.Type {
		case InlineLink:
			var children []Inline
			children, budget = truncateInlines(inline.Content, budget)
			if len(children) == 0 {
				continue
			}
			inline.Content = children
			out = append(out, inline)
		default:
			count := utf8.RuneCountInString(inline.Text)
			if count > budget {
				inline.Text = cutRunes(inline.Text, budget)
				count = budget
			}
			budget -= count
			if inline.Text == "" {
				continue
			}
			out = append(out, inline)
		}
	}
	return out, budget
}

func cutRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// PlainText flattens the document into text, one line per block.
func (d Document) PlainText() string {
	lines := make([]string, 0, len(d))
	for _, block := range d {
		lines = append(lines, inlinesText(block.Content))
	}
	return strings.Join(lines, "\n")
}

func inlinesText(inlines []Inline) string {
	var b strings.Builder
	for _, inline := range inlines {
		if inline.Type == InlineLink {
			b.WriteString(inlinesText(inline.Content))
			continue
		}
		b.WriteString(inline.Text)
	}
	return b.String()
}

// Normalize merges adjacent text runs sharing the same styles and drops empty
// runs and empty links. Block order and boundaries are preserved.
func (d Document) Normalize() Document {
	out := make(Document, len(d))
	for i, block := range d {
		block.Content = normalizeInlines(block.Content)
		out[i] = block
	}
	return out
}

func normalizeInlines(inlines []Inline) []Inline {
	out := make([]Inline, 0, len(inlines))
	for _, inline := range inlines {
		switch inline.Type {
		case InlineLink:
			inline.Content = normalizeInlines(inline.Content)
			if len(inline.Content) == 0 {
				continue
			}
			out = append(out, inline)
		default:
			if inline.Text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Type == InlineText && out[n-1].Styles == inline.Styles {
				out[n-1].Text += inline.Text
				continue
			}
			out = append(out, inline)
		}
	}
	return out
}
