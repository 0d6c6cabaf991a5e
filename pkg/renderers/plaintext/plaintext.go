// Package plaintext renders descriptions without markup. Styling is
// discarded, links keep only their visible text and blocks are separated by
// CRLF.
package plaintext

import (
	"strconv"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// Emitter implements render.Emitter for plain text.
type Emitter struct{}

var _ render.Emitter = Emitter{}

// New returns the plain text emitter.
func New() Emitter {
	return Emitter{}
}

func (Emitter) Dialect() model.Dialect { return model.DialectPlainText }

func (Emitter) Text(text string, _ richtext.Styles) string { return text }

func (Emitter) Link(_, inner string) string { return inner }

func (Emitter) Block(block richtext.Block, inner string, pos render.BlockPosition) string {
	switch block.Type {
	case richtext.BlockBulletListItem:
		return "- " + inner
	case richtext.BlockNumberedListItem:
		return strconv.Itoa(pos.Ordinal) + ". " + inner
	default:
		return inner
	}
}

func (Emitter) BlockSeparator() string { return "\r\n" }

func (Emitter) Title(title string) string { return title }

func (Emitter) Tags(tags []string) string { return render.Hashtags(tags) }
