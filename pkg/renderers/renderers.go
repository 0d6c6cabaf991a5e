// Package renderers wires the built-in dialect emitters into a registry.
package renderers

import (
	"github.com/crosspost-dev/go-crosspost/pkg/render"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers/bbcode"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers/html"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers/markdown"
	"github.com/crosspost-dev/go-crosspost/pkg/renderers/plaintext"
)

// NewRegistry returns a registry with the plaintext, HTML, Markdown and
// BBCode emitters.
func NewRegistry() *render.Registry {
	reg := render.NewRegistry()
	reg.MustRegister(plaintext.New())
	reg.MustRegister(html.New())
	reg.MustRegister(markdown.New())
	reg.MustRegister(bbcode.New())
	return reg
}
