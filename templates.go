package crosspost

import (
	"embed"
	"io/fs"

	"github.com/crosspost-dev/go-crosspost/pkg/render/template/gotemplate"
	tplrenderer "github.com/crosspost-dev/go-crosspost/pkg/renderers/template"
)

//go:embed templates/descriptions/*.tpl
var embeddedTemplates embed.FS

// EmbeddedTemplates exposes the built-in description templates, keyed by the
// template names the built-in schema table references.
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates/descriptions")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// NewTemplates builds the description template hooks. Templates found in dir
// shadow the embedded ones; an empty dir uses the embedded templates only.
func NewTemplates(dir string, options ...tplrenderer.Option) (*tplrenderer.Renderer, error) {
	engineOptions := []gotemplate.Option{gotemplate.WithFS(EmbeddedTemplates())}
	if dir != "" {
		engineOptions = append([]gotemplate.Option{gotemplate.WithBaseDir(dir)}, engineOptions...)
	}
	engine, err := gotemplate.New(engineOptions...)
	if err != nil {
		return nil, err
	}
	return tplrenderer.New(engine, options...)
}
