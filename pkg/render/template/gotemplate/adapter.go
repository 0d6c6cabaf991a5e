// Package gotemplate builds template.TemplateRenderer engines on
// github.com/goliatone/go-template, loading templates from a directory or an
// fs.FS and registering the description filters.
package gotemplate

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/crosspost-dev/go-crosspost/pkg/render/template"
)

// Engine is the go-template engine. Templates are pongo2 and parsed
// templates are cached by path.
type Engine = gotemplatepkg.Engine

var _ template.TemplateRenderer = (*Engine)(nil)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	globalData map[string]any
	extra      []gotemplatepkg.Option
}

// WithBaseDir loads templates from a directory on disk. It is consulted
// before the fs.FS when both are set.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the ".tpl" extension appended to template names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(ext); trimmed != "" {
			cfg.extension = trimmed
		}
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithGoTemplateOptions passes options straight to the go-template engine.
// They apply after the options above.
func WithGoTemplateOptions(opts ...gotemplatepkg.Option) Option {
	return func(cfg *config) {
		cfg.extra = append(cfg.extra, opts...)
	}
}

// New constructs an Engine. At least one of WithBaseDir or WithFS is
// required. The hashtags filter is always available.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	opts := []gotemplatepkg.Option{
		gotemplatepkg.WithTemplateFunc(map[string]any{
			"hashtags": filterHashtags,
		}),
	}
	if cfg.baseDir != "" {
		opts = append(opts, gotemplatepkg.WithBaseDir(cfg.baseDir))
	}
	if cfg.templates != nil {
		opts = append(opts, gotemplatepkg.WithFS(cfg.templates))
	}
	if cfg.extension != "" {
		opts = append(opts, gotemplatepkg.WithExtension(cfg.extension))
	}
	if len(cfg.globalData) > 0 {
		opts = append(opts, gotemplatepkg.WithGlobalData(cfg.globalData))
	}
	opts = append(opts, cfg.extra...)

	engine, err := gotemplatepkg.NewRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: %w", err)
	}
	return engine, nil
}

// filterHashtags joins a list of tags as "#a #b".
func filterHashtags(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var tags []string
	in.Iterate(func(_, _ int, key, _ *pongo2.Value) bool {
		tag := strings.TrimSpace(key.String())
		if tag == "" {
			return true
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
		return true
	}, func() {})
	return pongo2.AsValue(strings.Join(tags, " ")), nil
}
