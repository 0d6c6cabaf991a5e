// Package template defines the template engine seam used by template-driven
// description renderers, backed by github.com/goliatone/go-template in gotemplate.
package template
