package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// Dialect names the markup format a destination accepts for descriptions.
type Dialect string

const (
	DialectPlainText Dialect = "plaintext"
	DialectHTML      Dialect = "html"
	DialectMarkdown  Dialect = "markdown"
	DialectBBCode    Dialect = "bbcode"
	DialectCustom    Dialect = "custom"
	DialectRuntime   Dialect = "runtime"
	DialectNone      Dialect = "none"
)

// Dialects lists every recognised dialect.
var Dialects = []Dialect{
	DialectPlainText,
	DialectHTML,
	DialectMarkdown,
	DialectBBCode,
	DialectCustom,
	DialectRuntime,
	DialectNone,
}

// ParseDialect validates a dialect name case-insensitively.
func ParseDialect(raw string) (Dialect, error) {
	candidate := Dialect(strings.ToLower(strings.TrimSpace(raw)))
	for _, dialect := range Dialects {
		if candidate == dialect {
			return dialect, nil
		}
	}
	return "", fmt.Errorf("model: unknown description dialect %q", raw)
}

// Delegated reports whether rendering is handed to a destination hook.
func (d Dialect) Delegated() bool {
	return d == DialectCustom || d == DialectRuntime
}

// DescriptionInput is what a destination-supplied renderer receives. The
// engine does not insert the title or tags for delegated dialects; the hook
// decides how to honour InsertTitle and InsertTags.
type DescriptionInput struct {
	Destination string
	Document    richtext.Document
	Title       string
	Tags        []string
	InsertTitle bool
	InsertTags  bool
}

// DescriptionRenderer renders descriptions for custom and runtime dialects.
type DescriptionRenderer interface {
	RenderDescription(ctx context.Context, input DescriptionInput) (string, error)
}

// DescriptionRendererFunc adapts a function into a DescriptionRenderer.
type DescriptionRendererFunc func(ctx context.Context, input DescriptionInput) (string, error)

// RenderDescription calls the underlying function.
func (fn DescriptionRendererFunc) RenderDescription(ctx context.Context, input DescriptionInput) (string, error) {
	return fn(ctx, input)
}

// Capability is the already-computed descriptor of what a destination
// supports. It is plain data passed into every resolver.
type Capability struct {
	Destination         string
	TagsSupported       bool
	MaxTags             *int
	TagTransform        func(string) string
	DescriptionDialect  Dialect
	DescriptionRenderer DescriptionRenderer
}
