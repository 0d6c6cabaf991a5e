package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
)

// Transformer patches a destination record before it is resolved.
// Implementations receive a private copy and may mutate it freely.
type Transformer interface {
	Transform(ctx context.Context, destination string, options *model.Options) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, destination string, options *model.Options) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, destination string, options *model.Options) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, destination, options)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, destination string, options *model.Options) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, destination, options); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer fills destination records from declarative presets
// loaded from a JSON file. Presets only supply values the record leaves
// unset, so authored content always wins:
//
//	{
//	  "destinations": {
//	    "furaffinity": {"fields": {"category": "artwork"}},
//	    "mastodon": {"contentWarning": "art", "tags": ["art"]}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonPresetDocument
}

type jsonPresetDocument struct {
	Destinations map[string]jsonPreset `json:"destinations"`
}

type jsonPreset struct {
	Title          string         `json:"title"`
	ContentWarning string         `json:"contentWarning"`
	Rating         string         `json:"rating"`
	Tags           []string       `json:"tags"`
	Fields         map[string]any `json:"fields"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonPresetDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	for name, preset := range document.Destinations {
		if _, err := model.ParseRating(preset.Rating); err != nil {
			return nil, fmt.Errorf("json preset transformer: %s: %w", name, err)
		}
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON preset document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the destination's preset, if any.
func (t *JSONPresetTransformer) Transform(ctx context.Context, destination string, options *model.Options) error {
	if options == nil {
		return errors.New("json preset transformer: options are nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	preset, ok := t.document.Destinations[destination]
	if !ok {
		return nil
	}

	if strings.TrimSpace(options.Title) == "" {
		options.Title = preset.Title
	}
	if strings.TrimSpace(options.ContentWarning) == "" {
		options.ContentWarning = preset.ContentWarning
	}
	if options.Rating == "" {
		rating, _ := model.ParseRating(preset.Rating)
		options.Rating = rating
	}
	if len(options.Tags.Tags) == 0 && len(preset.Tags) > 0 {
		options.Tags.Tags = append([]string(nil), preset.Tags...)
	}
	options.Fields = mergeMissing(options.Fields, preset.Fields)
	return nil
}

func mergeMissing(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		if existing, ok := dst[key]; ok && existing != nil {
			continue
		}
		dst[key] = value
	}
	return dst
}
