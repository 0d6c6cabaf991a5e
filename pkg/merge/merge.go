// Package merge combines the shared default options record with one
// destination's options record. Every fallback rule lives here, keyed by
// field kind, so resolvers never re-implement default handling.
package merge

import (
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/schema"
)

// Options merges defaults with destination and returns a new record. Inputs
// are never mutated. kinds describes the extra fields carried in
// Options.Fields; fields without a known kind follow the pass-through rule.
func Options(defaults, destination model.Options, kinds map[string]schema.FieldKind) model.Options {
	return model.Options{
		Title:          Text(defaults.Title, destination.Title),
		ContentWarning: Text(defaults.ContentWarning, destination.ContentWarning),
		Tags:           Tags(defaults.Tags, destination.Tags),
		Description:    Description(defaults.Description, destination.Description),
		Rating:         Rating(defaults.Rating, destination.Rating),
		Fields:         Fields(defaults.Fields, destination.Fields, kinds),
	}
}

// Text returns the destination value when it is non-empty after trimming,
// otherwise the trimmed default.
func Text(defaults, destination string) string {
	if trimmed := strings.TrimSpace(destination); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(defaults)
}

// Rating prefers the destination rating when set.
func Rating(defaults, destination model.Rating) model.Rating {
	if destination != "" {
		return destination
	}
	return defaults
}

// Tags applies the override-or-concatenate policy.
func Tags(defaults, destination model.TagSetting) model.TagSetting {
	if destination.OverrideDefault {
		return model.TagSetting{
			OverrideDefault: true,
			Tags:            append([]string{}, destination.Tags...),
		}
	}
	tags := make([]string, 0, len(defaults.Tags)+len(destination.Tags))
	tags = append(tags, defaults.Tags...)
	tags = append(tags, destination.Tags...)
	return model.TagSetting{Tags: tags}
}

// Description keeps the destination document and its insert flags only when
// the destination overrides; otherwise the default setting is used whole.
func Description(defaults, destination model.DescriptionSetting) model.DescriptionSetting {
	if destination.OverrideDefault {
		return model.DescriptionSetting{
			OverrideDefault: true,
			Document:        destination.Document.Clone(),
			InsertTitle:     destination.InsertTitle,
			InsertTags:      destination.InsertTags,
		}
	}
	return model.DescriptionSetting{
		Document:    defaults.Document.Clone(),
		InsertTitle: defaults.InsertTitle,
		InsertTags:  defaults.InsertTags,
	}
}

// Fields unions the extra fields of both records. Text-kind values use the
// Text policy; everything else takes the destination value when it declares
// a non-nil one.
func Fields(defaults, destination map[string]any, kinds map[string]schema.FieldKind) map[string]any {
	if len(defaults) == 0 && len(destination) == 0 {
		return nil
	}
	out := make(map[string]any, len(defaults)+len(destination))
	for key, value := range defaults {
		out[key] = value
	}
	for key, value := range destination {
		if value == nil {
			continue
		}
		out[key] = value
	}

	for key, kind := range kinds {
		if kind != schema.KindText {
			continue
		}
		def, _ := defaults[key].(string)
		dest, _ := destination[key].(string)
		_, inDefaults := defaults[key]
		_, inDestination := destination[key]
		if !inDefaults && !inDestination {
			continue
		}
		out[key] = Text(def, dest)
	}
	return out
}
