package model

import (
	"fmt"
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// Canonical field names of the base options schema.
const (
	FieldTitle          = "title"
	FieldContentWarning = "contentWarning"
	FieldTags           = "tags"
	FieldDescription    = "description"
	FieldRating         = "rating"
)

// Rating is the submission content rating. The empty value means undefined.
type Rating string

const (
	RatingGeneral Rating = "general"
	RatingMature  Rating = "mature"
	RatingAdult   Rating = "adult"
	RatingExtreme Rating = "extreme"
)

// ParseRating validates a rating string. Empty input yields the undefined
// rating.
func ParseRating(raw string) (Rating, error) {
	switch Rating(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", nil
	case RatingGeneral:
		return RatingGeneral, nil
	case RatingMature:
		return RatingMature, nil
	case RatingAdult:
		return RatingAdult, nil
	case RatingExtreme:
		return RatingExtreme, nil
	default:
		return "", fmt.Errorf("model: unknown rating %q", raw)
	}
}

// TagSetting holds the authored tags for one record. Duplicates are allowed
// before resolution.
type TagSetting struct {
	OverrideDefault bool     `json:"overrideDefault" yaml:"overrideDefault"`
	Tags            []string `json:"tags" yaml:"tags"`
}

// DescriptionSetting holds the authored description document and whether the
// resolved title and tags should be inserted around it.
type DescriptionSetting struct {
	OverrideDefault bool              `json:"overrideDefault" yaml:"overrideDefault"`
	Document        richtext.Document `json:"description" yaml:"description"`
	InsertTitle     bool              `json:"insertTitle" yaml:"insertTitle"`
	InsertTags      bool              `json:"insertTags" yaml:"insertTags"`
}

// Options is the keyed set of field values for the shared default record or
// for one destination. Fields carries destination-specific scalar, boolean
// and choice values not covered by the base schema.
type Options struct {
	Title          string             `json:"title" yaml:"title"`
	ContentWarning string             `json:"contentWarning,omitempty" yaml:"contentWarning,omitempty"`
	Tags           TagSetting         `json:"tags" yaml:"tags"`
	Description    DescriptionSetting `json:"description" yaml:"description"`
	Rating         Rating             `json:"rating,omitempty" yaml:"rating,omitempty"`
	Fields         map[string]any     `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Clone returns a deep copy of the record. Values inside Fields are copied
// shallowly; they are expected to be scalars.
func (o Options) Clone() Options {
	out := o
	out.Tags.Tags = cloneStrings(o.Tags.Tags)
	out.Description.Document = o.Description.Document.Clone()
	if o.Fields != nil {
		out.Fields = make(map[string]any, len(o.Fields))
		for key, value := range o.Fields {
			out.Fields[key] = value
		}
	}
	return out
}

// Text returns the string value of a text field, looking at the base fields
// first and then at Fields.
func (o Options) Text(name string) (string, bool) {
	switch name {
	case FieldTitle:
		return o.Title, true
	case FieldContentWarning:
		return o.ContentWarning, true
	}
	if o.Fields == nil {
		return "", false
	}
	value, ok := o.Fields[name].(string)
	return value, ok
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
